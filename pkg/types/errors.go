// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConsistency is matched by every *ConsistencyError through errors.Is.
var ErrConsistency = errors.New("consistency violation")

// ViolationKind names the invariant a ConsistencyError reports.
type ViolationKind string

const (
	// ViolationAmbiguousMatch: more than one existing record matched a new key.
	ViolationAmbiguousMatch ViolationKind = "ambiguous-match"

	// ViolationDuplicateAlias: a key was registered as an alias twice.
	ViolationDuplicateAlias ViolationKind = "duplicate-alias"

	// ViolationAliasFieldSet: the ids field of a record with aliases was
	// already populated.
	ViolationAliasFieldSet ViolationKind = "alias-field-set"

	// ViolationSelfAlias: a primary key appeared in its own alias set.
	ViolationSelfAlias ViolationKind = "self-alias"

	// ViolationIDMismatch: a merged record's ID differs from its primary key.
	ViolationIDMismatch ViolationKind = "id-mismatch"

	// ViolationSelfMatch: a record was compared against its own key.
	ViolationSelfMatch ViolationKind = "self-match"

	// ViolationDuplicateKeyInSource: one source holds the same key twice.
	ViolationDuplicateKeyInSource ViolationKind = "duplicate-key-in-source"
)

// ConsistencyError reports broken data or merge invariants. These are not
// recoverable: the merge stops and the caller decides how to report it.
type ConsistencyError struct {
	Kind ViolationKind
	Keys []string

	// Source names the record source involved, when known.
	Source string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	msg := fmt.Sprintf("consistency violation (%s) for keys [%s]", e.Kind, strings.Join(e.Keys, ", "))
	if e.Source != "" {
		msg += " in " + e.Source
	}
	return msg
}

// Is implements errors.Is support.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// NewConsistencyError creates a ConsistencyError for the given keys.
func NewConsistencyError(kind ViolationKind, keys ...string) *ConsistencyError {
	return &ConsistencyError{Kind: kind, Keys: keys}
}
