// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"strings"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// recordAliases writes each primary's alias keys, comma-joined in
// registration order, into the record's ids field.
func (m *merger) recordAliases() error {
	for _, primary := range m.order {
		ids := m.aliases[primary]
		if len(ids) == 0 {
			continue
		}
		rec := m.records[primary]
		if rec.Get(types.FieldIDs) != "" {
			return types.NewConsistencyError(types.ViolationAliasFieldSet, primary)
		}
		for _, id := range ids {
			if id == primary {
				return types.NewConsistencyError(types.ViolationSelfAlias, primary)
			}
		}
		if rec.ID != primary {
			return types.NewConsistencyError(types.ViolationIDMismatch, primary, rec.ID)
		}
		rec.Set(types.FieldIDs, strings.Join(ids, ","))
		m.records[primary] = rec
	}
	return nil
}
