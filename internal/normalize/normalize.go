// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes bibliographic text for equality checks.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// spaceRunRe matches a run of whitespace that ends in a plain space. The
// class covers Unicode whitespace and the ASCII separators \x1c-\x1f, not
// just RE2's ASCII \s.
var spaceRunRe = regexp.MustCompile(`[\s\v\x1c-\x1f\x85\p{Z}]* `)

var markupReplacer = strings.NewReplacer(
	"{", "",
	"}", "",
	"\n", "",
	"\r", "",
)

// Normalize returns the canonical form of text: brace markup and line
// breaks removed, lowercased, whitespace runs collapsed to one space and
// trimmed. It is a plain byte/rune transform without locale folding. The
// empty string normalizes to itself.
func Normalize(text string) string {
	text = markupReplacer.Replace(text)
	text = strings.ToLower(text)
	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimFunc(text, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.In(r, unicode.Z) || (r >= 0x1c && r <= 0x1f)
}

// Equivalent reports whether a and b normalize to the same text.
func Equivalent(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
