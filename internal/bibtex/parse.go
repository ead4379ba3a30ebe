// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex reads and writes BibTeX entries.
//
// Values are kept as raw text: a braced or quoted value is stored without
// its outer delimiters, with inner braces and line breaks untouched. String
// macros are not expanded; bare names and # concatenations are stored
// verbatim and marked Bare. @comment, @preamble and @string blocks are
// skipped, as is any text between entries.
package bibtex

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// SyntaxError reports malformed BibTeX input.
type SyntaxError struct {
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bibtex: line %d: %s", e.Line, e.Msg)
}

// Parse reads all entries from r in input order. Field names are preserved
// verbatim; entry types are lowercased. Duplicate keys are returned as-is;
// callers decide whether they are allowed.
func Parse(r io.Reader) ([]types.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibtex: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses BibTeX from a string.
func ParseString(s string) ([]types.Record, error) {
	p := &parser{src: s, line: 1}
	var records []types.Record
	for {
		if !p.skipTo('@') {
			return records, nil
		}
		p.advance()
		rec, ok, err := p.block()
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}
}

type parser struct {
	src  string
	pos  int
	line int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() {
	if p.src[p.pos] == '\n' {
		p.line++
	}
	p.pos++
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

// skipTo moves to the next occurrence of c and reports whether it was found.
func (p *parser) skipTo(c byte) bool {
	for !p.eof() {
		if p.peek() == c {
			return true
		}
		p.advance()
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.advance()
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// ident reads a run of characters up to whitespace or any of stop.
func (p *parser) ident(stop string) string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isSpace(c) || strings.IndexByte(stop, c) >= 0 {
			break
		}
		p.advance()
	}
	return p.src[start:p.pos]
}

// block parses what follows an '@'. It reports ok=false for blocks that do
// not produce a record.
func (p *parser) block() (types.Record, bool, error) {
	startLine := p.line
	p.skipSpace()
	typ := strings.ToLower(p.ident("{(,=#\"}@"))
	if typ == "" {
		return types.Record{}, false, nil
	}
	p.skipSpace()

	var closing byte
	switch p.peek() {
	case '{':
		closing = '}'
	case '(':
		closing = ')'
	default:
		// A stray '@' in free text, such as an e-mail address or a
		// one-line @comment.
		return types.Record{}, false, nil
	}

	switch typ {
	case "comment", "preamble", "string":
		if err := p.skipBalanced(); err != nil {
			return types.Record{}, false, err
		}
		return types.Record{}, false, nil
	}
	p.advance()

	p.skipSpace()
	key := strings.TrimSpace(p.ident(",}" + string(closing)))
	if key == "" {
		return types.Record{}, false, p.errorf("@%s entry without a key", typ)
	}
	rec := types.Record{ID: key, Type: typ}

	p.skipSpace()
	switch p.peek() {
	case closing:
		p.advance()
		return rec, true, nil
	case ',':
		p.advance()
	default:
		return types.Record{}, false, p.errorf("expected , after key %q", key)
	}

	for {
		p.skipSpace()
		if p.eof() {
			return types.Record{}, false, &SyntaxError{Line: startLine, Msg: fmt.Sprintf("unterminated entry %q", key)}
		}
		if p.peek() == closing {
			p.advance()
			return rec, true, nil
		}

		name := p.ident("=,{}()\"#")
		if name == "" {
			return types.Record{}, false, p.errorf("expected field name in entry %q", key)
		}
		p.skipSpace()
		if p.peek() != '=' {
			return types.Record{}, false, p.errorf("expected = after field %q in entry %q", name, key)
		}
		p.advance()
		p.skipSpace()

		field, err := p.value(closing)
		if err != nil {
			return types.Record{}, false, err
		}
		field.Name = name
		rec.Fields = append(rec.Fields, field)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.advance()
		case closing:
			p.advance()
			return rec, true, nil
		default:
			if p.eof() {
				return types.Record{}, false, &SyntaxError{Line: startLine, Msg: fmt.Sprintf("unterminated entry %q", key)}
			}
			return types.Record{}, false, p.errorf("unexpected %q after field %q in entry %q", p.peek(), name, key)
		}
	}
}

// value parses a field value: one or more parts joined by '#'.
func (p *parser) value(closing byte) (types.Field, error) {
	start := p.pos
	var parts []types.Field
	for {
		part, err := p.part(closing)
		if err != nil {
			return types.Field{}, err
		}
		parts = append(parts, part)
		end := p.pos
		p.skipSpace()
		if p.peek() != '#' {
			if len(parts) == 1 {
				return parts[0], nil
			}
			return types.Field{Value: strings.TrimSpace(p.src[start:end]), Bare: true}, nil
		}
		p.advance()
		p.skipSpace()
	}
}

func (p *parser) part(closing byte) (types.Field, error) {
	switch p.peek() {
	case '{':
		inner, err := p.braced()
		return types.Field{Value: inner}, err
	case '"':
		inner, err := p.quoted()
		return types.Field{Value: inner}, err
	}
	tok := p.ident(",#" + string(closing))
	if tok == "" {
		return types.Field{}, p.errorf("missing value")
	}
	return types.Field{Value: tok, Bare: !isNumber(tok)}, nil
}

// braced reads a {...} group and returns its content without the outer
// braces.
func (p *parser) braced() (string, error) {
	startLine := p.line
	p.advance()
	start := p.pos
	depth := 1
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				inner := p.src[start:p.pos]
				p.advance()
				return inner, nil
			}
		}
		p.advance()
	}
	return "", &SyntaxError{Line: startLine, Msg: "unbalanced braces"}
}

// quoted reads a "..." string. Quotes inside braces do not terminate it.
func (p *parser) quoted() (string, error) {
	startLine := p.line
	p.advance()
	start := p.pos
	depth := 0
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				inner := p.src[start:p.pos]
				p.advance()
				return inner, nil
			}
		}
		p.advance()
	}
	return "", &SyntaxError{Line: startLine, Msg: "unterminated quoted value"}
}

// skipBalanced skips a block opened by '{' or '(' at the current position.
func (p *parser) skipBalanced() error {
	startLine := p.line
	open := p.peek()
	closing := byte('}')
	if open == '(' {
		closing = ')'
	}
	depth := 0
	for !p.eof() {
		switch p.peek() {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				p.advance()
				return nil
			}
		}
		p.advance()
	}
	return &SyntaxError{Line: startLine, Msg: "unterminated block"}
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
