// Package bibtex reads BibTeX databases and normalizes entries into
// canonical citation items.
package bibtex

import (
	"fmt"
	"strings"
	"unicode"
)

// Entry is one raw parsed BibTeX record. Fields holds the source field
// values with lower-cased names and outer value delimiters removed;
// braces inside values are preserved for the normalizer to strip.
type Entry struct {
	Type   string
	Key    string
	Fields map[string]string
}

// Parse scans a BibTeX database into raw entries in file order.
// @string abbreviations are substituted into bare-word values, @comment
// and @preamble blocks are skipped, and free text between entries is
// ignored. Duplicate cite keys are kept as separate entries so the
// duplicate-key diagnostic can see them.
func Parse(data string) ([]Entry, error) {
	p := &parser{src: data, strings: map[string]string{}}
	var entries []Entry

	for {
		if !p.seek('@') {
			return entries, nil
		}
		p.pos++ // consume '@'
		kind := strings.ToLower(p.readName())
		if kind == "" {
			continue
		}

		switch kind {
		case "comment", "preamble":
			if err := p.skipBlock(); err != nil {
				return entries, err
			}
		case "string":
			if err := p.readStringDef(); err != nil {
				return entries, err
			}
		default:
			entry, err := p.readEntry(kind)
			if err != nil {
				return entries, err
			}
			entries = append(entries, entry)
		}
	}
}

type parser struct {
	src     string
	pos     int
	strings map[string]string // @string abbreviations
}

// seek advances to the next occurrence of c, returning false at EOF.
func (p *parser) seek(c byte) bool {
	for p.pos < len(p.src) {
		if p.src[p.pos] == c {
			return true
		}
		p.pos++
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

// readName reads an identifier (entry type or field name).
func (p *parser) readName() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '{' || c == '(' || c == '=' || c == ',' || c == '}' || c == '#' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

// open consumes the block opener and returns its matching closer.
func (p *parser) open() (byte, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0, fmt.Errorf("unexpected end of input at offset %d", p.pos)
	}
	switch p.src[p.pos] {
	case '{':
		p.pos++
		return '}', nil
	case '(':
		p.pos++
		return ')', nil
	}
	return 0, fmt.Errorf("expected '{' at offset %d", p.pos)
}

// skipBlock consumes a balanced block (for @comment/@preamble).
func (p *parser) skipBlock() error {
	closer, err := p.open()
	if err != nil {
		return err
	}
	opener := byte('{')
	if closer == ')' {
		opener = '('
	}
	depth := 1
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case opener:
			depth++
		case closer:
			depth--
		}
		p.pos++
		if depth == 0 {
			return nil
		}
	}
	return fmt.Errorf("unterminated block")
}

// readStringDef parses @string{name = value}.
func (p *parser) readStringDef() error {
	closer, err := p.open()
	if err != nil {
		return err
	}
	name := strings.ToLower(p.readName())
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '=' {
		p.pos++
		value, err := p.readValue()
		if err != nil {
			return err
		}
		p.strings[name] = value
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == closer {
		p.pos++
	}
	return nil
}

// readEntry parses @type{key, field = value, ...}.
func (p *parser) readEntry(kind string) (Entry, error) {
	entry := Entry{Type: kind, Fields: map[string]string{}}

	closer, err := p.open()
	if err != nil {
		return entry, err
	}

	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != closer {
		p.pos++
	}
	entry.Key = strings.TrimSpace(p.src[start:p.pos])
	if entry.Key == "" {
		return entry, fmt.Errorf("entry @%s has no cite key", kind)
	}

	for p.pos < len(p.src) {
		if p.src[p.pos] == closer {
			p.pos++
			return entry, nil
		}
		p.pos++ // consume ',' separator
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == closer {
			p.pos++
			return entry, nil
		}

		name := strings.ToLower(p.readName())
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '=' {
			return entry, fmt.Errorf("entry %q: expected '=' after field %q", entry.Key, name)
		}
		p.pos++
		value, err := p.readValue()
		if err != nil {
			return entry, fmt.Errorf("entry %q: field %q: %w", entry.Key, name, err)
		}
		if name != "" {
			entry.Fields[name] = value
		}
		p.skipSpace()
	}
	return entry, fmt.Errorf("entry %q: unterminated", entry.Key)
}

// readValue reads a field value: a brace-balanced {...} group, a quoted
// string, or a bare word (number or @string abbreviation). Parts joined
// with '#' are concatenated.
func (p *parser) readValue() (string, error) {
	var out strings.Builder
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return "", fmt.Errorf("unexpected end of value")
		}
		switch p.src[p.pos] {
		case '{':
			part, err := p.readBraced()
			if err != nil {
				return "", err
			}
			out.WriteString(part)
		case '"':
			part, err := p.readQuoted()
			if err != nil {
				return "", err
			}
			out.WriteString(part)
		default:
			word := p.readName()
			if word == "" {
				return "", fmt.Errorf("empty value")
			}
			if sub, ok := p.strings[strings.ToLower(word)]; ok {
				out.WriteString(sub)
			} else {
				out.WriteString(word)
			}
		}
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '#' {
			p.pos++
			continue
		}
		return out.String(), nil
	}
}

// readBraced reads {...} with balanced inner braces, returning the
// content without the outer pair.
func (p *parser) readBraced() (string, error) {
	p.pos++ // consume '{'
	start := p.pos
	depth := 1
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return collapseSpace(value), nil
			}
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated braced value")
}

// readQuoted reads "..." where braces protect inner quotes.
func (p *parser) readQuoted() (string, error) {
	p.pos++ // consume '"'
	start := p.pos
	depth := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return collapseSpace(value), nil
			}
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated quoted value")
}

// collapseSpace folds runs of whitespace (including newlines in wrapped
// field values) into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
