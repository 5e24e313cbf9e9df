package bibtex

import (
	"strings"
)

// stripBraces removes every { and } character. This is literal character
// removal, not balanced-brace parsing: nested or unmatched braces all
// collapse to nothing.
func stripBraces(s string) string {
	s = strings.ReplaceAll(s, "{", "")
	return strings.ReplaceAll(s, "}", "")
}

// field returns the brace-stripped value of a single source field, or ""
// when absent.
func (e Entry) field(name string) string {
	return stripBraces(e.Fields[name])
}

// fieldFrom returns the brace-stripped value of the first present field
// in the candidate list, or "" when none is present.
func (e Entry) fieldFrom(names ...string) string {
	for _, name := range names {
		if v, ok := e.Fields[name]; ok {
			return stripBraces(v)
		}
	}
	return ""
}

// ParseAuthors splits a raw BibTeX author field into per-author name
// components with the family name first. "Last, First" entries split on
// the comma; "First Last" entries are reordered so the last word leads.
func ParseAuthors(raw string) [][]string {
	raw = stripBraces(raw)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var authors [][]string
	for _, name := range strings.Split(raw, " and ") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.Contains(name, ",") {
			var parts []string
			for _, p := range strings.Split(name, ",") {
				parts = append(parts, strings.TrimSpace(p))
			}
			authors = append(authors, parts)
			continue
		}
		words := strings.Fields(name)
		if len(words) == 1 {
			authors = append(authors, words)
			continue
		}
		family := words[len(words)-1]
		given := strings.Join(words[:len(words)-1], " ")
		authors = append(authors, []string{family, given})
	}
	return authors
}

// FormatAuthor renders an author list for display. Each author is its
// comma-split name components with the family name first. Beyond
// etAlLimit authors the list collapses to "Family et al.". Multi-author
// lists use only the family name of each author; that simplification is
// intentional.
func FormatAuthor(authors [][]string, etAlLimit int) string {
	if len(authors) == 0 {
		return ""
	}
	if len(authors) > etAlLimit {
		return authors[0][0] + " et al."
	}
	if len(authors) > 2 {
		var b strings.Builder
		for _, author := range authors[:len(authors)-1] {
			b.WriteString(author[0])
			b.WriteString(", ")
		}
		b.WriteString("& ")
		b.WriteString(authors[len(authors)-1][0])
		return b.String()
	}
	if len(authors) == 2 {
		return authors[0][0] + " & " + authors[1][0]
	}
	return strings.Join(authors[0], ", ")
}

// YearFromDate scans a free-form date string for the first token of
// exactly four digits, splitting on spaces, hyphens and slashes. Returns
// "" when no such token exists.
func YearFromDate(date string) string {
	for _, token := range strings.FieldsFunc(date, func(r rune) bool {
		return r == ' ' || r == '-' || r == '/'
	}) {
		if len(token) == 4 && isDigits(token) {
			return token
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// formatDate prefers a year field verbatim (brace-stripped, not
// validated), falling back to a 4-digit year scan of the date field.
func (e Entry) formatDate() string {
	if _, ok := e.Fields["year"]; ok {
		return e.field("year")
	}
	if _, ok := e.Fields["date"]; ok {
		return YearFromDate(e.field("date"))
	}
	return ""
}

// attachmentPDFMime marks PDF attachments in Zotero-style file fields.
const attachmentPDFMime = "application/pdf"

// formatFile returns the path of the first PDF attachment in the file
// field. Each ;-separated attachment is path:location:mimetype; colons
// inside paths misparse, an accepted limitation of the field format.
func (e Entry) formatFile() string {
	for _, attachment := range strings.Split(e.Fields["file"], ";") {
		details := strings.Split(attachment, ":")
		if len(details) > 2 && details[2] == attachmentPDFMime {
			return details[1]
		}
	}
	return ""
}

// formatURL returns the url field verbatim when present, else the path
// of the first non-PDF attachment in the file field.
func (e Entry) formatURL() string {
	if url, ok := e.Fields["url"]; ok {
		return url
	}
	for _, attachment := range strings.Split(e.Fields["file"], ";") {
		details := strings.Split(attachment, ":")
		if len(details) > 2 && details[2] != attachmentPDFMime {
			return details[1]
		}
	}
	return ""
}
