package bibtex

import (
	"testing"
)

func TestFormatAuthor(t *testing.T) {
	tests := []struct {
		name    string
		authors [][]string
		limit   int
		want    string
	}{
		{"empty list", nil, 5, ""},
		{"single author keeps full name", [][]string{{"Smith", "J"}}, 5, "Smith, J"},
		{"two authors", [][]string{{"Smith", "J"}, {"Doe", "A"}}, 5, "Smith & Doe"},
		{"three authors", [][]string{{"Smith", "J"}, {"Doe", "A"}, {"Crow", "B"}}, 5, "Smith, Doe, & Crow"},
		{"over et al limit", [][]string{{"Smith"}, {"Doe"}, {"Crow"}, {"Finch"}}, 3, "Smith et al."},
		{"at et al limit stays expanded", [][]string{{"Smith"}, {"Doe"}, {"Crow"}}, 3, "Smith, Doe, & Crow"},
		{"limit one collapses pairs", [][]string{{"Smith"}, {"Doe"}}, 1, "Smith et al."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAuthor(tt.authors, tt.limit); got != tt.want {
				t.Errorf("FormatAuthor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		raw  string
		want [][]string
	}{
		{"", nil},
		{"Smith, John", [][]string{{"Smith", "John"}}},
		{"John Smith", [][]string{{"Smith", "John"}}},
		{"Smith, John and Doe, Alice", [][]string{{"Smith", "John"}, {"Doe", "Alice"}}},
		{"John Smith and Alice Doe", [][]string{{"Smith", "John"}, {"Doe", "Alice"}}},
		{"{van der Berg}, Hans", [][]string{{"van der Berg", "Hans"}}},
		{"Plato", [][]string{{"Plato"}}},
	}
	for _, tt := range tests {
		got := ParseAuthors(tt.raw)
		if len(got) != len(tt.want) {
			t.Errorf("ParseAuthors(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for i := range got {
			if len(got[i]) != len(tt.want[i]) {
				t.Errorf("ParseAuthors(%q)[%d] = %v, want %v", tt.raw, i, got[i], tt.want[i])
				continue
			}
			for j := range got[i] {
				if got[i][j] != tt.want[i][j] {
					t.Errorf("ParseAuthors(%q)[%d][%d] = %q, want %q", tt.raw, i, j, got[i][j], tt.want[i][j])
				}
			}
		}
	}
}

func TestStripBraces(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{Neural} {Networks}", "Neural Networks"},
		{"{{nested}}", "nested"},
		{"unmatched {brace", "unmatched brace"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		got := stripBraces(tt.in)
		if got != tt.want {
			t.Errorf("stripBraces(%q) = %q, want %q", tt.in, got, tt.want)
		}
		// Idempotent.
		if again := stripBraces(got); again != got {
			t.Errorf("stripBraces not idempotent on %q: %q", tt.in, again)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"braced year", map[string]string{"year": "{2020}"}, "2020"},
		{"year verbatim even if odd", map[string]string{"year": "MMXX"}, "MMXX"},
		{"year wins over date", map[string]string{"year": "2019", "date": "2020-05-01"}, "2019"},
		{"iso date", map[string]string{"date": "2020-05-01"}, "2020"},
		{"spelled date", map[string]string{"date": "May 2020"}, "2020"},
		{"slash date", map[string]string{"date": "01/05/2020"}, "2020"},
		{"no usable token", map[string]string{"date": "sometime in the 90s"}, ""},
		{"neither field", map[string]string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Fields: tt.fields}
			if got := e.formatDate(); got != tt.want {
				t.Errorf("formatDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFileAndURL(t *testing.T) {
	e := Entry{Fields: map[string]string{
		"file": "/p.pdf:/p.pdf:application/pdf;/n.txt:/n.txt:text/plain",
	}}
	if got := e.formatFile(); got != "/p.pdf" {
		t.Errorf("formatFile() = %q, want %q", got, "/p.pdf")
	}
	if got := e.formatURL(); got != "/n.txt" {
		t.Errorf("formatURL() = %q, want first non-PDF attachment %q", got, "/n.txt")
	}
}

func TestFormatURL_PrefersURLField(t *testing.T) {
	e := Entry{Fields: map[string]string{
		"url":  "https://example.org/{paper}",
		"file": "/n.txt:/n.txt:text/plain",
	}}
	// The url field is verbatim, never brace-stripped.
	if got := e.formatURL(); got != "https://example.org/{paper}" {
		t.Errorf("formatURL() = %q", got)
	}
}

func TestFormatFile_NoPDFAttachment(t *testing.T) {
	e := Entry{Fields: map[string]string{"file": "/n.txt:/n.txt:text/plain"}}
	if got := e.formatFile(); got != "" {
		t.Errorf("formatFile() = %q, want empty", got)
	}
	empty := Entry{Fields: map[string]string{}}
	if got := empty.formatFile(); got != "" {
		t.Errorf("formatFile() on empty entry = %q, want empty", got)
	}
	if got := empty.formatURL(); got != "" {
		t.Errorf("formatURL() on empty entry = %q, want empty", got)
	}
}

func TestFieldFrom_Precedence(t *testing.T) {
	e := Entry{Fields: map[string]string{
		"langid":      "english",
		"annote":      "note b",
		"school":      "MIT",
		"institution": "CSAIL",
		"keywords":    "ml, nets",
	}}
	if got := e.fieldFrom("language", "langid"); got != "english" {
		t.Errorf("language = %q", got)
	}
	if got := e.fieldFrom("annotation", "annote"); got != "note b" {
		t.Errorf("notes = %q", got)
	}
	if got := e.fieldFrom("publisher", "school", "institution"); got != "MIT" {
		t.Errorf("publisher = %q, want first present candidate", got)
	}
	if got := e.fieldFrom("keyword", "keywords"); got != "ml, nets" {
		t.Errorf("tags = %q", got)
	}
	if got := e.fieldFrom("publisher"); got != "" {
		t.Errorf("absent field = %q, want empty", got)
	}
}
