// Package candidate projects normalized items into display-ready
// records for the fuzzy-search front end.
package candidate

import (
	"sort"
	"strings"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/config"
)

// Candidate is one search-result record. All four values are always
// populated (possibly empty strings): Label for display, Text for
// insertion into the buffer, Path for open actions, Command for the
// echo/preview action.
type Candidate struct {
	Label   string `json:"label"`
	Text    string `json:"text"`
	Path    string `json:"path"`
	Command string `json:"command"`
}

// Project renders candidates for the requested field. Items outside the
// configured collection are dropped; an unknown field name fails the
// whole request so the UI never shows a partially-projected list.
func Project(items []bib.Item, cfg config.Settings, field string) ([]Candidate, error) {
	pathField := "file"
	if field == "url" {
		pathField = "url"
	}

	candidates := make([]Candidate, 0, len(items))
	for i := range items {
		item := &items[i]
		if !item.InCollection(cfg.Collection) {
			continue
		}

		label, err := describe(item, cfg, field)
		if err != nil {
			return nil, err
		}
		value, err := item.Field(field)
		if err != nil {
			return nil, err
		}
		path, err := item.Field(pathField)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, Candidate{
			Label:   label,
			Text:    insertionText(cfg, field, value),
			Path:    path,
			Command: "echo " + item.Combined,
		})
	}
	return candidates, nil
}

// insertionText wraps key values in the configured affixes; every other
// field inserts its raw value.
func insertionText(cfg config.Settings, field, value string) string {
	switch field {
	case "key":
		return cfg.KeyOuterPrefix + cfg.KeyInnerPrefix + value + cfg.KeySuffix
	case "key_inner":
		return cfg.KeyInnerPrefix + value
	}
	return value
}

// describe renders the item's display label from the description
// template. Each {} placeholder consumes the next configured description
// field. When the requested field is not among the description fields,
// its value is appended wrapped in the configured wrap characters so the
// searched value is always visible.
func describe(item *bib.Item, cfg config.Settings, field string) (string, error) {
	var b strings.Builder
	rest := cfg.DescFormat
	shown := false
	for i := 0; ; i++ {
		idx := strings.Index(rest, "{}")
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:idx])
		rest = rest[idx+2:]
		if i < len(cfg.DescFields) {
			name := cfg.DescFields[i]
			value, err := item.Field(name)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			if name == field {
				shown = true
			}
		}
	}

	if !shown && field != "" {
		value, err := item.Field(field)
		if err != nil {
			return "", err
		}
		if value != "" {
			prefix, suffix := splitWrapChars(cfg.WrapChars)
			b.WriteString(" ")
			b.WriteString(prefix)
			b.WriteString(value)
			b.WriteString(suffix)
		}
	}
	return b.String(), nil
}

// splitWrapChars halves the wrap string into prefix and suffix ("||"
// wraps as |value|).
func splitWrapChars(wrap string) (string, string) {
	runes := []rune(wrap)
	half := len(runes) / 2
	return string(runes[:half]), string(runes[half:])
}

// DuplicateKeys filters items to the colliding cite keys: sorted by key
// ascending, every item whose key equals its predecessor's is retained,
// so each duplicated key contributes all but its first occurrence.
func DuplicateKeys(items []bib.Item) []bib.Item {
	sorted := append([]bib.Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var dups []bib.Item
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key == sorted[i-1].Key {
			dups = append(dups, sorted[i])
		}
	}
	return dups
}

// Collections lists the distinct collection names across items in
// first-seen order, as candidates whose Command selects that collection
// as the active filter.
func Collections(items []bib.Item) []Candidate {
	seen := map[string]bool{}
	var candidates []Candidate
	for _, item := range items {
		for _, name := range item.Collections {
			if seen[name] {
				continue
			}
			seen[name] = true
			candidates = append(candidates, Candidate{
				Label:   name,
				Text:    name,
				Path:    name,
				Command: "collection " + name,
			})
		}
	}
	return candidates
}
