// Package bib defines the canonical normalized citation item.
package bib

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned by Field for names outside FieldNames.
var ErrUnknownField = errors.New("unknown item field")

// Item is one normalized bibliography entry. Every string field defaults
// to the empty string so downstream formatting never distinguishes
// missing from empty. Key is the source store's citation key and is the
// only field guaranteed non-empty.
type Item struct {
	Key         string   `json:"key"`
	Nick        string   `json:"nick,omitempty"`
	Type        string   `json:"type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Author      string   `json:"author,omitempty"`
	Publication string   `json:"publication,omitempty"`
	Volume      string   `json:"volume,omitempty"`
	Issue       string   `json:"issue,omitempty"`
	Pages       string   `json:"pages,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Date        string   `json:"date,omitempty"`
	DOI         string   `json:"doi,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	URL         string   `json:"url,omitempty"`
	File        string   `json:"file,omitempty"`
	Language    string   `json:"language,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Tags        string   `json:"tags,omitempty"`
	Abstract    string   `json:"abstract,omitempty"`
	Collections []string `json:"collections,omitempty"`
	Combined    string   `json:"combined,omitempty"`
}

// FieldNames lists every field name a candidate request may ask for, in
// presentation order. duplicate_keys is a request mode rather than a
// stored field; key_inner reads the key.
var FieldNames = []string{
	"abstract",
	"author",
	"combined",
	"date",
	"doi",
	"duplicate_keys",
	"file",
	"isbn",
	"publication",
	"key",
	"key_inner",
	"language",
	"issue",
	"nick",
	"notes",
	"pages",
	"publisher",
	"tags",
	"title",
	"type",
	"url",
	"volume",
}

// combineOrder fixes the field join order for Combined.
var combineOrder = []struct {
	name string
	get  func(*Item) string
}{
	{"key", func(it *Item) string { return it.Key }},
	{"title", func(it *Item) string { return it.Title }},
	{"author", func(it *Item) string { return it.Author }},
	{"date", func(it *Item) string { return it.Date }},
	{"publication", func(it *Item) string { return it.Publication }},
	{"volume", func(it *Item) string { return it.Volume }},
	{"issue", func(it *Item) string { return it.Issue }},
	{"pages", func(it *Item) string { return it.Pages }},
	{"publisher", func(it *Item) string { return it.Publisher }},
	{"doi", func(it *Item) string { return it.DOI }},
	{"isbn", func(it *Item) string { return it.ISBN }},
	{"url", func(it *Item) string { return it.URL }},
	{"tags", func(it *Item) string { return it.Tags }},
	{"abstract", func(it *Item) string { return it.Abstract }},
}

// Combine computes the single-line composite preview of the item. It is
// derived purely from the other fields, so recomputing is idempotent.
// Call after all other fields are set.
func (it *Item) Combine() {
	var parts []string
	for _, f := range combineOrder {
		if v := f.get(it); v != "" {
			parts = append(parts, f.name+": "+v)
		}
	}
	it.Combined = strings.Join(parts, " · ")
}

// Field returns the value for a candidate field name. key_inner resolves
// to the key value; unknown names fail with ErrUnknownField.
func (it *Item) Field(name string) (string, error) {
	switch name {
	case "abstract":
		return it.Abstract, nil
	case "author":
		return it.Author, nil
	case "combined":
		return it.Combined, nil
	case "date":
		return it.Date, nil
	case "doi":
		return it.DOI, nil
	case "file":
		return it.File, nil
	case "isbn":
		return it.ISBN, nil
	case "publication":
		return it.Publication, nil
	case "key", "key_inner", "duplicate_keys":
		return it.Key, nil
	case "language":
		return it.Language, nil
	case "issue":
		return it.Issue, nil
	case "nick":
		return it.Nick, nil
	case "notes":
		return it.Notes, nil
	case "pages":
		return it.Pages, nil
	case "publisher":
		return it.Publisher, nil
	case "tags":
		return it.Tags, nil
	case "title":
		return it.Title, nil
	case "type":
		return it.Type, nil
	case "url":
		return it.URL, nil
	case "volume":
		return it.Volume, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// InCollection reports whether the item belongs to the named collection.
// An empty name matches every item (no filter configured).
func (it *Item) InCollection(name string) bool {
	if name == "" {
		return true
	}
	for _, c := range it.Collections {
		if c == name {
			return true
		}
	}
	return false
}
