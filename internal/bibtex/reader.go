package bibtex

import (
	"fmt"
	"os"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/config"
)

// Reader loads a BibTeX file as a sequence of normalized items.
type Reader struct {
	path      string
	etAlLimit int
}

// New creates a BibTeX reader. Fails fast when the configured file does
// not exist.
func New(cfg config.Settings) (*Reader, error) {
	path := config.ExpandTilde(cfg.BibtexFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", config.ErrSourceMissing, path)
	}
	return &Reader{path: path, etAlLimit: cfg.EtAlLimit}, nil
}

// Load parses the file and returns one item per entry, in file order.
func (r *Reader) Load() ([]bib.Item, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}
	entries, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", r.path, err)
	}

	items := make([]bib.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, r.normalize(entry))
	}
	return items, nil
}

// normalize maps one raw entry onto the canonical item shape. Every
// field resolution is total: absent source fields become empty strings.
func (r *Reader) normalize(e Entry) bib.Item {
	item := bib.Item{
		Key:  e.Key,
		Type: e.Type,

		Abstract: e.field("abstract"),
		DOI:      e.field("doi"),
		ISBN:     e.field("isbn"),
		Pages:    e.field("pages"),
		Title:    e.field("title"),
		Volume:   e.field("volume"),

		Language:  e.fieldFrom("language", "langid"),
		Notes:     e.fieldFrom("annotation", "annote"),
		Publisher: e.fieldFrom("publisher", "school", "institution"),
		Tags:      e.fieldFrom("keyword", "keywords"),

		Publication: e.field("journal"),
		Issue:       e.field("number"),
		Nick:        e.field("key"), // the BibTeX "key" field, not the cite key

		Author: FormatAuthor(ParseAuthors(e.Fields["author"]), r.etAlLimit),
		Date:   e.formatDate(),
		URL:    e.formatURL(),
		File:   e.formatFile(),
	}
	item.Combine()
	return item
}
