// Package zotero reads a Zotero SQLite library as a sequence of
// normalized citation items. It satisfies the same load contract as the
// BibTeX reader against a different backing store.
package zotero

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/bibtex"
	"github.com/citesearch/citesearch/internal/config"
)

// Reader loads items from a Zotero 5 library database.
type Reader struct {
	dbPath         string
	attachmentPath string
	etAlLimit      int
}

// New creates a Zotero reader. Fails fast when zotero.sqlite is missing
// under the configured library path.
func New(cfg config.Settings) (*Reader, error) {
	dbPath := filepath.Join(config.ExpandTilde(cfg.ZoteroPath), "zotero.sqlite")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: %s", config.ErrSourceMissing, dbPath)
	}
	attachmentPath := config.ExpandTilde(cfg.ZoteroAttachmentPath)
	if attachmentPath == "" {
		attachmentPath = filepath.Join(config.ExpandTilde(cfg.ZoteroPath), "storage")
	}
	return &Reader{
		dbPath:         dbPath,
		attachmentPath: attachmentPath,
		etAlLimit:      cfg.EtAlLimit,
	}, nil
}

// Load returns every regular item in the library.
func (r *Reader) Load() ([]bib.Item, error) {
	return r.LoadKeys(nil)
}

// LoadKeys returns the items whose key matches one of keys; nil keys
// loads everything. Key-filtered loads serve the cache-bypass path, so
// they never represent the complete item set.
func (r *Reader) LoadKeys(keys []string) ([]bib.Item, error) {
	// Open read-only so a running Zotero is never blocked or modified.
	db, err := sql.Open("sqlite", "file:"+r.dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening zotero database: %w", err)
	}
	defer db.Close()

	rawItems, err := r.queryItems(db)
	if err != nil {
		return nil, err
	}
	fields, err := r.queryFields(db)
	if err != nil {
		return nil, err
	}
	creators, err := r.queryCreators(db)
	if err != nil {
		return nil, err
	}
	collections, err := r.queryCollections(db)
	if err != nil {
		return nil, err
	}
	attachments, err := r.queryAttachments(db)
	if err != nil {
		return nil, err
	}
	notes, err := r.queryNotes(db)
	if err != nil {
		return nil, err
	}
	tags, err := r.queryTags(db)
	if err != nil {
		return nil, err
	}

	var items []bib.Item
	for _, raw := range rawItems {
		item := r.assemble(raw, fields[raw.id], creators[raw.id],
			collections[raw.id], attachments[raw.id], notes[raw.id], tags[raw.id])
		items = append(items, item)
	}
	if len(keys) > 0 {
		items = filterKeys(items, keys)
	}
	return items, nil
}

type rawItem struct {
	id       int64
	key      string
	typeName string
}

type attachment struct {
	key         string
	path        string
	contentType string
}

func (r *Reader) queryItems(db *sql.DB) ([]rawItem, error) {
	rows, err := db.Query(`
		SELECT i.itemID, i.key, it.typeName
		FROM items i
		JOIN itemTypes it ON it.itemTypeID = i.itemTypeID
		WHERE it.typeName NOT IN ('attachment', 'note', 'annotation')
		  AND i.itemID NOT IN (SELECT itemID FROM deletedItems)
		ORDER BY i.itemID`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []rawItem
	for rows.Next() {
		var it rawItem
		if err := rows.Scan(&it.id, &it.key, &it.typeName); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Reader) queryFields(db *sql.DB) (map[int64]map[string]string, error) {
	rows, err := db.Query(`
		SELECT d.itemID, f.fieldName, v.value
		FROM itemData d
		JOIN fields f ON f.fieldID = d.fieldID
		JOIN itemDataValues v ON v.valueID = d.valueID`)
	if err != nil {
		return nil, fmt.Errorf("querying item fields: %w", err)
	}
	defer rows.Close()

	fields := map[int64]map[string]string{}
	for rows.Next() {
		var itemID int64
		var name, value string
		if err := rows.Scan(&itemID, &name, &value); err != nil {
			return nil, fmt.Errorf("scanning item field: %w", err)
		}
		if fields[itemID] == nil {
			fields[itemID] = map[string]string{}
		}
		fields[itemID][name] = value
	}
	return fields, rows.Err()
}

func (r *Reader) queryCreators(db *sql.DB) (map[int64][][]string, error) {
	rows, err := db.Query(`
		SELECT ic.itemID, c.lastName, c.firstName
		FROM itemCreators ic
		JOIN creators c ON c.creatorID = ic.creatorID
		JOIN creatorTypes ct ON ct.creatorTypeID = ic.creatorTypeID
		WHERE ct.creatorType = 'author'
		ORDER BY ic.itemID, ic.orderIndex`)
	if err != nil {
		return nil, fmt.Errorf("querying creators: %w", err)
	}
	defer rows.Close()

	creators := map[int64][][]string{}
	for rows.Next() {
		var itemID int64
		var last, first string
		if err := rows.Scan(&itemID, &last, &first); err != nil {
			return nil, fmt.Errorf("scanning creator: %w", err)
		}
		name := []string{last}
		if first != "" {
			name = append(name, first)
		}
		creators[itemID] = append(creators[itemID], name)
	}
	return creators, rows.Err()
}

func (r *Reader) queryCollections(db *sql.DB) (map[int64][]string, error) {
	rows, err := db.Query(`
		SELECT ci.itemID, c.collectionName
		FROM collectionItems ci
		JOIN collections c ON c.collectionID = ci.collectionID
		ORDER BY ci.itemID`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	collections := map[int64][]string{}
	for rows.Next() {
		var itemID int64
		var name string
		if err := rows.Scan(&itemID, &name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		collections[itemID] = append(collections[itemID], name)
	}
	return collections, rows.Err()
}

func (r *Reader) queryAttachments(db *sql.DB) (map[int64][]attachment, error) {
	rows, err := db.Query(`
		SELECT ia.parentItemID, ai.key, ia.path, IFNULL(ia.contentType, '')
		FROM itemAttachments ia
		JOIN items ai ON ai.itemID = ia.itemID
		WHERE ia.parentItemID IS NOT NULL AND ia.path IS NOT NULL
		ORDER BY ia.itemID`)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	attachments := map[int64][]attachment{}
	for rows.Next() {
		var parentID int64
		var a attachment
		if err := rows.Scan(&parentID, &a.key, &a.path, &a.contentType); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		attachments[parentID] = append(attachments[parentID], a)
	}
	return attachments, rows.Err()
}

func (r *Reader) queryNotes(db *sql.DB) (map[int64]string, error) {
	rows, err := db.Query(`
		SELECT parentItemID, note
		FROM itemNotes
		WHERE parentItemID IS NOT NULL
		ORDER BY itemID`)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes := map[int64]string{}
	for rows.Next() {
		var parentID int64
		var note string
		if err := rows.Scan(&parentID, &note); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if _, ok := notes[parentID]; !ok { // keep the first note only
			notes[parentID] = stripHTML(note)
		}
	}
	return notes, rows.Err()
}

func (r *Reader) queryTags(db *sql.DB) (map[int64]string, error) {
	rows, err := db.Query(`
		SELECT it.itemID, t.name
		FROM itemTags it
		JOIN tags t ON t.tagID = it.tagID
		ORDER BY it.itemID, t.name`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := map[int64]string{}
	for rows.Next() {
		var itemID int64
		var name string
		if err := rows.Scan(&itemID, &name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		if tags[itemID] == "" {
			tags[itemID] = name
		} else {
			tags[itemID] += ", " + name
		}
	}
	return tags, rows.Err()
}

// citekeyPattern matches a Better BibTeX pinned citation key in the
// extra field.
var citekeyPattern = regexp.MustCompile(`(?mi)^Citation Key:\s*(\S+)`)

// assemble maps one library item onto the canonical item shape.
func (r *Reader) assemble(raw rawItem, fields map[string]string,
	creators [][]string, collections []string, attachments []attachment,
	note, tagList string) bib.Item {

	item := bib.Item{
		Key:         raw.key,
		Type:        raw.typeName,
		Title:       fields["title"],
		Abstract:    fields["abstractNote"],
		DOI:         fields["DOI"],
		ISBN:        fields["ISBN"],
		Publication: fields["publicationTitle"],
		Volume:      fields["volume"],
		Issue:       fields["issue"],
		Pages:       fields["pages"],
		Publisher:   fields["publisher"],
		Language:    fields["language"],
		URL:         fields["url"],
		Date:        bibtex.YearFromDate(fields["date"]),
		Author:      bibtex.FormatAuthor(creators, r.etAlLimit),
		Collections: collections,
		Notes:       note,
		Tags:        tagList,
	}

	// A Better BibTeX citation key pinned in the extra field replaces
	// the opaque library key.
	if m := citekeyPattern.FindStringSubmatch(fields["extra"]); m != nil {
		item.Key = m[1]
	}

	if pdf := r.firstPDF(attachments); pdf != "" {
		item.File = pdf
	}
	if item.URL == "" {
		item.URL = r.firstLink(attachments)
	}

	item.Combine()
	return item
}

// firstPDF resolves the first PDF attachment to a filesystem path.
// Zotero stores managed attachments as "storage:filename" under a
// per-attachment directory named by the attachment key.
func (r *Reader) firstPDF(attachments []attachment) string {
	for _, a := range attachments {
		if a.contentType != "application/pdf" {
			continue
		}
		return r.resolvePath(a)
	}
	return ""
}

// firstLink returns the first non-PDF attachment target, preferring
// linked URLs.
func (r *Reader) firstLink(attachments []attachment) string {
	for _, a := range attachments {
		if a.contentType == "application/pdf" {
			continue
		}
		if strings.HasPrefix(a.path, "http://") || strings.HasPrefix(a.path, "https://") {
			return a.path
		}
		return r.resolvePath(a)
	}
	return ""
}

func (r *Reader) resolvePath(a attachment) string {
	if name, ok := strings.CutPrefix(a.path, "storage:"); ok {
		return filepath.Join(r.attachmentPath, a.key, name)
	}
	if rest, ok := strings.CutPrefix(a.path, "file://"); ok {
		if u, err := url.PathUnescape(rest); err == nil {
			return u
		}
		return rest
	}
	return a.path
}

func filterKeys(items []bib.Item, keys []string) []bib.Item {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var filtered []bib.Item
	for _, it := range items {
		if want[it.Key] {
			filtered = append(filtered, it)
		}
	}
	return filtered
}

// tagPattern removes HTML markup from rich-text notes.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}
