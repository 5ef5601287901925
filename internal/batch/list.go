// Package batch renders many label pairs from a CSV list of queries.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/youruser/dexlabel/internal/lookup"
)

// Entry is one row of a batch list.
type Entry struct {
	Line  int    `json:"line"`
	Query string `json:"query"`
	Dir   string `json:"dir"` // output subdirectory; defaults to the slug
	Slug  string `json:"slug"`
}

// Skip is a row left out of a batch, and why.
type Skip struct {
	Entry  Entry
	Reason string
}

// LoadList reads a batch list file.
func LoadList(path string) ([]Entry, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	entries, err := ReadList(fp)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return entries, nil
}

// ReadList parses CSV with a header row. The "query" column is required and
// "dir" is optional; other columns are ignored. Lines starting with # are
// comments.
func ReadList(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header")
	}
	if err != nil {
		return nil, err
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["query"]; !ok {
		return nil, errors.New(`csv header has no "query" column`)
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var out []Entry
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		out = append(out, Entry{
			Line:  line,
			Query: get(row, "query"),
			Dir:   get(row, "dir"),
		})
	}
	return out, nil
}

// Select validates entries, fills in slugs and default directories, drops
// repeated slugs and stops after limit kept entries (0 means no limit).
func Select(entries []Entry, limit int) (kept []Entry, skipped []Skip) {
	seen := map[string]bool{}
	dirs := map[string]bool{}
	for _, e := range entries {
		q, err := lookup.ParseQuery(e.Query)
		if err != nil {
			skipped = append(skipped, Skip{Entry: e, Reason: "empty query"})
			continue
		}
		e.Slug = q.Slug
		if seen[e.Slug] {
			skipped = append(skipped, Skip{Entry: e, Reason: "duplicate of an earlier row"})
			continue
		}
		if e.Dir == "" {
			e.Dir = e.Slug
		}
		if !filepath.IsLocal(e.Dir) {
			skipped = append(skipped, Skip{Entry: e, Reason: fmt.Sprintf("dir %q is not a relative path inside the output", e.Dir)})
			continue
		}
		if dirs[filepath.Clean(e.Dir)] {
			skipped = append(skipped, Skip{Entry: e, Reason: fmt.Sprintf("dir %q already used", e.Dir)})
			continue
		}
		if limit > 0 && len(kept) >= limit {
			skipped = append(skipped, Skip{Entry: e, Reason: "over limit"})
			continue
		}
		seen[e.Slug] = true
		dirs[filepath.Clean(e.Dir)] = true
		kept = append(kept, e)
	}
	return kept, skipped
}
