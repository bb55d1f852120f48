package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/michaelcarwile/wp-rest-importer/models"
	"github.com/michaelcarwile/wp-rest-importer/renderer"
)

// WriteConsolidated writes every record into one file, ordered by
// publication date ascending regardless of the order the server returned
// them. Records are separated by a blank line; each record opens with its
// own frontmatter fence. Parent directories are created as needed.
func WriteConsolidated(path string, records []models.ExportRecord) error {
	ordered := sortedByDate(records)

	sections := make([]string, 0, len(ordered))
	for _, rec := range ordered {
		section, err := renderer.Render(rec)
		if err != nil {
			return fmt.Errorf("render %q: %w", rec.FrontMatter.Title, err)
		}
		sections = append(sections, strings.TrimRight(section, "\n"))
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	content := strings.Join(sections, "\n\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteSplit writes one file per record into dir. With more than one content
// type present each type gets its own subdirectory. Only the files being
// written are touched; unrelated pre-existing files are left alone.
func WriteSplit(dir string, recordsByType map[string][]models.ExportRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	typeSlugs := make([]string, 0, len(recordsByType))
	for typeSlug := range recordsByType {
		typeSlugs = append(typeSlugs, typeSlug)
	}
	sort.Strings(typeSlugs)
	multiType := len(typeSlugs) > 1

	for _, typeSlug := range typeSlugs {
		target := dir
		if multiType {
			target = filepath.Join(dir, typeSlug)
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create output directory %s: %w", target, err)
			}
		}

		used := make(map[string]bool)
		for _, rec := range sortedByDate(recordsByType[typeSlug]) {
			name := fileName(rec)
			if used[name] {
				// Deterministic tie-break: ids are unique within a type.
				name = fileName(rec, strconv.Itoa(rec.ItemID))
			}
			used[name] = true

			content, err := renderer.Render(rec)
			if err != nil {
				return fmt.Errorf("render %q: %w", rec.FrontMatter.Title, err)
			}
			path := filepath.Join(target, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
	}
	return nil
}

// sortedByDate returns a copy ordered by publication date ascending.
// Ties keep the input order.
func sortedByDate(records []models.ExportRecord) []models.ExportRecord {
	ordered := append([]models.ExportRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PublishedAt.Before(ordered[j].PublishedAt)
	})
	return ordered
}

// fileName derives the record's file name: the day-precision date, the item
// slug (or a slugified title when the server provided none), and any extra
// disambiguating parts, joined by dashes.
func fileName(rec models.ExportRecord, extra ...string) string {
	s := rec.Slug
	if s == "" {
		if normalized, err := slug.Normalize(rec.FrontMatter.Title); err == nil {
			s = normalized
		}
	}
	if s == "" {
		s = "item-" + strconv.Itoa(rec.ItemID)
	}

	parts := []string{}
	if rec.FrontMatter.Date != "" {
		parts = append(parts, rec.FrontMatter.Date)
	}
	parts = append(parts, s)
	parts = append(parts, extra...)
	return strings.Join(parts, "-") + ".md"
}
