package renderer

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/michaelcarwile/wp-rest-importer/models"
)

// BuildRecord assembles one ExportRecord from a fully enriched ContentItem.
// Category and tag names arrive already resolved and ordered; unresolved
// references were dropped by the resolver, so an empty slice means the field
// is left out of the header entirely.
func BuildRecord(item models.ContentItem, markdown string, categories, tags []string) models.ExportRecord {
	return models.ExportRecord{
		FrontMatter: models.FrontMatter{
			Title:      item.Title,
			Date:       dateString(item),
			URL:        item.Link,
			Type:       item.Type,
			Categories: categories,
			Tags:       tags,
		},
		Body:        markdown,
		ItemID:      item.ID,
		Slug:        item.Slug,
		PublishedAt: item.PublishedAt,
	}
}

// Render emits the record as a YAML frontmatter block followed by the
// Markdown body. yaml.v3 quotes title and other values as needed, so
// embedded special characters cannot corrupt the header.
func Render(rec models.ExportRecord) (string, error) {
	header, err := yaml.Marshal(rec.FrontMatter)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(rec.Body)
	if !strings.HasSuffix(rec.Body, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}

// dateString keeps the day-precision publication date the site reported.
func dateString(item models.ContentItem) string {
	if len(item.RawDate) >= 10 {
		return item.RawDate[:10]
	}
	if !item.PublishedAt.IsZero() {
		return item.PublishedAt.Format("2006-01-02")
	}
	return ""
}
