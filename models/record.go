package models

import "time"

// FrontMatter is the structured header of one exported document.
// Field order is fixed; list fields are omitted entirely when empty.
type FrontMatter struct {
	Title      string   `yaml:"title"`
	Date       string   `yaml:"date"`
	URL        string   `yaml:"url"`
	Type       string   `yaml:"type"`
	Categories []string `yaml:"categories,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
}

// ExportRecord is the rendered output unit: frontmatter plus Markdown body.
// It also carries the inputs the exporter needs for ordering and naming.
type ExportRecord struct {
	FrontMatter FrontMatter
	Body        string

	ItemID      int
	Slug        string
	PublishedAt time.Time
}
