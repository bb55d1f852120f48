package models

import "time"

// TaxonomyKind identifies a taxonomy endpoint on the remote site.
type TaxonomyKind string

const (
	TaxonomyCategories TaxonomyKind = "categories"
	TaxonomyTags       TaxonomyKind = "tags"
)

// ContentItem is one fetched unit: a post, page, or custom type instance.
// IDs are unique within one content type's result set only; items of
// different types may share an ID and must be keyed per type.
type ContentItem struct {
	ID          int
	Type        string
	Title       string
	Slug        string
	Link        string
	PublishedAt time.Time
	RawDate     string
	CategoryIDs []int
	TagIDs      []int
	HTML        string
	Markdown    string
	WordCount   int
}
