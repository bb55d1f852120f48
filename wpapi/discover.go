package wpapi

import (
	"context"
	"fmt"
	"sort"
)

// internalTypes are content types the discovery skips unless a caller asks
// for them by name: they hold site plumbing, not publishable content.
var internalTypes = map[string]bool{
	"attachment":       true,
	"wp_block":         true,
	"nav_menu_item":    true,
	"wp_navigation":    true,
	"wp_template":      true,
	"wp_template_part": true,
}

type typeInfo struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	RESTBase string `json:"rest_base"`
}

// DiscoverTypes queries the site's type listing and returns the REST base
// slugs of every publicly queryable content type, internal types excluded.
// The result is sorted so discovery order is deterministic.
func (c *Client) DiscoverTypes(ctx context.Context) ([]string, error) {
	var types map[string]typeInfo
	if _, err := c.getJSON(ctx, typePath("types"), nil, &types); err != nil {
		return nil, fmt.Errorf("discover content types: %w", err)
	}

	var slugs []string
	for slug, info := range types {
		if internalTypes[slug] || info.RESTBase == "" || info.RESTBase == "media" {
			continue
		}
		slugs = append(slugs, info.RESTBase)
	}
	sort.Strings(slugs)
	return slugs, nil
}
