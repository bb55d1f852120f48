package wpapi

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/michaelcarwile/wp-rest-importer/internal/logger"
	"github.com/michaelcarwile/wp-rest-importer/models"
)

type termPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Resolver maps taxonomy reference IDs to display names. The cache is scoped
// to the resolver instance, so independent runs and tests get independent
// caches. Each ID is looked up at most once; a failed lookup is cached as a
// miss and the name is simply omitted wherever the ID appears.
type Resolver struct {
	client *Client
	names  map[models.TaxonomyKind]map[int]string
	misses map[models.TaxonomyKind]map[int]bool
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		names:  make(map[models.TaxonomyKind]map[int]string),
		misses: make(map[models.TaxonomyKind]map[int]bool),
	}
}

// Resolve looks up every ID not yet cached, batching through the include
// parameter and falling back to individual lookups when a batch fails.
func (r *Resolver) Resolve(ctx context.Context, kind models.TaxonomyKind, ids []int) {
	pending := r.pending(kind, ids)
	if len(pending) == 0 {
		return
	}

	batchSize := r.client.taxonomyPerPage
	requested := false
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		if requested {
			r.client.sleep(ctx)
		}
		requested = true

		if err := r.resolveBatch(ctx, kind, chunk); err != nil {
			logger.WarnWithFields("batch term lookup failed, falling back to individual lookups", logger.Fields{
				"site": r.client.siteURL, "taxonomy": string(kind), "count": len(chunk), "error": err.Error(),
			})
			r.resolveIndividually(ctx, kind, chunk)
		}

		// Anything the response did not include is a miss.
		for _, id := range chunk {
			if _, ok := r.names[kind][id]; !ok {
				r.miss(kind, id)
			}
		}
	}

	r.warnOnMajorityMisses(kind, ids)
}

// Name returns the cached display name for one reference ID.
func (r *Resolver) Name(kind models.TaxonomyKind, id int) (string, bool) {
	name, ok := r.names[kind][id]
	return name, ok
}

// Names maps reference IDs to resolved names, keeping the source order and
// dropping unresolved IDs.
func (r *Resolver) Names(kind models.TaxonomyKind, ids []int) []string {
	var names []string
	for _, id := range ids {
		if name, ok := r.names[kind][id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// pending dedupes ids and filters out everything already resolved or missed.
func (r *Resolver) pending(kind models.TaxonomyKind, ids []int) []int {
	seen := make(map[int]bool, len(ids))
	var pending []int
	for _, id := range ids {
		if seen[id] || r.misses[kind][id] {
			continue
		}
		if _, ok := r.names[kind][id]; ok {
			continue
		}
		seen[id] = true
		pending = append(pending, id)
	}
	return pending
}

func (r *Resolver) resolveBatch(ctx context.Context, kind models.TaxonomyKind, ids []int) error {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	q := url.Values{}
	q.Set("include", strings.Join(parts, ","))
	q.Set("per_page", strconv.Itoa(r.client.taxonomyPerPage))

	var terms []termPayload
	if _, err := r.client.getJSON(ctx, typePath(string(kind)), q, &terms); err != nil {
		return fmt.Errorf("lookup %s: %w", kind, err)
	}
	for _, term := range terms {
		r.store(kind, term.ID, html.UnescapeString(term.Name))
	}
	return nil
}

func (r *Resolver) resolveIndividually(ctx context.Context, kind models.TaxonomyKind, ids []int) {
	for i, id := range ids {
		if i > 0 {
			r.client.sleep(ctx)
		}
		var term termPayload
		if _, err := r.client.getJSON(ctx, typePath(string(kind))+"/"+strconv.Itoa(id), nil, &term); err != nil {
			logger.DebugWithFields("term lookup failed, name omitted", logger.Fields{
				"site": r.client.siteURL, "taxonomy": string(kind), "id": id, "error": err.Error(),
			})
			r.miss(kind, id)
			continue
		}
		r.store(kind, term.ID, html.UnescapeString(term.Name))
	}
}

func (r *Resolver) store(kind models.TaxonomyKind, id int, name string) {
	if r.names[kind] == nil {
		r.names[kind] = make(map[int]string)
	}
	r.names[kind][id] = name
}

func (r *Resolver) miss(kind models.TaxonomyKind, id int) {
	if r.misses[kind] == nil {
		r.misses[kind] = make(map[int]bool)
	}
	r.misses[kind][id] = true
}

// warnOnMajorityMisses surfaces a single summary warning when more than half
// of a taxonomy's distinct references could not be resolved.
func (r *Resolver) warnOnMajorityMisses(kind models.TaxonomyKind, ids []int) {
	distinct := make(map[int]bool, len(ids))
	missed := 0
	for _, id := range ids {
		if distinct[id] {
			continue
		}
		distinct[id] = true
		if r.misses[kind][id] {
			missed++
		}
	}
	if len(distinct) > 0 && missed*2 > len(distinct) {
		logger.WarnWithFields("majority of term lookups failed, names omitted", logger.Fields{
			"site": r.client.siteURL, "taxonomy": string(kind),
			"missed": missed, "total": len(distinct),
		})
	}
}
