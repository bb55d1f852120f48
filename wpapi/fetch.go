package wpapi

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"time"

	"github.com/michaelcarwile/wp-rest-importer/internal/logger"
	"github.com/michaelcarwile/wp-rest-importer/models"
)

// wpDateLayout is the site-local timestamp format the API uses; it carries
// no zone information.
const wpDateLayout = "2006-01-02T15:04:05"

const totalHeader = "X-WP-Total"

type renderedField struct {
	Rendered string `json:"rendered"`
}

type itemPayload struct {
	ID         int           `json:"id"`
	Date       string        `json:"date"`
	Slug       string        `json:"slug"`
	Link       string        `json:"link"`
	Title      renderedField `json:"title"`
	Content    renderedField `json:"content"`
	Categories []int         `json:"categories"`
	Tags       []int         `json:"tags"`
}

func (p itemPayload) toContentItem(typeSlug string) models.ContentItem {
	published, err := time.Parse(wpDateLayout, p.Date)
	if err != nil {
		published, _ = time.Parse(time.RFC3339, p.Date)
	}
	return models.ContentItem{
		ID:          p.ID,
		Type:        typeSlug,
		Title:       html.UnescapeString(p.Title.Rendered),
		Slug:        p.Slug,
		Link:        p.Link,
		PublishedAt: published,
		RawDate:     p.Date,
		CategoryIDs: p.Categories,
		TagIDs:      p.Tags,
		HTML:        p.Content.Rendered,
	}
}

// FetchAll retrieves every item of one content type. The total comes from
// the first page's X-WP-Total header; an absent or zero total yields an
// empty result without an error, and the caller decides whether that is
// fatal. Failed pages past the first are recorded in the report and skipped;
// a failed first page is an error since the total is unknown without it.
// Items keep server order; cross-page ordering is imposed by the exporter.
func (c *Client) FetchAll(ctx context.Context, typeSlug string) ([]models.ContentItem, models.FetchReport, error) {
	report := models.FetchReport{Type: typeSlug}

	logger.InfoWithFields("fetching page", logger.Fields{
		"site": c.siteURL, "type": typeSlug, "page": 1,
	})
	batch, total, err := c.fetchPage(ctx, typeSlug, 1)
	if err != nil {
		return nil, report, fmt.Errorf("fetch %s page 1: %w", typeSlug, err)
	}

	report.Expected = total
	if total <= 0 {
		return nil, report, nil
	}

	pages := (total + c.perPage - 1) / c.perPage
	report.Pages = pages

	items := make([]models.ContentItem, 0, total)
	items = append(items, batch...)
	report.Retrieved = len(batch)

	for page := 2; page <= pages; page++ {
		c.sleep(ctx)
		if ctx.Err() != nil {
			return items, report, ctx.Err()
		}

		logger.InfoWithFields("fetching page", logger.Fields{
			"site": c.siteURL, "type": typeSlug, "page": page, "pages": pages,
		})
		batch, _, err := c.fetchPage(ctx, typeSlug, page)
		if err != nil {
			start := (page - 1) * c.perPage
			end := page * c.perPage
			if end > total {
				end = total
			}
			report.Failures = append(report.Failures, models.PageFailure{
				Page:       page,
				StartIndex: start,
				EndIndex:   end,
				Err:        err,
			})
			logger.WarnWithFields("page fetch failed, continuing", logger.Fields{
				"site": c.siteURL, "type": typeSlug, "page": page,
				"items": fmt.Sprintf("%d-%d", start, end), "error": err.Error(),
			})
			continue
		}
		items = append(items, batch...)
		report.Retrieved += len(batch)
	}

	return items, report, nil
}

// fetchPage retrieves one page and the total item count from the response
// header.
func (c *Client) fetchPage(ctx context.Context, typeSlug string, page int) ([]models.ContentItem, int, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))

	var payload []itemPayload
	resp, err := c.getJSON(ctx, typePath(typeSlug), q, &payload)
	if err != nil {
		return nil, 0, err
	}

	total, _ := strconv.Atoi(resp.Header.Get(totalHeader))

	items := make([]models.ContentItem, 0, len(payload))
	for _, p := range payload {
		items = append(items, p.toContentItem(typeSlug))
	}
	return items, total, nil
}
