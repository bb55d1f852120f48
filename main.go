package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/michaelcarwile/wp-rest-importer/config"
	"github.com/michaelcarwile/wp-rest-importer/converter"
	"github.com/michaelcarwile/wp-rest-importer/exporter"
	"github.com/michaelcarwile/wp-rest-importer/internal/httpclient"
	"github.com/michaelcarwile/wp-rest-importer/internal/logger"
	"github.com/michaelcarwile/wp-rest-importer/models"
	"github.com/michaelcarwile/wp-rest-importer/renderer"
	"github.com/michaelcarwile/wp-rest-importer/wpapi"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	if len(cfg.Sites) == 0 {
		logger.Log.Error("no sites configured: add a sites entry to config.yaml")
		os.Exit(1)
	}

	ctx := context.Background()
	failed := false
	for _, site := range cfg.Sites {
		if err := exportSite(ctx, cfg.Export, site); err != nil {
			logger.ErrorWithFields("site export failed", logger.Fields{
				"site": site.URL, "error": err.Error(),
			})
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// exportSite runs the whole pipeline for one configured site:
// probe, discover, fetch, resolve, convert, assemble, export.
func exportSite(ctx context.Context, export config.ExportConfig, site config.SiteSource) error {
	client := wpapi.NewClient(site.URL,
		wpapi.WithPerPage(export.PerPage),
		wpapi.WithTaxonomyPerPage(export.TaxonomyPerPage),
		wpapi.WithDelay(time.Duration(export.DelaySeconds*float64(time.Second))),
		wpapi.WithHTTPClient(httpclient.New(httpclient.Config{
			Timeout: time.Duration(export.TimeoutSeconds) * time.Second,
		})),
	)

	logger.InfoWithFields("fetching articles", logger.Fields{"site": client.SiteURL()})
	if err := client.Probe(ctx); err != nil {
		return err
	}

	types := requestedTypes(site.Types)
	if types == nil {
		discovered, err := client.DiscoverTypes(ctx)
		if err != nil {
			return err
		}
		types = discovered
		logger.InfoWithFields("discovered content types", logger.Fields{
			"site": client.SiteURL(), "types": strings.Join(types, ","),
		})
	}
	if len(types) == 0 {
		return fmt.Errorf("%s: no queryable content types", client.SiteURL())
	}

	summary := models.RunSummary{Site: client.SiteURL()}
	itemsByType := make(map[string][]models.ContentItem)
	reports := make(map[string]models.FetchReport)
	onlyType := len(types) == 1

	fetchedTypes := make([]string, 0, len(types))
	for _, typeSlug := range types {
		items, report, err := client.FetchAll(ctx, typeSlug)
		if err != nil {
			if onlyType {
				return err
			}
			logger.WarnWithFields("content type skipped", logger.Fields{
				"site": client.SiteURL(), "type": typeSlug, "error": err.Error(),
			})
			summary.SkippedTypes = append(summary.SkippedTypes, typeSlug)
			continue
		}
		if len(items) == 0 {
			if onlyType {
				return fmt.Errorf("%s: %s: %w", client.SiteURL(), typeSlug, wpapi.ErrNoContent)
			}
			logger.WarnWithFields("content type has no items", logger.Fields{
				"site": client.SiteURL(), "type": typeSlug,
			})
			summary.SkippedTypes = append(summary.SkippedTypes, typeSlug)
			continue
		}
		logger.InfoWithFields("fetched items", logger.Fields{
			"site": client.SiteURL(), "type": typeSlug,
			"retrieved": report.Retrieved, "expected": report.Expected,
		})
		itemsByType[typeSlug] = items
		reports[typeSlug] = report
		fetchedTypes = append(fetchedTypes, typeSlug)
	}
	if len(fetchedTypes) == 0 {
		return fmt.Errorf("%s: %w", client.SiteURL(), wpapi.ErrNoContent)
	}

	resolver := wpapi.NewResolver(client)
	var categoryIDs, tagIDs []int
	for _, typeSlug := range fetchedTypes {
		for _, item := range itemsByType[typeSlug] {
			categoryIDs = append(categoryIDs, item.CategoryIDs...)
			tagIDs = append(tagIDs, item.TagIDs...)
		}
	}
	resolver.Resolve(ctx, models.TaxonomyCategories, categoryIDs)
	resolver.Resolve(ctx, models.TaxonomyTags, tagIDs)

	conv := converter.New()
	recordsByType := make(map[string][]models.ExportRecord)
	for _, typeSlug := range fetchedTypes {
		report := reports[typeSlug]
		typeSummary := models.TypeSummary{
			Type:        typeSlug,
			Expected:    report.Expected,
			FailedPages: len(report.Failures),
		}
		for _, item := range itemsByType[typeSlug] {
			markdown, err := conv.Convert(item.HTML)
			if err != nil {
				logger.WarnWithFields("item conversion failed, skipped", logger.Fields{
					"site": client.SiteURL(), "type": typeSlug, "id": item.ID, "error": err.Error(),
				})
				continue
			}
			rec := renderer.BuildRecord(item, markdown,
				resolver.Names(models.TaxonomyCategories, item.CategoryIDs),
				resolver.Names(models.TaxonomyTags, item.TagIDs),
			)
			recordsByType[typeSlug] = append(recordsByType[typeSlug], rec)
			typeSummary.Exported++
			typeSummary.Words += conv.WordCount(item.HTML)
		}
		summary.Types = append(summary.Types, typeSummary)
	}

	output := site.Output
	if output == "" {
		if site.Split {
			output = client.Host() + "-articles"
		} else {
			output = client.Host() + "-articles.md"
		}
	}
	summary.Output = output

	if site.Split {
		if err := exporter.WriteSplit(output, recordsByType); err != nil {
			return err
		}
	} else {
		var all []models.ExportRecord
		for _, typeSlug := range fetchedTypes {
			all = append(all, recordsByType[typeSlug]...)
		}
		if err := exporter.WriteConsolidated(output, all); err != nil {
			return err
		}
	}

	fields := logger.Fields{
		"site":     summary.Site,
		"exported": summary.TotalExported(),
		"expected": summary.TotalExpected(),
		"output":   summary.Output,
	}
	if n := summary.FailedPages(); n > 0 {
		fields["failed_pages"] = n
	}
	if len(summary.SkippedTypes) > 0 {
		fields["skipped_types"] = strings.Join(summary.SkippedTypes, ",")
	}
	logger.InfoWithFields("export complete", fields)
	return nil
}

// requestedTypes normalizes the configured type list. Nil means the caller
// wants automatic discovery.
func requestedTypes(types []string) []string {
	var out []string
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.EqualFold(t, "auto") {
			return nil
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
