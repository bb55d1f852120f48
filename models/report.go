package models

import "fmt"

// PageFailure records one content page that could not be retrieved.
type PageFailure struct {
	Page       int
	StartIndex int
	EndIndex   int
	Err        error
}

func (f PageFailure) String() string {
	return fmt.Sprintf("page %d (items %d-%d): %v", f.Page, f.StartIndex, f.EndIndex, f.Err)
}

// FetchReport summarizes one content type's fetch: how many items the site
// reported versus how many were actually retrieved, and which pages failed.
type FetchReport struct {
	Type      string
	Expected  int
	Retrieved int
	Pages     int
	Failures  []PageFailure
}

// Complete reports whether every discovered item was retrieved.
func (r FetchReport) Complete() bool {
	return r.Retrieved == r.Expected && len(r.Failures) == 0
}

// TypeSummary is the per-content-type slice of the run summary.
type TypeSummary struct {
	Type        string
	Exported    int
	Expected    int
	Words       int
	FailedPages int
}

// RunSummary aggregates one site run for the final report.
type RunSummary struct {
	Site         string
	Types        []TypeSummary
	SkippedTypes []string
	Output       string
}

// TotalExported sums the exported item counts across content types.
func (s RunSummary) TotalExported() int {
	total := 0
	for _, t := range s.Types {
		total += t.Exported
	}
	return total
}

// TotalExpected sums the discovered item counts across content types.
func (s RunSummary) TotalExpected() int {
	total := 0
	for _, t := range s.Types {
		total += t.Expected
	}
	return total
}

// FailedPages sums the failed page counts across content types.
func (s RunSummary) FailedPages() int {
	total := 0
	for _, t := range s.Types {
		total += t.FailedPages
	}
	return total
}
