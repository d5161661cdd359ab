// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries external legal authority APIs and returns unified,
// deduplicated, diversified results. Each backend (CourtListener, OpenAlex,
// Semantic Scholar) implements the Backend interface per the Strategy pattern.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/samber/lo"

	"github.com/meshintel/counsel-engine/pkg/types"
)

// Backend searches a single external authority API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Query holds the search parameters.
type Query struct {
	FreeText     string
	Jurisdiction string
	Author       string
	Keywords     []string
	DateFrom     time.Time
	DateTo       time.Time
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return q.FreeText == "" && q.Author == "" && len(q.Keywords) == 0
}

// SearchOutput holds the ranked results and pipeline statistics.
type SearchOutput struct {
	Results       []types.SearchResult
	DupsRemoved   int
	SourceCounts  map[string]int
	BackendErrors []string
}

// Search fans out the query to all backends concurrently, deduplicates
// results, scores them, diversifies across source+jurisdiction groups, and
// returns the top N. A failed backend is reported on w and skipped; Search
// fails only when the query is empty, no backends are configured, or every
// backend failed.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, w io.Writer) (SearchOutput, error) {
	if query.IsEmpty() {
		return SearchOutput{}, fmt.Errorf("query is empty: provide a research question or structured parameters")
	}
	if len(backends) == 0 {
		return SearchOutput{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		results []types.SearchResult
		err     error
		name    string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, cfg)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.SearchResult
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			msg := fmt.Sprintf("%s: %v", br.name, br.err)
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		all = append(all, br.results...)
	}

	if len(backendErrors) == len(backends) {
		return SearchOutput{BackendErrors: backendErrors},
			fmt.Errorf("all search backends failed: %s", strings.Join(backendErrors, "; "))
	}

	deduped, removed := deduplicate(all)

	applyBoosts(deduped, cfg.RecencyBiasWindow)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	deduped = diversify(deduped, cfg.DiversifyGroups)

	if cfg.MaxResults > 0 && len(deduped) > cfg.MaxResults {
		deduped = deduped[:cfg.MaxResults]
	}

	return SearchOutput{
		Results:       deduped,
		DupsRemoved:   removed,
		SourceCounts:  lo.CountValuesBy(deduped, func(r types.SearchResult) string { return r.Source }),
		BackendErrors: backendErrors,
	}, nil
}

// deduplicate merges results that share an identifier or normalized title.
func deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.SearchResult
	removed := 0

	for _, r := range results {
		key := dedupKey(r)
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], r)
			removed++
			continue
		}

		// Also check by normalized title: the same case or article can come
		// back from two sources under different identifiers.
		titleKey := "title:" + normalizeTitle(r.Title)
		if titleKey != "title:" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, r)
		if key != "" {
			seen[key] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// dedupKey returns a key for identifier-based dedup.
func dedupKey(r types.SearchResult) string {
	if r.Identifier != "" {
		return "id:" + r.Identifier
	}
	return ""
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *types.SearchResult, src types.SearchResult) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Court == "" && src.Court != "" {
		dst.Court = src.Court
	}
	if dst.Jurisdiction == "" && src.Jurisdiction != "" {
		dst.Jurisdiction = src.Jurisdiction
	}
	if dst.Reporter == "" && src.Reporter != "" {
		dst.Reporter = src.Reporter
	}
	if dst.Snippet == "" && src.Snippet != "" {
		dst.Snippet = src.Snippet
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
	}
	if dst.Date.IsZero() && !src.Date.IsZero() {
		dst.Date = src.Date
	}
	if src.Precedential {
		dst.Precedential = true
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the
// title. "Roe v. Wade" and "roe v wade" collapse to the same key.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// applyBoosts adjusts relevance scores after dedup: authorities decided or
// published within the recency window get a boost proportional to freshness,
// and published (precedential) opinions get a flat boost over unpublished
// ones. Scores stay capped at 1.0.
func applyBoosts(results []types.SearchResult, window time.Duration) {
	now := time.Now()
	for i := range results {
		if results[i].Precedential {
			results[i].RelevanceScore = math.Min(1.0, results[i].RelevanceScore+0.1)
		}
		if window <= 0 || results[i].Date.IsZero() {
			continue
		}
		age := now.Sub(results[i].Date)
		if age <= window {
			boost := 0.2 * (1.0 - float64(age)/float64(window))
			results[i].RelevanceScore = math.Min(1.0, results[i].RelevanceScore+boost)
		}
	}
}

// groupKey buckets a result for diversification. Cases group by
// jurisdiction, scholarship by source.
func groupKey(r types.SearchResult) string {
	if r.Kind == types.KindCase && r.Jurisdiction != "" {
		return string(r.Kind) + ":" + r.Jurisdiction
	}
	return string(r.Kind) + ":" + r.Source
}

// diversify reorders score-sorted results so that no more than maxRun
// consecutive results come from the same source+jurisdiction group. Within
// that constraint score order is preserved; when only one group remains its
// results pass through untouched.
func diversify(results []types.SearchResult, maxRun int) []types.SearchResult {
	if maxRun <= 0 || len(results) < 3 {
		return results
	}

	remaining := make([]types.SearchResult, len(results))
	copy(remaining, results)

	out := make([]types.SearchResult, 0, len(results))
	run := 0
	lastKey := ""

	for len(remaining) > 0 {
		picked := -1
		for i, r := range remaining {
			if groupKey(r) == lastKey && run >= maxRun {
				continue
			}
			picked = i
			break
		}
		// Only the capped group is left; emit in score order.
		if picked < 0 {
			picked = 0
		}

		r := remaining[picked]
		remaining = append(remaining[:picked], remaining[picked+1:]...)

		if k := groupKey(r); k == lastKey {
			run++
		} else {
			lastKey = k
			run = 1
		}
		out = append(out, r)
	}
	return out
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out SearchOutput, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-50s  %-24s  %-4s  %-6s  %s\n",
		"Rank", "Kind", "Title", "Cite/Authors", "Year", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range out.Results {
		title := truncate(r.Title, 50)
		detail := r.Reporter
		if r.Kind == types.KindScholarship {
			detail = formatAuthors(r.Authors)
		}
		year := ""
		if !r.Date.IsZero() {
			year = fmt.Sprintf("%d", r.Date.Year())
		}
		fmt.Fprintf(w, "%-4d  %-12s  %-50s  %-24s  %-4s  %-6.2f  %s\n",
			i+1, r.Kind, title, truncate(detail, 24), year, r.RelevanceScore, r.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out SearchOutput, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	default:
		return authors[0] + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
