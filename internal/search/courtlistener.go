// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meshintel/counsel-engine/internal/httputil"
	"github.com/meshintel/counsel-engine/pkg/types"
)

// courtListenerSearchBase is the CourtListener opinion search endpoint.
// Declared as a var so tests can substitute an httptest server.
var courtListenerSearchBase = "https://www.courtlistener.com/api/rest/v4/search/"

// courtListenerSiteBase prefixes the absolute_url field to build stable links.
var courtListenerSiteBase = "https://www.courtlistener.com"

// CourtListenerBackend queries the CourtListener opinion search API.
type CourtListenerBackend struct {
	Client *httputil.RateLimitedClient
	// Token is an optional API token for authenticated rate limits.
	Token string
}

// Name returns the backend identifier.
func (b *CourtListenerBackend) Name() string { return "courtlistener" }

// Search queries the CourtListener API and returns case results.
func (b *CourtListenerBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	q := buildCourtListenerQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty CourtListener query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"q":        {q},
		"type":     {"o"}, // opinions
		"order_by": {"score desc"},
	}
	if query.Jurisdiction != "" {
		params.Set("court", query.Jurisdiction)
	}
	if !query.DateFrom.IsZero() {
		params.Set("filed_after", query.DateFrom.Format("2006-01-02"))
	}
	if !query.DateTo.IsZero() {
		params.Set("filed_before", query.DateTo.Format("2006-01-02"))
	}

	reqURL := courtListenerSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.Token != "" {
		req.Header.Set("Authorization", "Token "+b.Token)
	}

	resp, err := b.Client.Do(ctx, req, 0)
	if err != nil {
		return nil, fmt.Errorf("CourtListener API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CourtListener API returned HTTP %d", resp.StatusCode)
	}

	var clr courtListenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&clr); err != nil {
		return nil, fmt.Errorf("parsing CourtListener response: %w", err)
	}

	total := len(clr.Results)
	if total > maxResults {
		clr.Results = clr.Results[:maxResults]
		total = maxResults
	}

	var results []types.SearchResult
	for i, op := range clr.Results {
		r := types.SearchResult{
			Kind:         types.KindCase,
			Title:        op.CaseName,
			Court:        op.Court,
			Jurisdiction: op.CourtID,
			Snippet:      stripMarkup(op.Snippet),
			Source:       "courtlistener",
			Precedential: strings.EqualFold(op.Status, "Published"),
		}

		// A missing cluster_id must not collapse distinct cases into a
		// shared "cl-0" identifier; leave it empty and dedupe by title.
		if op.ClusterID > 0 {
			r.Identifier = fmt.Sprintf("cl-%d", op.ClusterID)
		}

		if len(op.Citations) > 0 {
			r.Reporter = op.Citations[0]
		}
		if op.AbsoluteURL != "" {
			r.URL = courtListenerSiteBase + op.AbsoluteURL
		}
		if t, parseErr := time.Parse("2006-01-02", op.DateFiled); parseErr == nil {
			r.Date = t
		}

		// Position-based relevance score; CourtListener returns results
		// ordered by its own relevance ranking.
		if total > 1 {
			r.RelevanceScore = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			r.RelevanceScore = 1.0
		}

		results = append(results, r)
	}
	return results, nil
}

// buildCourtListenerQuery combines query fields into a Lucene-style string.
func buildCourtListenerQuery(q Query) string {
	var parts []string
	if q.FreeText != "" {
		parts = append(parts, q.FreeText)
	}
	for _, kw := range q.Keywords {
		parts = append(parts, kw)
	}
	if q.Author != "" {
		// Opinions carry a judge, not an author.
		parts = append(parts, "judge:("+q.Author+")")
	}
	return strings.Join(parts, " ")
}

// stripMarkup removes the <mark> highlight tags CourtListener embeds in
// search snippets.
func stripMarkup(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	s = strings.ReplaceAll(s, "</mark>", "")
	return strings.TrimSpace(s)
}

// CourtListener API JSON structures.
type courtListenerResponse struct {
	Count   int                    `json:"count"`
	Results []courtListenerOpinion `json:"results"`
}

type courtListenerOpinion struct {
	ClusterID   int      `json:"cluster_id"`
	CaseName    string   `json:"caseName"`
	Court       string   `json:"court"`
	CourtID     string   `json:"court_id"`
	DateFiled   string   `json:"dateFiled"`
	Status      string   `json:"status"`
	Citations   []string `json:"citation"`
	Snippet     string   `json:"snippet"`
	AbsoluteURL string   `json:"absolute_url"`
}
