// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the counsel-engine pipeline.
package types

import "time"

// AuthorityKind distinguishes the two classes of legal authority the
// search stage returns.
type AuthorityKind string

const (
	// KindCase is a judicial opinion.
	KindCase AuthorityKind = "case"

	// KindScholarship is a law review article or other secondary source.
	KindScholarship AuthorityKind = "scholarship"
)

// SearchResult represents a candidate authority returned by an external
// search backend. Each result carries an identifier, metadata, source,
// and a relevance score used for ranking and diversification.
type SearchResult struct {
	// Identifier is the canonical ID from the source (CourtListener opinion
	// ID, DOI, or URL).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Kind classifies the authority as a case or scholarship.
	Kind AuthorityKind `json:"kind" yaml:"kind"`

	// Title is the case name or article title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists article authors in source order. Empty for cases.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Court is the deciding court's short name. Empty for scholarship.
	Court string `json:"court,omitempty" yaml:"court,omitempty"`

	// Jurisdiction is the court's jurisdiction code (e.g. "us", "ca9",
	// "scotus"). Used by the diversification pass.
	Jurisdiction string `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`

	// Reporter is the reporter citation for a case (e.g. "410 U.S. 113").
	Reporter string `json:"reporter,omitempty" yaml:"reporter,omitempty"`

	// Precedential reports whether an opinion is published and binding.
	Precedential bool `json:"precedential,omitempty" yaml:"precedential,omitempty"`

	// Snippet is an excerpt or abstract from the source.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Date is the decision or publication date.
	Date time.Time `json:"date" yaml:"date"`

	// Source identifies which backend found this result
	// (e.g. "courtlistener", "openalex", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// URL is a stable link to the authority at the source.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance
	// to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
