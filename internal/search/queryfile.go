// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/counsel-engine/pkg/types"
)

// QueryFile is the on-disk representation of an authority search and its
// results. A researcher can save a search to a file and reload it later
// without re-querying the external APIs.
type QueryFile struct {
	Query   QueryParams          `yaml:"query"`
	Config  QueryFileConfig      `yaml:"config"`
	Results []types.SearchResult `yaml:"results"`
	Summary QuerySummary         `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	FreeText     string   `yaml:"free_text,omitempty"`
	Jurisdiction string   `yaml:"jurisdiction,omitempty"`
	Author       string   `yaml:"author,omitempty"`
	Keywords     []string `yaml:"keywords,omitempty"`
	DateFrom     string   `yaml:"date_from,omitempty"`
	DateTo       string   `yaml:"date_to,omitempty"`
}

// QueryFileConfig stores the search configuration that produced the results.
type QueryFileConfig struct {
	MaxResults      int `yaml:"max_results"`
	DiversifyGroups int `yaml:"diversify_groups"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int            `yaml:"total"`
	DuplicatesRemoved int            `yaml:"duplicates_removed"`
	SourceCounts      map[string]int `yaml:"source_counts,omitempty"`
	BackendErrors     []string       `yaml:"backend_errors,omitempty"`
	Timestamp         time.Time      `yaml:"timestamp"`
}

const dateFmt = "2006-01-02"

// WriteQueryFile saves query parameters and results to a YAML file.
func WriteQueryFile(path string, query Query, cfg types.SearchConfig, out SearchOutput) error {
	qf := QueryFile{
		Query: QueryParams{
			FreeText:     query.FreeText,
			Jurisdiction: query.Jurisdiction,
			Author:       query.Author,
			Keywords:     query.Keywords,
		},
		Config: QueryFileConfig{
			MaxResults:      cfg.MaxResults,
			DiversifyGroups: cfg.DiversifyGroups,
		},
		Results: out.Results,
		Summary: QuerySummary{
			Total:             len(out.Results),
			DuplicatesRemoved: out.DupsRemoved,
			SourceCounts:      out.SourceCounts,
			BackendErrors:     out.BackendErrors,
			Timestamp:         time.Now(),
		},
	}

	if !query.DateFrom.IsZero() {
		qf.Query.DateFrom = query.DateFrom.Format(dateFmt)
	}
	if !query.DateTo.IsZero() {
		qf.Query.DateTo = query.DateTo.Format(dateFmt)
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing query file %s: %w", path, err)
	}
	return nil
}

// ReadQueryFile loads a previously saved query file.
func ReadQueryFile(path string) (QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return QueryFile{}, fmt.Errorf("reading query file %s: %w", path, err)
	}

	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return QueryFile{}, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	return qf, nil
}

// ToQuery converts saved parameters back to a Query.
func (p QueryParams) ToQuery() (Query, error) {
	q := Query{
		FreeText:     p.FreeText,
		Jurisdiction: p.Jurisdiction,
		Author:       p.Author,
		Keywords:     p.Keywords,
	}
	if p.DateFrom != "" {
		t, err := time.Parse(dateFmt, p.DateFrom)
		if err != nil {
			return Query{}, fmt.Errorf("parsing date_from %q: %w", p.DateFrom, err)
		}
		q.DateFrom = t
	}
	if p.DateTo != "" {
		t, err := time.Parse(dateFmt, p.DateTo)
		if err != nil {
			return Query{}, fmt.Errorf("parsing date_to %q: %w", p.DateTo, err)
		}
		q.DateTo = t
	}
	return q, nil
}
