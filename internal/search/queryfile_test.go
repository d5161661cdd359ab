// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/meshintel/counsel-engine/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yaml")

	query := Query{
		FreeText:     "qualified immunity",
		Jurisdiction: "ca9",
		Keywords:     []string{"1983"},
		DateFrom:     mustDate(t, "2015-01-01"),
	}
	cfg := testCfg()
	cfg.DiversifyGroups = 2

	out := SearchOutput{
		Results: []types.SearchResult{
			{
				Identifier: "cl-108713", Kind: types.KindCase,
				Title: "Miranda v. Arizona", Reporter: "384 U.S. 436",
				Jurisdiction: "scotus", Source: "courtlistener",
				Precedential: true, RelevanceScore: 0.95,
				Date: time.Date(1966, 6, 13, 0, 0, 0, 0, time.UTC),
			},
		},
		DupsRemoved:  1,
		SourceCounts: map[string]int{"courtlistener": 1},
	}

	if err := WriteQueryFile(path, query, cfg, out); err != nil {
		t.Fatalf("WriteQueryFile() error = %v", err)
	}

	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatalf("ReadQueryFile() error = %v", err)
	}

	if qf.Query.FreeText != query.FreeText {
		t.Errorf("FreeText = %q, want %q", qf.Query.FreeText, query.FreeText)
	}
	if qf.Query.Jurisdiction != "ca9" {
		t.Errorf("Jurisdiction = %q, want ca9", qf.Query.Jurisdiction)
	}
	if qf.Query.DateFrom != "2015-01-01" {
		t.Errorf("DateFrom = %q, want 2015-01-01", qf.Query.DateFrom)
	}
	if qf.Config.DiversifyGroups != 2 {
		t.Errorf("DiversifyGroups = %d, want 2", qf.Config.DiversifyGroups)
	}
	if len(qf.Results) != 1 || qf.Results[0].Identifier != "cl-108713" {
		t.Errorf("Results = %+v, want the saved case", qf.Results)
	}
	if qf.Summary.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved = %d, want 1", qf.Summary.DuplicatesRemoved)
	}

	back, err := qf.Query.ToQuery()
	if err != nil {
		t.Fatalf("ToQuery() error = %v", err)
	}
	if !back.DateFrom.Equal(query.DateFrom) {
		t.Errorf("DateFrom = %v, want %v", back.DateFrom, query.DateFrom)
	}
}

func TestReadQueryFileMissing(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestToQueryBadDate(t *testing.T) {
	p := QueryParams{FreeText: "x", DateFrom: "01/02/2020"}
	if _, err := p.ToQuery(); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
