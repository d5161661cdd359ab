// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"bytes"
	"strings"
	"testing"

	"github.com/meshintel/counsel-engine/pkg/types"
)

func TestToCSLItemCase(t *testing.T) {
	item := toCSLItem(mirandaCase())

	if item.Type != "legal_case" {
		t.Errorf("Type = %q, want legal_case", item.Type)
	}
	if item.Authority != "Supreme Court of the United States" {
		t.Errorf("Authority = %q", item.Authority)
	}
	if item.Number != "384 U.S. 436" {
		t.Errorf("Number = %q, want reporter cite", item.Number)
	}
	if len(item.Author) != 0 {
		t.Errorf("cases should carry no authors, got %v", item.Author)
	}
	if item.DOI != "" {
		t.Errorf("DOI should be empty for cases, got %q", item.DOI)
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 1966 {
		t.Error("Issued year should be 1966")
	}
}

func TestToCSLItemScholarship(t *testing.T) {
	item := toCSLItem(baudeArticle())

	if item.Type != "article-journal" {
		t.Errorf("Type = %q, want article-journal", item.Type)
	}
	if item.DOI != "10.2139/ssrn.314159" {
		t.Errorf("DOI = %q", item.DOI)
	}
	if len(item.Author) != 1 {
		t.Fatalf("len(Author) = %d, want 1", len(item.Author))
	}
	if item.Author[0].Family != "Baude" || item.Author[0].Given != "William" {
		t.Errorf("Author = %+v, want split into given/family", item.Author[0])
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CSLName
	}{
		{"given and family", "Jane Roe", CSLName{Given: "Jane", Family: "Roe"}},
		{"middle name folds into given", "John Q. Public", CSLName{Given: "John Q.", Family: "Public"}},
		{"single token is literal", "Madonna", CSLName{Literal: "Madonna"}},
		{"empty", "", CSLName{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAuthorName(tt.in); got != tt.want {
				t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteCSL(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSL([]types.SearchResult{mirandaCase(), baudeArticle()}, &buf)
	if err != nil {
		t.Fatalf("WriteCSL() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "type: legal_case") {
		t.Errorf("CSL output missing legal_case entry:\n%s", got)
	}
	if !strings.Contains(got, "type: article-journal") {
		t.Errorf("CSL output missing article-journal entry:\n%s", got)
	}
	if !strings.Contains(got, "DOI: 10.2139/ssrn.314159") {
		t.Errorf("CSL output missing DOI:\n%s", got)
	}
}
