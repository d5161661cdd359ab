// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite formats legal authorities as citation strings and resolves
// the inline citation tokens the model emits against a bibliography.
package cite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/meshintel/counsel-engine/pkg/types"
)

// Format returns the citation string for an authority. Cases render in
// reporter style, e.g. "Miranda v. Arizona, 384 U.S. 436 (Supreme Court of
// the United States 1966)"; scholarship in author-title-year style.
func Format(r types.SearchResult) string {
	switch r.Kind {
	case types.KindCase:
		return formatCase(r)
	default:
		return formatScholarship(r)
	}
}

func formatCase(r types.SearchResult) string {
	var b strings.Builder
	b.WriteString(r.Title)
	if r.Reporter != "" {
		b.WriteString(", ")
		b.WriteString(r.Reporter)
	}

	var paren []string
	if r.Court != "" {
		paren = append(paren, r.Court)
	}
	if !r.Date.IsZero() {
		paren = append(paren, strconv.Itoa(r.Date.Year()))
	}
	if len(paren) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(paren, " "))
		b.WriteString(")")
	}
	return b.String()
}

func formatScholarship(r types.SearchResult) string {
	var b strings.Builder
	if len(r.Authors) > 0 {
		b.WriteString(formatAuthorList(r.Authors))
		b.WriteString(", ")
	}
	b.WriteString(r.Title)
	if !r.Date.IsZero() {
		fmt.Fprintf(&b, " (%d)", r.Date.Year())
	}
	return b.String()
}

func formatAuthorList(authors []string) string {
	switch len(authors) {
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " & " + authors[1]
	default:
		return authors[0] + " et al."
	}
}

// Bibliography numbers a slice of authorities 1..n in input order and
// returns them as Citation records ready for token resolution.
func Bibliography(results []types.SearchResult) []types.Citation {
	cites := make([]types.Citation, len(results))
	for i, r := range results {
		cites[i] = types.Citation{
			Marker:     i + 1,
			Identifier: r.Identifier,
			Title:      r.Title,
			Cite:       Format(r),
			URL:        r.URL,
			Source:     r.Source,
		}
	}
	return cites
}

// tokenRe matches an inline citation token such as "[3]", with any
// single preceding space so dropped tokens take their spacing with them.
var tokenRe = regexp.MustCompile(` ?\[(\d+)\]`)

// Resolve scans prose for citation tokens, maps each to the bibliography,
// drops tokens with no referent, and renumbers the survivors in first-use
// order. It returns the rewritten prose and the cited authorities ordered
// by their new marker.
func Resolve(prose string, bib []types.Citation) (string, []types.Citation) {
	renumber := make(map[int]int) // original marker → new marker
	var cited []types.Citation

	out := tokenRe.ReplaceAllStringFunc(prose, func(tok string) string {
		prefix, body := "", tok
		if strings.HasPrefix(tok, " ") {
			prefix, body = " ", tok[1:]
		}
		n, err := strconv.Atoi(body[1 : len(body)-1])
		if err != nil || n < 1 || n > len(bib) {
			// Model hallucinated a marker with no referent; drop it
			// along with its preceding space.
			return ""
		}
		if newN, ok := renumber[n]; ok {
			return fmt.Sprintf("%s[%d]", prefix, newN)
		}
		newN := len(cited) + 1
		renumber[n] = newN

		c := bib[n-1]
		c.Marker = newN
		cited = append(cited, c)
		return fmt.Sprintf("%s[%d]", prefix, newN)
	})

	return strings.TrimSpace(out), cited
}

// RenderBibliography writes the cited authorities as a Markdown list.
func RenderBibliography(cites []types.Citation) string {
	if len(cites) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range cites {
		fmt.Fprintf(&b, "[%d] %s", c.Marker, c.Cite)
		if c.URL != "" {
			fmt.Fprintf(&b, " — %s", c.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}
