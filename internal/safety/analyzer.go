// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package safety screens chat text with keyword-pattern checks before it
// reaches the model or the user. Matching is Aho-Corasick over a normalized
// form of the text, so spaced-out or leet-speak obfuscations of a listed
// term still match. There is no model and no learned detector here.
package safety

import (
	"fmt"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"github.com/meshintel/counsel-engine/pkg/types"
)

// Action is the screening outcome, ordered by severity.
type Action int

const (
	// ActionAllow passes the text through unchanged.
	ActionAllow Action = iota

	// ActionFlag passes the text through with a disclaimer attached.
	ActionFlag

	// ActionBlock rejects the text.
	ActionBlock
)

func (a Action) String() string {
	switch a {
	case ActionBlock:
		return "block"
	case ActionFlag:
		return "flag"
	default:
		return "allow"
	}
}

// Disclaimer is appended to flagged assistant output.
const Disclaimer = "This is legal research, not legal advice. Consult a licensed attorney about your specific situation."

// Category is a named keyword list with an action.
type Category struct {
	Name   string
	Action Action
	Terms  []string
}

// builtinCategories are the static lists shipped with the engine. Block
// lists cover requests to participate in fraud on a tribunal; flag lists
// trigger the unauthorized-practice disclaimer or a crisis pointer.
func builtinCategories() []Category {
	return []Category{
		{
			Name:   "evidence-tampering",
			Action: ActionBlock,
			Terms: []string{
				"fabricate evidence",
				"forge a signature",
				"forge the signature",
				"backdate the contract",
				"backdate the document",
				"destroy the evidence",
				"shred the evidence",
				"delete the emails before discovery",
			},
		},
		{
			Name:   "perjury",
			Action: ActionBlock,
			Terms: []string{
				"lie under oath",
				"coach the witness to lie",
				"false testimony",
				"perjure myself",
			},
		},
		{
			Name:   "self-harm",
			Action: ActionFlag,
			Terms: []string{
				"kill myself",
				"end my life",
				"hurt myself",
			},
		},
		{
			Name:   "advice-seeking",
			Action: ActionFlag,
			Terms: []string{
				"should i plead",
				"should i sue",
				"should i settle",
				"represent myself in court",
				"what should i do in my case",
			},
		},
	}
}

// Match records one matched term.
type Match struct {
	Category string `json:"category"`
	Term     string `json:"term"`
}

// Report is the analyzer verdict for one piece of text.
type Report struct {
	Action  Action  `json:"-"`
	Matches []Match `json:"matches,omitempty"`
}

// Blocked reports whether the text must not be shown or forwarded.
func (r Report) Blocked() bool { return r.Action == ActionBlock }

// Flagged reports whether the text needs the disclaimer.
func (r Report) Flagged() bool { return r.Action == ActionFlag }

// categoryMatcher pairs one category's automaton with a lookup from
// normalized pattern back to the original term.
type categoryMatcher struct {
	category Category
	machine  *goahocorasick.Machine
	terms    map[string]string // normalized pattern → original term
}

// Analyzer screens text against the built-in categories plus any extra
// terms from config. Safe for concurrent use after construction.
type Analyzer struct {
	matchers []categoryMatcher
}

// NewAnalyzer builds the per-category automatons. Extra config terms join
// the evidence-tampering block list and the advice-seeking flag list.
func NewAnalyzer(cfg types.SafetyConfig) (*Analyzer, error) {
	cats := builtinCategories()
	for i := range cats {
		if cats[i].Name == "evidence-tampering" {
			cats[i].Terms = append(cats[i].Terms, cfg.ExtraBlocklist...)
		}
		if cats[i].Name == "advice-seeking" {
			cats[i].Terms = append(cats[i].Terms, cfg.ExtraFlaglist...)
		}
	}

	a := &Analyzer{}
	for _, cat := range cats {
		patterns := make([][]rune, 0, len(cat.Terms))
		terms := make(map[string]string, len(cat.Terms))
		for _, term := range cat.Terms {
			norm := normalizeRunes([]rune(term))
			if len(norm) == 0 {
				continue
			}
			patterns = append(patterns, norm)
			terms[string(norm)] = term
		}

		m := new(goahocorasick.Machine)
		if err := m.Build(patterns); err != nil {
			return nil, fmt.Errorf("building matcher for category %s: %w", cat.Name, err)
		}
		a.matchers = append(a.matchers, categoryMatcher{category: cat, machine: m, terms: terms})
	}
	return a, nil
}

// Analyze screens text and returns the most severe action across all
// categories together with every matched term.
func (a *Analyzer) Analyze(text string) Report {
	norm := normalizeRunes([]rune(text))
	if len(norm) == 0 {
		return Report{Action: ActionAllow}
	}

	report := Report{Action: ActionAllow}
	for _, cm := range a.matchers {
		spans := cm.machine.MultiPatternSearch(norm, false)
		if len(spans) == 0 {
			continue
		}
		seen := make(map[string]bool)
		for _, span := range spans {
			term := cm.terms[string(span.Word)]
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true
			report.Matches = append(report.Matches, Match{Category: cm.category.Name, Term: term})
		}
		if cm.category.Action > report.Action {
			report.Action = cm.category.Action
		}
	}
	return report
}

// normalizeRunes lowercases, maps common leet-speak substitutions back to
// letters, and drops punctuation, spacing, and symbols.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet-speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during pattern matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
