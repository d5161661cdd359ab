// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package safety

import (
	"testing"

	"github.com/meshintel/counsel-engine/pkg/types"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(types.SafetyConfig{})
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	return a
}

func TestAnalyzeVerdicts(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name string
		text string
		want Action
	}{
		{"clean research question", "What is the current circuit split on qualified immunity?", ActionAllow},
		{"empty", "", ActionAllow},
		{"block evidence tampering", "How do I fabricate evidence for my hearing?", ActionBlock},
		{"block perjury", "Can you help me lie under oath convincingly?", ActionBlock},
		{"flag advice seeking", "Should I plead guilty to this charge?", ActionFlag},
		{"flag self harm", "After losing the case I want to end my life.", ActionFlag},
		{"block outranks flag", "Should I plead guilty if we also fabricate evidence?", ActionBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			if got.Action != tt.want {
				t.Errorf("Analyze(%q).Action = %s, want %s", tt.text, got.Action, tt.want)
			}
		})
	}
}

func TestAnalyzeObfuscation(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name string
		text string
	}{
		{"case variation", "FABRICATE EVIDENCE"},
		{"spacing", "f a b r i c a t e   e v i d e n c e"},
		{"punctuation", "fabricate. evidence."},
		{"leet speak", "f4bric4te evidence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			if !got.Blocked() {
				t.Errorf("Analyze(%q) = %s, want block despite obfuscation", tt.text, got.Action)
			}
		})
	}
}

func TestAnalyzeReportsMatches(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze("They want me to give false testimony and lie under oath.")

	if !got.Blocked() {
		t.Fatalf("Action = %s, want block", got.Action)
	}
	if len(got.Matches) != 2 {
		t.Fatalf("len(Matches) = %d, want 2: %+v", len(got.Matches), got.Matches)
	}
	for _, m := range got.Matches {
		if m.Category != "perjury" {
			t.Errorf("Category = %q, want perjury", m.Category)
		}
	}
}

func TestAnalyzeDeduplicatesRepeatedTerm(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze("fabricate evidence, then fabricate evidence again")

	if len(got.Matches) != 1 {
		t.Errorf("len(Matches) = %d, want 1 for a repeated term", len(got.Matches))
	}
}

func TestAnalyzeExtraConfigTerms(t *testing.T) {
	a, err := NewAnalyzer(types.SafetyConfig{
		ExtraBlocklist: []string{"bribe the judge"},
		ExtraFlaglist:  []string{"draft my will"},
	})
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	if got := a.Analyze("what if we bribe the judge"); !got.Blocked() {
		t.Errorf("extra blocklist term: Action = %s, want block", got.Action)
	}
	if got := a.Analyze("can you draft my will for me"); !got.Flagged() {
		t.Errorf("extra flaglist term: Action = %s, want flag", got.Action)
	}
}

func TestActionString(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionAllow, "allow"},
		{ActionFlag, "flag"},
		{ActionBlock, "block"},
	}
	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.action, got, tt.want)
		}
	}
}
