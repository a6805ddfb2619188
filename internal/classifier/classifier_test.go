package classifier

import (
	"strings"
	"testing"

	"github.com/yourusername/revenue-copilot/models"
)

func TestClassify_KnownIntents(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		text string
		want models.Intent
	}{
		{"lead pitch", "John from Acme wants a PoC in September, budget around 10k", models.IntentLeadCapture},
		{"question", "What is our refund policy?", models.IntentKnowledgeQA},
		{"proposal", "Please draft a proposal for the Acme deal", models.IntentProposalRequest},
		{"scheduling", "Schedule a demo call next Wednesday", models.IntentNextStep},
		{"status", "We won the Initech deal, contract signed", models.IntentStatusUpdate},
		{"greeting", "hey, good morning!", models.IntentSmalltalk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if got.Intent != tt.want {
				t.Errorf("Classify(%q).Intent = %s, want %s (matched %v)",
					tt.text, got.Intent, tt.want, got.MatchedPatterns)
			}
			if got.Confidence < 0.35 {
				t.Errorf("Classify(%q).Confidence = %.2f, want >= 0.35", tt.text, got.Confidence)
			}
		})
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	c := New()

	for _, text := range []string{"", "   ", "\n\t"} {
		got := c.Classify(text)
		if got.Intent != models.IntentSmalltalk {
			t.Errorf("Classify(%q).Intent = %s, want smalltalk", text, got.Intent)
		}
		if got.Confidence != 0 {
			t.Errorf("Classify(%q).Confidence = %.2f, want 0", text, got.Confidence)
		}
	}
}

func TestClassify_ConfidenceBounds(t *testing.T) {
	c := New()

	inputs := []string{
		"hello", "what how when where", "budget budget budget",
		"won lost closed schedule demo proposal what hi thanks",
		"zzzzz qqqqq", "John from Acme wants a demo, budget 10k, email john@acme.com",
	}
	for _, text := range inputs {
		got := c.Classify(text)
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Errorf("Classify(%q).Confidence = %f, out of [0,1]", text, got.Confidence)
		}
		if !got.Intent.Valid() {
			t.Errorf("Classify(%q).Intent = %q, not in taxonomy", text, got.Intent)
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	c := New()
	text := "Can you draft a proposal? Budget is 20k, demo next Friday."

	first := c.Classify(text)
	second := c.Classify(text)

	if first.Intent != second.Intent || first.Confidence != second.Confidence {
		t.Errorf("classification not idempotent: %+v vs %+v", first, second)
	}
	if strings.Join(first.MatchedPatterns, ",") != strings.Join(second.MatchedPatterns, ",") {
		t.Errorf("matched patterns differ between runs: %v vs %v",
			first.MatchedPatterns, second.MatchedPatterns)
	}
}

func TestClassify_TieBreakByPriority(t *testing.T) {
	c := New()

	// Equal signal strength must resolve to the higher-priority business
	// intent, not to whichever map key happened to come first.
	tests := []struct {
		text string
		want models.Intent
	}{
		{"refund pricing", models.IntentLeadCapture},   // lead vs knowledge
		{"refund update", models.IntentStatusUpdate},   // status vs knowledge
		{"proposal pricing", models.IntentLeadCapture}, // lead vs proposal
	}
	for _, tt := range tests {
		for i := 0; i < 10; i++ {
			got := c.Classify(tt.text)
			if got.Intent != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.text, got.Intent, tt.want)
			}
		}
	}
}

func TestClassify_NoSignalsFallsBackToSmalltalk(t *testing.T) {
	c := New()

	got := c.Classify("xylophone quartz")
	if got.Intent != models.IntentSmalltalk || got.Confidence != 0 {
		t.Errorf("got %s/%.2f, want smalltalk/0", got.Intent, got.Confidence)
	}
}

func TestTopCandidates(t *testing.T) {
	c := New()

	got := c.TopCandidates("refund pricing", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0] != models.IntentLeadCapture {
		t.Errorf("top candidate = %s, want lead_capture", got[0])
	}

	// No signals at all still yields a usable prompt.
	fallback := c.TopCandidates("xylophone", 2)
	if len(fallback) == 0 {
		t.Error("expected non-empty candidates for unmatched text")
	}
}
