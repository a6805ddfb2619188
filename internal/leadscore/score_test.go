package leadscore

import (
	"testing"

	"github.com/yourusername/revenue-copilot/models"
)

func TestScore_IntentBaseOnly(t *testing.T) {
	w := DefaultWeights()

	tests := []struct {
		intent models.Intent
		want   int
	}{
		{models.IntentLeadCapture, 30},
		{models.IntentProposalRequest, 25},
		{models.IntentNextStep, 20},
		{models.IntentStatusUpdate, 15},
		{models.IntentKnowledgeQA, 10},
		{models.IntentSmalltalk, 0},
	}
	for _, tt := range tests {
		got := Score(nil, models.ExtractionResult{}, tt.intent, w)
		if got != tt.want {
			t.Errorf("Score(%s, no entities) = %d, want %d", tt.intent, got, tt.want)
		}
	}
}

func TestScore_EntityBonuses(t *testing.T) {
	w := DefaultWeights()

	full := models.ExtractionResult{
		Name:     "John",
		Company:  "Acme",
		Budget:   10000,
		Timeline: "September",
		Email:    "john@acme.com",
		Phone:    "5551234567",
	}
	// 30 base + 20 email + 15 phone + 15 company + 10 timeline + 10 budget = 100
	got := Score(nil, full, models.IntentLeadCapture, w)
	if got != 100 {
		t.Errorf("fully-enriched lead = %d, want 100", got)
	}

	partial := models.ExtractionResult{Company: "Acme", Budget: 10000, Timeline: "September"}
	got = Score(nil, partial, models.IntentLeadCapture, w)
	if got != 65 {
		t.Errorf("scenario lead = %d, want 65", got)
	}
}

func TestScore_UsesSessionEntities(t *testing.T) {
	w := DefaultWeights()

	sess := &models.Session{Entities: models.ExtractionResult{Email: "jane@globex.com"}}
	got := Score(sess, models.ExtractionResult{Company: "Globex"}, models.IntentProposalRequest, w)
	if got != 60 { // 25 base + 20 email (from session) + 15 company (this turn)
		t.Errorf("score = %d, want 60", got)
	}

	// Scoring must not mutate the session's accumulated entities.
	if sess.Entities.Company != "" {
		t.Errorf("session entities mutated by scoring: %+v", sess.Entities)
	}
}

func TestScore_Clamped(t *testing.T) {
	w := DefaultWeights()
	w.IntentBase[models.IntentLeadCapture] = 95
	w.EmailBonus = 50

	got := Score(nil, models.ExtractionResult{Email: "a@b.com"}, models.IntentLeadCapture, w)
	if got != 100 {
		t.Errorf("over-weighted score = %d, want clamp to 100", got)
	}

	w.IntentBase[models.IntentSmalltalk] = -10
	got = Score(nil, models.ExtractionResult{}, models.IntentSmalltalk, w)
	if got != 0 {
		t.Errorf("negative score = %d, want clamp to 0", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	w := DefaultWeights()
	sess := &models.Session{Entities: models.ExtractionResult{Name: "John", Company: "Acme"}}
	ext := models.ExtractionResult{Budget: 10000}

	first := Score(sess, ext, models.IntentLeadCapture, w)
	for i := 0; i < 5; i++ {
		if got := Score(sess, ext, models.IntentLeadCapture, w); got != first {
			t.Fatalf("score changed across identical calls: %d then %d", first, got)
		}
	}
}
