// Package leadscore computes the quality score annotated onto captured
// leads. The score is a pure function of session entities and intent; it
// annotates the lead record and never gates dispatch.
package leadscore

import "github.com/yourusername/revenue-copilot/models"

// Weights calibrates the scoring function. The defaults mirror the dealflow
// enrichment weights: contact info dominates, timeline is a smaller signal.
type Weights struct {
	IntentBase    map[models.Intent]int `mapstructure:"intent_base"`
	EmailBonus    int                   `mapstructure:"email_bonus"`
	PhoneBonus    int                   `mapstructure:"phone_bonus"`
	CompanyBonus  int                   `mapstructure:"company_bonus"`
	TimelineBonus int                   `mapstructure:"timeline_bonus"`
	BudgetBonus   int                   `mapstructure:"budget_bonus"`
}

// DefaultWeights returns the starting calibration.
func DefaultWeights() Weights {
	return Weights{
		IntentBase: map[models.Intent]int{
			models.IntentLeadCapture:     30,
			models.IntentProposalRequest: 25,
			models.IntentNextStep:        20,
			models.IntentStatusUpdate:    15,
			models.IntentKnowledgeQA:     10,
			models.IntentSmalltalk:       0,
		},
		EmailBonus:    20,
		PhoneBonus:    15,
		CompanyBonus:  15,
		TimelineBonus: 10,
		BudgetBonus:   10,
	}
}

// Score rates a lead from the session's accumulated entities, the latest
// extraction, and the confirmed intent. Identical inputs always produce the
// same score, clamped to [0, 100].
func Score(session *models.Session, extraction models.ExtractionResult, intent models.Intent, w Weights) int {
	merged := models.ExtractionResult{}
	if session != nil {
		merged = session.Entities
	}
	merged.Merge(extraction)

	score := w.IntentBase[intent]
	if merged.Email != "" {
		score += w.EmailBonus
	}
	if merged.Phone != "" {
		score += w.PhoneBonus
	}
	if merged.Company != "" {
		score += w.CompanyBonus
	}
	if merged.Timeline != "" {
		score += w.TimelineBonus
	}
	if merged.Budget > 0 {
		score += w.BudgetBonus
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
