package models

// ClassificationResult is the ephemeral outcome of scoring one utterance
// against the intent taxonomy. It is never persisted.
type ClassificationResult struct {
	Intent          Intent   `json:"intent"`
	Confidence      float64  `json:"confidence"` // always in [0,1]
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
}

// ExtractionResult holds the structured entities pulled from one utterance.
// A zero value per field means "not present"; extraction never errors.
type ExtractionResult struct {
	Name      string `json:"name,omitempty"`
	Company   string `json:"company,omitempty"`
	BudgetRaw string `json:"budget_raw,omitempty"`
	Budget    int64  `json:"budget,omitempty"` // normalized amount, 10k -> 10000
	Timeline  string `json:"timeline,omitempty"`
	Email     string `json:"email,omitempty"` // lower-cased
	Phone     string `json:"phone,omitempty"` // digits only
}

// Empty reports whether no entity of any kind was extracted.
func (e ExtractionResult) Empty() bool {
	return e.Name == "" && e.Company == "" && e.BudgetRaw == "" &&
		e.Timeline == "" && e.Email == "" && e.Phone == ""
}

// Merge overwrites each field with the incoming value when the incoming value
// is present. Fields the new extraction missed keep their prior value, which
// is what makes accumulated entities monotonic across turns.
func (e *ExtractionResult) Merge(in ExtractionResult) {
	if in.Name != "" {
		e.Name = in.Name
	}
	if in.Company != "" {
		e.Company = in.Company
	}
	if in.BudgetRaw != "" {
		e.BudgetRaw = in.BudgetRaw
		e.Budget = in.Budget
	}
	if in.Timeline != "" {
		e.Timeline = in.Timeline
	}
	if in.Email != "" {
		e.Email = in.Email
	}
	if in.Phone != "" {
		e.Phone = in.Phone
	}
}

// HandlerKind identifies the downstream route a message was dispatched to.
type HandlerKind string

const (
	HandlerKnowledge HandlerKind = "knowledge_agent"
	HandlerDealflow  HandlerKind = "dealflow_agent"
	HandlerSmalltalk HandlerKind = "smalltalk"
	HandlerClarify   HandlerKind = "clarify"
)
