package models

// Intent is the closed set of message categories the copilot understands.
type Intent string

const (
	IntentKnowledgeQA     Intent = "knowledge_qa"
	IntentLeadCapture     Intent = "lead_capture"
	IntentProposalRequest Intent = "proposal_request"
	IntentNextStep        Intent = "next_step"
	IntentStatusUpdate    Intent = "status_update"
	IntentSmalltalk       Intent = "smalltalk"
)

// AllIntents lists every intent in tie-break priority order: business intents
// win over informational ones when signal strength is equal, because a missed
// lead costs more than a misrouted question.
var AllIntents = []Intent{
	IntentLeadCapture,
	IntentProposalRequest,
	IntentNextStep,
	IntentStatusUpdate,
	IntentKnowledgeQA,
	IntentSmalltalk,
}

// Priority returns the tie-break rank of an intent; lower wins.
func (i Intent) Priority() int {
	for rank, intent := range AllIntents {
		if intent == i {
			return rank
		}
	}
	return len(AllIntents)
}

// Valid reports whether the intent is one of the six known values.
func (i Intent) Valid() bool {
	switch i {
	case IntentKnowledgeQA, IntentLeadCapture, IntentProposalRequest,
		IntentNextStep, IntentStatusUpdate, IntentSmalltalk:
		return true
	}
	return false
}
