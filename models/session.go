package models

import "time"

// Turn is one entry in a session's conversation history.
type Turn struct {
	Text       string    `json:"text"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Flow tags name an in-progress multi-turn exchange on a session.
const (
	FlowAwaitingClarification = "awaiting_clarification"
	FlowAwaitingScheduleTime  = "awaiting_schedule_time"
)

// Session is the per-user conversational state. It is created on the first
// inbound message for a user id and mutated only by the dispatcher, one
// message at a time.
type Session struct {
	UserID       string           `json:"user_id"`
	History      []Turn           `json:"history"`
	Entities     ExtractionResult `json:"accumulated_entities"`
	CurrentFlow  string           `json:"current_flow,omitempty"`
	PendingText  string           `json:"pending_text,omitempty"` // carried into the clarification round
	LeadID       string           `json:"lead_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	LastActivity time.Time        `json:"last_activity"`
}

// AppendTurn records one dispatched turn, evicting the oldest entry once the
// history bound is reached.
func (s *Session) AppendTurn(turn Turn, maxHistory int) {
	s.History = append(s.History, turn)
	if maxHistory > 0 && len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}
