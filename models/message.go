package models

import "time"

// Attachment describes a file sent alongside a message. The transport layer
// owns downloading; the core only sees the local path and metadata.
type Attachment struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Path     string `json:"path,omitempty"`
}

// RouteResponse is what the dispatcher hands back to the transport layer for
// every well-formed inbound message.
type RouteResponse struct {
	ReplyText        string           `json:"reply_text"`
	RouteTaken       HandlerKind      `json:"route_taken"`
	Intent           Intent           `json:"intent"`
	Confidence       float64          `json:"confidence"`
	EntitiesCaptured ExtractionResult `json:"entities_captured"`
	LeadID           string           `json:"lead_id,omitempty"`
	Citations        []Citation       `json:"citations,omitempty"`
}

// Citation points at a knowledge-base source backing an answer.
type Citation struct {
	Source  string  `json:"source"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float32 `json:"score,omitempty"`
}

// KnowledgeAnswer is the knowledge agent's reply to a question.
type KnowledgeAnswer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

// Lead is the dealflow record created the first time a lead-capture intent is
// confirmed for a user. QualityScore is annotation only; it never gates
// dispatch.
type Lead struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name,omitempty"`
	Company      string    `json:"company,omitempty"`
	Budget       int64     `json:"budget,omitempty"`
	Timeline     string    `json:"timeline,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	QualityScore int       `json:"quality_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProposalContent is the drafted proposal copy for a lead.
type ProposalContent struct {
	LeadID    string    `json:"lead_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CalendarConfirmation acknowledges a scheduled event.
type CalendarConfirmation struct {
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	EventID string    `json:"event_id,omitempty"`
}

// ConversationRecord is the fire-and-forget log row emitted after every
// dispatch. Persistence failures never block the user reply.
type ConversationRecord struct {
	UserID     string      `json:"user_id"`
	Text       string      `json:"text"`
	Intent     Intent      `json:"intent"`
	Confidence float64     `json:"confidence"`
	Route      HandlerKind `json:"route"`
	RequestID  string      `json:"request_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
