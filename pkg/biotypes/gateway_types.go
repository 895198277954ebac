// Package biotypes defines the shared data model for bioscope's conversation core.
// This file contains the wire envelopes exchanged with the remote assistant service.
package biotypes

import "time"

// FallbackAnswerText is the answer shown when the server response carries no
// usable text in any of its known fields.
const FallbackAnswerText = "Response received"

// ResponsePayload is the structured body of one assistant answer. It is
// retained verbatim on the system message it produced (Message.RawData) so
// derived views can be reconstructed later, e.g. when replaying history.
type ResponsePayload struct {
	Answer            string             `json:"answer"`
	Message           string             `json:"message,omitempty"`
	RelatedArticles   []Article          `json:"related_articles,omitempty"`
	RelationshipGraph *RelationshipGraph `json:"relationship_graph,omitempty"`
	ResearchGaps      []ResearchGap      `json:"research_gaps,omitempty"`
}

// AnswerText resolves the answer's display text. Precedence: "answer", then
// the legacy "message" field, then FallbackAnswerText. This is the single
// place the fallback is applied; call sites never repeat it.
func (p *ResponsePayload) AnswerText() string {
	if p == nil {
		return FallbackAnswerText
	}
	if p.Answer != "" {
		return p.Answer
	}
	if p.Message != "" {
		return p.Message
	}
	return FallbackAnswerText
}

// SendResult is the envelope returned by the gateway's send operation.
type SendResult struct {
	Success      bool             `json:"success"`
	HistoricalID string           `json:"historical_id,omitempty"`
	Response     *ResponsePayload `json:"response,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// HistoricalEntry is one persisted turn fetched from a historical conversation
// record. Role is the server's string tag: "User" maps to SenderUser, anything
// else maps to SenderSystem.
type HistoricalEntry struct {
	Role              string             `json:"role"`
	Message           string             `json:"message"`
	RelatedArticles   []Article          `json:"related_articles,omitempty"`
	RelationshipGraph *RelationshipGraph `json:"relationship_graph,omitempty"`
	ResearchGaps      []ResearchGap      `json:"research_gaps,omitempty"`
}

// HistoricalRecord summarizes one persisted conversation for history listings.
type HistoricalRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
