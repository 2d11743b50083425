package service

import (
	"time"

	"github.com/gigconnect/backend/internal/directory"
	"github.com/gigconnect/backend/internal/models"
)

// ProposalView carries one offer's resolved terms, the shape embedded in
// proposal-typed messages and returned by LatestProposal.
type ProposalView struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	ServiceID      string    `json:"service_id"`
	MessageText    string    `json:"message_text"`
	Budget         int64     `json:"budget"`
	Deadline       string    `json:"deadline"` // 2006-01-02
	CreatedAt      time.Time `json:"created_at"`
}

// MessageView is the wire shape of a chat entry. It is identical for the
// history endpoint and for realtime publishes, so clients can append
// published messages without a follow-up fetch.
type MessageView struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	SenderID       string        `json:"sender_id"`
	Type           string        `json:"message_type"`
	Text           string        `json:"text"`
	Proposal       *ProposalView `json:"proposal,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type ConversationSummary struct {
	ID            string              `json:"id"`
	Participants  []directory.Profile `json:"participants"`
	Status        string              `json:"status"`
	ServiceID     string              `json:"service_id"`
	LastMessage   *MessageView        `json:"last_message"`
	LastMessageAt time.Time           `json:"last_message_at"`
	CreatedAt     time.Time           `json:"created_at"`
}

type ConversationDetail struct {
	ID           string              `json:"id"`
	Participants []directory.Profile `json:"participants"`
	Status       string              `json:"status"`
	ServiceID    string              `json:"service_id"`
	ServiceTitle string              `json:"service_title"`
	ProjectID    *string             `json:"project_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func proposalView(p *models.Proposal) *ProposalView {
	if p == nil {
		return nil
	}
	return &ProposalView{
		ID:             p.ID.String(),
		ConversationID: p.ConversationID.String(),
		ServiceID:      p.ServiceID.String(),
		MessageText:    p.MessageText,
		Budget:         p.Budget,
		Deadline:       p.Deadline.Format("2006-01-02"),
		CreatedAt:      p.CreatedAt,
	}
}

// NewMessageView builds the wire shape for a persisted message, resolving
// the proposal reference when one is attached.
func NewMessageView(msg *models.Message, p *models.Proposal) MessageView {
	return MessageView{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Type:           string(msg.Type),
		Text:           msg.Text,
		Proposal:       proposalView(p),
		CreatedAt:      msg.CreatedAt,
	}
}
