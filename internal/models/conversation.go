package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ConversationStatus string

const (
	StatusProposal  ConversationStatus = "proposal"
	StatusProject   ConversationStatus = "project"
	StatusCompleted ConversationStatus = "completed"
	StatusCancelled ConversationStatus = "cancelled"
)

// Conversation is the negotiation + chat container between an employer and a
// freelancer, scoped to one gig. ParticipantKey is the normalized unordered
// pair; together with ServiceID it carries the unique index that keeps
// concurrent first-contact from creating duplicate conversations.
type Conversation struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	EmployerID   uuid.UUID `gorm:"type:uuid;index" json:"employer_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index" json:"freelancer_id"`

	ParticipantKey string    `gorm:"size:80;not null;uniqueIndex:uniq_pair_service" json:"-"`
	ServiceID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_pair_service" json:"service_id"`

	Status    ConversationStatus `gorm:"type:varchar(20);default:'proposal'" json:"status"`
	ProjectID *uuid.UUID         `gorm:"type:uuid" json:"project_id,omitempty"`

	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Employer   *User `gorm:"foreignKey:EmployerID" json:"employer,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Service    *Gig  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

// PairKey returns the same key for (a,b) and (b,a).
func PairKey(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return lo + ":" + hi
}

// ValidTransition reports whether a stored status may move to next.
// Triggers live outside the negotiation core; we only gate direction:
// proposal -> project -> completed, with cancelled reachable from any
// non-terminal state.
func ValidTransition(from, to ConversationStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusProposal:
		return to == StatusProject || to == StatusCancelled
	case StatusProject:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// Proposal is one versioned offer inside a conversation's negotiation
// history. Immutable once created; a counter-offer is a new row.
type Proposal struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	ServiceID      uuid.UUID `gorm:"type:uuid;not null" json:"service_id"`

	MessageText string    `gorm:"type:text" json:"message_text"`
	Budget      int64     `json:"budget"`
	Deadline    time.Time `json:"deadline"`

	CreatedAt time.Time `json:"created_at"`
}

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageProposal MessageType = "proposal"
)

// Message is one chat-stream entry: free text, or a reference to a Proposal
// whose terms are resolved at read time.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`

	Type       MessageType `gorm:"type:varchar(20);default:'text'" json:"message_type"`
	Text       string      `gorm:"type:text" json:"text"`
	ProposalID *uuid.UUID  `gorm:"type:uuid" json:"proposal_id,omitempty"`

	IsRead    bool       `gorm:"default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
