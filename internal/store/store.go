// Package store holds the persistence components behind the negotiation
// core: conversations, the proposal ledger, and chat messages. Each store is
// an interface over GORM so the service layer can run against in-memory
// fakes in tests. Storage failures propagate unmodified; there are no
// retries here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type ConversationStore interface {
	// Create inserts a new conversation; returns ErrDuplicate when the
	// (participant pair, service) unique index rejects it.
	Create(ctx context.Context, conv *models.Conversation) error
	FindByKey(ctx context.Context, participantKey string, serviceID uuid.UUID) (*models.Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	// ListByParticipant returns every conversation the user is part of,
	// most recent activity first.
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	ExistsBetween(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConversationStatus, projectID *uuid.UUID) error
}

type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListByConversation returns messages ordered by creation time ascending.
	ListByConversation(ctx context.Context, convID uuid.UUID) ([]models.Message, error)
	LastByConversation(ctx context.Context, convID uuid.UUID) (*models.Message, error)
	MarkRead(ctx context.Context, convID, readerID uuid.UUID) error
}

type ProposalStore interface {
	// Append writes the proposal, its proposal-typed message, and the
	// conversation's last-activity bump as one atomic unit.
	Append(ctx context.Context, p *models.Proposal, msg *models.Message) error
	ListByConversation(ctx context.Context, convID uuid.UUID) ([]models.Proposal, error)
	Latest(ctx context.Context, convID uuid.UUID) (*models.Proposal, error)
}
