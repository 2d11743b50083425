package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigconnect/backend/internal/models"
)

type proposalStore struct {
	db *gorm.DB
}

func NewProposalStore(db *gorm.DB) ProposalStore {
	return &proposalStore{db: db}
}

// Append runs the proposal insert, the proposal-typed message insert, and
// the conversation touch inside a single transaction, so a failed message
// write can never leave an orphaned proposal behind.
func (s *proposalStore) Append(ctx context.Context, p *models.Proposal, msg *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		msg.Type = models.MessageProposal
		msg.ProposalID = &p.ID
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", p.ConversationID).
			Update("last_message_at", msg.CreatedAt).Error
	})
}

func (s *proposalStore) ListByConversation(ctx context.Context, convID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

func (s *proposalStore) Latest(ctx context.Context, convID uuid.UUID) (*models.Proposal, error) {
	var p models.Proposal
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC").
		Limit(1).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
