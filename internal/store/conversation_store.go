package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigconnect/backend/internal/models"
)

type conversationStore struct {
	db *gorm.DB
}

func NewConversationStore(db *gorm.DB) ConversationStore {
	return &conversationStore{db: db}
}

func (s *conversationStore) Create(ctx context.Context, conv *models.Conversation) error {
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *conversationStore) FindByKey(ctx context.Context, participantKey string, serviceID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("participant_key = ? AND service_id = ?", participantKey, serviceID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (s *conversationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Employer").
		Preload("Freelancer").
		Preload("Service").
		First(&conv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (s *conversationStore) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Employer").
		Preload("Freelancer").
		Where("employer_id = ? OR freelancer_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *conversationStore) ExistsBetween(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	key := models.PairKey(userID, otherID)
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("participant_key = ?", key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *conversationStore) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

func (s *conversationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConversationStatus, projectID *uuid.UUID) error {
	updates := map[string]interface{}{"status": status}
	if projectID != nil {
		updates["project_id"] = *projectID
	}
	res := s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
