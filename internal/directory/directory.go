// Package directory exposes the read-only collaborators the negotiation
// core consumes: user profiles (id -> name, avatar) and gig titles. The
// core never mutates either table.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigconnect/backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type UserDirectory interface {
	Profile(ctx context.Context, id uuid.UUID) (Profile, error)
	// Profiles resolves a batch; unknown ids are simply absent from the map.
	Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Profile, error)
}

type GigDirectory interface {
	Title(ctx context.Context, id uuid.UUID) (string, error)
}

type userDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) UserDirectory {
	return &userDirectory{db: db}
}

func (d *userDirectory) Profile(ctx context.Context, id uuid.UUID) (Profile, error) {
	var u models.User
	if err := d.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return Profile{ID: u.ID.String(), Name: u.Name, AvatarURL: u.AvatarURL}, nil
}

func (d *userDirectory) Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Profile, error) {
	var users []models.User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Profile, len(users))
	for _, u := range users {
		out[u.ID] = Profile{ID: u.ID.String(), Name: u.Name, AvatarURL: u.AvatarURL}
	}
	return out, nil
}

type gigDirectory struct {
	db *gorm.DB
}

func NewGigDirectory(db *gorm.DB) GigDirectory {
	return &gigDirectory{db: db}
}

func (d *gigDirectory) Title(ctx context.Context, id uuid.UUID) (string, error) {
	var g models.Gig
	if err := d.db.WithContext(ctx).Select("title").First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return g.Title, nil
}
