package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Gig is a service listing. The negotiation core only ever reads it by id
// (title resolution); listing CRUD lives in its own handler.
type Gig struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SellerID uuid.UUID `gorm:"type:uuid;not null;index" json:"seller_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	BasePrice   int64  `json:"base_price"`

	Tags     datatypes.JSON `json:"tags"`     // ["logo", "branding", ...]
	Packages datatypes.JSON `json:"packages"` // { basic: {...}, standard: {...}, premium: {...} }

	Status string `gorm:"type:varchar(20);default:'published'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
