package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	InteractionView     = "view"
	InteractionLike     = "like"
	InteractionShare    = "share"
	InteractionBookmark = "bookmark"
)

func ValidInteractionType(t string) bool {
	switch t {
	case InteractionView, InteractionLike, InteractionShare, InteractionBookmark:
		return true
	default:
		return false
	}
}

// InteractionData is the category/tag snapshot taken at interaction time, so
// profile building does not depend on later edits to the content item.
type InteractionData struct {
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Interaction is append-only: rows are never updated or deleted by this
// service. One of UserID or SessionID must be set.
type Interaction struct {
	ID        uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID                          `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SessionID *string                             `gorm:"column:session_id;index" json:"session_id,omitempty"`
	ContentID uuid.UUID                           `gorm:"type:uuid;not null;index" json:"content_id"`
	Content   *ContentItem                        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentID;references:ID" json:"content,omitempty"`
	Type      string                              `gorm:"column:type;not null;index" json:"type"`
	Data      datatypes.JSONType[InteractionData] `gorm:"column:data;type:jsonb" json:"data"`
	CreatedAt time.Time                           `gorm:"not null;index" json:"created_at"`
}

func (Interaction) TableName() string { return "interaction" }

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
