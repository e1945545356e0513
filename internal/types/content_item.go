package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
	ContentStatusArchived  = "archived"
)

// ContentMetadata is the typed shape of the jsonb metadata column.
type ContentMetadata struct {
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SEOData holds the keyword list attached by the content pipeline.
type SEOData struct {
	Keywords []string `json:"keywords,omitempty"`
}

type ContentItem struct {
	ID              uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string                              `gorm:"column:title;not null" json:"title"`
	Slug            string                              `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Summary         string                              `gorm:"column:summary" json:"summary"`
	Body            string                              `gorm:"column:body" json:"-"`
	Source          string                              `gorm:"column:source;index" json:"source"`
	SourceURL       string                              `gorm:"column:source_url" json:"source_url,omitempty"`
	Status          string                              `gorm:"column:status;not null;default:draft;index" json:"status"`
	PublishedAt     *time.Time                          `gorm:"column:published_at;index" json:"published_at,omitempty"`
	Metadata        datatypes.JSONType[ContentMetadata] `gorm:"column:metadata;type:jsonb" json:"metadata"`
	SEO             datatypes.JSONType[SEOData]         `gorm:"column:seo_data;type:jsonb" json:"seo_data"`
	QualityScore    float64                             `gorm:"column:quality_score" json:"quality_score"`
	ImportanceScore float64                             `gorm:"column:importance_score" json:"importance_score"`
	TrendScore      float64                             `gorm:"column:trend_score" json:"trend_score"`
	Stars           int                                 `gorm:"column:stars" json:"stars"`
	CreatedAt       time.Time                           `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                           `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt                      `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentItem) TableName() string { return "content_item" }

func (c *ContentItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
