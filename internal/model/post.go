package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post represents a blog post. Unpublished posts are drafts visible only to
// administrators.
type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Excerpt   string    `json:"excerpt" gorm:"type:text"`
	Published bool      `json:"published" gorm:"default:false;index"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:char(36);not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Author User `json:"author" gorm:"foreignKey:AuthorID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
