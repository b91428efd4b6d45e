package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Audition struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	RecruiterID string         `gorm:"not null;index" json:"recruiter_id"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (audition *Audition) BeforeCreate(tx *gorm.DB) (err error) {
	if audition.ID == uuid.Nil {
		audition.ID = uuid.New()
	}
	return
}
