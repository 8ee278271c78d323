package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	Store     int       `gorm:"not null" json:"store"`
	Dept      int       `gorm:"not null" json:"dept"`
	Size      int       `gorm:"not null" json:"size"`
	Type      int       `gorm:"not null" json:"type"` // categorical numeric code
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
