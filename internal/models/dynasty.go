package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dynasty is a persistent league: a fixed set of teams and conferences that
// plays one season per year. Team identities carry across years; records,
// polls and prestige flags reset every season.
type Dynasty struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	CurrentYear int            `gorm:"not null" json:"current_year"`
	Teams       datatypes.JSON `gorm:"type:jsonb" json:"teams"`
	Conferences datatypes.JSON `gorm:"type:jsonb" json:"conferences"`
	Config      datatypes.JSON `gorm:"type:jsonb" json:"config"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Dynasty) TableName() string {
	return "dynasties"
}

func (d *Dynasty) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
