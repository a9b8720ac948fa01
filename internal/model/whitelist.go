package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhitelistEntry is a plate pre-approved for fee-free access. The
// normalized plate is unique, so entries differing only in separators
// collide.
type WhitelistEntry struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Plate           string    `gorm:"not null" json:"plate"`
	NormalizedPlate string    `gorm:"not null;uniqueIndex" json:"normalized_plate"`
	OwnerName       string    `gorm:"not null" json:"owner_name"`
	CarImg          *string   `gorm:"type:text" json:"car_img"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (WhitelistEntry) TableName() string {
	return "whitelist_entries"
}

func (w *WhitelistEntry) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
