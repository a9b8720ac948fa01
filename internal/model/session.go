package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionStatusParking  SessionStatus = "PARKING"
	SessionStatusCheckout SessionStatus = "CHECKOUT"
)

// ParkingSession is one vehicle's stay. At most one session with
// status PARKING may exist per normalized plate at any time; a session
// never reopens once checked out.
type ParkingSession struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Plate           *string       `gorm:"index" json:"plate"`
	NormalizedPlate *string       `gorm:"index" json:"normalized_plate"`
	CheckinTime     time.Time     `gorm:"not null" json:"checkin_time"`
	CheckoutTime    *time.Time    `json:"checkout_time"`
	Status          SessionStatus `gorm:"not null;default:PARKING" json:"status"`
	Fee             float64       `gorm:"not null;default:0" json:"fee"`
	CheckinImg      *string       `gorm:"type:text" json:"checkin_img"`
	CheckoutImg     *string       `gorm:"type:text" json:"checkout_img"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ParkingSession) TableName() string {
	return "parking_sessions"
}

func (s *ParkingSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
