package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GateEventStatus string

const (
	GateEventCheckIn  GateEventStatus = "CHECK_IN"
	GateEventCheckOut GateEventStatus = "CHECK_OUT"
)

// GateEvent is the audit record of one processed gate event, accepted
// or rejected. RawPayload keeps whatever the camera or operator sent.
type GateEvent struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	SessionID       *uuid.UUID      `gorm:"type:uuid;index" json:"session_id"`
	Status          GateEventStatus `gorm:"not null" json:"status"`
	RawPlate        string          `gorm:"not null" json:"raw_plate"`
	CorrectedPlate  *string         `json:"corrected_plate"`
	NormalizedPlate *string         `gorm:"index" json:"normalized_plate"`
	Decision        string          `gorm:"not null" json:"decision"`
	Message         string          `gorm:"type:text" json:"message"`
	SnapshotURL     *string         `gorm:"type:text" json:"snapshot_url"`
	EventTime       time.Time       `gorm:"not null" json:"event_time"`
	RawPayload      datatypes.JSON  `gorm:"type:jsonb" json:"raw_payload,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (GateEvent) TableName() string {
	return "gate_events"
}

func (e *GateEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
