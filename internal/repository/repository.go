package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"parking-gate-service/internal/model"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("record already exists")
)

// SessionRepository owns parking_sessions. Plate matching is always on
// the normalized key.
type SessionRepository interface {
	Create(ctx context.Context, session *model.ParkingSession) error
	Update(ctx context.Context, session *model.ParkingSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ParkingSession, error)
	FindOpenByPlate(ctx context.Context, normalizedPlate string) (*model.ParkingSession, error)
	SearchByPlate(ctx context.Context, normalizedQuery string, limit int) ([]model.ParkingSession, error)
	FindInRange(ctx context.Context, start, end time.Time) ([]model.ParkingSession, error)
	DeleteInRange(ctx context.Context, start, end time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type WhitelistRepository interface {
	Create(ctx context.Context, entry *model.WhitelistEntry) error
	FindByPlate(ctx context.Context, normalizedPlate string) (*model.WhitelistEntry, error)
	SearchByPlate(ctx context.Context, normalizedQuery string, limit int) ([]model.WhitelistEntry, error)
	List(ctx context.Context) ([]model.WhitelistEntry, error)
	// DeleteByStoredPlate matches the exact stored value, not the
	// normalized key. Administrative delete-by-row semantics; callers
	// must pass the stored form.
	DeleteByStoredPlate(ctx context.Context, storedPlate string) (int64, error)
}

type GateEventRepository interface {
	Create(ctx context.Context, event *model.GateEvent) error
}
