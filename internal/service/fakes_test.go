package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"parking-gate-service/internal/model"
	"parking-gate-service/internal/repository"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.ParkingSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.ParkingSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *model.ParkingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *model.ParkingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) FindOpenByPlate(_ context.Context, normalizedPlate string) (*model.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.Status != model.SessionStatusParking || session.NormalizedPlate == nil {
			continue
		}
		if *session.NormalizedPlate == normalizedPlate {
			copied := *session
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) SearchByPlate(_ context.Context, normalizedQuery string, limit int) ([]model.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ParkingSession
	for _, session := range r.sessions {
		if session.NormalizedPlate == nil {
			continue
		}
		if strings.Contains(*session.NormalizedPlate, normalizedQuery) {
			out = append(out, *session)
		}
	}
	// Most recent first.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CheckinTime.After(out[i].CheckinTime) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) FindInRange(_ context.Context, start, end time.Time) ([]model.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ParkingSession
	for _, session := range r.sessions {
		if !session.CheckinTime.Before(start) && !session.CheckinTime.After(end) {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) DeleteInRange(_ context.Context, start, end time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, session := range r.sessions {
		if !session.CheckinTime.Before(start) && !session.CheckinTime.After(end) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) openCountByPlate() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, session := range r.sessions {
		if session.Status == model.SessionStatusParking && session.NormalizedPlate != nil {
			counts[*session.NormalizedPlate]++
		}
	}
	return counts
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type fakeWhitelistRepo struct {
	mu      sync.Mutex
	entries map[string]*model.WhitelistEntry // keyed by normalized plate
}

func newFakeWhitelistRepo() *fakeWhitelistRepo {
	return &fakeWhitelistRepo{entries: make(map[string]*model.WhitelistEntry)}
}

func (r *fakeWhitelistRepo) Create(_ context.Context, entry *model.WhitelistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.NormalizedPlate]; ok {
		return repository.ErrDuplicateEntry
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	stored := *entry
	r.entries[entry.NormalizedPlate] = &stored
	return nil
}

func (r *fakeWhitelistRepo) FindByPlate(_ context.Context, normalizedPlate string) (*model.WhitelistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[normalizedPlate]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeWhitelistRepo) SearchByPlate(_ context.Context, normalizedQuery string, limit int) ([]model.WhitelistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WhitelistEntry
	for _, entry := range r.entries {
		if strings.Contains(entry.NormalizedPlate, normalizedQuery) {
			out = append(out, *entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeWhitelistRepo) List(_ context.Context) ([]model.WhitelistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WhitelistEntry
	for _, entry := range r.entries {
		out = append(out, *entry)
	}
	return out, nil
}

func (r *fakeWhitelistRepo) DeleteByStoredPlate(_ context.Context, storedPlate string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, entry := range r.entries {
		if entry.Plate == storedPlate {
			delete(r.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeGateEventRepo struct {
	mu     sync.Mutex
	events []model.GateEvent
}

func (r *fakeGateEventRepo) Create(_ context.Context, event *model.GateEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

type fakeImageStore struct {
	mu      sync.Mutex
	deleted []string
}

func (s *fakeImageStore) Delete(_ context.Context, objectURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, objectURL)
	return nil
}
