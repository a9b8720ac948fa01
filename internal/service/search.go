package service

import (
	"context"
	"errors"
	"fmt"

	"parking-gate-service/internal/model"
	"parking-gate-service/internal/plate"
	"parking-gate-service/internal/repository"
)

const defaultSearchLimit = 50

// SearchStatusRegistered marks a whitelist entry with no session
// history: registered, never parked.
const SearchStatusRegistered = "REGISTERED"

type SearchResult struct {
	Plate           string                `json:"plate"`
	NormalizedPlate string                `json:"normalized_plate"`
	Status          string                `json:"status"`
	Whitelisted     bool                  `json:"whitelisted"`
	OwnerName       string                `json:"owner_name,omitempty"`
	Session         *model.ParkingSession `json:"session,omitempty"`
}

// Search cross-references session history and the whitelist for a
// fuzzy plate query. History matches come first, most recent first;
// whitelist-only hits are appended with the REGISTERED sentinel and
// deduplicated against plates already surfaced.
func (s *GateService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	normalized := plate.Normalize(query)
	if normalized == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", ErrInvalidInput)
	}

	sessions, err := s.sessions.SearchByPlate(ctx, normalized, defaultSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("session search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(sessions))
	seen := make(map[string]bool)
	for i := range sessions {
		session := sessions[i]
		if session.NormalizedPlate == nil {
			continue
		}
		result := SearchResult{
			NormalizedPlate: *session.NormalizedPlate,
			Status:          string(session.Status),
			Session:         &sessions[i],
		}
		if session.Plate != nil {
			result.Plate = *session.Plate
		}
		if entry, err := s.whitelist.FindByPlate(ctx, *session.NormalizedPlate); err == nil {
			result.Whitelisted = true
			result.OwnerName = entry.OwnerName
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("whitelist lookup failed: %w", err)
		}
		seen[*session.NormalizedPlate] = true
		results = append(results, result)
	}

	entries, err := s.whitelist.SearchByPlate(ctx, normalized, defaultSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("whitelist search failed: %w", err)
	}
	for _, entry := range entries {
		if seen[entry.NormalizedPlate] {
			continue
		}
		seen[entry.NormalizedPlate] = true
		results = append(results, SearchResult{
			Plate:           entry.Plate,
			NormalizedPlate: entry.NormalizedPlate,
			Status:          SearchStatusRegistered,
			Whitelisted:     true,
			OwnerName:       entry.OwnerName,
		})
	}

	return results, nil
}
