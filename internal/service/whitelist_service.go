package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/model"
	"parking-gate-service/internal/plate"
	"parking-gate-service/internal/repository"
)

var ErrDuplicateWhitelist = errors.New("plate already whitelisted")

type WhitelistService struct {
	whitelist repository.WhitelistRepository
	log       zerolog.Logger
}

func NewWhitelistService(whitelist repository.WhitelistRepository, log zerolog.Logger) *WhitelistService {
	return &WhitelistService{
		whitelist: whitelist,
		log:       log,
	}
}

func (s *WhitelistService) Register(ctx context.Context, plateValue, ownerName, carImg string) (*model.WhitelistEntry, error) {
	plateValue = strings.TrimSpace(plateValue)
	ownerName = strings.TrimSpace(ownerName)
	if plateValue == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}
	if ownerName == "" {
		return nil, fmt.Errorf("%w: owner name is required", ErrInvalidInput)
	}

	normalized := plate.Normalize(plateValue)
	entry := &model.WhitelistEntry{
		Plate:           plateValue,
		NormalizedPlate: normalized,
		OwnerName:       ownerName,
	}
	if carImg != "" {
		entry.CarImg = &carImg
	}

	if err := s.whitelist.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrDuplicateWhitelist
		}
		return nil, fmt.Errorf("failed to create whitelist entry: %w", err)
	}

	s.log.Info().
		Str("plate", plateValue).
		Str("normalized", normalized).
		Str("owner", ownerName).
		Msg("plate added to whitelist")

	return entry, nil
}

type WhitelistRow struct {
	Plate  string `json:"plate"`
	Owner  string `json:"owner"`
	CarImg string `json:"car_img,omitempty"`
}

type BulkImportResult struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
}

// BulkImport applies the duplicate rule row by row. Malformed rows
// (missing plate or owner) and duplicates are skipped, never fatal.
func (s *WhitelistService) BulkImport(ctx context.Context, rows []WhitelistRow) (*BulkImportResult, error) {
	result := &BulkImportResult{}
	for _, row := range rows {
		if strings.TrimSpace(row.Plate) == "" || strings.TrimSpace(row.Owner) == "" {
			result.Skipped++
			continue
		}
		_, err := s.Register(ctx, row.Plate, row.Owner, row.CarImg)
		if err != nil {
			if errors.Is(err, ErrDuplicateWhitelist) || errors.Is(err, ErrInvalidInput) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		result.Succeeded++
	}

	s.log.Info().
		Int("succeeded", result.Succeeded).
		Int("skipped", result.Skipped).
		Msg("whitelist bulk import finished")

	return result, nil
}

type AccessResult struct {
	Allowed bool   `json:"allowed"`
	Owner   string `json:"owner,omitempty"`
}

// CheckAccess answers manual gate-staff lookups, independent of any
// session state.
func (s *WhitelistService) CheckAccess(ctx context.Context, plateValue string) (*AccessResult, error) {
	normalized := plate.Normalize(plateValue)
	if normalized == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}

	entry, err := s.whitelist.FindByPlate(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &AccessResult{Allowed: false}, nil
		}
		return nil, fmt.Errorf("whitelist lookup failed: %w", err)
	}

	return &AccessResult{Allowed: true, Owner: entry.OwnerName}, nil
}

func (s *WhitelistService) List(ctx context.Context) ([]model.WhitelistEntry, error) {
	return s.whitelist.List(ctx)
}

// Remove deletes by the exact stored plate value, not the normalized
// key. Callers must pass the stored form; this keeps administrative
// delete-by-row semantics even though every other operation matches on
// the normalized key.
func (s *WhitelistService) Remove(ctx context.Context, storedPlate string) error {
	deleted, err := s.whitelist.DeleteByStoredPlate(ctx, storedPlate)
	if err != nil {
		return fmt.Errorf("failed to delete whitelist entry: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}

	s.log.Info().Str("plate", storedPlate).Msg("plate removed from whitelist")
	return nil
}
