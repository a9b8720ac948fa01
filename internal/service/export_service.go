package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"parking-gate-service/internal/model"
	"parking-gate-service/internal/repository"
)

// ImageStore is the image-storage collaborator for the purge path. A
// nil store means snapshot cleanup is disabled.
type ImageStore interface {
	Delete(ctx context.Context, objectURL string) error
}

type ExportService struct {
	sessions repository.SessionRepository
	images   ImageStore
	log      zerolog.Logger
}

func NewExportService(sessions repository.SessionRepository, images ImageStore, log zerolog.Logger) *ExportService {
	return &ExportService{
		sessions: sessions,
		images:   images,
		log:      log,
	}
}

type ExportResult struct {
	Workbook *excelize.File
	Rows     int
	Purged   int64
}

// ExportRange renders sessions with checkin_time in [start, end] to an
// xlsx workbook. With purge set, exported rows and their snapshot
// objects are deleted — strictly after the workbook is built, so a
// failed export never destroys data.
func (s *ExportService) ExportRange(ctx context.Context, start, end time.Time, purge bool) (*ExportResult, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalidInput)
	}

	sessions, err := s.sessions.FindInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	workbook, err := buildWorkbook(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}

	result := &ExportResult{Workbook: workbook, Rows: len(sessions)}

	if purge {
		for i := range sessions {
			s.deleteImages(ctx, &sessions[i])
		}
		purged, err := s.sessions.DeleteInRange(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to purge sessions: %w", err)
		}
		result.Purged = purged
		s.log.Info().
			Int64("purged", purged).
			Time("start", start).
			Time("end", end).
			Msg("purged exported sessions")
	}

	return result, nil
}

// DeleteSession removes a single record and releases its snapshots.
func (s *ExportService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	s.deleteImages(ctx, session)

	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// deleteImages is best-effort: a missing object must not block an
// administrative purge.
func (s *ExportService) deleteImages(ctx context.Context, session *model.ParkingSession) {
	if s.images == nil {
		return
	}
	for _, img := range []*string{session.CheckinImg, session.CheckoutImg} {
		if img == nil || *img == "" {
			continue
		}
		if err := s.images.Delete(ctx, *img); err != nil {
			s.log.Warn().Err(err).Str("url", *img).Msg("failed to delete snapshot object")
		}
	}
}

var exportHeader = []string{"ID", "Plate", "Check-in", "Check-out", "Status", "Fee", "Check-in image", "Check-out image"}

func buildWorkbook(sessions []model.ParkingSession) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Sessions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for i, session := range sessions {
		values := []interface{}{
			session.ID.String(),
			deref(session.Plate),
			session.CheckinTime.Format(time.RFC3339),
			formatTime(session.CheckoutTime),
			string(session.Status),
			session.Fee,
			deref(session.CheckinImg),
			deref(session.CheckoutImg),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
