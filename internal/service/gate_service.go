package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"parking-gate-service/internal/config"
	"parking-gate-service/internal/model"
	"parking-gate-service/internal/plate"
	"parking-gate-service/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Decision is the machine-readable outcome of a gate event. These are
// expected business results, not errors; only storage failures surface
// as Go errors.
type Decision string

const (
	DecisionAccepted          Decision = "ACCEPTED"
	DecisionDuplicateCheckin  Decision = "DUPLICATE_CHECKIN"
	DecisionNotCheckedIn      Decision = "NOT_CHECKED_IN"
	DecisionUnreadablePlate   Decision = "UNREADABLE_PLATE"
	DecisionInvalidFormat     Decision = "INVALID_FORMAT"
	DecisionNeedsConfirmation Decision = "NEEDS_CONFIRMATION"
)

// Recognizer produces a raw OCR candidate from a snapshot. Used only
// when the event carries neither recognized text nor an operator-typed
// plate.
type Recognizer interface {
	ReadPlate(ctx context.Context, image []byte) (string, error)
}

type GateEventInput struct {
	Status      model.GateEventStatus
	RawText     string
	ManualPlate string
	Image       []byte
	SnapshotURL string
	Confirmed   bool
	EventTime   time.Time
	RawPayload  map[string]interface{}
}

type GateResult struct {
	Accepted          bool                  `json:"accepted"`
	NeedsConfirmation bool                  `json:"needs_confirmation,omitempty"`
	Decision          Decision              `json:"decision"`
	Message           string                `json:"message"`
	CorrectedPlate    string                `json:"corrected_plate,omitempty"`
	FeeWaived         bool                  `json:"fee_waived,omitempty"`
	Session           *model.ParkingSession `json:"session,omitempty"`
}

type GateService struct {
	sessions   repository.SessionRepository
	whitelist  repository.WhitelistRepository
	gateEvents repository.GateEventRepository
	recognizer Recognizer
	feeCfg     config.FeeConfig
	locks      *plateLocks
	log        zerolog.Logger
}

func NewGateService(
	sessions repository.SessionRepository,
	whitelist repository.WhitelistRepository,
	gateEvents repository.GateEventRepository,
	recognizer Recognizer,
	feeCfg config.FeeConfig,
	log zerolog.Logger,
) *GateService {
	return &GateService{
		sessions:   sessions,
		whitelist:  whitelist,
		gateEvents: gateEvents,
		recognizer: recognizer,
		feeCfg:     feeCfg,
		locks:      newPlateLocks(),
		log:        log,
	}
}

// ProcessGateEvent runs one camera or operator event through plate
// correction, format validation and the session state machine. The
// read-check-write pair is guarded by a per-plate lock so concurrent
// events for the same plate cannot open two PARKING sessions or
// double-process a checkout.
func (s *GateService) ProcessGateEvent(ctx context.Context, input GateEventInput) (*GateResult, error) {
	if input.Status != model.GateEventCheckIn && input.Status != model.GateEventCheckOut {
		return nil, fmt.Errorf("%w: status must be CHECK_IN or CHECK_OUT", ErrInvalidInput)
	}
	if input.EventTime.IsZero() {
		input.EventTime = time.Now()
	}

	rawPlate, canonical, err := s.resolvePlate(ctx, input)
	if err != nil {
		return nil, err
	}

	if canonical != "" && !plate.Valid(canonical) {
		result := &GateResult{
			Decision:       DecisionInvalidFormat,
			Message:        fmt.Sprintf("plate %q does not match the expected format", canonical),
			CorrectedPlate: canonical,
		}
		s.audit(ctx, input, rawPlate, canonical, result)
		return result, nil
	}

	normalized := plate.Normalize(canonical)

	unlock := s.locks.lock(normalized)
	defer unlock()

	var result *GateResult
	switch input.Status {
	case model.GateEventCheckIn:
		result, err = s.checkIn(ctx, input, canonical, normalized)
	case model.GateEventCheckOut:
		result, err = s.checkOut(ctx, input, canonical, normalized)
	}
	if err != nil {
		return nil, err
	}

	s.audit(ctx, input, rawPlate, canonical, result)

	s.log.Info().
		Str("status", string(input.Status)).
		Str("raw_plate", rawPlate).
		Str("plate", canonical).
		Str("decision", string(result.Decision)).
		Bool("accepted", result.Accepted).
		Msg("processed gate event")

	return result, nil
}

// resolvePlate picks the plate source in priority order: operator-typed
// text is trusted as-is, recognized text goes through correction, and a
// bare snapshot is sent to the recognizer first. An empty canonical
// plate means the entry is unreadable.
func (s *GateService) resolvePlate(ctx context.Context, input GateEventInput) (raw string, canonical string, err error) {
	if manual := strings.TrimSpace(input.ManualPlate); manual != "" {
		return manual, strings.ToUpper(manual), nil
	}

	rawText := strings.TrimSpace(input.RawText)
	if rawText == "" && len(input.Image) > 0 && s.recognizer != nil {
		rawText, err = s.recognizer.ReadPlate(ctx, input.Image)
		if err != nil {
			return "", "", fmt.Errorf("recognizer failed: %w", err)
		}
		rawText = strings.TrimSpace(rawText)
	}

	if rawText == "" {
		return "", "", nil
	}
	return rawText, plate.Correct(rawText), nil
}

func (s *GateService) checkIn(ctx context.Context, input GateEventInput, canonical, normalized string) (*GateResult, error) {
	whitelisted := false
	if normalized != "" {
		if _, err := s.whitelist.FindByPlate(ctx, normalized); err == nil {
			whitelisted = true
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("whitelist lookup failed: %w", err)
		}

		open, err := s.sessions.FindOpenByPlate(ctx, normalized)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("open session lookup failed: %w", err)
		}
		if open != nil {
			return &GateResult{
				Decision:       DecisionDuplicateCheckin,
				Message:        fmt.Sprintf("vehicle %s is already parked, cannot check in again", canonical),
				CorrectedPlate: canonical,
			}, nil
		}
	}

	if !whitelisted && !input.Confirmed {
		return &GateResult{
			NeedsConfirmation: true,
			Decision:          DecisionNeedsConfirmation,
			Message:           "guest vehicle, staff confirmation required before check-in",
			CorrectedPlate:    canonical,
		}, nil
	}

	session := &model.ParkingSession{
		CheckinTime: input.EventTime,
		Status:      model.SessionStatusParking,
	}
	if canonical != "" {
		session.Plate = &canonical
		session.NormalizedPlate = &normalized
	}
	if input.SnapshotURL != "" {
		session.CheckinImg = &input.SnapshotURL
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	message := "check-in accepted"
	if whitelisted {
		message = "check-in accepted, registered vehicle"
	}

	return &GateResult{
		Accepted:       true,
		Decision:       DecisionAccepted,
		Message:        message,
		CorrectedPlate: canonical,
		Session:        session,
	}, nil
}

func (s *GateService) checkOut(ctx context.Context, input GateEventInput, canonical, normalized string) (*GateResult, error) {
	if normalized == "" {
		return &GateResult{
			Decision: DecisionUnreadablePlate,
			Message:  "cannot read a plate for check-out",
		}, nil
	}

	session, err := s.sessions.FindOpenByPlate(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &GateResult{
				Decision:       DecisionNotCheckedIn,
				Message:        fmt.Sprintf("vehicle %s has not checked in or already left", canonical),
				CorrectedPlate: canonical,
			}, nil
		}
		return nil, fmt.Errorf("open session lookup failed: %w", err)
	}

	whitelisted := false
	if _, err := s.whitelist.FindByPlate(ctx, normalized); err == nil {
		whitelisted = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("whitelist lookup failed: %w", err)
	}

	checkoutTime := input.EventTime
	session.CheckoutTime = &checkoutTime
	session.Status = model.SessionStatusCheckout
	if input.SnapshotURL != "" {
		session.CheckoutImg = &input.SnapshotURL
	}

	message := "check-out accepted"
	feeWaived := false
	if whitelisted {
		session.Fee = 0
		feeWaived = true
		message = "check-out accepted, fee waived for registered vehicle"
	} else {
		session.Fee = ComputeFee(s.feeCfg, checkoutTime.Sub(session.CheckinTime))
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return &GateResult{
		Accepted:       true,
		Decision:       DecisionAccepted,
		Message:        message,
		CorrectedPlate: canonical,
		FeeWaived:      feeWaived,
		Session:        session,
	}, nil
}

// audit appends the event to the gate log. The gate decision is
// already committed, so a failed audit write is logged and swallowed.
func (s *GateService) audit(ctx context.Context, input GateEventInput, rawPlate, canonical string, result *GateResult) {
	event := &model.GateEvent{
		Status:    input.Status,
		RawPlate:  rawPlate,
		Decision:  string(result.Decision),
		Message:   result.Message,
		EventTime: input.EventTime,
	}
	if canonical != "" {
		event.CorrectedPlate = &canonical
		normalized := plate.Normalize(canonical)
		event.NormalizedPlate = &normalized
	}
	if result.Session != nil {
		event.SessionID = &result.Session.ID
	}
	if input.SnapshotURL != "" {
		event.SnapshotURL = &input.SnapshotURL
	}
	if len(input.RawPayload) > 0 {
		if raw, err := json.Marshal(input.RawPayload); err == nil {
			event.RawPayload = datatypes.JSON(raw)
		}
	}

	if err := s.gateEvents.Create(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("raw_plate", rawPlate).Msg("failed to write gate event audit record")
	}
}
