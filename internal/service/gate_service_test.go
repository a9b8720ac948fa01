package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/config"
	"parking-gate-service/internal/model"
)

func testFeeConfig() config.FeeConfig {
	return config.FeeConfig{
		ShortStayLimit: 4 * time.Hour,
		DayLimit:       12 * time.Hour,
		ShortStayFee:   5000,
		DayFee:         30000,
		OvernightFee:   50000,
	}
}

func newTestGateService() (*GateService, *fakeSessionRepo, *fakeWhitelistRepo, *fakeGateEventRepo) {
	sessions := newFakeSessionRepo()
	whitelist := newFakeWhitelistRepo()
	events := &fakeGateEventRepo{}
	svc := NewGateService(sessions, whitelist, events, nil, testFeeConfig(), zerolog.Nop())
	return svc, sessions, whitelist, events
}

func mustWhitelist(t *testing.T, repo *fakeWhitelistRepo, plateValue, normalized, owner string) {
	t.Helper()
	err := repo.Create(context.Background(), &model.WhitelistEntry{
		Plate:           plateValue,
		NormalizedPlate: normalized,
		OwnerName:       owner,
	})
	if err != nil {
		t.Fatalf("failed to seed whitelist: %v", err)
	}
}

func TestProcessGateEventRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestGateService()

	_, err := svc.ProcessGateEvent(context.Background(), GateEventInput{Status: "OPEN_BARRIER"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessGateEventCheckInConfirmedGuest(t *testing.T) {
	svc, sessions, _, events := newTestGateService()

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status:    model.GateEventCheckIn,
		RawText:   "30A12345",
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if !result.Accepted || result.Decision != DecisionAccepted {
		t.Fatalf("expected accepted check-in, got %+v", result)
	}
	if result.CorrectedPlate != "30A-123.45" {
		t.Errorf("corrected plate = %q, want %q", result.CorrectedPlate, "30A-123.45")
	}
	if result.Session == nil {
		t.Fatal("expected a created session")
	}
	if result.Session.Status != model.SessionStatusParking {
		t.Errorf("session status = %q, want PARKING", result.Session.Status)
	}
	if result.Session.Plate == nil || *result.Session.Plate != "30A-123.45" {
		t.Errorf("session plate = %v, want 30A-123.45", result.Session.Plate)
	}
	if sessions.count() != 1 {
		t.Errorf("session count = %d, want 1", sessions.count())
	}
	if len(events.events) != 1 || events.events[0].Decision != string(DecisionAccepted) {
		t.Errorf("expected one ACCEPTED audit event, got %+v", events.events)
	}
}

func TestProcessGateEventCheckInNeedsConfirmation(t *testing.T) {
	svc, sessions, _, _ := newTestGateService()

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status:  model.GateEventCheckIn,
		RawText: "30A12345",
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if result.Accepted {
		t.Error("unconfirmed guest check-in must not be accepted")
	}
	if !result.NeedsConfirmation || result.Decision != DecisionNeedsConfirmation {
		t.Errorf("expected NEEDS_CONFIRMATION, got %+v", result)
	}
	if sessions.count() != 0 {
		t.Errorf("no session may be committed before confirmation, found %d", sessions.count())
	}
}

func TestProcessGateEventCheckInWhitelistedSkipsConfirmation(t *testing.T) {
	svc, sessions, whitelist, _ := newTestGateService()
	mustWhitelist(t, whitelist, "30A-123.45", "30A12345", "Nguyen Van A")

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status:  model.GateEventCheckIn,
		RawText: "30A12345",
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if !result.Accepted || result.Decision != DecisionAccepted {
		t.Fatalf("whitelisted vehicle should check in without confirmation, got %+v", result)
	}
	if sessions.count() != 1 {
		t.Errorf("session count = %d, want 1", sessions.count())
	}
}

func TestProcessGateEventDuplicateCheckin(t *testing.T) {
	svc, sessions, _, _ := newTestGateService()

	for i, wantDecision := range []Decision{DecisionAccepted, DecisionDuplicateCheckin} {
		result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
			Status:    model.GateEventCheckIn,
			RawText:   "30A12345",
			Confirmed: true,
		})
		if err != nil {
			t.Fatalf("event %d: ProcessGateEvent() error = %v", i, err)
		}
		if result.Decision != wantDecision {
			t.Errorf("event %d: decision = %q, want %q", i, result.Decision, wantDecision)
		}
	}
	if sessions.count() != 1 {
		t.Errorf("session count = %d, want 1", sessions.count())
	}
}

func TestProcessGateEventCheckInPlateless(t *testing.T) {
	svc, sessions, _, _ := newTestGateService()

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status:    model.GateEventCheckIn,
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if !result.Accepted {
		t.Fatalf("confirmed plateless check-in should be accepted, got %+v", result)
	}
	if result.Session.Plate != nil {
		t.Errorf("plateless session must store a nil plate, got %v", *result.Session.Plate)
	}
	if sessions.count() != 1 {
		t.Errorf("session count = %d, want 1", sessions.count())
	}
}

func TestProcessGateEventInvalidFormat(t *testing.T) {
	svc, sessions, _, _ := newTestGateService()

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status:      model.GateEventCheckIn,
		ManualPlate: "not-a-plate",
		Confirmed:   true,
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if result.Accepted || result.Decision != DecisionInvalidFormat {
		t.Errorf("expected INVALID_FORMAT, got %+v", result)
	}
	if sessions.count() != 0 {
		t.Errorf("invalid plate must not create a session, found %d", sessions.count())
	}
}

func TestProcessGateEventCheckOutNotCheckedIn(t *testing.T) {
	svc, _, _, _ := newTestGateService()

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status:  model.GateEventCheckOut,
		RawText: "30A12345",
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if result.Accepted || result.Decision != DecisionNotCheckedIn {
		t.Errorf("expected NOT_CHECKED_IN, got %+v", result)
	}
}

func TestProcessGateEventCheckOutUnreadablePlate(t *testing.T) {
	svc, _, _, _ := newTestGateService()

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status: model.GateEventCheckOut,
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if result.Accepted || result.Decision != DecisionUnreadablePlate {
		t.Errorf("expected UNREADABLE_PLATE, got %+v", result)
	}
}

func TestProcessGateEventCheckOutComputesFee(t *testing.T) {
	svc, _, _, _ := newTestGateService()
	ctx := context.Background()

	checkin := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		stay    time.Duration
		wantFee float64
	}{
		{"short stay", 2 * time.Hour, 5000},
		{"day stay", 6 * time.Hour, 30000},
		{"overnight stay", 20 * time.Hour, 50000},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rawText := fmt.Sprintf("30A1234%d", i)
			if _, err := svc.ProcessGateEvent(ctx, GateEventInput{
				Status:    model.GateEventCheckIn,
				RawText:   rawText,
				Confirmed: true,
				EventTime: checkin,
			}); err != nil {
				t.Fatalf("check-in error = %v", err)
			}

			result, err := svc.ProcessGateEvent(ctx, GateEventInput{
				Status:    model.GateEventCheckOut,
				RawText:   rawText,
				EventTime: checkin.Add(tt.stay),
			})
			if err != nil {
				t.Fatalf("check-out error = %v", err)
			}

			if !result.Accepted {
				t.Fatalf("expected accepted check-out, got %+v", result)
			}
			if result.Session.Fee != tt.wantFee {
				t.Errorf("fee = %v, want %v", result.Session.Fee, tt.wantFee)
			}
			if result.Session.Status != model.SessionStatusCheckout {
				t.Errorf("session status = %q, want CHECKOUT", result.Session.Status)
			}
			if result.Session.CheckoutTime == nil {
				t.Error("checkout time not set")
			}
		})
	}
}

func TestProcessGateEventCheckOutWaivesWhitelistedFee(t *testing.T) {
	svc, _, whitelist, _ := newTestGateService()
	ctx := context.Background()
	mustWhitelist(t, whitelist, "30A-123.45", "30A12345", "Nguyen Van A")

	checkin := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if _, err := svc.ProcessGateEvent(ctx, GateEventInput{
		Status:    model.GateEventCheckIn,
		RawText:   "30A12345",
		EventTime: checkin,
	}); err != nil {
		t.Fatalf("check-in error = %v", err)
	}

	// A stay in the overnight tier still costs nothing when registered.
	result, err := svc.ProcessGateEvent(ctx, GateEventInput{
		Status:    model.GateEventCheckOut,
		RawText:   "30A12345",
		EventTime: checkin.Add(30 * time.Hour),
	})
	if err != nil {
		t.Fatalf("check-out error = %v", err)
	}

	if !result.Accepted || !result.FeeWaived {
		t.Fatalf("expected fee-waived check-out, got %+v", result)
	}
	if result.Session.Fee != 0 {
		t.Errorf("fee = %v, want 0", result.Session.Fee)
	}
}

func TestProcessGateEventCheckOutIsNotRepeatable(t *testing.T) {
	svc, _, _, _ := newTestGateService()
	ctx := context.Background()

	if _, err := svc.ProcessGateEvent(ctx, GateEventInput{
		Status:    model.GateEventCheckIn,
		RawText:   "30A12345",
		Confirmed: true,
	}); err != nil {
		t.Fatalf("check-in error = %v", err)
	}

	for i, wantDecision := range []Decision{DecisionAccepted, DecisionNotCheckedIn} {
		result, err := svc.ProcessGateEvent(ctx, GateEventInput{
			Status:  model.GateEventCheckOut,
			RawText: "30A12345",
		})
		if err != nil {
			t.Fatalf("check-out %d error = %v", i, err)
		}
		if result.Decision != wantDecision {
			t.Errorf("check-out %d: decision = %q, want %q", i, result.Decision, wantDecision)
		}
	}
}

type fakeRecognizer struct {
	text string
	err  error
}

func (r *fakeRecognizer) ReadPlate(_ context.Context, _ []byte) (string, error) {
	return r.text, r.err
}

func TestProcessGateEventUsesRecognizerForImages(t *testing.T) {
	sessions := newFakeSessionRepo()
	whitelist := newFakeWhitelistRepo()
	events := &fakeGateEventRepo{}
	svc := NewGateService(sessions, whitelist, events, &fakeRecognizer{text: "3OA12345"}, testFeeConfig(), zerolog.Nop())

	result, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status:    model.GateEventCheckIn,
		Image:     []byte("jpeg-bytes"),
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("ProcessGateEvent() error = %v", err)
	}

	if result.CorrectedPlate != "30A-123.45" {
		t.Errorf("corrected plate = %q, want %q", result.CorrectedPlate, "30A-123.45")
	}
	if !result.Accepted {
		t.Errorf("expected accepted check-in, got %+v", result)
	}
}

func TestProcessGateEventRecognizerFailure(t *testing.T) {
	svcErr := errors.New("recognizer down")
	svc := NewGateService(newFakeSessionRepo(), newFakeWhitelistRepo(), &fakeGateEventRepo{}, &fakeRecognizer{err: svcErr}, testFeeConfig(), zerolog.Nop())

	_, err := svc.ProcessGateEvent(context.Background(), GateEventInput{
		Status: model.GateEventCheckIn,
		Image:  []byte("jpeg-bytes"),
	})
	if !errors.Is(err, svcErr) {
		t.Fatalf("expected recognizer error to surface, got %v", err)
	}
}

// Concurrent events for the same plates must never leave more than one
// open session per plate, whatever the interleaving.
func TestProcessGateEventConcurrentSinglePark(t *testing.T) {
	svc, sessions, _, _ := newTestGateService()
	ctx := context.Background()

	plates := []string{"30A12345", "51B67890", "29C11122"}
	const workers = 8
	const opsPerWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < opsPerWorker; i++ {
				status := model.GateEventCheckIn
				if rng.Intn(2) == 0 {
					status = model.GateEventCheckOut
				}
				_, err := svc.ProcessGateEvent(ctx, GateEventInput{
					Status:    status,
					RawText:   plates[rng.Intn(len(plates))],
					Confirmed: true,
				})
				if err != nil {
					t.Errorf("ProcessGateEvent() error = %v", err)
					return
				}
			}
		}(int64(w))
	}
	wg.Wait()

	for normalized, open := range sessions.openCountByPlate() {
		if open > 1 {
			t.Errorf("plate %s has %d open sessions, want at most 1", normalized, open)
		}
	}
}
