package service_test

import (
	"testing"
	"time"

	"roulette-bot/database/model"
	"roulette-bot/service"
)

func participant(agreed bool, lastSpin *time.Time) *model.Participant {
	return &model.Participant{
		Id:         42,
		Agreed:     agreed,
		LastSpinAt: lastSpin,
	}
}

func TestDecideAccessRequiresAgreement(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := service.RollingWindow{Span: 14 * 24 * time.Hour}

	decision := service.DecideAccess(nil, now, true, policy)
	if decision.Access != service.AccessMustAgree {
		t.Errorf("unknown participant should get MustAgree, got %v", decision.Access)
	}

	decision = service.DecideAccess(participant(false, nil), now, true, policy)
	if decision.Access != service.AccessMustAgree {
		t.Errorf("non-agreed participant should get MustAgree, got %v", decision.Access)
	}

	// Agreement outranks the subscription check.
	decision = service.DecideAccess(participant(false, nil), now, false, policy)
	if decision.Access != service.AccessMustAgree {
		t.Errorf("agreement should be checked before subscription, got %v", decision.Access)
	}
}

func TestDecideAccessRequiresSubscription(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := service.RollingWindow{Span: 14 * 24 * time.Hour}

	decision := service.DecideAccess(participant(true, nil), now, false, policy)
	if decision.Access != service.AccessMustSubscribe {
		t.Errorf("unsubscribed participant should get MustSubscribe, got %v", decision.Access)
	}
}

func TestDecideAccessFirstSpin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := service.RollingWindow{Span: 14 * 24 * time.Hour}

	decision := service.DecideAccess(participant(true, nil), now, true, policy)
	if decision.Access != service.AccessEligible {
		t.Errorf("agreed subscribed participant with no spin should be Eligible, got %v", decision.Access)
	}
}

func TestRollingWindowBoundary(t *testing.T) {
	policy := service.RollingWindow{Span: 14 * 24 * time.Hour}
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := participant(true, &last)

	blockedAt := last.Add(14*24*time.Hour - time.Minute)
	decision := service.DecideAccess(p, blockedAt, true, policy)
	if decision.Access != service.AccessCooldown {
		t.Fatalf("13d23h59m after the spin should be Cooldown, got %v", decision.Access)
	}
	wantReopen := last.Add(14 * 24 * time.Hour)
	if !decision.ReopensAt.Equal(wantReopen) {
		t.Errorf("ReopensAt = %v, want %v", decision.ReopensAt, wantReopen)
	}

	// The boundary is exclusive: exactly 14 days later is allowed.
	decision = service.DecideAccess(p, last.Add(14*24*time.Hour), true, policy)
	if decision.Access != service.AccessEligible {
		t.Errorf("exactly 14 days after the spin should be Eligible, got %v", decision.Access)
	}
}

func TestCalendarMonthWindow(t *testing.T) {
	policy := service.CalendarMonthWindow{}

	lastDayOfJanuary := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)
	p := participant(true, &lastDayOfJanuary)

	firstOfFebruary := time.Date(2025, 2, 1, 0, 5, 0, 0, time.UTC)
	decision := service.DecideAccess(p, firstOfFebruary, true, policy)
	if decision.Access != service.AccessEligible {
		t.Errorf("next calendar month should be Eligible, got %v", decision.Access)
	}

	febSpin := firstOfFebruary
	p = participant(true, &febSpin)
	laterInFebruary := time.Date(2025, 2, 20, 18, 0, 0, 0, time.UTC)
	decision = service.DecideAccess(p, laterInFebruary, true, policy)
	if decision.Access != service.AccessCooldown {
		t.Fatalf("second spin in the same month should be Cooldown, got %v", decision.Access)
	}
	wantReopen := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !decision.ReopensAt.Equal(wantReopen) {
		t.Errorf("ReopensAt = %v, want first of next month %v", decision.ReopensAt, wantReopen)
	}
}

func TestDecideSpinRechecksCooldown(t *testing.T) {
	policy := service.RollingWindow{Span: 14 * 24 * time.Hour}
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	decision := service.DecideSpin(participant(true, &last), last.Add(time.Hour), policy)
	if decision.Access != service.AccessCooldown {
		t.Errorf("submission inside the window should be rejected, got %v", decision.Access)
	}

	decision = service.DecideSpin(participant(false, nil), last, policy)
	if decision.Access != service.AccessMustAgree {
		t.Errorf("submission without agreement should be refused, got %v", decision.Access)
	}

	decision = service.DecideSpin(participant(true, nil), last, policy)
	if decision.Access != service.AccessEligible {
		t.Errorf("first submission should be accepted, got %v", decision.Access)
	}
}

func TestIsLoss(t *testing.T) {
	if !service.IsLoss("Попробуй ещё раз", "Попробуй ещё") {
		t.Error("label containing the marker should classify as loss")
	}
	if service.IsLoss("Скидка 10%", "Попробуй ещё") {
		t.Error("label without the marker should not classify as loss")
	}
	if service.IsLoss("Попробуй ещё раз", "") {
		t.Error("empty marker should never classify as loss")
	}
}

func TestNewWindowPolicy(t *testing.T) {
	policy, err := service.NewWindowPolicy("rolling", 14)
	if err != nil {
		t.Fatalf("rolling policy: %v", err)
	}
	if _, ok := policy.(service.RollingWindow); !ok {
		t.Errorf("expected RollingWindow, got %T", policy)
	}

	policy, err = service.NewWindowPolicy("calendar", 0)
	if err != nil {
		t.Fatalf("calendar policy: %v", err)
	}
	if _, ok := policy.(service.CalendarMonthWindow); !ok {
		t.Errorf("expected CalendarMonthWindow, got %T", policy)
	}

	if _, err := service.NewWindowPolicy("rolling", 0); err == nil {
		t.Error("rolling policy with zero days should fail")
	}
	if _, err := service.NewWindowPolicy("weekly", 7); err == nil {
		t.Error("unknown policy name should fail")
	}
}
