package service

import (
	"strings"
	"time"

	"roulette-bot/database/model"
	"roulette-bot/util/common"
)

type Access int

const (
	AccessEligible Access = iota
	AccessMustAgree
	AccessMustSubscribe
	AccessCooldown
)

// AccessDecision is the outcome of an entitlement check. ReopensAt is set
// only for AccessCooldown.
type AccessDecision struct {
	Access    Access
	ReopensAt time.Time
}

// WindowPolicy decides whether two instants fall into the same eligibility
// window. Exactly one policy is active per deployment.
type WindowPolicy interface {
	// SameWindow reports whether a spin at now is still covered by the
	// window opened by a spin at last.
	SameWindow(last, now time.Time) bool
	// ReopensAt returns the first instant after last at which the window
	// no longer applies.
	ReopensAt(last time.Time) time.Time
}

// RollingWindow blocks re-spins for a fixed span after the previous spin.
// The boundary is exclusive: a spin at exactly last+Span is allowed.
type RollingWindow struct {
	Span time.Duration
}

func (w RollingWindow) SameWindow(last, now time.Time) bool {
	return now.Sub(last) < w.Span
}

func (w RollingWindow) ReopensAt(last time.Time) time.Time {
	return last.Add(w.Span)
}

// CalendarMonthWindow allows one spin per calendar month: two instants share
// a window iff their (year, month) pair matches.
type CalendarMonthWindow struct{}

func (CalendarMonthWindow) SameWindow(last, now time.Time) bool {
	return last.Year() == now.Year() && last.Month() == now.Month()
}

func (CalendarMonthWindow) ReopensAt(last time.Time) time.Time {
	firstOfMonth := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, last.Location())
	return firstOfMonth.AddDate(0, 1, 0)
}

func NewWindowPolicy(name string, rollingDays int) (WindowPolicy, error) {
	switch name {
	case "rolling":
		if rollingDays <= 0 {
			return nil, common.NewErrorf("rolling window needs a positive day count, got %d", rollingDays)
		}
		return RollingWindow{Span: time.Duration(rollingDays) * 24 * time.Hour}, nil
	case "calendar":
		return CalendarMonthWindow{}, nil
	default:
		return nil, common.NewErrorf("unknown window policy %q", name)
	}
}

// DecideAccess evaluates whether a participant may spin right now. Pure:
// reads the record and the clock value, touches nothing.
func DecideAccess(p *model.Participant, now time.Time, subscribed bool, w WindowPolicy) AccessDecision {
	if p == nil || !p.Agreed {
		return AccessDecision{Access: AccessMustAgree}
	}
	if !subscribed {
		return AccessDecision{Access: AccessMustSubscribe}
	}
	if p.HasSpun() && w.SameWindow(*p.LastSpinAt, now) {
		return AccessDecision{Access: AccessCooldown, ReopensAt: w.ReopensAt(*p.LastSpinAt)}
	}
	return AccessDecision{Access: AccessEligible}
}

// DecideSpin evaluates a spin submission. The cooldown is re-checked here so
// two submissions racing the ELIGIBLE gate cannot both be accepted; the
// agreement check keeps a never-agreed account from acquiring a spin record.
// Membership is deliberately not re-checked: the submission implies the
// client already passed the gate, and losing membership mid-spin does not
// void a result.
func DecideSpin(p *model.Participant, now time.Time, w WindowPolicy) AccessDecision {
	if p == nil || !p.Agreed {
		return AccessDecision{Access: AccessMustAgree}
	}
	if p.HasSpun() && w.SameWindow(*p.LastSpinAt, now) {
		return AccessDecision{Access: AccessCooldown, ReopensAt: w.ReopensAt(*p.LastSpinAt)}
	}
	return AccessDecision{Access: AccessEligible}
}

// IsLoss classifies a prize label as a non-winning outcome when it contains
// the configured marker. Classification feeds messaging only.
func IsLoss(prize, marker string) bool {
	return marker != "" && strings.Contains(prize, marker)
}
