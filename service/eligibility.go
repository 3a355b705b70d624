package service

import (
	"sync"

	"roulette-bot/database"
	"roulette-bot/database/model"

	"github.com/google/uuid"
)

// Profile is the caller-supplied snapshot of a user at interaction time.
type Profile struct {
	DisplayName string
	Username    string
}

// EligibilityService owns the read-check-write cycle over the participant
// store. Every mutation for a given user runs under that user's mutex, so
// two concurrent submissions cannot both observe "not yet spun"; unrelated
// users never contend.
type EligibilityService struct {
	policy     WindowPolicy
	clock      Clock
	lossMarker string

	locks sync.Map // user id -> *sync.Mutex
}

func NewEligibilityService(policy WindowPolicy, clock Clock, lossMarker string) *EligibilityService {
	return &EligibilityService{
		policy:     policy,
		clock:      clock,
		lossMarker: lossMarker,
	}
}

func (s *EligibilityService) userLock(userId int64) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(userId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// loadOrCreate fetches the participant record, materializing a blank one for
// first-time users and refreshing the profile snapshot. A storage failure is
// returned as an error, never mistaken for "never interacted".
func (s *EligibilityService) loadOrCreate(userId int64, profile Profile) (*model.Participant, error) {
	p, err := database.GetParticipant(userId)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &model.Participant{Id: userId}
	}
	p.DisplayName = profile.DisplayName
	p.Username = profile.Username
	return p, nil
}

// CheckAccess is the read-only eligibility probe behind the /start flow.
// The subscribed flag comes from the membership oracle, which the caller
// consults outside any lock.
func (s *EligibilityService) CheckAccess(userId int64, subscribed bool) (AccessDecision, error) {
	p, err := database.GetParticipant(userId)
	if err != nil {
		return AccessDecision{}, err
	}
	return DecideAccess(p, s.clock.Now(), subscribed, s.policy), nil
}

// SetAgreed marks the user as having accepted the rules. Idempotent; the
// flag is never cleared except by an administrative reset.
func (s *EligibilityService) SetAgreed(userId int64, profile Profile) error {
	lock := s.userLock(userId)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.loadOrCreate(userId, profile)
	if err != nil {
		return err
	}
	p.Agreed = true
	return database.SaveParticipant(p)
}

// RecordSpin is the atomic accept-or-reject of a submitted prize. On accept
// it persists the updated participant and the audit row in one transaction
// and returns the stored spin; otherwise it returns the decision that
// blocked it and the submitted prize is discarded. A non-nil error means the
// store failed and no entitlement state changed.
func (s *EligibilityService) RecordSpin(userId int64, profile Profile, prize string) (*model.Spin, AccessDecision, error) {
	lock := s.userLock(userId)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.loadOrCreate(userId, profile)
	if err != nil {
		return nil, AccessDecision{}, err
	}

	now := s.clock.Now()
	decision := DecideSpin(p, now, s.policy)
	if decision.Access != AccessEligible {
		return nil, decision, nil
	}

	spin := &model.Spin{
		UserId:      userId,
		Prize:       prize,
		IsLoss:      IsLoss(prize, s.lossMarker),
		DisplayName: profile.DisplayName,
		Username:    profile.Username,
		SpunAt:      now,
	}
	if !spin.IsLoss {
		spin.ClaimCode = uuid.NewString()
	}

	spunAt := now
	p.LastPrize = prize
	p.LastSpinAt = &spunAt

	if err := database.RecordAcceptedSpin(p, spin); err != nil {
		return nil, decision, err
	}
	return spin, decision, nil
}

// ResetUser drops the entitlement record so the user starts over. The audit
// trail is append-only and stays.
func (s *EligibilityService) ResetUser(userId int64) error {
	lock := s.userLock(userId)
	lock.Lock()
	defer lock.Unlock()

	return database.DeleteParticipant(userId)
}

// ResetAll wipes every participant and the audit trail.
func (s *EligibilityService) ResetAll() error {
	return database.DeleteAllParticipants()
}

// SpinsOf lists the audited spins of one user, newest first.
func (s *EligibilityService) SpinsOf(userId int64) ([]*model.Spin, error) {
	return database.GetSpinsByUser(userId)
}

// Stats returns the total accepted spin count and the most recent entries
// for operator reporting.
func (s *EligibilityService) Stats(recent int) (int64, []*model.Spin, error) {
	total, err := database.CountSpins()
	if err != nil {
		return 0, nil, err
	}
	spins, err := database.GetRecentSpins(recent)
	if err != nil {
		return 0, nil, err
	}
	return total, spins, nil
}
