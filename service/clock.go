package service

import "time"

// Clock supplies the current time to the entitlement logic. The deployment
// uses RealClock pinned to the configured zone; tests substitute a fixed one.
type Clock interface {
	Now() time.Time
}

type RealClock struct {
	loc *time.Location
}

func NewRealClock(loc *time.Location) RealClock {
	if loc == nil {
		loc = time.UTC
	}
	return RealClock{loc: loc}
}

func (c RealClock) Now() time.Time {
	return time.Now().In(c.loc)
}
