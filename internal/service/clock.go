package service

import (
	"time"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

// Clock tells services the current instant and the institute's calendar day.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a clock in loc. A nil now uses time.Now.
func NewClock(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Clock{now: now, loc: loc}
}

// Now returns the current instant.
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Today returns the current calendar date in the institute's timezone.
func (c Clock) Today() time.Time {
	return c.DateOf(c.Now())
}

// DateOf returns the calendar date of t in the institute's timezone.
func (c Clock) DateOf(t time.Time) time.Time {
	if c.loc != nil {
		t = t.In(c.loc)
	}
	return domain.DateOf(t)
}
