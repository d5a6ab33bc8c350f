package domain

import (
	"fmt"
	"strings"
	"time"
)

// PeriodType distinguishes instants, durations and the forever period.
type PeriodType string

const (
	PeriodInstant  PeriodType = "instant"
	PeriodDuration PeriodType = "duration"
	PeriodForever  PeriodType = "forever"
)

const dateLayout = "2006-01-02"

// Period is a calendar period without a time component.
type Period struct {
	ID    string
	Type  PeriodType
	Start time.Time // instant date for instants
	End   time.Time
}

// NewPeriod validates the dates required by typ and derives the id.
func NewPeriod(typ PeriodType, start, end time.Time) (*Period, error) {
	p := &Period{Type: typ}
	switch typ {
	case PeriodInstant:
		if start.IsZero() {
			return nil, fmt.Errorf("instant period without date: %w", ErrInvalidPeriod)
		}
		p.Start = truncateDate(start)
	case PeriodDuration:
		if start.IsZero() || end.IsZero() {
			return nil, fmt.Errorf("duration period needs start and end: %w", ErrInvalidPeriod)
		}
		p.Start, p.End = truncateDate(start), truncateDate(end)
	case PeriodForever:
	default:
		return nil, fmt.Errorf("period type %q: %w", typ, ErrInvalidPeriod)
	}
	p.ID = p.String()
	return p, nil
}

// NewPeriodFromStrings parses ISO dates and delegates to NewPeriod.
func NewPeriodFromStrings(typ PeriodType, start, end string) (*Period, error) {
	s, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	return NewPeriod(typ, s, e)
}

// ParseDate accepts an ISO date or an RFC 3339 datetime and drops the time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if len(s) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidPeriod)
}

// String is the period summary used on facts, e.g. "2024-01-01_2024-12-31".
func (p *Period) String() string {
	switch p.Type {
	case PeriodInstant:
		return "instant_" + p.Start.Format(dateLayout)
	case PeriodDuration:
		return "duration_" + p.Start.Format(dateLayout) + "_" + p.End.Format(dateLayout)
	}
	return string(PeriodForever)
}

// StartDate returns the start (or instant) date as ISO text, empty if unset.
func (p *Period) StartDate() string {
	if p.Start.IsZero() {
		return ""
	}
	return p.Start.Format(dateLayout)
}

// EndDate returns the end date as ISO text, empty if unset.
func (p *Period) EndDate() string {
	if p.End.IsZero() {
		return ""
	}
	return p.End.Format(dateLayout)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
