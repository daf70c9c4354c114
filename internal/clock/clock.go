// Package clock resolves business-local "now" and "today" and converts calendar
// strings into business-day boundaries. Every component that needs the current day
// receives a Clock instead of reading the wall clock directly.
package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DayLayout is the calendar format accepted at the API boundary
const DayLayout = "2006-01-02"

// DefaultUTCOffset is the business's fixed offset from UTC.
// Daylight-saving transitions are intentionally not modelled.
const DefaultUTCOffset = -4 * time.Hour

var (
	ErrInvalidDay   = errors.New("date must use the YYYY-MM-DD format")
	ErrInvertedDays = errors.New("start date must not be after end date")
)

// Clock supplies the business-local current instant and calendar day
type Clock interface {
	Now() time.Time
	Today() time.Time
	Location() *time.Location
}

// FixedOffsetClock reads the system time and expresses it in a fixed UTC offset
type FixedOffsetClock struct {
	loc *time.Location
	now func() time.Time
}

// NewFixedOffsetClock creates a clock for the given offset from UTC
func NewFixedOffsetClock(offset time.Duration) *FixedOffsetClock {
	return &FixedOffsetClock{
		loc: FixedZone(offset),
		now: time.Now,
	}
}

// FixedZone builds the location used for business-local days
func FixedZone(offset time.Duration) *time.Location {
	hours := int(offset / time.Hour)
	minutes := int((offset % time.Hour) / time.Minute)
	if minutes < 0 {
		minutes = -minutes
	}
	name := fmt.Sprintf("UTC%+03d:%02d", hours, minutes)
	return time.FixedZone(name, int(offset/time.Second))
}

func (c *FixedOffsetClock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *FixedOffsetClock) Today() time.Time {
	return StartOfDay(c.Now(), c.loc)
}

func (c *FixedOffsetClock) Location() *time.Location {
	return c.loc
}

// Frozen is a Clock whose time only moves when told to. Used by tests.
type Frozen struct {
	mu  sync.RWMutex
	now time.Time
	loc *time.Location
}

// NewFrozen returns a clock pinned to t, interpreted in loc
func NewFrozen(t time.Time, loc *time.Location) *Frozen {
	return &Frozen{now: t.In(loc), loc: loc}
}

func (f *Frozen) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

func (f *Frozen) Today() time.Time {
	return StartOfDay(f.Now(), f.loc)
}

func (f *Frozen) Location() *time.Location {
	return f.loc
}

// Set moves the clock to t
func (f *Frozen) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.In(f.loc)
	f.mu.Unlock()
}

// Advance moves the clock forward by d
func (f *Frozen) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// StartOfDay truncates t to midnight of its calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// NextDay returns midnight of the calendar day after t's in loc. Day windows use it
// as their exclusive upper bound.
func NextDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1)
}

// EndOfDay returns the last millisecond of t's calendar day in loc. It labels a
// settled day; selections compare against NextDay.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

// ParseDay parses a YYYY-MM-DD calendar string as midnight in loc.
// The string is never interpreted as UTC.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DayLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	return day, nil
}

// DayRange converts an inclusive pair of calendar days into the half-open window
// [start 00:00, day after end 00:00) in loc.
func DayRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := ParseDay(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDay(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, ErrInvertedDays
	}
	return from, NextDay(to, loc), nil
}

// FormatDay renders t's business-local calendar day
func FormatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}
