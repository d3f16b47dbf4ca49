package availability

import (
	"fmt"
	"time"
)

// EventTime is either an Instant or a DayOnly value.
type EventTime interface {
	isEventTime()
}

// Instant is a point in time carrying its original UTC offset.
type Instant struct {
	Time time.Time
}

// DayOnly is a whole-day date with no time of day.
type DayOnly struct {
	Year  int
	Month time.Month
	Day   int
}

func (Instant) isEventTime() {}
func (DayOnly) isEventTime() {}

// DayOf returns the DayOnly for t's wall-clock date.
func DayOf(t time.Time) DayOnly {
	y, m, d := t.Date()
	return DayOnly{Year: y, Month: m, Day: d}
}

// Normalize expresses et in loc. An Instant keeps its instant; a DayOnly
// becomes local midnight of that date. Durations are never inferred.
func Normalize(et EventTime, loc *time.Location) (time.Time, error) {
	switch v := et.(type) {
	case Instant:
		if v.Time.IsZero() {
			return time.Time{}, fmt.Errorf("zero instant")
		}
		return v.Time.In(loc), nil
	case *Instant:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil instant")
		}
		return Normalize(*v, loc)
	case DayOnly:
		return time.Date(v.Year, v.Month, v.Day, 0, 0, 0, 0, loc), nil
	case *DayOnly:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil date")
		}
		return Normalize(*v, loc)
	case nil:
		return time.Time{}, fmt.Errorf("no time")
	default:
		return time.Time{}, fmt.Errorf("unsupported event time %T", et)
	}
}

// NormalizeEvent normalizes both ends of ev.
func NormalizeEvent(ev RawEvent, loc *time.Location) (NormalizedEvent, error) {
	start, err := Normalize(ev.Start, loc)
	if err != nil {
		return NormalizedEvent{}, &MissingTimeError{EventID: ev.ID, Side: "start"}
	}
	end, err := Normalize(ev.End, loc)
	if err != nil {
		return NormalizedEvent{}, &MissingTimeError{EventID: ev.ID, Side: "end"}
	}
	return NormalizedEvent{ID: ev.ID, Start: start, End: end}, nil
}

// NormalizeAll fails on the first event that cannot be normalized.
func NormalizeAll(events []RawEvent, loc *time.Location) ([]NormalizedEvent, error) {
	out := make([]NormalizedEvent, 0, len(events))
	for _, ev := range events {
		n, err := NormalizeEvent(ev, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
