package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Person identifies an organizer or attendee of an event.
type Person struct {
	Email       string
	DisplayName string
}

type Attendee struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
}

// RawEvent is a single-occurrence event as returned by an EventSource.
// Start and End are nil when the source had no usable value.
type RawEvent struct {
	ID          string
	Summary     string
	Description string
	Status      string
	Organizer   *Person
	Attendees   []Attendee
	Start       EventTime
	End         EventTime
	TimeZone    string
	Location    string
	HTMLLink    string
}

// NormalizedEvent is a RawEvent re-expressed in the engine's zone.
type NormalizedEvent struct {
	ID    string
	Start time.Time
	End   time.Time
}

// MaxRangeDays bounds the number of days one request may cover.
const MaxRangeDays = 366

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns every date in the range at midnight in loc, ascending.
func (r DateRange) Days(loc *time.Location) []time.Time {
	var out []time.Time
	end := dateIn(r.End, loc)
	for d := dateIn(r.Start, loc); !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (r DateRange) validate() error {
	if r.Start.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "required"}
	}
	if r.End.IsZero() {
		return &ValidationError{Field: "endDate", Reason: "required"}
	}
	if civilDate(r.End).Before(civilDate(r.Start)) {
		return &ValidationError{Field: "endDate", Reason: "must not be before startDate"}
	}
	if dateIn(r.End, time.UTC).Sub(dateIn(r.Start, time.UTC)) >= MaxRangeDays*24*time.Hour {
		return &ValidationError{Field: "endDate", Reason: fmt.Sprintf("range must not exceed %d days", MaxRangeDays)}
	}
	return nil
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM", tolerating a seconds suffix ("09:00:00").
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return Clock{}, fmt.Errorf("invalid time string: %s", s)
	}
	layout := "15:04"
	if len(s) > 5 {
		layout = "15:04:05"
	}
	tt, err := time.Parse(layout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time string: %s", s)
	}
	return Clock{Hour: tt.Hour(), Minute: tt.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

// On returns date at this time of day in date's location.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, date.Location())
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// WorkingHours is the daily window gaps are computed in.
type WorkingHours struct {
	Start Clock
	End   Clock
}

// DefaultWorkingHours is 09:00-17:00.
var DefaultWorkingHours = WorkingHours{Start: Clock{Hour: 9}, End: Clock{Hour: 17}}

// Override returns w with any non-nil bound replaced.
func (w WorkingHours) Override(start, end *Clock) WorkingHours {
	if start != nil {
		w.Start = *start
	}
	if end != nil {
		w.End = *end
	}
	return w
}

func (w WorkingHours) Validate() error {
	if w.Start.minutes() >= w.End.minutes() {
		return &ValidationError{Field: "workingHours", Reason: fmt.Sprintf("start %s must be before end %s", w.Start, w.End)}
	}
	return nil
}

func (w WorkingHours) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// EmptySlot is a free interval inside the working-hours window of one day.
type EmptySlot struct {
	Date            time.Time
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// Appointment is the uniform projection of a RawEvent.
type Appointment struct {
	ID          string
	Summary     string
	Description string
	Status      string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Organizer   *Person
	Attendees   []Attendee
	Location    string
	HTMLLink    string
}

// ParseDate parses a yyyy-MM-dd date at midnight UTC.
func ParseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "expected yyyy-MM-dd, got " + strconv.Quote(s)}
	}
	return d, nil
}

type date struct {
	y int
	m time.Month
	d int
}

func (a date) Before(b date) bool {
	if a.y != b.y {
		return a.y < b.y
	}
	if a.m != b.m {
		return a.m < b.m
	}
	return a.d < b.d
}

func civilDate(t time.Time) date {
	y, m, d := t.Date()
	return date{y, m, d}
}

// dateIn keeps t's wall-clock date and moves it to midnight in loc.
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
