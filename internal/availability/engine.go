// Package availability turns calendar events into free working-hour slots
// and participant appointments.
package availability

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// EventSource fetches single-occurrence events overlapping [timeMin, timeMax).
// Deleted and hidden events are excluded by the source. A non-empty query
// narrows the result to events involving that participant.
type EventSource interface {
	FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]RawEvent, error)
}

// Engine computes empty slots and appointments. It holds only immutable
// configuration and is safe for concurrent use.
type Engine struct {
	source      EventSource
	loc         *time.Location
	logger      *slog.Logger
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithParallelism bounds how many days are computed at once. n <= 1 runs days sequentially.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

// NewEngine returns an engine that expresses every event in loc.
func NewEngine(source EventSource, loc *time.Location, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("event source cannot be nil")
	}
	if loc == nil {
		return nil, fmt.Errorf("location cannot be nil")
	}
	e := &Engine{
		source:      source,
		loc:         loc,
		logger:      slog.Default(),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Location returns the zone events are normalized into.
func (e *Engine) Location() *time.Location { return e.loc }

// EmptySlots returns the free slots of every day in rng within window, in
// date order. window must already be resolved against the configured default.
// Either the full list or an error is returned, never both.
func (e *Engine) EmptySlots(ctx context.Context, rng DateRange, window WorkingHours, calendarID string) ([]EmptySlot, error) {
	if err := rng.validate(); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	days := rng.Days(e.loc)
	timeMin := days[0]
	timeMax := days[len(days)-1].AddDate(0, 0, 1)

	raw, err := e.fetch(ctx, calendarID, timeMin, timeMax, "")
	if err != nil {
		return nil, err
	}
	events, err := NormalizeAll(raw, e.loc)
	if err != nil {
		return nil, err
	}

	perDay := make([][]EmptySlot, len(days))
	g, gctx := errgroup.WithContext(ctx)
	if e.parallelism > 0 {
		g.SetLimit(e.parallelism)
	}
	for i, day := range days {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perDay[i] = FindGaps(day, Partition(events, day), window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []EmptySlot
	for _, slots := range perDay {
		out = append(out, slots...)
	}
	e.logger.Debug("computed empty slots",
		slog.String("calendar_id", calendarID),
		slog.Int("days", len(days)),
		slog.Int("events", len(events)),
		slog.String("window", window.String()),
		slog.Int("slots", len(out)))
	return out, nil
}

// Appointments returns the events in rng involving participant, in the
// order the source returned them.
func (e *Engine) Appointments(ctx context.Context, rng DateRange, participant, calendarID string) ([]Appointment, error) {
	if err := rng.validate(); err != nil {
		return nil, err
	}
	participant = strings.TrimSpace(participant)
	if participant == "" {
		return nil, &ValidationError{Field: "participant", Reason: "required"}
	}

	days := rng.Days(e.loc)
	raw, err := e.fetch(ctx, calendarID, days[0], days[len(days)-1].AddDate(0, 0, 1), participant)
	if err != nil {
		return nil, err
	}
	return Project(raw, e.loc), nil
}

// Events returns the raw events of [timeMin, timeMax) without further processing.
func (e *Engine) Events(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]RawEvent, error) {
	if !timeMax.IsZero() && !timeMin.IsZero() && !timeMin.Before(timeMax) {
		return nil, &ValidationError{Field: "timeMax", Reason: "must be after timeMin"}
	}
	return e.fetch(ctx, calendarID, timeMin, timeMax, query)
}

func (e *Engine) fetch(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SourceUnavailableError{Err: err}
	}
	raw, err := e.source.FetchEvents(ctx, calendarID, timeMin, timeMax, query)
	if err != nil {
		e.logger.Warn("event fetch failed",
			slog.String("calendar_id", calendarID),
			slog.String("error", err.Error()))
		return nil, &SourceUnavailableError{Err: err}
	}
	return raw, nil
}

// MinDuration drops slots shorter than minutes. minutes <= 0 keeps everything.
func MinDuration(slots []EmptySlot, minutes int) []EmptySlot {
	if minutes <= 0 {
		return slots
	}
	out := make([]EmptySlot, 0, len(slots))
	for _, s := range slots {
		if s.DurationMinutes >= minutes {
			out = append(out, s)
		}
	}
	return out
}
