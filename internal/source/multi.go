// Package source holds the event sources the availability engine reads from.
package source

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"calendar-availability/internal/availability"
)

// Multi fetches from every source concurrently and concatenates the results
// in source order. The first failure cancels the others and is returned.
type Multi []availability.EventSource

// FetchEvents implements availability.EventSource.
func (m Multi) FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]availability.RawEvent, error) {
	results := make([][]availability.RawEvent, len(m))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m {
		g.Go(func() error {
			events, err := src.FetchEvents(gctx, calendarID, timeMin, timeMax, query)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []availability.RawEvent
	for _, events := range results {
		out = append(out, events...)
	}
	return out, nil
}

// Pinned always reads CalendarID from Source, ignoring the calendar ID of the
// call. It lets sources with unrelated calendar namespaces share one Multi.
type Pinned struct {
	Source     availability.EventSource
	CalendarID string
}

// FetchEvents implements availability.EventSource.
func (p Pinned) FetchEvents(ctx context.Context, _ string, timeMin, timeMax time.Time, query string) ([]availability.RawEvent, error) {
	return p.Source.FetchEvents(ctx, p.CalendarID, timeMin, timeMax, query)
}
