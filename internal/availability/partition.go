package availability

import (
	"cmp"
	"slices"
	"time"
)

// Partition returns the events whose local start falls on day, ordered by
// start and then by ID so equal starts always come out the same way.
func Partition(events []NormalizedEvent, day time.Time) []NormalizedEvent {
	want := civilDate(day)
	var out []NormalizedEvent
	for _, ev := range events {
		if civilDate(ev.Start) == want {
			out = append(out, ev)
		}
	}
	slices.SortStableFunc(out, func(a, b NormalizedEvent) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
