package availability

import "time"

type interval struct {
	start, end time.Time
}

// FindGaps returns the free slots of day inside window. dayEvents must be
// sorted by start (see Partition). Overlapping or touching events are merged
// first, so double bookings never yield spurious or negative gaps.
func FindGaps(day time.Time, dayEvents []NormalizedEvent, window WorkingHours) []EmptySlot {
	dayStart := window.Start.On(day)
	dayEnd := window.End.On(day)
	date := dateIn(day, day.Location())

	var out []EmptySlot
	emit := func(start, end time.Time) {
		mins := int(end.Sub(start) / time.Minute)
		if mins <= 0 {
			return
		}
		out = append(out, EmptySlot{Date: date, Start: start, End: end, DurationMinutes: mins})
	}

	if len(dayEvents) == 0 {
		emit(dayStart, dayEnd)
		return out
	}

	cursor := dayStart
	for _, b := range mergeBusy(dayEvents) {
		if !b.end.After(dayStart) || !b.start.Before(dayEnd) {
			continue
		}
		if b.start.Before(dayStart) {
			b.start = dayStart
		}
		if b.end.After(dayEnd) {
			b.end = dayEnd
		}
		if b.start.After(cursor) {
			emit(cursor, b.start)
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if cursor.Before(dayEnd) {
		emit(cursor, dayEnd)
	}
	return out
}

// mergeBusy collapses sorted events into maximal disjoint busy blocks.
// An event ending before it starts counts as a point at its start.
func mergeBusy(events []NormalizedEvent) []interval {
	blocks := make([]interval, 0, len(events))
	for _, ev := range events {
		iv := interval{start: ev.Start, end: ev.End}
		if iv.end.Before(iv.start) {
			iv.end = iv.start
		}
		if n := len(blocks); n > 0 && !iv.start.After(blocks[n-1].end) {
			if iv.end.After(blocks[n-1].end) {
				blocks[n-1].end = iv.end
			}
			continue
		}
		blocks = append(blocks, iv)
	}
	return blocks
}
