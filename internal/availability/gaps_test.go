package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	c, err := ParseClock(hhmm)
	if err != nil {
		panic(err)
	}
	return c.On(testDay)
}

func ev(id, start, end string) NormalizedEvent {
	return NormalizedEvent{ID: id, Start: at(start), End: at(end)}
}

type span struct {
	start, end string
	mins       int
}

func spans(slots []EmptySlot) []span {
	out := make([]span, 0, len(slots))
	for _, s := range slots {
		out = append(out, span{s.Start.Format("15:04"), s.End.Format("15:04"), s.DurationMinutes})
	}
	return out
}

func TestFindGaps(t *testing.T) {
	tests := []struct {
		name   string
		events []NormalizedEvent
		window WorkingHours
		want   []span
	}{
		{
			name:   "empty day yields full window",
			window: DefaultWorkingHours,
			want:   []span{{"09:00", "17:00", 480}},
		},
		{
			name:   "two disjoint events",
			events: []NormalizedEvent{ev("a", "10:00", "11:00"), ev("b", "13:00", "14:00")},
			window: DefaultWorkingHours,
			want:   []span{{"09:00", "10:00", 60}, {"11:00", "13:00", 120}, {"14:00", "17:00", 180}},
		},
		{
			name:   "overlapping events merge",
			events: []NormalizedEvent{ev("a", "09:00", "10:30"), ev("b", "10:00", "11:00")},
			window: DefaultWorkingHours,
			want:   []span{{"11:00", "17:00", 360}},
		},
		{
			name:   "contained event does not shrink block",
			events: []NormalizedEvent{ev("a", "10:00", "14:00"), ev("b", "11:00", "12:00")},
			window: DefaultWorkingHours,
			want:   []span{{"09:00", "10:00", 60}, {"14:00", "17:00", 180}},
		},
		{
			name:   "touching events merge",
			events: []NormalizedEvent{ev("a", "10:00", "11:00"), ev("b", "11:00", "12:00")},
			window: DefaultWorkingHours,
			want:   []span{{"09:00", "10:00", 60}, {"12:00", "17:00", 300}},
		},
		{
			name:   "event at window start leaves no leading gap",
			events: []NormalizedEvent{ev("a", "09:00", "09:30")},
			window: DefaultWorkingHours,
			want:   []span{{"09:30", "17:00", 450}},
		},
		{
			name:   "event clipped at both window edges",
			events: []NormalizedEvent{ev("a", "07:00", "09:45"), ev("b", "16:30", "19:00")},
			window: DefaultWorkingHours,
			want:   []span{{"09:45", "16:30", 405}},
		},
		{
			name:   "events outside window are ignored",
			events: []NormalizedEvent{ev("a", "06:00", "07:00"), ev("b", "18:00", "19:00")},
			window: DefaultWorkingHours,
			want:   []span{{"09:00", "17:00", 480}},
		},
		{
			name:   "event covering the whole window",
			events: []NormalizedEvent{ev("a", "08:00", "18:00")},
			window: DefaultWorkingHours,
			want:   []span{},
		},
		{
			name:   "zero-width event splits the window",
			events: []NormalizedEvent{ev("a", "12:00", "12:00")},
			window: DefaultWorkingHours,
			want:   []span{{"09:00", "12:00", 180}, {"12:00", "17:00", 300}},
		},
		{
			name:   "end before start is treated as a point",
			events: []NormalizedEvent{ev("a", "12:00", "11:00"), ev("b", "12:00", "13:00")},
			window: DefaultWorkingHours,
			want:   []span{{"09:00", "12:00", 180}, {"13:00", "17:00", 240}},
		},
		{
			name:   "sub-minute gap is dropped",
			events: []NormalizedEvent{{ID: "a", Start: at("09:00"), End: at("11:59").Add(30 * time.Second)}, ev("b", "12:00", "17:00")},
			window: DefaultWorkingHours,
			want:   []span{},
		},
		{
			name:   "custom window",
			events: []NormalizedEvent{ev("a", "08:30", "09:00")},
			window: WorkingHours{Start: Clock{Hour: 8}, End: Clock{Hour: 10}},
			want:   []span{{"08:00", "08:30", 30}, {"09:00", "10:00", 60}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindGaps(testDay, tt.events, tt.window)
			assert.Equal(t, tt.want, spans(got))
			for _, s := range got {
				assert.Positive(t, s.DurationMinutes)
				assert.True(t, s.End.After(s.Start))
				assert.Equal(t, testDay, s.Date)
			}
		})
	}
}

func TestFindGaps_CoversWindow(t *testing.T) {
	events := []NormalizedEvent{
		ev("a", "08:00", "09:15"),
		ev("b", "10:00", "10:45"),
		ev("c", "10:30", "11:30"),
		ev("d", "13:00", "14:00"),
		ev("e", "16:45", "18:00"),
	}
	gaps := FindGaps(testDay, events, DefaultWorkingHours)

	free := 0
	for _, g := range gaps {
		free += g.DurationMinutes
	}
	// clipped busy blocks: 09:00-09:15, 10:00-11:30, 13:00-14:00, 16:45-17:00
	busy := 15 + 90 + 60 + 15
	assert.Equal(t, 480, free+busy)
}

func TestFindGaps_Idempotent(t *testing.T) {
	events := []NormalizedEvent{ev("a", "10:00", "11:00"), ev("b", "10:00", "10:30"), ev("c", "15:00", "16:00")}
	first := FindGaps(testDay, events, DefaultWorkingHours)
	second := FindGaps(testDay, events, DefaultWorkingHours)
	require.Equal(t, first, second)
}

func TestFindGaps_Location(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	events := []NormalizedEvent{{ID: "a", Start: time.Date(2025, 6, 2, 12, 0, 0, 0, loc), End: time.Date(2025, 6, 2, 13, 0, 0, 0, loc)}}

	got := FindGaps(day, events, DefaultWorkingHours)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, loc), got[0].Start)
	assert.Equal(t, loc, got[0].Start.Location())
}
