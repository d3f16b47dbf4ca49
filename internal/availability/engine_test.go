package availability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	calendarID       string
	timeMin, timeMax time.Time
	query            string
}

type fakeSource struct {
	mu     sync.Mutex
	events []RawEvent
	err    error
	calls  []fetchCall
}

func (f *fakeSource) FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]RawEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{calendarID, timeMin, timeMax, query})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.events, f.err
}

func newTestEngine(t *testing.T, src EventSource, loc *time.Location) *Engine {
	t.Helper()
	e, err := NewEngine(src, loc, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return e
}

func dayRange(start, end string) DateRange {
	s, _ := time.Parse(time.DateOnly, start)
	e, _ := time.Parse(time.DateOnly, end)
	return DateRange{Start: s, End: e}
}

func instant(t time.Time) EventTime { return Instant{Time: t} }

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil, time.UTC)
	assert.Error(t, err)
	_, err = NewEngine(&fakeSource{}, nil)
	assert.Error(t, err)
}

func TestEngine_EmptySlots_MultiDayNoEvents(t *testing.T) {
	src := &fakeSource{}
	e := newTestEngine(t, src, time.UTC)

	slots, err := e.EmptySlots(context.Background(), dayRange("2025-03-10", "2025-03-12"), DefaultWorkingHours, "primary")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for i, s := range slots {
		day := time.Date(2025, 3, 10+i, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, day, s.Date)
		assert.Equal(t, day.Add(9*time.Hour), s.Start)
		assert.Equal(t, day.Add(17*time.Hour), s.End)
		assert.Equal(t, 480, s.DurationMinutes)
	}

	require.Len(t, src.calls, 1)
	assert.Equal(t, "primary", src.calls[0].calendarID)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), src.calls[0].timeMin)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), src.calls[0].timeMax)
	assert.Empty(t, src.calls[0].query)
}

func TestEngine_EmptySlots_EventsAcrossDays(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	src := &fakeSource{events: []RawEvent{
		// 08:00Z is 10:00 local on day two
		{ID: "d2", Start: instant(time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)), End: instant(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC))},
		{ID: "d1-b", Start: instant(time.Date(2025, 3, 10, 13, 0, 0, 0, loc)), End: instant(time.Date(2025, 3, 10, 14, 0, 0, 0, loc))},
		{ID: "d1-a", Start: instant(time.Date(2025, 3, 10, 10, 0, 0, 0, loc)), End: instant(time.Date(2025, 3, 10, 11, 0, 0, 0, loc))},
		{ID: "d1-allday", Start: DayOnly{2025, time.March, 12}, End: DayOnly{2025, time.March, 13}},
	}}
	e := newTestEngine(t, src, loc)

	slots, err := e.EmptySlots(context.Background(), dayRange("2025-03-10", "2025-03-12"), DefaultWorkingHours, "")
	require.NoError(t, err)

	type got struct {
		date, start, end string
	}
	var out []got
	for _, s := range slots {
		out = append(out, got{s.Date.Format(time.DateOnly), s.Start.Format("15:04"), s.End.Format("15:04")})
	}
	assert.Equal(t, []got{
		{"2025-03-10", "09:00", "10:00"},
		{"2025-03-10", "11:00", "13:00"},
		{"2025-03-10", "14:00", "17:00"},
		{"2025-03-11", "09:00", "10:00"},
		{"2025-03-11", "11:00", "17:00"},
	}, out)
}

func TestEngine_EmptySlots_Sequential(t *testing.T) {
	src := &fakeSource{}
	e, err := NewEngine(src, time.UTC, WithParallelism(1))
	require.NoError(t, err)

	slots, err := e.EmptySlots(context.Background(), dayRange("2025-03-01", "2025-03-31"), DefaultWorkingHours, "")
	require.NoError(t, err)
	require.Len(t, slots, 31)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i].Date.After(slots[i-1].Date))
	}
}

func TestEngine_EmptySlots_Validation(t *testing.T) {
	src := &fakeSource{}
	e := newTestEngine(t, src, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name   string
		rng    DateRange
		window WorkingHours
		field  string
	}{
		{name: "end before start", rng: dayRange("2025-03-10", "2025-03-09"), window: DefaultWorkingHours, field: "endDate"},
		{name: "missing start", rng: DateRange{End: time.Now()}, window: DefaultWorkingHours, field: "startDate"},
		{name: "range too long", rng: dayRange("2025-01-01", "2026-01-02"), window: DefaultWorkingHours, field: "endDate"},
		{name: "inverted window", rng: dayRange("2025-03-10", "2025-03-10"), window: WorkingHours{Start: Clock{Hour: 18}, End: Clock{Hour: 9}}, field: "workingHours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := e.EmptySlots(ctx, tt.rng, tt.window, "")
			assert.Nil(t, slots)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Empty(t, src.calls, "validation must happen before any fetch")
}

func TestEngine_EmptySlots_SourceFailure(t *testing.T) {
	boom := errors.New("backend down")
	e := newTestEngine(t, &fakeSource{err: boom}, time.UTC)

	slots, err := e.EmptySlots(context.Background(), dayRange("2025-03-10", "2025-03-11"), DefaultWorkingHours, "")
	assert.Nil(t, slots)
	var serr *SourceUnavailableError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_EmptySlots_Cancelled(t *testing.T) {
	src := &fakeSource{}
	e := newTestEngine(t, src, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slots, err := e.EmptySlots(ctx, dayRange("2025-03-10", "2025-03-11"), DefaultWorkingHours, "")
	assert.Nil(t, slots)
	assert.ErrorIs(t, err, context.Canceled)
	var serr *SourceUnavailableError
	assert.ErrorAs(t, err, &serr)
}

func TestEngine_EmptySlots_MissingTime(t *testing.T) {
	src := &fakeSource{events: []RawEvent{
		{ID: "broken", Start: instant(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))},
	}}
	e := newTestEngine(t, src, time.UTC)

	slots, err := e.EmptySlots(context.Background(), dayRange("2025-03-10", "2025-03-10"), DefaultWorkingHours, "")
	assert.Nil(t, slots)
	var missing *MissingTimeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "broken", missing.EventID)
}

func TestEngine_Appointments(t *testing.T) {
	src := &fakeSource{events: []RawEvent{
		{
			ID:        "2",
			Summary:   "Follow-up",
			Status:    "confirmed",
			Start:     instant(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)),
			End:       instant(time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)),
			Organizer: &Person{Email: "dr@example.com", DisplayName: "Dr. Example"},
			Attendees: []Attendee{{Email: "pat@example.com", ResponseStatus: "accepted"}},
			TimeZone:  "Europe/Lisbon",
			HTMLLink:  "https://calendar.example.com/e/2",
		},
		{
			ID:    "1",
			Start: DayOnly{2025, time.March, 10},
			End:   DayOnly{2025, time.March, 11},
		},
	}}
	e := newTestEngine(t, src, time.UTC)

	appts, err := e.Appointments(context.Background(), dayRange("2025-03-10", "2025-03-11"), " pat@example.com ", "team")
	require.NoError(t, err)
	require.Len(t, appts, 2)

	assert.Equal(t, "2", appts[0].ID, "source order is preserved")
	assert.Equal(t, "Europe/Lisbon", appts[0].TimeZone)
	assert.Equal(t, &Person{Email: "dr@example.com", DisplayName: "Dr. Example"}, appts[0].Organizer)
	assert.Equal(t, "accepted", appts[0].Attendees[0].ResponseStatus)

	assert.Equal(t, "UTC", appts[1].TimeZone)
	assert.Nil(t, appts[1].Organizer)
	assert.Nil(t, appts[1].Attendees)
	assert.Empty(t, appts[1].Location)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), appts[1].Start)

	require.Len(t, src.calls, 1)
	assert.Equal(t, "pat@example.com", src.calls[0].query)
	assert.Equal(t, "team", src.calls[0].calendarID)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), src.calls[0].timeMax)
}

func TestEngine_Appointments_Validation(t *testing.T) {
	src := &fakeSource{}
	e := newTestEngine(t, src, time.UTC)

	_, err := e.Appointments(context.Background(), dayRange("2025-03-10", "2025-03-11"), "  ", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "participant", verr.Field)

	_, err = e.Appointments(context.Background(), dayRange("2025-03-12", "2025-03-11"), "pat@example.com", "")
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, src.calls)
}

func TestProject_MissingTimesStayZero(t *testing.T) {
	appts := Project([]RawEvent{{ID: "x", Summary: "No times"}}, time.UTC)
	require.Len(t, appts, 1)
	assert.True(t, appts[0].Start.IsZero())
	assert.True(t, appts[0].End.IsZero())
	assert.Empty(t, Project(nil, time.UTC))
}

func TestMinDuration(t *testing.T) {
	slots := []EmptySlot{{DurationMinutes: 15}, {DurationMinutes: 30}, {DurationMinutes: 90}}
	assert.Len(t, MinDuration(slots, 0), 3)
	assert.Len(t, MinDuration(slots, 30), 2)
	assert.Empty(t, MinDuration(slots, 120))
}
