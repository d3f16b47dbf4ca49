package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calendar-availability/internal/availability"
)

// Querier is the subset of pgxpool.Pool used by Bookings.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// Bookings reads confirmed bookings as busy events. The calendar ID is the
// booking owner's user ID; UserID is used when a call passes none. It never
// writes.
type Bookings struct {
	DB     Querier
	UserID string
}

// Booking is one row of the bookings table.
type Booking struct {
	ID             string
	UserID         string
	CandidateEmail string
	StartAtUTC     time.Time
	EndAtUTC       time.Time
	Status         string
	Title          string
	Description    string
}

const bookingColumns = `id, user_id, candidate_email, start_at_utc, end_at_utc, status,
	COALESCE(title, ''), COALESCE(description, '')`

// FetchEvents implements availability.EventSource.
func (b *Bookings) FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]availability.RawEvent, error) {
	if calendarID == "" {
		calendarID = b.UserID
	}
	if calendarID == "" {
		return nil, fmt.Errorf("bookings source requires a user id as calendar id")
	}

	q := `SELECT ` + bookingColumns + `
	      FROM bookings
	      WHERE user_id=$1 AND status='confirmed'`
	args := []any{calendarID}
	if !timeMin.IsZero() {
		args = append(args, timeMin.UTC())
		q += fmt.Sprintf(` AND end_at_utc > $%d`, len(args))
	}
	if !timeMax.IsZero() {
		args = append(args, timeMax.UTC())
		q += fmt.Sprintf(` AND start_at_utc < $%d`, len(args))
	}
	if query != "" {
		args = append(args, query)
		q += fmt.Sprintf(` AND lower(candidate_email) = lower($%d)`, len(args))
	}
	q += ` ORDER BY start_at_utc, id`

	rows, err := b.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	bookings, err := pgx.CollectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}

	out := make([]availability.RawEvent, 0, len(bookings))
	for _, bk := range bookings {
		out = append(out, bk.RawEvent())
	}
	return out, nil
}

func scanBooking(row pgx.CollectableRow) (Booking, error) {
	var bk Booking
	err := row.Scan(&bk.ID, &bk.UserID, &bk.CandidateEmail, &bk.StartAtUTC, &bk.EndAtUTC,
		&bk.Status, &bk.Title, &bk.Description)
	return bk, err
}

// RawEvent converts a booking into an event with the candidate as attendee.
func (bk Booking) RawEvent() availability.RawEvent {
	ev := availability.RawEvent{
		ID:          bk.ID,
		Summary:     bk.Title,
		Description: bk.Description,
		Status:      bk.Status,
		TimeZone:    "UTC",
		Start:       availability.Instant{Time: bk.StartAtUTC.UTC()},
		End:         availability.Instant{Time: bk.EndAtUTC.UTC()},
	}
	if ev.Summary == "" {
		ev.Summary = "Booking"
	}
	if bk.CandidateEmail != "" {
		ev.Attendees = []availability.Attendee{{Email: bk.CandidateEmail, ResponseStatus: "accepted"}}
	}
	return ev
}
