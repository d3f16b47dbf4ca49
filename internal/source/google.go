package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calendar-availability/internal/availability"
)

const applicationName = "calendar-availability"

// Google reads events from the Google Calendar API.
type Google struct {
	svc        *calendar.Service
	calendarID string
	maxResults int64
	logger     *slog.Logger
}

// GoogleConfig configures NewGoogle.
type GoogleConfig struct {
	// CalendarID is used when a call passes a blank calendar ID.
	CalendarID string
	// ServiceAccountKeyPath points at a service account JSON key. When empty,
	// application default credentials are used.
	ServiceAccountKeyPath string
	// MaxResults is the page size; 0 keeps the API default.
	MaxResults int64
}

// NewGoogle builds a Google Calendar source with read-only credentials.
func NewGoogle(ctx context.Context, cfg GoogleConfig, logger *slog.Logger) (*Google, error) {
	var creds *google.Credentials
	if cfg.ServiceAccountKeyPath != "" {
		b, err := os.ReadFile(cfg.ServiceAccountKeyPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, b, calendar.CalendarReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
	} else {
		var err error
		creds, err = google.FindDefaultCredentials(ctx, calendar.CalendarReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to find default credentials: %w", err)
		}
	}

	svc, err := calendar.NewService(ctx,
		option.WithTokenSource(creds.TokenSource),
		option.WithUserAgent(applicationName))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return NewGoogleFromService(svc, cfg, logger), nil
}

// NewGoogleFromService wraps an existing calendar service.
func NewGoogleFromService(svc *calendar.Service, cfg GoogleConfig, logger *slog.Logger) *Google {
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Google{svc: svc, calendarID: cfg.CalendarID, maxResults: cfg.MaxResults, logger: logger}
}

// FetchEvents implements availability.EventSource. Every page is read.
func (g *Google) FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]availability.RawEvent, error) {
	if calendarID == "" {
		calendarID = g.calendarID
	}

	call := g.svc.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false).
		ShowHiddenInvitations(false)
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}
	if query != "" {
		call = call.Q(query)
	}
	if g.maxResults > 0 {
		call = call.MaxResults(g.maxResults)
	}

	var out []availability.RawEvent
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			out = append(out, g.toRawEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	g.logger.Debug("fetched events from Google Calendar", "calendarID", calendarID, "count", len(out))
	return out, nil
}

func (g *Google) toRawEvent(item *calendar.Event) availability.RawEvent {
	ev := availability.RawEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Status:      item.Status,
		Location:    item.Location,
		HTMLLink:    item.HtmlLink,
		Start:       g.eventTime(item.Id, item.Start),
		End:         g.eventTime(item.Id, item.End),
	}
	if item.Start != nil {
		ev.TimeZone = item.Start.TimeZone
	}
	if item.Organizer != nil {
		ev.Organizer = &availability.Person{
			Email:       item.Organizer.Email,
			DisplayName: item.Organizer.DisplayName,
		}
	}
	for _, a := range item.Attendees {
		if a == nil {
			continue
		}
		ev.Attendees = append(ev.Attendees, availability.Attendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: a.ResponseStatus,
		})
	}
	return ev
}

// eventTime returns nil when dt carries neither a parsable dateTime nor date.
func (g *Google) eventTime(id string, dt *calendar.EventDateTime) availability.EventTime {
	if dt == nil {
		return nil
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			g.logger.Debug("unparsable event dateTime", "eventID", id, "value", dt.DateTime)
			return nil
		}
		return availability.Instant{Time: t}
	}
	if dt.Date != "" {
		t, err := time.Parse(time.DateOnly, dt.Date)
		if err != nil {
			g.logger.Debug("unparsable event date", "eventID", id, "value", dt.Date)
			return nil
		}
		return availability.DayOf(t)
	}
	return nil
}
