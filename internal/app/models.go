package app

import (
	"time"

	"calendar-availability/internal/availability"
)

const localDateTime = "2006-01-02T15:04:05"

type emptySlotsReq struct {
	StartDate                  string `json:"startDate" form:"startDate" binding:"required"`
	EndDate                    string `json:"endDate" form:"endDate" binding:"required"`
	WorkingHoursStart          string `json:"workingHoursStart,omitempty" form:"workingHoursStart"`
	WorkingHoursEnd            string `json:"workingHoursEnd,omitempty" form:"workingHoursEnd"`
	MinimumSlotDurationMinutes int    `json:"minimumSlotDurationMinutes,omitempty" form:"minimumSlotDurationMinutes" binding:"gte=0"`
	CalendarID                 string `json:"calendarId,omitempty" form:"calendarId"`
}

type myAppointmentsReq struct {
	StartDate  string `json:"startDate" form:"startDate" binding:"required"`
	EndDate    string `json:"endDate" form:"endDate" binding:"required"`
	CalendarID string `json:"calendarId,omitempty" form:"calendarId"`
}

type EmptySlot struct {
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
}

type Organizer struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type Attendee struct {
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

type Appointment struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	StartTime   string     `json:"startTime,omitempty"`
	EndTime     string     `json:"endTime,omitempty"`
	TimeZone    string     `json:"timeZone,omitempty"`
	Organizer   *Organizer `json:"organizer,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	Location    string     `json:"location,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
}

// CalendarEvent is a normalized calendar event for listing.
type CalendarEvent struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	AllDay      bool       `json:"all_day"`
	Location    string     `json:"location,omitempty"`
	Status      string     `json:"status"`
	Organizer   string     `json:"organizer,omitempty"`
}

func toEmptySlots(slots []availability.EmptySlot) []EmptySlot {
	out := make([]EmptySlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, EmptySlot{
			Date:            s.Date.Format(time.DateOnly),
			StartTime:       s.Start.Format("15:04"),
			EndTime:         s.End.Format("15:04"),
			DurationMinutes: s.DurationMinutes,
		})
	}
	return out
}

func toAppointments(appts []availability.Appointment) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		resp := Appointment{
			ID:          a.ID,
			Summary:     a.Summary,
			Description: a.Description,
			Status:      a.Status,
			StartTime:   formatLocal(a.Start),
			EndTime:     formatLocal(a.End),
			TimeZone:    a.TimeZone,
			Location:    a.Location,
			HTMLLink:    a.HTMLLink,
		}
		if a.Organizer != nil {
			resp.Organizer = &Organizer{Email: a.Organizer.Email, DisplayName: a.Organizer.DisplayName}
		}
		for _, at := range a.Attendees {
			resp.Attendees = append(resp.Attendees, Attendee(at))
		}
		out = append(out, resp)
	}
	return out
}

func toCalendarEvents(events []availability.RawEvent, loc *time.Location) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(events))
	for _, ev := range events {
		item := CalendarEvent{
			ID:          ev.ID,
			Summary:     ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			Status:      ev.Status,
		}
		if ev.Organizer != nil {
			item.Organizer = ev.Organizer.Email
		}
		if _, ok := ev.Start.(availability.DayOnly); ok {
			item.AllDay = true
		}
		if t, err := availability.Normalize(ev.Start, loc); err == nil {
			item.StartTime = &t
		}
		if t, err := availability.Normalize(ev.End, loc); err == nil {
			item.EndTime = &t
		}
		out = append(out, item)
	}
	return out
}

func formatLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(localDateTime)
}
