package availability

import "time"

// Project maps raw events to appointments, keeping their order. Missing
// optional fields stay empty; a missing start or end leaves a zero time.
func Project(events []RawEvent, loc *time.Location) []Appointment {
	out := make([]Appointment, 0, len(events))
	for _, ev := range events {
		out = append(out, project(ev, loc))
	}
	return out
}

func project(ev RawEvent, loc *time.Location) Appointment {
	a := Appointment{
		ID:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Status:      ev.Status,
		TimeZone:    ev.TimeZone,
		Location:    ev.Location,
		HTMLLink:    ev.HTMLLink,
	}
	if a.TimeZone == "" {
		a.TimeZone = loc.String()
	}
	if start, err := Normalize(ev.Start, loc); err == nil {
		a.Start = start
	}
	if end, err := Normalize(ev.End, loc); err == nil {
		a.End = end
	}
	if ev.Organizer != nil {
		org := *ev.Organizer
		a.Organizer = &org
	}
	if len(ev.Attendees) > 0 {
		a.Attendees = make([]Attendee, len(ev.Attendees))
		copy(a.Attendees, ev.Attendees)
	}
	return a
}
