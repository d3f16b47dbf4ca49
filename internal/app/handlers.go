package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"calendar-availability/internal/availability"
	"calendar-availability/internal/logging"
)

// POST /api/appointments/empty-slots
func (a *App) EmptySlotsHandler(c *gin.Context) {
	var req emptySlotsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.emptySlots(c, req)
}

// GET /api/appointments/empty-slots?startDate=&endDate=&workingHoursStart=&workingHoursEnd=
func (a *App) EmptySlotsQueryHandler(c *gin.Context) {
	var req emptySlotsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.emptySlots(c, req)
}

func (a *App) emptySlots(c *gin.Context, req emptySlotsReq) {
	const op = "empty_slots"
	start := time.Now()

	rng, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		a.fail(c, op, start, err)
		return
	}
	window, err := a.resolveWindow(req.WorkingHoursStart, req.WorkingHoursEnd)
	if err != nil {
		a.fail(c, op, start, err)
		return
	}

	ctx, cancel := a.requestContext(c)
	defer cancel()
	slots, err := a.Engine.EmptySlots(ctx, rng, window, req.CalendarID)
	if err != nil {
		a.fail(c, op, start, err)
		return
	}
	slots = availability.MinDuration(slots, req.MinimumSlotDurationMinutes)

	a.Metrics.Observe(op, start, nil)
	a.Metrics.ObserveSlots(len(slots))
	c.JSON(http.StatusOK, toEmptySlots(slots))
}

// POST /api/appointments/my-appointments
func (a *App) MyAppointmentsHandler(c *gin.Context) {
	var req myAppointmentsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.myAppointments(c, req)
}

// GET /api/appointments/my-appointments?startDate=&endDate=
func (a *App) MyAppointmentsQueryHandler(c *gin.Context) {
	var req myAppointmentsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.myAppointments(c, req)
}

func (a *App) myAppointments(c *gin.Context, req myAppointmentsReq) {
	const op = "my_appointments"
	start := time.Now()

	rng, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		a.fail(c, op, start, err)
		return
	}
	participant := Participant(c)

	ctx, cancel := a.requestContext(c)
	defer cancel()
	appts, err := a.Engine.Appointments(ctx, rng, participant, req.CalendarID)
	if err != nil {
		a.fail(c, op, start, err)
		return
	}

	a.Logger.Debug("listed appointments", logging.UserHash(participant), slog.Int("count", len(appts)))
	a.Metrics.Observe(op, start, nil)
	c.JSON(http.StatusOK, toAppointments(appts))
}

// GET /api/calendar/events?calendarId=&timeMin=&timeMax=&q=
func (a *App) ListEventsHandler(c *gin.Context) {
	const op = "list_events"
	start := time.Now()

	var timeMin, timeMax time.Time
	var err error
	if s := c.Query("timeMin"); s != "" {
		if timeMin, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeMin"})
			return
		}
	}
	if s := c.Query("timeMax"); s != "" {
		if timeMax, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeMax"})
			return
		}
	}

	ctx, cancel := a.requestContext(c)
	defer cancel()
	events, err := a.Engine.Events(ctx, c.Query("calendarId"), timeMin, timeMax, c.Query("q"))
	if err != nil {
		a.fail(c, op, start, err)
		return
	}

	a.Metrics.Observe(op, start, nil)
	c.JSON(http.StatusOK, gin.H{
		"events": toCalendarEvents(events, a.Engine.Location()),
		"count":  len(events),
	})
}

func parseRange(startDate, endDate string) (availability.DateRange, error) {
	s, err := availability.ParseDate("startDate", startDate)
	if err != nil {
		return availability.DateRange{}, err
	}
	e, err := availability.ParseDate("endDate", endDate)
	if err != nil {
		return availability.DateRange{}, err
	}
	return availability.DateRange{Start: s, End: e}, nil
}

// resolveWindow applies per-request overrides to the configured default.
func (a *App) resolveWindow(startStr, endStr string) (availability.WorkingHours, error) {
	var start, end *availability.Clock
	if startStr != "" {
		c, err := availability.ParseClock(startStr)
		if err != nil {
			return availability.WorkingHours{}, &availability.ValidationError{Field: "workingHoursStart", Reason: err.Error()}
		}
		start = &c
	}
	if endStr != "" {
		c, err := availability.ParseClock(endStr)
		if err != nil {
			return availability.WorkingHours{}, &availability.ValidationError{Field: "workingHoursEnd", Reason: err.Error()}
		}
		end = &c
	}
	return a.DefaultHours.Override(start, end), nil
}

func (a *App) fail(c *gin.Context, op string, start time.Time, err error) {
	a.Metrics.Observe(op, start, err)

	var (
		verr *availability.ValidationError
		merr *availability.MissingTimeError
		serr *availability.SourceUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &merr):
		a.Logger.Warn("event without usable time", logging.Operation(op), slog.String("event_id", merr.EventID))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &serr):
		a.Logger.Error("event source unavailable", logging.Operation(op), logging.Err(err))
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		a.Logger.Warn("request timed out", logging.Operation(op), logging.Err(err))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		a.Logger.Error("request failed", logging.Operation(op), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
