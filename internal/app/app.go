package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calendar-availability/internal/availability"
	"calendar-availability/internal/config"
)

// App holds the dependencies shared by all handlers. Every field is set once
// at startup and never mutated.
type App struct {
	Engine *availability.Engine
	// DefaultHours applies when a request names no working hours.
	DefaultHours availability.WorkingHours
	Logger       *slog.Logger
	Metrics      *Metrics
	// Timeout bounds each upstream call; 0 disables it.
	Timeout time.Duration
	// Ready, when set, backs the health endpoint.
	Ready func(ctx context.Context) error
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(a *App, auth config.AuthConfig, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(a.Logger))

	router.GET("/healthz", a.HealthHandler)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api", AuthMiddleware(auth, a.Logger))
	{
		appointments := api.Group("/appointments")
		{
			appointments.POST("/empty-slots", a.EmptySlotsHandler)
			appointments.GET("/empty-slots", a.EmptySlotsQueryHandler)
			appointments.POST("/my-appointments", a.MyAppointmentsHandler)
			appointments.GET("/my-appointments", a.MyAppointmentsQueryHandler)
		}

		calendar := api.Group("/calendar")
		{
			calendar.GET("/events", a.ListEventsHandler)
		}
	}
	return router
}

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	if a.Ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}

func (a *App) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if a.Timeout > 0 {
		return context.WithTimeout(c.Request.Context(), a.Timeout)
	}
	return context.WithCancel(c.Request.Context())
}
