package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"calendar-availability/internal/app"
	"calendar-availability/internal/availability"
	"calendar-availability/internal/config"
	"calendar-availability/internal/logging"
	"calendar-availability/internal/server"
	"calendar-availability/internal/source"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	var configPath string
	rootCmd := &cobra.Command{
		Use:   "calendar-availability",
		Short: "Serves free slots and participant appointments from calendar events",
		Long: `calendar-availability reads events from Google Calendar and/or a
bookings database and answers two questions over a date range: where are the
free gaps inside working hours, and which events involve a given participant.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	hours, err := cfg.WorkingHours()
	if err != nil {
		return err
	}

	var sources source.Multi
	var ready func(context.Context) error

	if cfg.GoogleEnabled() {
		g, err := source.NewGoogle(ctx, source.GoogleConfig{
			CalendarID:            cfg.Google.CalendarID,
			ServiceAccountKeyPath: cfg.Google.ServiceAccountKeyPath,
			MaxResults:            cfg.Google.MaxResults,
		}, logger)
		if err != nil {
			return err
		}
		sources = append(sources, g)
		logger.Info("google calendar source enabled", logging.CalendarID(cfg.Google.CalendarID))
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}
		defer pool.Close()
		var bookings availability.EventSource = &source.Bookings{DB: pool, UserID: cfg.BookingsUserID}
		if len(sources) > 0 {
			// request calendar IDs belong to google
			bookings = source.Pinned{Source: bookings, CalendarID: cfg.BookingsUserID}
		}
		sources = append(sources, bookings)
		ready = pool.Ping
		logger.Info("bookings source enabled")
	}

	if len(sources) == 0 {
		return fmt.Errorf("no event source configured: enable google calendar or set DATABASE_URL")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := app.NewMetrics(reg)
	if err != nil {
		return err
	}

	var src availability.EventSource = sources
	if len(sources) == 1 {
		src = sources[0]
	}
	engine, err := availability.NewEngine(app.InstrumentSource(src, metrics), loc,
		availability.WithLogger(logger),
		availability.WithParallelism(cfg.Parallelism))
	if err != nil {
		return err
	}

	a := &app.App{
		Engine:       engine,
		DefaultHours: hours,
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      cfg.RequestTimeout,
		Ready:        ready,
	}

	gin.SetMode(gin.ReleaseMode)
	router := app.NewRouter(a, cfg.Auth, reg)

	logger.Info("starting",
		slog.String("timezone", loc.String()),
		slog.String("working_hours", hours.String()),
		slog.Int("sources", len(sources)))
	return server.Run(ctx, router, cfg.Listen, logger)
}
