// Package config loads service configuration from an optional YAML file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"calendar-availability/internal/availability"
)

// GoogleConfig selects the Google Calendar event source.
type GoogleConfig struct {
	// Enabled turns the Google source on. It is implied by a non-empty
	// ServiceAccountKeyPath.
	Enabled bool `yaml:"enabled"`
	// CalendarID is used when a request names no calendar.
	CalendarID string `yaml:"calendar_id"`
	// ServiceAccountKeyPath points at a JSON key; empty means application
	// default credentials.
	ServiceAccountKeyPath string `yaml:"service_account_key_path"`
	MaxResults            int64  `yaml:"max_results"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// StaticTokens maps bearer tokens to the participant email they act as.
	StaticTokens map[string]string `yaml:"static_tokens"`
}

// Config is the top-level service configuration.
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	// Timezone is the IANA zone all events are normalized into.
	Timezone string `yaml:"timezone"`

	WorkingHoursStart string `yaml:"working_hours_start"`
	WorkingHoursEnd   string `yaml:"working_hours_end"`

	// DatabaseURL enables the read-only bookings source.
	DatabaseURL string `yaml:"database_url"`
	// BookingsUserID is the bookings owner read when a request names no
	// calendar. Required when Google is enabled too, since request calendar
	// IDs then go to Google only.
	BookingsUserID string `yaml:"bookings_user_id"`

	// Parallelism bounds per-day gap computation; 0 uses GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`

	RequestTimeout time.Duration `yaml:"request_timeout"`

	Google GoogleConfig `yaml:"google"`
	Auth   AuthConfig   `yaml:"auth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:            ":8080",
		LogLevel:          "info",
		Timezone:          "UTC",
		WorkingHoursStart: availability.DefaultWorkingHours.Start.String(),
		WorkingHoursEnd:   availability.DefaultWorkingHours.End.String(),
		RequestTimeout:    30 * time.Second,
		Google: GoogleConfig{
			CalendarID: "primary",
			MaxResults: 250,
		},
		Auth: AuthConfig{StaticTokens: map[string]string{}},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides. A missing file is an error only when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Listen = ":" + strings.TrimPrefix(v, ":")
	}
	str("LISTEN_ADDR", &c.Listen)
	str("LOG_LEVEL", &c.LogLevel)
	str("TIMEZONE", &c.Timezone)
	str("WORKING_HOURS_START", &c.WorkingHoursStart)
	str("WORKING_HOURS_END", &c.WorkingHoursEnd)
	str("DATABASE_URL", &c.DatabaseURL)
	str("BOOKINGS_USER_ID", &c.BookingsUserID)
	str("GOOGLE_CALENDAR_ID", &c.Google.CalendarID)
	str("GOOGLE_SERVICE_ACCOUNT_KEY_PATH", &c.Google.ServiceAccountKeyPath)
	str("JWT_HMAC_SECRET", &c.Auth.JWTSecret)

	if v, ok := lookup("GOOGLE_CALENDAR_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GOOGLE_CALENDAR_ENABLED %q: %w", v, err)
		}
		c.Google.Enabled = b
	}
	if v, ok := lookup("PARALLELISM"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PARALLELISM %q: %w", v, err)
		}
		c.Parallelism = n
	}

	// STATIC_TOKENS is a comma separated list of token=email pairs.
	if v, ok := lookup("STATIC_TOKENS"); ok && strings.TrimSpace(v) != "" {
		if c.Auth.StaticTokens == nil {
			c.Auth.StaticTokens = map[string]string{}
		}
		for _, pair := range strings.Split(v, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			token, email, ok := strings.Cut(pair, "=")
			if !ok || token == "" || email == "" {
				return fmt.Errorf("invalid STATIC_TOKENS entry %q, expected token=email", pair)
			}
			c.Auth.StaticTokens[strings.TrimSpace(token)] = strings.TrimSpace(email)
		}
	}
	return nil
}

// Validate checks the values that are parsed lazily elsewhere.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.WorkingHours(); err != nil {
		return err
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if c.GoogleEnabled() && c.DatabaseURL != "" && c.BookingsUserID == "" {
		return fmt.Errorf("bookings_user_id is required when both google calendar and the bookings database are enabled")
	}
	if c.Auth.JWTSecret == "" && len(c.Auth.StaticTokens) == 0 {
		return fmt.Errorf("no authentication configured: set JWT_HMAC_SECRET or STATIC_TOKENS")
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

// WorkingHours resolves the default working-hours window.
func (c *Config) WorkingHours() (availability.WorkingHours, error) {
	start, err := availability.ParseClock(c.WorkingHoursStart)
	if err != nil {
		return availability.WorkingHours{}, fmt.Errorf("invalid working_hours_start: %w", err)
	}
	end, err := availability.ParseClock(c.WorkingHoursEnd)
	if err != nil {
		return availability.WorkingHours{}, fmt.Errorf("invalid working_hours_end: %w", err)
	}
	w := availability.WorkingHours{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return availability.WorkingHours{}, err
	}
	return w, nil
}

// GoogleEnabled reports whether the Google source should be built.
func (c *Config) GoogleEnabled() bool {
	return c.Google.Enabled || c.Google.ServiceAccountKeyPath != ""
}
