// Package config reads process configuration from the environment, with
// optional .env files loaded through godotenv.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHistoryLimit  = 100
	DefaultEventsSubject = "chartwise.analysis"
	DefaultRateBurst     = 1

	envPrefix = "CHARTWISE_"
)

// Vendor holds the per-provider transport overrides.
type Vendor struct {
	BaseURL string
	// RPS is a client-side request limit, zero means unlimited.
	RPS float64
}

// Config is the process configuration read from CHARTWISE_* variables.
type Config struct {
	LogLevel      string
	LogFormat     string
	HistoryLimit  int
	CallTimeout   time.Duration
	NATSURL       string
	EventsSubject string
	Vendors       map[string]Vendor
}

// Load reads the dotenv files into the environment (variables already set
// win) and then builds a Config for the given provider ids.
func Load(providerIDs []string, files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return FromLookup(os.LookupEnv, providerIDs)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool), providerIDs []string) (Config, error) {
	get := func(name string) string {
		v, _ := lookup(envPrefix + name)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		LogLevel:      get("LOG_LEVEL"),
		LogFormat:     get("LOG_FORMAT"),
		HistoryLimit:  DefaultHistoryLimit,
		NATSURL:       get("NATS_URL"),
		EventsSubject: DefaultEventsSubject,
		Vendors:       make(map[string]Vendor, len(providerIDs)),
	}

	var errs []error
	if v := get("HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%sHISTORY_LIMIT: %w", envPrefix, err))
		case n <= 0:
			errs = append(errs, fmt.Errorf("%sHISTORY_LIMIT must be positive, got %d", envPrefix, n))
		default:
			cfg.HistoryLimit = n
		}
	}
	if v := get("CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%sCALL_TIMEOUT: %w", envPrefix, err))
		case d < 0:
			errs = append(errs, fmt.Errorf("%sCALL_TIMEOUT must not be negative, got %s", envPrefix, d))
		default:
			cfg.CallTimeout = d
		}
	}
	if v := get("EVENTS_SUBJECT"); v != "" {
		cfg.EventsSubject = v
	}

	for _, id := range providerIDs {
		name := strings.ToUpper(id)
		vendor := Vendor{BaseURL: get(name + "_BASE_URL")}
		if v := get(name + "_RPS"); v != "" {
			rps, err := strconv.ParseFloat(v, 64)
			if err != nil || rps < 0 {
				errs = append(errs, fmt.Errorf("%s%s_RPS must be a non-negative number, got %q", envPrefix, name, v))
			} else {
				vendor.RPS = rps
			}
		}
		if vendor != (Vendor{}) {
			cfg.Vendors[id] = vendor
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
