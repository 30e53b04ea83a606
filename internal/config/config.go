package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pfrederiksen/espn-tables/internal/espn"
	"github.com/pfrederiksen/espn-tables/internal/fetch"
	"github.com/pfrederiksen/espn-tables/internal/logger"
)

// Environment variable names.
const (
	EnvLeagueID  = "ESPN_LEAGUE_ID"
	EnvSeason    = "ESPN_SEASON"
	EnvBaseURL   = "ESPN_BASE_URL"
	EnvTimeout   = "ESPN_TIMEOUT"
	EnvUserAgent = "ESPN_USER_AGENT"
	EnvLogLevel  = "ESPN_LOG_LEVEL"
	EnvCacheTTL  = "ESPN_CACHE_TTL"
	EnvOTLP      = "ESPN_OTLP_ENDPOINT"
)

// DefaultEnvFile is read by Load when no path is given.
const DefaultEnvFile = ".env"

// ErrMissingLeague is returned by Validate when no league id is configured.
var ErrMissingLeague = errors.New("league id is required (--league or " + EnvLeagueID + ")")

// Config holds the settings shared by every command.
type Config struct {
	LeagueID  string
	Season    string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	LogLevel  logger.Level
	// CacheTTL keeps fetched pages in memory for this long; zero disables caching.
	CacheTTL time.Duration
	// OTLPEndpoint receives fetch spans when set.
	OTLPEndpoint string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Season:    strconv.Itoa(time.Now().Year()),
		BaseURL:   espn.BaseURL,
		Timeout:   fetch.Timeout,
		UserAgent: fetch.UserAgent,
		LogLevel:  logger.LevelWarn,
	}
}

// Load reads path (or .env when path is empty) into the environment and then
// builds a Config from it. A missing default .env is not an error; a missing
// explicit path is.
func Load(path string) (Config, error) {
	file := path
	if file == "" {
		file = DefaultEnvFile
	}
	if err := godotenv.Load(file); err != nil {
		if path != "" || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, falling back to Default for unset values.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvLeagueID)); v != "" {
		cfg.LeagueID = v
	}
	if v := strings.TrimSpace(getenv(EnvSeason)); v != "" {
		cfg.Season = v
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvUserAgent)); v != "" {
		cfg.UserAgent = v
	}
	if v := strings.TrimSpace(getenv(EnvOTLP)); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %s", EnvTimeout, v)
		}
		cfg.Timeout = d
	}
	if v := strings.TrimSpace(getenv(EnvCacheTTL)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		if d < 0 {
			return Config{}, fmt.Errorf("%s must not be negative, got %s", EnvCacheTTL, v)
		}
		cfg.CacheTTL = d
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

// Validate checks the settings a league command needs.
func (c Config) Validate() error {
	if c.LeagueID == "" {
		return ErrMissingLeague
	}
	if _, err := strconv.Atoi(c.Season); err != nil {
		return fmt.Errorf("season must be a year, got %q", c.Season)
	}
	return nil
}

// Fetcher wraps f in a page cache when CacheTTL is set.
func (c Config) Fetcher(f fetch.Fetcher) fetch.Fetcher {
	if c.CacheTTL <= 0 {
		return f
	}
	return fetch.NewCache(f, c.CacheTTL)
}

// FetchOptions returns the fetcher options for this configuration.
func (c Config) FetchOptions() []fetch.Option {
	return []fetch.Option{
		fetch.WithTimeout(c.Timeout),
		fetch.WithUserAgent(c.UserAgent),
	}
}
