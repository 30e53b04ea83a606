package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/espn-tables/internal/espn"
	"github.com/pfrederiksen/espn-tables/internal/fetch"
	"github.com/pfrederiksen/espn-tables/internal/logger"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: Config{
				Season:    strconv.Itoa(time.Now().Year()),
				BaseURL:   espn.BaseURL,
				Timeout:   fetch.Timeout,
				UserAgent: fetch.UserAgent,
				LogLevel:  logger.LevelWarn,
			},
		},
		{
			name: "all set",
			env: map[string]string{
				EnvLeagueID:  " 12345 ",
				EnvSeason:    "2016",
				EnvBaseURL:   "http://localhost:9000/flb",
				EnvTimeout:   "5s",
				EnvUserAgent: "custom/1.0",
				EnvLogLevel:  "debug",
				EnvCacheTTL:  "10m",
				EnvOTLP:      "http://localhost:4318/v1/traces",
			},
			want: Config{
				LeagueID:     "12345",
				Season:       "2016",
				BaseURL:      "http://localhost:9000/flb",
				Timeout:      5 * time.Second,
				UserAgent:    "custom/1.0",
				LogLevel:     logger.LevelDebug,
				CacheTTL:     10 * time.Minute,
				OTLPEndpoint: "http://localhost:4318/v1/traces",
			},
		},
		{
			name:    "bad timeout",
			env:     map[string]string{EnvTimeout: "soon"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			env:     map[string]string{EnvTimeout: "-1s"},
			wantErr: true,
		},
		{
			name:    "negative cache ttl",
			env:     map[string]string{EnvCacheTTL: "-1m"},
			wantErr: true,
		},
		{
			name:    "bad log level",
			env:     map[string]string{EnvLogLevel: "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromEnv(envMap(tt.env))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "espn.env")
	require.NoError(t, os.WriteFile(path, []byte("ESPN_LEAGUE_ID=777\nESPN_SEASON=2015\n"), 0o600))

	// Setenv restores the original values on cleanup; godotenv only fills unset keys.
	t.Setenv(EnvLeagueID, "")
	os.Unsetenv(EnvLeagueID)
	t.Setenv(EnvSeason, "2018")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "777", cfg.LeagueID, "unset variable is filled from the file")
	require.Equal(t, "2018", cfg.Season, "environment wins over the file")

	_, err = Load(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
}

func TestLoad_NoDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvLeagueID, "42")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "42", cfg.LeagueID)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.ErrorIs(t, cfg.Validate(), ErrMissingLeague)

	cfg.LeagueID = "1"
	require.NoError(t, cfg.Validate())

	cfg.Season = "next"
	require.Error(t, cfg.Validate())
}

func TestFetcher(t *testing.T) {
	base := fetch.New()

	cfg := Default()
	require.Same(t, base, cfg.Fetcher(base).(*fetch.Client))

	cfg.CacheTTL = time.Minute
	_, ok := cfg.Fetcher(base).(*fetch.Cache)
	require.True(t, ok, "CacheTTL should wrap the fetcher in a cache")
}
