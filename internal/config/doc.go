// Package config resolves espn-tables settings from the environment.
//
// An optional .env file is loaded first; variables already present in the
// environment win over the file. Command-line flags override both.
//
// Recognized variables:
//
//	ESPN_LEAGUE_ID      league id
//	ESPN_SEASON         season year, default current year
//	ESPN_BASE_URL       site root, default http://games.espn.com/flb
//	ESPN_TIMEOUT        fetch timeout as a Go duration, default 30s
//	ESPN_USER_AGENT     User-Agent header for page requests
//	ESPN_LOG_LEVEL      DEBUG, INFO, WARN or ERROR, default WARN
//	ESPN_CACHE_TTL      keep fetched pages in memory this long, default 0 (off)
//	ESPN_OTLP_ENDPOINT  OTLP/HTTP traces URL, e.g. http://localhost:4318/v1/traces
package config
