package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pfrederiksen/espn-tables/internal/logger"
	"github.com/pfrederiksen/espn-tables/internal/table"
)

var fixtures = map[string]string{
	"/flb/leagueoffice":         "leagueoffice.html",
	"/flb/leaguesetup/settings": "settings.html",
	"/flb/standings":            "standings.html",
	"/flb/tools/draftrecap":     "draftrecap_snake.html",
	"/flb/activestats":          "activestats_batters.html",
	"/flb/recentactivity":       "recentactivity.html",
}

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	pages := make(map[string][]byte, len(fixtures))
	for path, name := range fixtures {
		data, err := os.ReadFile(filepath.Join("../../testdata/fixtures", name))
		if err != nil {
			t.Fatalf("failed to load fixture %s: %v", name, err)
		}
		pages[path] = data
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(page)
	}))
	t.Cleanup(server.Close)
	return server
}

// run executes the root command against server with args and returns stdout
// and stderr.
func run(t *testing.T, server *httptest.Server, args ...string) (string, string, error) {
	t.Helper()
	previous := logger.Default()
	t.Cleanup(func() { logger.SetDefault(previous) })
	t.Setenv("ESPN_LEAGUE_ID", "")
	t.Setenv("ESPN_SEASON", "")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if server != nil {
		args = append([]string{"--league", "12345", "--season", "2016", "--base-url", server.URL + "/flb"}, args...)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type jsonTable struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func TestTeamsCommand(t *testing.T) {
	server := newFixtureServer(t)

	out, _, err := run(t, server, "teams", "--format", "json")
	require.NoError(t, err)

	var got jsonTable
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, []string{"ID", "NAME"}, got.Columns)
	require.Equal(t, [][]string{
		{"1", "BRONX BOMBERS"},
		{"2", "FENWAY FAITHFUL"},
		{"3", "WRIGLEY WINDS"},
	}, got.Rows)
}

func TestScoringCommand(t *testing.T) {
	server := newFixtureServer(t)

	out, _, err := run(t, server, "scoring", "-f", "csv")
	require.NoError(t, err)
	require.Contains(t, out, "12345,2016,Rotisserie")
}

func TestStandingsCommand(t *testing.T) {
	server := newFixtureServer(t)

	t.Run("json array", func(t *testing.T) {
		out, _, err := run(t, server, "standings", "--format", "json")
		require.NoError(t, err)

		var got []jsonTable
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		require.Equal(t, "Roto Standings", got[0].Name)
		require.Len(t, got[0].Rows, 3)
		require.Equal(t, "Season Stats", got[1].Name)
	})

	t.Run("team filter", func(t *testing.T) {
		out, _, err := run(t, server, "standings", "--team", "2", "--format", "json")
		require.NoError(t, err)

		var got []jsonTable
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		for _, tbl := range got {
			require.Len(t, tbl.Rows, 1)
			require.Equal(t, "Fenway Faithful (Sam)", tbl.Rows[0][1])
		}
	})

	t.Run("text", func(t *testing.T) {
		out, _, err := run(t, server, "standings")
		require.NoError(t, err)
		require.Contains(t, out, "Roto Standings")
		require.Contains(t, out, "Wrigley Winds (Jo)")
		require.Contains(t, out, "╭")
	})

	t.Run("sorted", func(t *testing.T) {
		out, _, err := run(t, server, "standings", "--format", "json", "--sort", "TOTAL")
		require.NoError(t, err)

		var got []jsonTable
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Equal(t, "3", got[0].Rows[0][0], "lowest total first")
		require.Equal(t, "1", got[1].Rows[0][0], "table without the column keeps page order")
	})

	t.Run("unknown team", func(t *testing.T) {
		_, _, err := run(t, server, "standings", "--team", "99")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown team")
	})
}

func TestDraftCommand(t *testing.T) {
	server := newFixtureServer(t)

	out, _, err := run(t, server, "draft", "--format", "markdown")
	require.NoError(t, err)
	require.Contains(t, out, "### draft")
	require.Contains(t, out, "| 1 | 2 | Fenway Faithful | Clayton Kershaw | LAD | SP | true |")

	out, _, err = run(t, server, "draft", "--team", "1", "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "header plus two picks")
	require.Equal(t, "2,6,Bronx Bombers,Jose Altuve,Hou,2B,false", lines[2])
}

func TestStatsCommand(t *testing.T) {
	server := newFixtureServer(t)

	out, _, err := run(t, server, "stats", "--team", "1", "--format", "json", "--sort", "AB", "--desc")
	require.NoError(t, err)

	var got jsonTable
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "batters", got.Name)
	require.Len(t, got.Rows, 3)
	require.Equal(t, "Paul Goldschmidt", got.Rows[0][1])
	require.Equal(t, "Buster Posey", got.Rows[1][1])
	require.Equal(t, "Mike Trout", got.Rows[2][1], "empty cells sort last")
}

func TestTransactionsCommand(t *testing.T) {
	server := newFixtureServer(t)

	out, _, err := run(t, server, "transactions", "--start", "2016-04-01", "--end", "2016-04-30", "--format", "json")
	require.NoError(t, err)

	var got jsonTable
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, []string{"DATE", "TYPE", "DETAIL", "TRANSACTION"}, got.Columns)
	require.Equal(t, "ANN > Yadier Molina > Waivers", got.Rows[2][3])

	_, _, err = run(t, server, "transactions", "--start", "April 1", "--end", "2016-04-30")
	require.Error(t, err)

	_, _, err = run(t, server, "transactions", "--start", "2016-04-01")
	require.Error(t, err, "--end is required")

	out, _, err = run(t, server, "transactions", "--range", "Apr 1-30", "--team", "1", "-f", "csv")
	require.NoError(t, err)
	require.Contains(t, out, "ANN > Yadier Molina > Waivers")

	_, _, err = run(t, server, "transactions", "--range", "Apr", "--start", "2016-04-01")
	require.Error(t, err, "--range excludes --start")
}

func TestWhere(t *testing.T) {
	server := newFixtureServer(t)

	out, _, err := run(t, server, "draft", "--format", "json", "--where", "KEEPER=true")
	require.NoError(t, err)
	var got jsonTable
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Rows, 1)
	require.Equal(t, "Clayton Kershaw", got.Rows[0][3])

	out, _, err = run(t, server, "standings", "--format", "json", "-w", "TEAM~winds", "-w", "TOTAL<10")
	require.NoError(t, err)
	var standings []jsonTable
	require.NoError(t, json.Unmarshal([]byte(out), &standings))
	require.Len(t, standings[0].Rows, 1, "roto table has both columns")
	require.Len(t, standings[1].Rows, 3, "season table lacks TOTAL and is left alone")

	_, _, err = run(t, server, "draft", "--where", "SB>10")
	require.Error(t, err)

	_, _, err = run(t, server, "draft", "--where", "KEEPER")
	require.Error(t, err)
}

func TestXLSXOutput(t *testing.T) {
	server := newFixtureServer(t)
	path := filepath.Join(t.TempDir(), "standings.xlsx")

	_, _, err := run(t, server, "standings", "--format", "xlsx", "--output", path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Roto Standings", "Season Stats"}, f.GetSheetList())
	rows, err := f.GetRows("Roto Standings")
	require.NoError(t, err)
	require.Equal(t, []string{"RK", "TEAM", "R", "HR", "RBI", "SB", "AVG", "TOTAL"}, rows[0])
	require.Equal(t, "Bronx Bombers (Alex)", rows[1][1])

	_, _, err = run(t, server, "standings", "--format", "xlsx")
	require.Error(t, err, "xlsx needs --output")
}

func TestVerbose(t *testing.T) {
	server := newFixtureServer(t)
	logger.ResetMetrics()

	_, stderr, err := run(t, server, "teams", "--verbose")
	require.NoError(t, err)
	require.Contains(t, stderr, `"level":"DEBUG"`)
	require.Contains(t, stderr, `"fetch.ok": 1`)
	require.Contains(t, stderr, `"league.teams": 3`)
}

func TestTraceExport(t *testing.T) {
	server := newFixtureServer(t)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	var exports atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/v1/traces" {
			exports.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	t.Setenv("ESPN_OTLP_ENDPOINT", collector.URL+"/v1/traces")
	_, _, err := run(t, server, "teams")
	require.NoError(t, err)
	require.Positive(t, exports.Load(), "spans are flushed before the command returns")

	t.Setenv("ESPN_OTLP_ENDPOINT", "not a url")
	_, _, err = run(t, server, "teams")
	require.Error(t, err)
}

func TestErrors(t *testing.T) {
	server := newFixtureServer(t)

	_, _, err := run(t, nil, "teams")
	require.Error(t, err)
	require.Contains(t, err.Error(), "league id is required")

	_, _, err = run(t, server, "teams", "--format", "yaml")
	require.Error(t, err)

	_, _, err = run(t, server, "--base-url", server.URL+"/missing", "teams")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteOutput_WriteError(t *testing.T) {
	tbl, err := table.New("draft", []string{"PICK"}, [][]string{{"1"}})
	require.NoError(t, err)

	for _, format := range []OutputFormat{FormatMarkdown, FormatJSON, FormatXLSX} {
		err := WriteOutput(failingWriter{}, []*table.Table{tbl}, format)
		require.Error(t, err, format)
	}
}

func TestSheetName(t *testing.T) {
	used := make(map[string]bool)

	require.Equal(t, "Roto Standings", sheetName("Roto Standings", 0, used))
	require.Equal(t, "roto standings (2)", sheetName("roto standings", 1, used), "collisions ignore case; the name keeps its own")
	require.Equal(t, "Table 3", sheetName("  ", 2, used))
	require.Equal(t, "a_b_c", sheetName("a/b:c", 3, used))
	require.Len(t, []rune(sheetName(strings.Repeat("x", 40), 4, used)), 31)
}

func TestLessCell(t *testing.T) {
	tests := []struct {
		a, b string
		desc bool
		want bool
	}{
		{"2", "10", false, true},
		{"2", "10", true, false},
		{"$31", "$45", false, true},
		{".288", ".297", true, false},
		{"7", "", false, true},
		{"", "7", true, false},
		{"12", "Bob", false, true},
		{"ann", "Bob", false, true},
		{"same", "same", false, false},
	}

	for _, tt := range tests {
		if got := lessCell(tt.a, tt.b, tt.desc); got != tt.want {
			t.Errorf("lessCell(%q, %q, desc=%v) = %v, want %v", tt.a, tt.b, tt.desc, got, tt.want)
		}
	}
}
