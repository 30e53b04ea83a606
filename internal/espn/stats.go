package espn

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/espn-tables/internal/logger"
	"github.com/pfrederiksen/espn-tables/internal/table"
)

const statsSelector = "table.playerTableTable.tableBody"

// "Mike Trout, LAA<nbsp>OF" or "Jose Altuve, Hou<nbsp>2B, DH<nbsp><nbsp>DTD".
var statsPlayerPattern = regexp.MustCompile(`^(.+?), (\w+)\x{00a0}(.+?)(\x{00a0}\x{00a0}DTD)?$`)

var statsLeadColumns = []string{"MANAGER", "PLAYER", "TEAM", "POS", "DTD"}

func statsName(batter bool) string {
	if batter {
		return "batters"
	}
	return "pitchers"
}

func statsParams(teamID string, batter bool) url.Values {
	q := url.Values{"teamId": {teamID}}
	if !batter {
		q.Set("filter", "2")
	}
	return q
}

// activeStatsFromDocument reads a team's active stats table: row 1 holds the
// column names, the last row holds totals and is dropped, "--" marks no value.
func (l *League) activeStatsFromDocument(doc *goquery.Document, manager string, batter bool) (*table.Table, error) {
	raw, err := table.ExtractFromDocument(doc, table.Spec{
		Selector:         statsSelector,
		HeaderRow:        1,
		SkipFooter:       1,
		DropBlankColumns: true,
	})
	if err != nil {
		return nil, err
	}

	playerCol := ""
	for _, col := range raw.Columns() {
		if strings.HasPrefix(col, "PLAYER") {
			playerCol = col
			break
		}
	}
	if playerCol == "" {
		return nil, &table.MalformedTableError{Selector: statsSelector, Row: 1, Reason: "no PLAYER column"}
	}

	lead := make(map[string]bool, len(statsLeadColumns))
	for _, c := range statsLeadColumns {
		lead[c] = true
	}
	var rest []string
	for _, col := range raw.Columns() {
		if col != playerCol && !lead[col] {
			rest = append(rest, col)
		}
	}

	rows := make([][]string, 0, raw.Len())
	for i := 0; i < raw.Len(); i++ {
		player, team, pos, dtd := l.splitStatsPlayer(raw.Value(i, playerCol))
		row := []string{manager, player, team, pos, dtd}
		for _, col := range rest {
			v := raw.Value(i, col)
			if v == "--" {
				v = ""
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	out, err := table.New(statsName(batter), append(append([]string(nil), statsLeadColumns...), rest...), rows)
	if err != nil {
		return nil, err
	}
	l.extracted("stats", out)
	return out, nil
}

func (l *League) splitStatsPlayer(cell string) (player, team, pos, dtd string) {
	m := statsPlayerPattern.FindStringSubmatch(cell)
	if m == nil {
		if cell != "" {
			l.log.Warn("unrecognized player cell", logger.Fields{"cell": cell})
		}
		return cell, "", "", "false"
	}
	dtd = "false"
	if m[4] != "" {
		dtd = "true"
	}
	return m[1], m[2], m[3], dtd
}

// fetchActiveStats loads the active stats page of one team.
func (l *League) fetchActiveStats(ctx context.Context, teamID, manager string, batter bool) (*table.Table, error) {
	doc, err := l.document(ctx, "activestats", statsParams(teamID, batter))
	if err != nil {
		return nil, fmt.Errorf("fetching active stats: %w", err)
	}
	return l.activeStatsFromDocument(doc, manager, batter)
}
