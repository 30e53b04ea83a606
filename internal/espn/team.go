package espn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/espn-tables/internal/table"
)

// Team gives access to the tables of one team in a league.
type Team struct {
	league *League
	ID     string
	Name   string
}

// NewTeam looks up teamID in the league and returns its Team.
func NewTeam(ctx context.Context, leagueID, season, teamID string, opts ...Option) (*Team, error) {
	return NewLeague(leagueID, season, opts...).Team(ctx, teamID)
}

// League returns the league the team belongs to.
func (t *Team) League() *League {
	return t.league
}

// ActiveStats returns the team's active batter stats, or pitcher stats when
// batter is false.
func (t *Team) ActiveStats(ctx context.Context, batter bool) (*table.Table, error) {
	return t.league.fetchActiveStats(ctx, t.ID, t.Name, batter)
}

// DraftResults returns the league draft picks made by this team.
func (t *Team) DraftResults(ctx context.Context) (*table.Table, error) {
	draft, err := t.league.DraftResults(ctx)
	if err != nil {
		return nil, err
	}
	return draft.Filter(func(row map[string]string) bool {
		return normalizeName(row["MANAGER"]) == t.Name
	}), nil
}

// Standings returns the league standings tables reduced to this team's rows.
func (t *Team) Standings(ctx context.Context) ([]*table.Table, error) {
	tables, err := t.league.Standings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*table.Table, len(tables))
	for i, tbl := range tables {
		out[i] = tbl.Filter(t.mentioned)
	}
	return out, nil
}

// Transactions returns the team's transactions between start and end.
func (t *Team) Transactions(ctx context.Context, start, end time.Time) (*table.Table, error) {
	tx, err := t.league.fetchTransactions(ctx, t.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", t.ID, err)
	}
	return tx, nil
}

// mentioned reports whether a standings row names this team. Standings cells
// read either "TEAM NAME" or "TEAM NAME (Owner)".
func (t *Team) mentioned(row map[string]string) bool {
	for _, v := range row {
		n := normalizeName(v)
		if n == t.Name || strings.HasPrefix(n, t.Name+" (") {
			return true
		}
	}
	return false
}
