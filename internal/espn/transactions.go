package espn

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/espn-tables/internal/table"
)

const (
	transactionSelector = "table.tableBody"
	// activityType=2 limits recent activity to completed transactions.
	activityTransactions = "2"
	dateParam            = "20060102"
)

// Move is one player movement described in a transaction detail.
type Move struct {
	From   string `json:"from"`
	Player string `json:"player"`
	To     string `json:"to"`
}

func (m Move) String() string {
	return m.From + " > " + m.Player + " > " + m.To
}

var movePattern = regexp.MustCompile(`(\w+) (dropped|added|traded) (.+?), \w+ \w+ (?:to|from) (Waivers|Free Agency|\w+)`)

// ParseMoves extracts adds, drops and trades from a transaction detail such as
// "BOB dropped Mike Trout, LAA OF to Waivers BOB added Juan Soto, NYY OF from
// Free Agency". An add is reported as a move from the pool to the team.
func ParseMoves(detail string) []Move {
	var moves []Move
	for _, m := range movePattern.FindAllStringSubmatch(detail, -1) {
		team, verb, player, other := m[1], m[2], strings.TrimSpace(m[3]), m[4]
		if verb == "added" {
			moves = append(moves, Move{From: other, Player: player, To: team})
			continue
		}
		moves = append(moves, Move{From: team, Player: player, To: other})
	}
	return moves
}

func formatMoves(moves []Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, "; ")
}

func transactionParams(teamID string, start, end time.Time) url.Values {
	q := url.Values{
		"activityType": {activityTransactions},
		"startDate":    {start.Format(dateParam)},
		"endDate":      {end.Format(dateParam)},
	}
	if teamID != "" {
		q.Set("teamId", teamID)
	}
	return q
}

// Transactions returns league-wide transactions between start and end.
func (l *League) Transactions(ctx context.Context, start, end time.Time) (*table.Table, error) {
	return l.fetchTransactions(ctx, "", start, end)
}

func (l *League) fetchTransactions(ctx context.Context, teamID string, start, end time.Time) (*table.Table, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	doc, err := l.document(ctx, "recentactivity", transactionParams(teamID, start, end))
	if err != nil {
		return nil, fmt.Errorf("fetching recent activity: %w", err)
	}
	return l.transactionsFromDocument(doc)
}

// transactionsFromDocument reads the activity table and appends a TRANSACTION
// column built from each row's DETAIL text.
func (l *League) transactionsFromDocument(doc *goquery.Document) (*table.Table, error) {
	raw, err := table.ExtractFromDocument(doc, table.Spec{
		Selector:         transactionSelector,
		HeaderRow:        1,
		DropBlankColumns: true,
		Text:             table.TextJoined,
	})
	if err != nil {
		return nil, err
	}
	if !raw.HasColumn("DETAIL") {
		return nil, &table.MalformedTableError{Selector: transactionSelector, Row: 1, Reason: "no DETAIL column"}
	}

	cols := raw.Columns()
	detailIdx := 0
	for i, c := range cols {
		if c == "DETAIL" {
			detailIdx = i
		}
	}
	cols = append(cols, "TRANSACTION")

	rows := raw.Rows()
	for i := range rows {
		detail := strings.ReplaceAll(rows[i][detailIdx], " ,", ",")
		rows[i][detailIdx] = detail
		rows[i] = append(rows[i], formatMoves(ParseMoves(detail)))
	}

	out, err := table.New("transactions", cols, rows)
	if err != nil {
		return nil, err
	}
	l.extracted("transactions", out)
	return out, nil
}
