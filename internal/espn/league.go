package espn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/espn-tables/internal/fetch"
	"github.com/pfrederiksen/espn-tables/internal/logger"
	"github.com/pfrederiksen/espn-tables/internal/table"
)

// BaseURL is the root of the classic ESPN Fantasy Baseball site.
const BaseURL = "http://games.espn.com/flb"

var (
	// ErrUnknownTeam is returned when a team id is not part of the league.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrNoTeams is returned when the league office page lists no teams.
	ErrNoTeams = errors.New("no teams found on league page")
	// ErrSettingNotFound is returned when the settings page has no scoring label.
	ErrSettingNotFound = errors.New("scoring setting not found")
)

var teamIDPattern = regexp.MustCompile(`teamId=(\d+)`)

// TeamRef identifies one team of a league.
type TeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// League gives access to league-wide ESPN tables.
type League struct {
	ID      string
	Season  string
	baseURL string
	fetcher fetch.Fetcher
	log     *logger.Logger
}

// Option configures a League.
type Option func(*League)

// WithFetcher sets the page fetcher. The default is fetch.New().
func WithFetcher(f fetch.Fetcher) Option {
	return func(l *League) { l.fetcher = f }
}

// WithBaseURL points the league at another host, e.g. a test server.
func WithBaseURL(base string) Option {
	return func(l *League) {
		if base != "" {
			l.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithLogger sets the logger for extraction diagnostics.
func WithLogger(log *logger.Logger) Option {
	return func(l *League) { l.log = log }
}

// NewLeague creates a League for a league id and season year.
func NewLeague(id, season string, opts ...Option) *League {
	l := &League{
		ID:      strings.TrimSpace(id),
		Season:  strings.TrimSpace(season),
		baseURL: BaseURL,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Default()
	}
	if l.fetcher == nil {
		l.fetcher = fetch.New(fetch.WithLogger(l.log))
	}
	return l
}

// URL returns the address of an ESPN page for this league. extra parameters
// are added after leagueId and seasonId.
func (l *League) URL(page string, extra url.Values) string {
	q := url.Values{}
	q.Set("leagueId", l.ID)
	q.Set("seasonId", l.Season)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return fmt.Sprintf("%s/%s?%s", l.baseURL, strings.TrimLeft(page, "/"), q.Encode())
}

// document fetches and parses one page.
func (l *League) document(ctx context.Context, page string, extra url.Values) (*goquery.Document, error) {
	u := l.URL(page, extra)
	body, err := l.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", u, err)
	}
	return doc, nil
}

// extracted logs and counts rows produced for one table kind.
func (l *League) extracted(kind string, t *table.Table) {
	logger.AddCounter("rows."+kind, int64(t.Len()))
	l.log.Debug("extracted table", logger.Fields{
		"kind":    kind,
		"league":  l.ID,
		"season":  l.Season,
		"name":    t.Name(),
		"columns": len(t.Columns()),
		"rows":    t.Len(),
	})
}

// Teams lists the league's teams in page order.
func (l *League) Teams(ctx context.Context) ([]TeamRef, error) {
	doc, err := l.document(ctx, "leagueoffice", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching league office: %w", err)
	}

	var teams []TeamRef
	seen := make(map[string]bool)
	doc.Find("ul#games-tabs1 li a").Each(func(_ int, a *goquery.Selection) {
		m := teamIDPattern.FindStringSubmatch(a.AttrOr("href", ""))
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		teams = append(teams, TeamRef{ID: m[1], Name: normalizeName(a.Text())})
	})

	if len(teams) == 0 {
		return nil, ErrNoTeams
	}
	logger.SetGauge("league.teams", float64(len(teams)))
	return teams, nil
}

// Scoring returns the league's scoring type, e.g. "Rotisserie".
func (l *League) Scoring(ctx context.Context) (string, error) {
	doc, err := l.document(ctx, "leaguesetup/settings", nil)
	if err != nil {
		return "", fmt.Errorf("fetching settings: %w", err)
	}

	label := doc.Find("td.settingLabel").First()
	if label.Length() == 0 {
		return "", ErrSettingNotFound
	}
	value := strings.TrimSpace(label.NextAllFiltered("td").First().Text())
	if value == "" {
		return "", ErrSettingNotFound
	}
	return value, nil
}

// Team returns the team with the given id.
func (l *League) Team(ctx context.Context, id string) (*Team, error) {
	id = strings.TrimSpace(id)
	teams, err := l.Teams(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		if t.ID == id {
			return &Team{league: l, ID: t.ID, Name: t.Name}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, id)
}

// ActiveStats concatenates every team's active batter or pitcher stats.
func (l *League) ActiveStats(ctx context.Context, batter bool) (*table.Table, error) {
	teams, err := l.Teams(ctx)
	if err != nil {
		return nil, err
	}

	parts := make([]*table.Table, 0, len(teams))
	for _, ref := range teams {
		t := &Team{league: l, ID: ref.ID, Name: ref.Name}
		stats, err := t.ActiveStats(ctx, batter)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", ref.ID, err)
		}
		parts = append(parts, stats)
	}
	return table.Concat(statsName(batter), parts...), nil
}

// normalizeName upper-cases a team name and collapses its whitespace.
func normalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
