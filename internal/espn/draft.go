package espn

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/espn-tables/internal/logger"
	"github.com/pfrederiksen/espn-tables/internal/table"
)

// Draft types as printed on the draft recap page.
const (
	DraftAuction  = "Auction Draft"
	DraftSnake    = "Snake Draft"
	DraftOffline  = "Offline Draft"
	DraftAutopick = "Autopick Draft"
)

const draftSelector = "div.games-fullcol-extramargin table table"

// ErrUnknownDraftType is returned for draft recap pages of an unsupported type.
var ErrUnknownDraftType = errors.New("unknown draft type")

// "Mike Trout, LAA<nbsp>OF" with an optional "<nbsp><nbsp>K" keeper mark.
var draftPlayerPattern = regexp.MustCompile(`^(.+?), (\w+)\x{00a0}([\w/]+)(\x{00a0}\x{00a0}K)?$`)

var (
	auctionColumns = []string{"MANAGER", "PLAYER", "PICK", "TEAM", "POS", "PRICE", "KEEPER"}
	snakeColumns   = []string{"ROUND", "PICK", "MANAGER", "PLAYER", "TEAM", "POS", "KEEPER"}
)

// DraftResults returns every pick of the league draft.
func (l *League) DraftResults(ctx context.Context) (*table.Table, error) {
	doc, err := l.document(ctx, "tools/draftrecap", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching draft recap: %w", err)
	}
	return l.draftFromDocument(doc)
}

func (l *League) draftFromDocument(doc *goquery.Document) (*table.Table, error) {
	kind := draftType(doc)

	var (
		cols   []string
		format func(*table.Table) [][]string
	)
	switch kind {
	case DraftAuction:
		cols = auctionColumns
		format = l.formatAuctionTable
	case DraftSnake, DraftOffline, DraftAutopick:
		cols = snakeColumns
		format = l.formatSnakeTable
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDraftType, kind)
	}

	raw, err := table.ExtractAllFromDocument(doc, table.Spec{
		Selector:  draftSelector,
		HeaderRow: 1,
		Columns:   []string{"PICK", "PLAYER", "THIRD"},
	})
	if err != nil {
		return nil, fmt.Errorf("draft tables: %w", err)
	}

	var rows [][]string
	for _, t := range raw {
		rows = append(rows, format(t)...)
	}
	out, err := table.New("draft", cols, rows)
	if err != nil {
		return nil, err
	}
	l.extracted("draft", out)
	return out, nil
}

// draftType reads the text that follows the bold "Type:" label.
func draftType(doc *goquery.Document) string {
	kind := ""
	doc.Find("b").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if strings.TrimSpace(b.Text()) != "Type:" {
			return true
		}
		for n := b.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
			if n.Type != html.TextNode {
				break
			}
			if text := strings.TrimSpace(n.Data); text != "" {
				kind = text
				break
			}
		}
		return false
	})
	return kind
}

// formatAuctionTable reshapes one manager's auction table. The caption row
// holds the manager name; rows are pick, player and "$price".
func (l *League) formatAuctionTable(t *table.Table) [][]string {
	manager := t.Name()
	rows := make([][]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		player, team, pos, keeper := l.splitDraftPlayer(t.Value(i, "PLAYER"))
		price := strings.TrimPrefix(strings.TrimSpace(t.Value(i, "THIRD")), "$")
		rows = append(rows, []string{manager, player, t.Value(i, "PICK"), team, pos, price, keeper})
	}
	return rows
}

// formatSnakeTable reshapes one round's table. The caption row reads
// "ROUND n"; rows are pick, player and manager.
func (l *League) formatSnakeTable(t *table.Table) [][]string {
	round := strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(t.Name()), "ROUND"))
	rows := make([][]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		player, team, pos, keeper := l.splitDraftPlayer(t.Value(i, "PLAYER"))
		rows = append(rows, []string{round, t.Value(i, "PICK"), t.Value(i, "THIRD"), player, team, pos, keeper})
	}
	return rows
}

func (l *League) splitDraftPlayer(cell string) (player, team, pos, keeper string) {
	m := draftPlayerPattern.FindStringSubmatch(cell)
	if m == nil {
		l.log.Warn("unrecognized draft player cell", logger.Fields{"cell": cell})
		return cell, "", "", "false"
	}
	keeper = "false"
	if m[4] != "" {
		keeper = "true"
	}
	return m[1], m[2], m[3], keeper
}
