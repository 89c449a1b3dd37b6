package source

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/okian/fantaledger/internal/domain/model"
	"golang.org/x/net/html"
)

// Selectors of the league ranking table.
const (
	rowSelector      = "tbody tr.ranking-row"
	teamSelector     = `td[data-key="teamName"]`
	pointsSelector   = `td[data-key="rank-fp"]`
	positionSelector = `td[data-key="index"] span`
	badgeSelector    = ".badge, .badge-bonusmalus"
)

// ParseRankings extracts one observation per ranking row of body.
// Rows without a team or points cell, or with empty points, are skipped.
// Score text is returned as found; parsing is left to the reducer.
func ParseRankings(body []byte, source string) ([]model.Observation, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var out []model.Observation
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		team := row.Find(teamSelector).First()
		points := row.Find(pointsSelector).First()
		if team.Length() == 0 || points.Length() == 0 {
			return
		}

		score := strippedText(points, " ")
		if score == "" {
			return
		}

		obs := model.Observation{
			DisplayName: teamName(team),
			ScoreText:   score,
			Source:      source,
		}
		if pos := row.Find(positionSelector).First(); pos.Length() > 0 {
			if n, err := strconv.Atoi(strippedText(pos, "")); err == nil {
				obs.Position = &n
			}
		}
		out = append(out, obs)
	})
	return out, nil
}

// teamName prefers the anchor text; otherwise it uses the cell text without
// bonus/malus badges.
func teamName(cell *goquery.Selection) string {
	if a := cell.Find("a").First(); a.Length() > 0 {
		if name := strippedText(a, ""); name != "" {
			return name
		}
	}
	clean := cell.Clone()
	clean.Find(badgeSelector).Remove()
	return strippedText(clean, " ")
}

// strippedText joins the trimmed, non-empty text nodes under sel with sep.
func strippedText(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}
