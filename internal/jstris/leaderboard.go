package jstris

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MJE43/jstris-replay-go/internal/replay"
)

// FirstPage is the page cursor of the top of a leaderboard.
const FirstPage = "0.0"

// LeaderboardEntry is one row of a sprint leaderboard that links a replay.
type LeaderboardEntry struct {
	ReplayID uint64          `json:"replayId"`
	Player   string          `json:"player"`
	Time     decimal.Decimal `json:"time"`

	// RawTime is the time text as printed; it is the cursor for the next
	// page.
	RawTime string `json:"rawTime"`
}

// FetchLeaderboardPage fetches the sprint leaderboard of mode starting after
// page, which is FirstPage or a time taken from a previous page.
func (c *Client) FetchLeaderboardPage(ctx context.Context, mode replay.GameMode, page string) ([]LeaderboardEntry, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("jstris: invalid game mode %d", mode)
	}
	if page == "" {
		page = FirstPage
	}

	body, err := c.getWithRetry(ctx, "/sprint", url.Values{
		"lines": {mode.String()},
		"page":  {page},
	})
	if err != nil {
		return nil, err
	}

	entries, err := ParseLeaderboard(body)
	if err != nil {
		return nil, &ParseError{Page: page, Err: err}
	}
	c.logger.Debug("fetched leaderboard page", "mode", mode, "page", page, "entries", len(entries))
	return entries, nil
}

// Leaderboard walks a sprint leaderboard from the best time down, fetching
// pages as needed. Each page is requested with the last time of the page
// before it. Replays already yielded are skipped. The walk ends at the
// first page without new entries or on the first error, which is yielded.
func (c *Client) Leaderboard(ctx context.Context, mode replay.GameMode) iter.Seq2[LeaderboardEntry, error] {
	return func(yield func(LeaderboardEntry, error) bool) {
		seen := make(map[uint64]struct{})
		page := FirstPage

		for {
			entries, err := c.FetchLeaderboardPage(ctx, mode, page)
			if errors.Is(err, ErrNoEntries) {
				return
			}
			if err != nil {
				yield(LeaderboardEntry{}, err)
				return
			}

			fresh := 0
			for _, e := range entries {
				if _, dup := seen[e.ReplayID]; dup {
					continue
				}
				seen[e.ReplayID] = struct{}{}
				fresh++
				if !yield(e, nil) {
					return
				}
			}
			if fresh == 0 {
				return
			}
			page = entries[len(entries)-1].RawTime
		}
	}
}

// ParseLeaderboard extracts replay rows from a leaderboard page: every
// anchor with target=_blank linking to /replay/<id>. The time is the
// <strong> of the third cell of the anchor's row.
func ParseLeaderboard(page []byte) ([]LeaderboardEntry, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var entries []LeaderboardEntry
	for a := range findAll(doc, atom.A) {
		if attr(a, "target") != "_blank" {
			continue
		}
		id, ok := replayID(attr(a, "href"))
		if !ok {
			continue
		}

		row := ancestor(a, atom.Tr)
		if row == nil {
			return nil, fmt.Errorf("replay link %d is outside a table row", id)
		}
		var cells []*html.Node
		for td := range findAll(row, atom.Td) {
			cells = append(cells, td)
		}
		if len(cells) < 3 {
			return nil, fmt.Errorf("row of replay %d has %d cells", id, len(cells))
		}

		var raw string
		for strong := range findAll(cells[2], atom.Strong) {
			raw = strings.TrimSpace(text(strong))
			break
		}
		if raw == "" {
			return nil, fmt.Errorf("row of replay %d has no time", id)
		}
		t, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			return nil, fmt.Errorf("row of replay %d: time %q: %w", id, raw, err)
		}

		entries = append(entries, LeaderboardEntry{
			ReplayID: id,
			Player:   strings.TrimSpace(text(cells[1])),
			Time:     t,
			RawTime:  raw,
		})
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// replayID accepts absolute or relative links ending in /replay/<id>.
func replayID(href string) (uint64, bool) {
	if !strings.Contains(href, "replay") {
		return 0, false
	}
	u, err := url.Parse(href)
	if err != nil {
		return 0, false
	}
	dir, last := path.Split(strings.TrimRight(u.Path, "/"))
	if path.Base(dir) != "replay" {
		return 0, false
	}
	id, err := strconv.ParseUint(last, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func findAll(root *html.Node, tag atom.Atom) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		var walk func(n *html.Node) bool
		walk = func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.DataAtom == tag {
				if !yield(n) {
					return false
				}
			}
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				if !walk(child) {
					return false
				}
			}
			return true
		}
		walk(root)
	}
}

func ancestor(n *html.Node, tag atom.Atom) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == tag {
			return p
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
