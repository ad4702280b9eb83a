package jstris

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/jstris-replay-go/internal/replay"
)

type row struct {
	player string
	time   string
	id     uint64
}

func leaderboardPage(rows ...row) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><table class="table"><thead><tr>` +
		`<th>#</th><th>Name</th><th>Time</th><th>Date</th><th></th></tr></thead><tbody>`)
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr><td>%d.</td><td><a href="/u/%s">%s</a></td>`+
			`<td><strong>%s</strong></td><td>2023-05-20</td>`+
			`<td><a target="_blank" href="https://jstris.jezevec10.com/replay/%d">(V3)</a></td></tr>`,
			i+1, r.player, r.player, r.time, r.id)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func TestParseLeaderboard(t *testing.T) {
	page := leaderboardPage(
		row{player: "alice", time: "15.614", id: 70293904},
		row{player: "bob", time: "16.001", id: 70293905},
	)

	entries, err := ParseLeaderboard([]byte(page))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint64(70293904), entries[0].ReplayID)
	assert.Equal(t, "alice", entries[0].Player)
	assert.Equal(t, "15.614", entries[0].Time.String())
	assert.Equal(t, "15.614", entries[0].RawTime)
	assert.Equal(t, "16.001", entries[1].RawTime)
}

func TestParseLeaderboardRelativeLinks(t *testing.T) {
	page := `<table><tr><td>1</td><td>x</td><td><strong>1,001.5</strong></td>` +
		`<td><a target="_blank" href="/replay/42/">r</a></td>` +
		`<td><a target="_blank" href="/replay/notanumber">r</a></td>` +
		`<td><a href="/replay/43">no target</a></td></tr></table>`

	entries, err := ParseLeaderboard([]byte(page))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(42), entries[0].ReplayID)
	assert.Equal(t, "1001.5", entries[0].Time.String())
}

func TestParseLeaderboardErrors(t *testing.T) {
	_, err := ParseLeaderboard([]byte(`<html><body>nothing here</body></html>`))
	assert.ErrorIs(t, err, ErrNoEntries)

	_, err = ParseLeaderboard([]byte(`<table><tr><td><a target="_blank" href="/replay/1">r</a></td></tr></table>`))
	assert.Error(t, err)

	_, err = ParseLeaderboard([]byte(`<table><tr><td>1</td><td>x</td><td>no strong</td>` +
		`<td><a target="_blank" href="/replay/1">r</a></td></tr></table>`))
	assert.Error(t, err)
}

func TestReplayID(t *testing.T) {
	tests := []struct {
		href string
		id   uint64
		ok   bool
	}{
		{href: "https://jstris.jezevec10.com/replay/70293904", id: 70293904, ok: true},
		{href: "/replay/7", id: 7, ok: true},
		{href: "/replay/7?x=1", id: 7, ok: true},
		{href: "/u/replayer", ok: false},
		{href: "/replay/", ok: false},
		{href: "/replays/7", ok: false},
		{href: "", ok: false},
	}
	for _, tt := range tests {
		id, ok := replayID(tt.href)
		assert.Equal(t, tt.ok, ok, tt.href)
		assert.Equal(t, tt.id, id, tt.href)
	}
}

func TestLeaderboardPaging(t *testing.T) {
	pages := map[string]string{
		FirstPage: leaderboardPage(
			row{player: "a", time: "15.000", id: 1},
			row{player: "b", time: "15.500", id: 2},
		),
		"15.500": leaderboardPage(
			row{player: "b", time: "15.500", id: 2},
			row{player: "c", time: "16.250", id: 3},
		),
		"16.250": leaderboardPage(
			row{player: "c", time: "16.250", id: 3},
		),
	}

	var mu sync.Mutex
	var requested []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sprint", r.URL.Path)
		assert.Equal(t, "40L", r.URL.Query().Get("lines"))
		page := r.URL.Query().Get("page")
		mu.Lock()
		requested = append(requested, page)
		mu.Unlock()
		fmt.Fprint(w, pages[page])
	}))

	var ids []uint64
	for entry, err := range c.Leaderboard(context.Background(), replay.Mode40L) {
		require.NoError(t, err)
		ids = append(ids, entry.ReplayID)
	}

	assert.Equal(t, []uint64{1, 2, 3}, ids)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{FirstPage, "15.500", "16.250"}, requested)
}

func TestLeaderboardEndsOnEmptyPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == FirstPage {
			fmt.Fprint(w, leaderboardPage(row{player: "a", time: "20.000", id: 9}))
			return
		}
		fmt.Fprint(w, `<html><body><p>No results.</p></body></html>`)
	}))

	n := 0
	for _, err := range c.Leaderboard(context.Background(), replay.Mode20L) {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 1, n)
}

func TestLeaderboardYieldsError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	var errs []error
	for _, err := range c.Leaderboard(context.Background(), replay.Mode40L) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	var httpErr *HTTPError
	assert.True(t, errors.As(errs[0], &httpErr))
}

func TestLeaderboardStopsEarly(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leaderboardPage(
			row{player: "a", time: "15.000", id: 1},
			row{player: "b", time: "15.500", id: 2},
		))
	}))

	for entry, err := range c.Leaderboard(context.Background(), replay.Mode40L) {
		require.NoError(t, err)
		assert.Equal(t, uint64(1), entry.ReplayID)
		break
	}
}

func TestFetchLeaderboardPageInvalidMode(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	_, err = c.FetchLeaderboardPage(context.Background(), replay.GameMode(9), "")
	assert.Error(t, err)
}
