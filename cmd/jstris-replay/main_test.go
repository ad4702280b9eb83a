package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

// testConfig writes a config pointing at baseURL with a temp database.
func testConfig(t *testing.T, baseURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{"JSTRIS_REPLAY_CONFIG", "JSTRIS_REPLAY_LISTEN", "JSTRIS_REPLAY_DB", "JSTRIS_REPLAY_LOG_LEVEL", "JSTRIS_REPLAY_RPS"} {
		t.Setenv(k, "")
	}

	dbPath := filepath.Join(dir, "data", "replays.db")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:1"
	}
	body := fmt.Sprintf(`log_level: error
database_path: %s
jstris:
  base_url: %s
  max_retries: 1
  base_retry_delay: 1ms
  requests_per_second: -1
`, dbPath, baseURL)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path, dbPath
}

func run(t *testing.T, cfgPath string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPiecesCommand(t *testing.T) {
	cfg, _ := testConfig(t, "")

	out, err := run(t, cfg, "", "pieces", "12", "-n", "7")
	require.NoError(t, err)
	assert.Equal(t, "JSZTLOI\n", out)

	out, err = run(t, cfg, "", "pieces", "c07yl8")
	require.NoError(t, err)
	assert.Equal(t, "LOZSIJTTJZOSLI\n", out)

	_, err = run(t, cfg, "", "pieces", "toolong")
	assert.Error(t, err)
}

func TestDecodeCommand(t *testing.T) {
	cfg, _ := testConfig(t, "")

	out, err := run(t, cfg, "", "decode", "--events", fixturePath("replay_sample.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 335)
	assert.Contains(t, lines[0], "seed c07yl8")
	assert.Contains(t, lines[1], "MoveLeft")

	_, err = run(t, cfg, "", "decode", fixturePath("replay_long_seed.json"))
	assert.Error(t, err)
}

func TestEncodeDecodeCommands(t *testing.T) {
	cfg, _ := testConfig(t, "")

	uri, err := run(t, cfg, "", "encode", fixturePath("replay_sample.json"))
	require.NoError(t, err)
	require.NotEmpty(t, strings.TrimSpace(uri))

	out, err := run(t, cfg, uri, "decode", "-")
	require.NoError(t, err)

	var decoded struct {
		C struct {
			Seed string `json:"seed"`
		} `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "c07yl8", decoded.C.Seed)
}

func TestAnalyzeCommand(t *testing.T) {
	cfg, _ := testConfig(t, "")

	out, err := run(t, cfg, "", "analyze", "--json", fixturePath("replay_sample.json"))
	require.NoError(t, err)
	var report analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 334, report.Events)
	assert.Equal(t, 293, report.Estimate.Bytes)

	out, err = run(t, cfg, "", "analyze", fixturePath("replay_sample.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "opening: LOZSIJTTJZOSLI")
	assert.Contains(t, out, "accumulated drift when mapping to frames: -818ms")
	assert.Contains(t, out, "2338 bits, 293 bytes")
}

func TestScanCommand(t *testing.T) {
	cfg, _ := testConfig(t, "")

	out, err := run(t, cfg, "", "scan", "--from", "00", "--to", "zz", "--target", "JSZTLOI")
	require.NoError(t, err)
	assert.Contains(t, out, "12  JSZTLOI  0\n")
	assert.Contains(t, out, "evaluated ")

	_, err = run(t, cfg, "", "scan", "--from", "0", "--to", "zz", "--target", "T")
	assert.Error(t, err)
}

func TestVerifyCommand(t *testing.T) {
	cfg, _ := testConfig(t, "")

	out, err := run(t, cfg, "", "verify", "-n", "50", "c07yl8", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   c07yl8")
	assert.Contains(t, out, "ok   abc")
}

func newJstrisStub(t *testing.T) *httptest.Server {
	t.Helper()
	sample, err := os.ReadFile(fixturePath("replay_sample.json"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/replay/data", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "1", "2":
			w.Write(sample)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/sprint", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<table><tbody>`+
			`<tr><td>1.</td><td>alice</td><td><strong>15.614</strong></td><td><a target="_blank" href="/replay/1">r</a></td></tr>`+
			`<tr><td>2.</td><td>bob</td><td><strong>16.001</strong></td><td><a target="_blank" href="/replay/2">r</a></td></tr>`+
			`</tbody></table>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchCommandSaves(t *testing.T) {
	stub := newJstrisStub(t)
	cfg, dbPath := testConfig(t, stub.URL)

	out, err := run(t, cfg, "", "fetch", "--save", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, stub.URL+"/replay/1")
	assert.Contains(t, out, "opening: LOZSIJTTJZOSLI")

	// Saving the same site ID again is skipped, not an error.
	_, err = run(t, cfg, "", "fetch", "--save", "1")
	require.NoError(t, err)

	db, err := store.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	defer db.Close()
	list, err := db.ListReplays(t.Context(), store.ReplaysQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)

	_, err = run(t, cfg, "", "fetch", "3")
	assert.Error(t, err)
	_, err = run(t, cfg, "", "fetch", "abc")
	assert.Error(t, err)
}

func TestLeaderboardCommand(t *testing.T) {
	stub := newJstrisStub(t)
	cfg, _ := testConfig(t, stub.URL)

	out, err := run(t, cfg, "", "leaderboard", "--limit", "0")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "alice")
	assert.Contains(t, lines[1], "16.001")

	// The sample replay has arr 0, so nothing survives the filter.
	out, err = run(t, cfg, "", "leaderboard", "--nonzero-arr")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, cfg, "", "leaderboard", "--mode", "7L")
	assert.Error(t, err)
}
