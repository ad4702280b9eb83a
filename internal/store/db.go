// Package store persists decoded replays and their analysis reports in
// SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/replay"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: replay already stored")
)

// DB represents the database interface
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	SaveReplay(ctx context.Context, rec *Record) error
	GetReplay(ctx context.Context, id string) (*Record, error)
	GetReplayByJstrisID(ctx context.Context, jstrisID uint64) (*Record, error)
	ListReplays(ctx context.Context, query ReplaysQuery) (*ReplaysList, error)
	DeleteReplay(ctx context.Context, id string) error
	SaveAnalysis(ctx context.Context, replayID string, report *analysis.Report) error
	GetAnalysis(ctx context.Context, replayID string) (*analysis.Report, error)
}

// ReplaysQuery represents query parameters for listing replays. A zero Mode
// matches every mode.
type ReplaysQuery struct {
	Seed    string          `json:"seed,omitempty"`
	Mode    replay.GameMode `json:"mode,omitempty"`
	Page    int             `json:"page"`
	PerPage int             `json:"perPage"`
}

// ReplaysList represents a paginated listing.
type ReplaysList struct {
	Replays    []Record `json:"replays"`
	TotalCount int      `json:"totalCount"`
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalPages int      `json:"totalPages"`
}

// Record is a stored replay. Events and Body are the raw event buffer and
// the canonical JSON document.
type Record struct {
	ID         string               `json:"id"`
	JstrisID   *uint64              `json:"jstris_id,omitempty"`
	Seed       string               `json:"seed"`
	Mode       replay.GameMode      `json:"mode"`
	Version    string               `json:"version"`
	SoftDrop   replay.SoftDropSpeed `json:"soft_drop"`
	DAS        uint16               `json:"das"`
	ARR        uint16               `json:"arr"`
	GameStart  time.Time            `json:"game_start"`
	GameEnd    time.Time            `json:"game_end"`
	EventCount int                  `json:"event_count"`
	Events     []byte               `json:"-"`
	Body       string               `json:"-"`
	CreatedAt  time.Time            `json:"created_at"`
}

// NewRecord flattens r for storage. jstrisID is nil for replays that did
// not come from the site.
func NewRecord(r *replay.Replay, jstrisID *uint64) (*Record, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	md := r.Metadata
	return &Record{
		JstrisID:   jstrisID,
		Seed:       md.Seed.String(),
		Mode:       md.Mode,
		Version:    md.Version.String(),
		SoftDrop:   md.SoftDrop,
		DAS:        md.DAS,
		ARR:        md.ARR,
		GameStart:  md.GameStart,
		GameEnd:    md.GameEnd,
		EventCount: len(r.Events),
		Events:     r.Events.Bytes(),
		Body:       string(body),
	}, nil
}

// Replay rebuilds the stored replay. The version policy was applied when the
// record was first decoded and is not checked again.
func (rec *Record) Replay() (*replay.Replay, error) {
	var r replay.Replay
	if err := json.Unmarshal([]byte(rec.Body), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
