package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/replay"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens or creates the database at path. Call Migrate before
// first use.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies every pending migration.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// SaveReplay inserts rec, assigning an ID and creation time when unset.
// A second record with the same JstrisID fails with ErrDuplicate.
func (s *SQLiteDB) SaveReplay(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Events == nil {
		rec.Events = []byte{}
	}

	var jstrisID sql.NullInt64
	if rec.JstrisID != nil {
		jstrisID = sql.NullInt64{Int64: int64(*rec.JstrisID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replays (id, jstris_id, seed, mode, version, soft_drop, das, arr,
			game_start, game_end, event_count, events, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, jstrisID, rec.Seed, int(rec.Mode), rec.Version, int(rec.SoftDrop), rec.DAS, rec.ARR,
		rec.GameStart.UnixMilli(), rec.GameEnd.UnixMilli(), rec.EventCount, rec.Events, rec.Body, rec.CreatedAt)
	if hasConstraint(err, "unique") {
		return fmt.Errorf("%w: jstris id %d", ErrDuplicate, jstrisID.Int64)
	}
	if err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	return nil
}

const replayColumns = `id, jstris_id, seed, mode, version, soft_drop, das, arr,
	game_start, game_end, event_count, events, body, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec       Record
		jstrisID  sql.NullInt64
		mode      int
		softDrop  int
		gameStart int64
		gameEnd   int64
	)
	err := row.Scan(&rec.ID, &jstrisID, &rec.Seed, &mode, &rec.Version, &softDrop, &rec.DAS, &rec.ARR,
		&gameStart, &gameEnd, &rec.EventCount, &rec.Events, &rec.Body, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if jstrisID.Valid {
		id := uint64(jstrisID.Int64)
		rec.JstrisID = &id
	}
	rec.Mode = replay.GameMode(mode)
	rec.SoftDrop = replay.SoftDropSpeed(softDrop)
	rec.GameStart = time.UnixMilli(gameStart).UTC()
	rec.GameEnd = time.UnixMilli(gameEnd).UTC()
	return &rec, nil
}

// GetReplay retrieves a replay by ID
func (s *SQLiteDB) GetReplay(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+replayColumns+` FROM replays WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: replay %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get replay: %w", err)
	}
	return rec, nil
}

// GetReplayByJstrisID retrieves a replay by its site ID.
func (s *SQLiteDB) GetReplayByJstrisID(ctx context.Context, jstrisID uint64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+replayColumns+` FROM replays WHERE jstris_id = ?`, int64(jstrisID))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: jstris id %d", ErrNotFound, jstrisID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get replay: %w", err)
	}
	return rec, nil
}

// ListReplays returns a page of replays, newest first.
func (s *SQLiteDB) ListReplays(ctx context.Context, query ReplaysQuery) (*ReplaysList, error) {
	if query.PerPage <= 0 {
		query.PerPage = defaultPerPage
	}
	if query.PerPage > maxPerPage {
		query.PerPage = maxPerPage
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	var (
		where []string
		args  []any
	)
	if query.Seed != "" {
		where = append(where, "seed = ?")
		args = append(args, query.Seed)
	}
	if query.Mode != 0 {
		where = append(where, "mode = ?")
		args = append(args, int(query.Mode))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM replays"+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count replays: %w", err)
	}

	offset := (query.Page - 1) * query.PerPage
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+replayColumns+` FROM replays`+whereClause+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, query.PerPage, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list replays: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, query.PerPage)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan replay: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	return &ReplaysList{
		Replays:    records,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// DeleteReplay removes a replay and its analysis.
func (s *SQLiteDB) DeleteReplay(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM replays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete replay: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: replay %s", ErrNotFound, id)
	}
	return nil
}

// SaveAnalysis stores report for a replay, replacing any earlier one.
func (s *SQLiteDB) SaveAnalysis(ctx context.Context, replayID string, report *analysis.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (replay_id, fps, observed_ms, recorded_ms, drift_ms, est_bytes, opening, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(replay_id) DO UPDATE SET
			fps = excluded.fps,
			observed_ms = excluded.observed_ms,
			recorded_ms = excluded.recorded_ms,
			drift_ms = excluded.drift_ms,
			est_bytes = excluded.est_bytes,
			opening = excluded.opening,
			report = excluded.report,
			created_at = excluded.created_at`,
		replayID, report.FPS, report.Observed.Milliseconds(), report.Recorded.Milliseconds(),
		report.Drift.Milliseconds(), report.Estimate.Bytes, report.Opening, string(body), time.Now().UTC())
	if hasConstraint(err, "foreign key") {
		return fmt.Errorf("%w: replay %s", ErrNotFound, replayID)
	}
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the stored report for a replay.
func (s *SQLiteDB) GetAnalysis(ctx context.Context, replayID string) (*analysis.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM analyses WHERE replay_id = ?`, replayID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis for %s", ErrNotFound, replayID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var report analysis.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &report, nil
}

// hasConstraint matches modernc error text such as
// "UNIQUE constraint failed: replays.jstris_id".
func hasConstraint(err error, kind string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), kind+" constraint failed")
}
