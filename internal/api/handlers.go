package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/engine"
	"github.com/MJE43/jstris-replay-go/internal/randomizer"
	"github.com/MJE43/jstris-replay-go/internal/replay"
	"github.com/MJE43/jstris-replay-go/internal/scan"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

const (
	maxBodyBytes = 4 << 20
	maxPieces    = 10000
)

var errMissingReplay = errors.New("one of data or replay is required")

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) decodeInput(in ReplayInput) (*replay.Replay, error) {
	switch {
	case in.Data != "":
		return s.codec.DecodeURI(in.Data)
	case len(in.Replay) > 0:
		return s.codec.DecodeJSON(in.Replay)
	default:
		return nil, errMissingReplay
	}
}

// POST /api/v1/replays/decode
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var in ReplayInput
	if !s.decodeBody(w, r, &in) {
		return
	}

	rp, err := s.decodeInput(in)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, DecodeResponse{
		Replay:        rp,
		Analysis:      analysis.Analyze(rp, s.analysis),
		EngineVersion: EngineVersion,
	})
}

// POST /api/v1/replays/encode
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var in ReplayInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if len(in.Replay) == 0 {
		s.errorHandler.HandleValidationError(w, r, "replay", "replay is required")
		return
	}

	rp, err := s.codec.DecodeJSON(in.Replay)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	data, err := s.codec.EncodeURI(rp)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, EncodeResponse{Data: data, EngineVersion: EngineVersion})
}

// GET /api/v1/pieces?seed=&count=
func (s *Server) handlePieces(w http.ResponseWriter, r *http.Request) {
	seed, err := engine.ParseSeed(r.URL.Query().Get("seed"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	count := analysis.DefaultOpeningLength
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > maxPieces {
			s.errorHandler.HandleValidationError(w, r, "count", "count must be between 1 and 10000")
			return
		}
	}

	s.writeJSON(w, http.StatusOK, PiecesResponse{
		Seed:          seed.String(),
		Count:         count,
		Pieces:        randomizer.FormatPieces(randomizer.Opening(seed, count)),
		EngineVersion: EngineVersion,
	})
}

// POST /api/v1/scan
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scan.Request
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.TimeoutMs <= 0 && s.scanTimeout > 0 {
		req.TimeoutMs = int(s.scanTimeout / time.Millisecond)
	}
	if s.maxHits > 0 && (req.Limit <= 0 || req.Limit > s.maxHits) {
		req.Limit = s.maxHits
	}

	result, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ScanResponse{
		Hits:          result.Hits,
		Summary:       result.Summary,
		EngineVersion: EngineVersion,
		Echo:          result.Echo,
	})
}

// GET /api/v1/replays?seed=&mode=&page=&per_page=
func (s *Server) handleListReplays(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}

	q := r.URL.Query()
	query := store.ReplaysQuery{
		Seed:    q.Get("seed"),
		Page:    qInt(r, "page", 1),
		PerPage: qInt(r, "per_page", 50),
	}
	if raw := q.Get("mode"); raw != "" {
		mode, err := replay.ParseGameMode(raw)
		if err != nil {
			s.errorHandler.HandleValidationError(w, r, "mode", err.Error())
			return
		}
		query.Mode = mode
	}

	list, err := s.db.ListReplays(r.Context(), query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// POST /api/v1/replays
func (s *Server) handleSaveReplay(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}

	var req SaveReplayRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	rp, err := s.decodeInput(req.ReplayInput)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := s.saveReplay(r.Context(), rp, req.JstrisID)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) saveReplay(ctx context.Context, rp *replay.Replay, jstrisID *uint64) (*ReplayResponse, error) {
	rec, err := store.NewRecord(rp, jstrisID)
	if err != nil {
		return nil, err
	}
	if err := s.db.SaveReplay(ctx, rec); err != nil {
		return nil, err
	}

	report := analysis.Analyze(rp, s.analysis)
	if err := s.db.SaveAnalysis(ctx, rec.ID, report); err != nil {
		return nil, err
	}
	s.logger.Info("replay saved", "id", rec.ID, "seed", rec.Seed, "events", rec.EventCount)

	return &ReplayResponse{Record: rec, Replay: rp, Analysis: report, EngineVersion: EngineVersion}, nil
}

// GET /api/v1/replays/{id}
func (s *Server) handleGetReplay(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.db.GetReplay(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	rp, err := rec.Replay()
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := s.db.GetAnalysis(r.Context(), id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ReplayResponse{Record: rec, Replay: rp, Analysis: report, EngineVersion: EngineVersion})
}

// DELETE /api/v1/replays/{id}
func (s *Server) handleDeleteReplay(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}

	if err := s.db.DeleteReplay(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func qInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
