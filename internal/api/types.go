package api

import (
	"encoding/json"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/replay"
	"github.com/MJE43/jstris-replay-go/internal/scan"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// VersionResponse adds the accepted replay versions.
type VersionResponse struct {
	VersionInfo
	VersionPolicy string `json:"version_policy"`
}

// ReplayInput carries a replay either as an lz-string URI component in Data
// or as the JSON envelope in Replay.
type ReplayInput struct {
	Data   string          `json:"data,omitempty"`
	Replay json.RawMessage `json:"replay,omitempty"`
}

// DecodeResponse is the result of decoding a replay.
type DecodeResponse struct {
	Replay        *replay.Replay   `json:"replay"`
	Analysis      *analysis.Report `json:"analysis"`
	EngineVersion string           `json:"engine_version"`
}

// EncodeResponse holds the transport form of a replay.
type EncodeResponse struct {
	Data          string `json:"data"`
	EngineVersion string `json:"engine_version"`
}

// PiecesResponse lists the first pieces dealt for a seed.
type PiecesResponse struct {
	Seed          string `json:"seed"`
	Count         int    `json:"count"`
	Pieces        string `json:"pieces"`
	EngineVersion string `json:"engine_version"`
}

// ScanResponse represents the complete scan response
type ScanResponse struct {
	Hits          []scan.Hit   `json:"hits"`
	Summary       scan.Summary `json:"summary"`
	EngineVersion string       `json:"engine_version"`
	Echo          scan.Request `json:"echo"`
}

// SaveReplayRequest stores a replay, optionally tagged with its site ID.
type SaveReplayRequest struct {
	ReplayInput
	JstrisID *uint64 `json:"jstris_id,omitempty"`
}

// ReplayResponse is a stored replay with its decoded body and analysis.
type ReplayResponse struct {
	Record        *store.Record    `json:"record"`
	Replay        *replay.Replay   `json:"replay"`
	Analysis      *analysis.Report `json:"analysis,omitempty"`
	EngineVersion string           `json:"engine_version"`
}
