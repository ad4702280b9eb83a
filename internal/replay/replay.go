// Package replay decodes and encodes jstris replays: a JSON envelope holding
// the game metadata and a base64 packed event log, shipped as an lz-string
// URI component.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrDecompressionFailed is returned when the transport string does not
// decompress to any text.
var ErrDecompressionFailed = errors.New("replay: decompression failed")

// BodyDecodeError wraps a failure to decode the JSON envelope.
type BodyDecodeError struct {
	Err error
}

func (e *BodyDecodeError) Error() string {
	return fmt.Sprintf("replay: body decode failed: %v", e.Err)
}

func (e *BodyDecodeError) Unwrap() error {
	return e.Err
}

// Replay is a decoded replay.
type Replay struct {
	Metadata Metadata  `json:"c"`
	Events   EventList `json:"d"`
}

// Duration is the recorded game length from the metadata.
func (r *Replay) Duration() time.Duration {
	return r.Metadata.Duration()
}

// Codec decodes and encodes replays under a version policy.
type Codec struct {
	Policy VersionPolicy
}

// DefaultCodec uses DefaultVersionPolicy.
var DefaultCodec = Codec{Policy: DefaultVersionPolicy}

// DecodeURI decompresses an lz-string URI component and decodes the JSON
// inside it.
func (c Codec) DecodeURI(s string) (*Replay, error) {
	text, ok := decompressURI(s)
	if !ok {
		return nil, ErrDecompressionFailed
	}
	return c.DecodeJSON([]byte(text))
}

// DecodeJSON decodes an envelope and checks its version against the policy.
func (c Codec) DecodeJSON(data []byte) (*Replay, error) {
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &BodyDecodeError{Err: err}
	}
	if err := c.Policy.Check(r.Metadata.Version); err != nil {
		return nil, &BodyDecodeError{Err: err}
	}
	return &r, nil
}

// EncodeJSON renders the envelope.
func (c Codec) EncodeJSON(r *Replay) ([]byte, error) {
	return json.Marshal(r)
}

// EncodeURI renders the envelope and compresses it for transport.
func (c Codec) EncodeURI(r *Replay) (string, error) {
	data, err := c.EncodeJSON(r)
	if err != nil {
		return "", err
	}
	return compressURI(string(data))
}

// DecodeURI decodes with DefaultCodec.
func DecodeURI(s string) (*Replay, error) {
	return DefaultCodec.DecodeURI(s)
}

// EncodeURI encodes with DefaultCodec.
func EncodeURI(r *Replay) (string, error) {
	return DefaultCodec.EncodeURI(r)
}
