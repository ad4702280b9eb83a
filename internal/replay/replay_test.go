package replay

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/jstris-replay-go/internal/engine"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	if err != nil {
		t.Fatalf("Failed to load fixture: %v", err)
	}
	return data
}

func TestDecodeJSONSample(t *testing.T) {
	r, err := DefaultCodec.DecodeJSON(loadFixture(t, "replay_sample.json"))
	require.NoError(t, err)

	assert.Equal(t, engine.MustParseSeed("c07yl8"), r.Metadata.Seed)
	assert.Equal(t, 15614*time.Millisecond, r.Duration())
	require.Len(t, r.Events, 334)
	assert.Equal(t, Event{Timestamp: 30, Input: MoveLeft}, r.Events[0])
	assert.Equal(t, Event{Timestamp: 62, Input: HardDrop}, r.Events[1])
	assert.Equal(t, Event{Timestamp: 4095, Input: MoveLeft}, r.Events[333])
	assert.Equal(t, 16383*time.Millisecond, r.Events.Elapsed())

	hardDrops := 0
	for input := range r.Events.Timeline() {
		if input == HardDrop {
			hardDrops++
		}
	}
	assert.Equal(t, 102, hardDrops)
}

func TestDecodeJSONLongSeed(t *testing.T) {
	_, err := DefaultCodec.DecodeJSON(loadFixture(t, "replay_long_seed.json"))

	var bodyErr *BodyDecodeError
	require.True(t, errors.As(err, &bodyErr))
	assert.ErrorIs(t, err, engine.ErrWrongLength)
}

func TestDecodeJSONVersionPolicy(t *testing.T) {
	data := loadFixture(t, "replay_sample.json")

	strict := Codec{Policy: VersionPolicy{ExpectedMajor: 3, MinimumMinor: 4}}
	_, err := strict.DecodeJSON(data)
	var verErr *VersionError
	require.True(t, errors.As(err, &verErr))
	assert.Equal(t, Version{Major: 3, Minor: 3}, verErr.Actual)

	var bodyErr *BodyDecodeError
	assert.True(t, errors.As(err, &bodyErr))

	lenient := Codec{Policy: VersionPolicy{ExpectedMajor: 3}}
	_, err = lenient.DecodeJSON(data)
	assert.NoError(t, err)
}

func TestDecodeJSONMalformed(t *testing.T) {
	for _, body := range []string{``, `{`, `[]`, `{"c":{},"d":""}`} {
		_, err := DefaultCodec.DecodeJSON([]byte(body))
		var bodyErr *BodyDecodeError
		assert.True(t, errors.As(err, &bodyErr), "body %q", body)
		assert.NotNil(t, errors.Unwrap(err), "body %q", body)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	r, err := DefaultCodec.DecodeJSON(loadFixture(t, "replay_sample.json"))
	require.NoError(t, err)

	data, err := DefaultCodec.EncodeJSON(r)
	require.NoError(t, err)

	back, err := DefaultCodec.DecodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestURIRoundTrip(t *testing.T) {
	r, err := DefaultCodec.DecodeJSON(loadFixture(t, "replay_sample.json"))
	require.NoError(t, err)

	uri, err := EncodeURI(r)
	require.NoError(t, err)
	assert.NotEmpty(t, uri)
	assert.NotContains(t, uri, " ")

	back, err := DecodeURI(uri)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestDecodeURIEmpty(t *testing.T) {
	_, err := DecodeURI("")
	assert.ErrorIs(t, err, ErrDecompressionFailed)
}
