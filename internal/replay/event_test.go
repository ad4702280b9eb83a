package replay

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	for tag := uint8(0); tag < 16; tag++ {
		input, err := ParseInput(tag)
		require.NoError(t, err)
		assert.Equal(t, Input(tag), input)
	}

	_, err := ParseInput(16)
	var inputErr *InvalidInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, uint8(16), inputErr.Tag)
}

func TestInputNames(t *testing.T) {
	assert.Equal(t, "HardDrop", HardDrop.String())
	assert.Equal(t, "Aux", Aux.String())
	assert.Equal(t, "Input(20)", Input(20).String())

	for i := MoveLeft; i <= Aux; i++ {
		parsed, err := ParseInputName(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, parsed)
	}

	_, err := ParseInputName("Jump")
	assert.Error(t, err)
}

func TestNewTimestamp(t *testing.T) {
	tests := []struct {
		raw     uint16
		wantErr bool
	}{
		{raw: 0},
		{raw: 1},
		{raw: 4095},
		{raw: 4096, wantErr: true},
		{raw: 65535, wantErr: true},
	}

	for _, tt := range tests {
		ts, err := NewTimestamp(tt.raw)
		if tt.wantErr {
			var tooBig *TimestampTooBigError
			if assert.True(t, errors.As(err, &tooBig), "raw %d", tt.raw) {
				assert.Equal(t, uint64(tt.raw), tooBig.Value)
			}
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, Timestamp(tt.raw), ts)
	}
}

func TestTimestampFromDuration(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Duration
		want    Timestamp
		tooBig  bool
		invalid bool
	}{
		{name: "zero", d: 0, want: 0},
		{name: "whole ms", d: 250 * time.Millisecond, want: 250},
		{name: "max", d: 4095 * time.Millisecond, want: 4095},
		{name: "one epoch", d: Epoch, tooBig: true},
		{name: "negative", d: -time.Millisecond, invalid: true},
		{name: "sub millisecond", d: 1500 * time.Microsecond, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := TimestampFromDuration(tt.d)
			switch {
			case tt.tooBig:
				var tooBig *TimestampTooBigError
				assert.True(t, errors.As(err, &tooBig))
			case tt.invalid:
				var invalid *InvalidTimestampError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, tt.d, invalid.Value)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, ts)
				assert.Equal(t, tt.d, ts.Duration())
			}
		})
	}
}

func TestMustTimestampPanics(t *testing.T) {
	assert.Equal(t, Timestamp(12), MustTimestamp(12))
	assert.Panics(t, func() { MustTimestamp(5000) })
}

func TestEventPacking(t *testing.T) {
	tests := []struct {
		raw  uint16
		want Event
	}{
		{raw: 0x0000, want: Event{Timestamp: 0, Input: MoveLeft}},
		{raw: 0x01e0, want: Event{Timestamp: 30, Input: MoveLeft}},
		{raw: 0x03e7, want: Event{Timestamp: 62, Input: HardDrop}},
		{raw: 0xfff0, want: Event{Timestamp: 4095, Input: MoveLeft}},
		{raw: 0xffff, want: Event{Timestamp: 4095, Input: Aux}},
		{raw: 0x001a, want: Event{Timestamp: 1, Input: HoldBlock}},
	}

	for _, tt := range tests {
		ev, err := DecodeEvent(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ev, "raw 0x%04x", tt.raw)
		assert.Equal(t, tt.raw, ev.Uint16())
	}
}

func TestEventPackingWrapsOversizedTimestamp(t *testing.T) {
	ev := Event{Timestamp: Timestamp(5000), Input: HardDrop}
	assert.Equal(t, uint16(0x3887), ev.Uint16(), "5000 ms packs as 904 ms")

	buf := EventList{ev}.Bytes()
	assert.Equal(t, []byte{0x38, 0x87, 0x00, 0x00}, buf)

	list, err := DecodeEvents(buf)
	require.NoError(t, err)
	assert.Equal(t, Event{Timestamp: 904, Input: HardDrop}, list[0])
}

func TestEventDecodeNeverFailsOnInputNibble(t *testing.T) {
	for v := 0; v <= 0xffff; v++ {
		if _, err := DecodeEvent(uint16(v)); err != nil {
			t.Fatalf("DecodeEvent(0x%04x) error = %v", v, err)
		}
	}
}
