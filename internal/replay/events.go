package replay

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// NotAlignedError reports an event buffer whose length is not a multiple of
// four bytes.
type NotAlignedError struct {
	NumBytes int
}

func (e *NotAlignedError) Error() string {
	return fmt.Sprintf("replay: event buffer of %d bytes is not a multiple of 4", e.NumBytes)
}

// EventDecodeError wraps a failure to unpack one event.
type EventDecodeError struct {
	Index int
	Raw   uint16
	Err   error
}

func (e *EventDecodeError) Error() string {
	return fmt.Sprintf("replay: event %d (0x%04x): %v", e.Index, e.Raw, e.Err)
}

func (e *EventDecodeError) Unwrap() error {
	return e.Err
}

// EventList is the ordered event log of a replay.
type EventList []Event

// DecodeEvents unpacks a wire buffer. A buffer written for an odd number of
// events carries a zero pad, which decodes as a trailing zero event.
func DecodeEvents(data []byte) (EventList, error) {
	if len(data)%4 != 0 {
		return nil, &NotAlignedError{NumBytes: len(data)}
	}

	events := make(EventList, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		raw := binary.BigEndian.Uint16(data[i:])
		ev, err := DecodeEvent(raw)
		if err != nil {
			return nil, &EventDecodeError{Index: i / 2, Raw: raw, Err: err}
		}
		events = append(events, ev)
	}
	return events, nil
}

// Bytes packs the list big endian, appending two zero bytes when the event
// count is odd.
func (l EventList) Bytes() []byte {
	n := len(l) * 2
	if len(l)%2 != 0 {
		n += 2
	}
	out := make([]byte, n)
	for i, ev := range l {
		binary.BigEndian.PutUint16(out[i*2:], ev.Uint16())
	}
	return out
}

// MarshalJSON encodes the packed buffer as standard base64.
func (l EventList) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(l.Bytes()))
}

// UnmarshalJSON decodes a base64 string into events.
func (l *EventList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("replay: event buffer: %w", err)
	}
	events, err := DecodeEvents(raw)
	if err != nil {
		return err
	}
	*l = events
	return nil
}
