package replay

import (
	"fmt"
	"time"
)

// Input is the 4-bit action tag of an event.
type Input uint8

const (
	MoveLeft Input = iota
	MoveRight
	DASLeft
	DASRight
	RotateLeft
	RotateRight
	Rotate180
	HardDrop
	SoftDropBeginEnd
	GravityStep
	HoldBlock
	GarbageAdd
	SolidGarbageAdd
	RedbarSet
	ARRMove
	Aux

	numInputs = 16
)

// inputTable maps wire tags to inputs. A tag missing here fails to decode.
var inputTable = [numInputs]Input{
	0:  MoveLeft,
	1:  MoveRight,
	2:  DASLeft,
	3:  DASRight,
	4:  RotateLeft,
	5:  RotateRight,
	6:  Rotate180,
	7:  HardDrop,
	8:  SoftDropBeginEnd,
	9:  GravityStep,
	10: HoldBlock,
	11: GarbageAdd,
	12: SolidGarbageAdd,
	13: RedbarSet,
	14: ARRMove,
	15: Aux,
}

var inputNames = [numInputs]string{
	"MoveLeft", "MoveRight", "DASLeft", "DASRight",
	"RotateLeft", "RotateRight", "Rotate180", "HardDrop",
	"SoftDropBeginEnd", "GravityStep", "HoldBlock", "GarbageAdd",
	"SolidGarbageAdd", "RedbarSet", "ARRMove", "Aux",
}

// InvalidInputError reports a tag outside the input table.
type InvalidInputError struct {
	Tag uint8
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("replay: input tag %d is not defined", e.Tag)
}

// ParseInput converts a wire tag into an Input.
func ParseInput(tag uint8) (Input, error) {
	if int(tag) >= len(inputTable) {
		return 0, &InvalidInputError{Tag: tag}
	}
	return inputTable[tag], nil
}

// ParseInputName is the inverse of Input.String.
func ParseInputName(name string) (Input, error) {
	for i, n := range inputNames {
		if n == name {
			return Input(i), nil
		}
	}
	return 0, fmt.Errorf("replay: unknown input %q", name)
}

func (i Input) String() string {
	if int(i) >= len(inputNames) {
		return fmt.Sprintf("Input(%d)", uint8(i))
	}
	return inputNames[i]
}

// MaxTimestamp is the largest value a 12-bit timestamp holds.
const MaxTimestamp = 1<<12 - 1

// Epoch is the span after which the timestamp counter wraps.
const Epoch = (MaxTimestamp + 1) * time.Millisecond

// Timestamp is a 12-bit millisecond counter.
type Timestamp uint16

// TimestampTooBigError reports a value that needs more than 12 bits.
type TimestampTooBigError struct {
	Value uint64
}

func (e *TimestampTooBigError) Error() string {
	return fmt.Sprintf("replay: timestamp %d does not fit in 12 bits", e.Value)
}

// InvalidTimestampError reports a duration that is negative or not a whole
// number of milliseconds.
type InvalidTimestampError struct {
	Value time.Duration
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("replay: duration %s is not a whole non-negative millisecond count", e.Value)
}

// NewTimestamp validates a raw millisecond count.
func NewTimestamp(raw uint16) (Timestamp, error) {
	if raw > MaxTimestamp {
		return 0, &TimestampTooBigError{Value: uint64(raw)}
	}
	return Timestamp(raw), nil
}

// TimestampFromDuration converts d to a timestamp.
func TimestampFromDuration(d time.Duration) (Timestamp, error) {
	if d < 0 || d%time.Millisecond != 0 {
		return 0, &InvalidTimestampError{Value: d}
	}
	ms := uint64(d / time.Millisecond)
	if ms > MaxTimestamp {
		return 0, &TimestampTooBigError{Value: ms}
	}
	return Timestamp(ms), nil
}

// MustTimestamp is NewTimestamp for values already known to fit.
func MustTimestamp(raw uint16) Timestamp {
	ts, err := NewTimestamp(raw)
	if err != nil {
		panic(err)
	}
	return ts
}

// Duration returns the timestamp as milliseconds.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// Event is one packed replay entry: [timestamp:12][input:4], big endian.
type Event struct {
	Timestamp Timestamp `json:"t"`
	Input     Input     `json:"i"`
}

// DecodeEvent unpacks a 16-bit wire value.
func DecodeEvent(v uint16) (Event, error) {
	input, err := ParseInput(uint8(v & 0xF))
	if err != nil {
		return Event{}, err
	}
	ts, err := NewTimestamp(v >> 4)
	if err != nil {
		return Event{}, err
	}
	return Event{Timestamp: ts, Input: input}, nil
}

// Uint16 packs the event into its wire value. Only the low 12 bits of the
// timestamp fit the wire field; a Timestamp built by direct conversion
// rather than NewTimestamp or TimestampFromDuration is reduced modulo 4096,
// the same wrap Timeline undoes.
func (e Event) Uint16() uint16 {
	return uint16(e.Timestamp&MaxTimestamp)<<4 | uint16(e.Input&0xF)
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%d", e.Input, e.Timestamp)
}
