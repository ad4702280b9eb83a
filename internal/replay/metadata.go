package replay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MJE43/jstris-replay-go/internal/engine"
)

// EnumError reports a numeric enum value with no defined meaning.
type EnumError struct {
	Enum  string
	Value int64
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("replay: %d is not a valid %s", e.Value, e.Enum)
}

// MissingFieldError reports a required metadata key that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("replay: metadata field %q is required", e.Field)
}

func decodeEnum(data []byte, name string, valid func(uint8) bool) (uint8, error) {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("replay: %s: %w", name, err)
	}
	if n < 0 || n > 255 || !valid(uint8(n)) {
		return 0, &EnumError{Enum: name, Value: n}
	}
	return uint8(n), nil
}

// SoftDropSpeed is the soft drop setting of the player.
type SoftDropSpeed uint8

const (
	SoftDropSlow SoftDropSpeed = iota
	SoftDropMedium
	SoftDropFast
	SoftDropUltra
	SoftDropInstant
)

var softDropNames = [...]string{"Slow", "Medium", "Fast", "Ultra", "Instant"}

func (s SoftDropSpeed) Valid() bool { return int(s) < len(softDropNames) }

func (s SoftDropSpeed) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SoftDropSpeed(%d)", uint8(s))
	}
	return softDropNames[s]
}

// Steps is the number of rows a soft drop moves per gravity step.
func (s SoftDropSpeed) Steps() uint8 {
	switch s {
	case SoftDropFast:
		return 1
	case SoftDropUltra:
		return 2
	case SoftDropInstant:
		return 20
	default:
		return 0
	}
}

func (s *SoftDropSpeed) UnmarshalJSON(data []byte) error {
	n, err := decodeEnum(data, "soft drop speed", func(v uint8) bool { return SoftDropSpeed(v).Valid() })
	if err != nil {
		return err
	}
	*s = SoftDropSpeed(n)
	return nil
}

// BlockSkin is a cosmetic block style. Values 5 to 7 are skins the client
// never writes into replays.
type BlockSkin uint8

const (
	SkinSolidColor   BlockSkin = 0
	SkinBevel        BlockSkin = 1
	SkinBevelFlat    BlockSkin = 2
	SkinThinBorder   BlockSkin = 3
	SkinGradient     BlockSkin = 4
	SkinBubble       BlockSkin = 8
	SkinPointy       BlockSkin = 9
	SkinRounded      BlockSkin = 10
	SkinPictureFrame BlockSkin = 11
	SkinBevelRounded BlockSkin = 12
	SkinCats         BlockSkin = 13
)

var skinNames = map[BlockSkin]string{
	SkinSolidColor:   "SolidColor",
	SkinBevel:        "Bevel",
	SkinBevelFlat:    "BevelFlat",
	SkinThinBorder:   "ThinBorder",
	SkinGradient:     "Gradient",
	SkinBubble:       "Bubble",
	SkinPointy:       "Pointy",
	SkinRounded:      "Rounded",
	SkinPictureFrame: "PictureFrame",
	SkinBevelRounded: "BevelRounded",
	SkinCats:         "Cats",
}

func (b BlockSkin) Valid() bool {
	_, ok := skinNames[b]
	return ok
}

func (b BlockSkin) String() string {
	if name, ok := skinNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BlockSkin(%d)", uint8(b))
}

func (b *BlockSkin) UnmarshalJSON(data []byte) error {
	n, err := decodeEnum(data, "block skin", func(v uint8) bool { return BlockSkin(v).Valid() })
	if err != nil {
		return err
	}
	*b = BlockSkin(n)
	return nil
}

// SoundEffects is the sound pack selection.
type SoundEffects uint8

const (
	SoundNullpomino SoundEffects = iota
	SoundYotipo
	SoundRainforest
	SoundTetraX
	SoundNone
)

var soundNames = [...]string{"Nullpomino", "Yotipo", "Rainforest", "TetraX", "None"}

func (s SoundEffects) Valid() bool { return int(s) < len(soundNames) }

func (s SoundEffects) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SoundEffects(%d)", uint8(s))
	}
	return soundNames[s]
}

func (s *SoundEffects) UnmarshalJSON(data []byte) error {
	n, err := decodeEnum(data, "sound effects", func(v uint8) bool { return SoundEffects(v).Valid() })
	if err != nil {
		return err
	}
	*s = SoundEffects(n)
	return nil
}

// GameMode is the sprint length. Only sprint replays are understood.
type GameMode uint8

const (
	Mode40L   GameMode = 1
	Mode20L   GameMode = 2
	Mode100L  GameMode = 3
	Mode1000L GameMode = 4
)

var modeNames = map[GameMode]string{
	Mode40L:   "40L",
	Mode20L:   "20L",
	Mode100L:  "100L",
	Mode1000L: "1000L",
}

func (m GameMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

func (m GameMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("GameMode(%d)", uint8(m))
}

// ParseGameMode accepts the display names such as "40L".
func ParseGameMode(s string) (GameMode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("replay: unknown game mode %q", s)
}

func (m *GameMode) UnmarshalJSON(data []byte) error {
	n, err := decodeEnum(data, "game mode", func(v uint8) bool { return GameMode(v).Valid() })
	if err != nil {
		return err
	}
	*m = GameMode(n)
	return nil
}

// Metadata is the "c" object of a replay.
type Metadata struct {
	SoftDrop     SoftDropSpeed
	GameStart    time.Time
	GameEnd      time.Time
	Seed         engine.GameSeed
	BlockSkin    BlockSkin
	SoundEffects SoundEffects
	DAS          uint16 // delayed auto shift, ms
	ARR          uint16 // auto repeat rate, ms
	Mode         GameMode
	Version      Version

	// R and BBS are carried through without interpretation.
	R   *uint16
	BBS *uint16
}

// Duration is the recorded length of the game.
func (m *Metadata) Duration() time.Duration {
	return m.GameEnd.Sub(m.GameStart)
}

type metadataWire struct {
	SoftDrop     *SoftDropSpeed   `json:"softDropId"`
	GameStart    *int64           `json:"gameStart"`
	GameEnd      *int64           `json:"gameEnd"`
	Seed         *engine.GameSeed `json:"seed"`
	BlockSkin    *BlockSkin       `json:"bs"`
	SoundEffects *SoundEffects    `json:"se"`
	DAS          uint16           `json:"das"`
	ARR          uint16           `json:"arr"`
	Mode         *GameMode        `json:"m"`
	Version      *Version         `json:"v"`
	R            *uint16          `json:"r,omitempty"`
	BBS          *uint16          `json:"bbs,omitempty"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	start := m.GameStart.UnixMilli()
	end := m.GameEnd.UnixMilli()
	return json.Marshal(metadataWire{
		SoftDrop:     &m.SoftDrop,
		GameStart:    &start,
		GameEnd:      &end,
		Seed:         &m.Seed,
		BlockSkin:    &m.BlockSkin,
		SoundEffects: &m.SoundEffects,
		DAS:          m.DAS,
		ARR:          m.ARR,
		Mode:         &m.Mode,
		Version:      &m.Version,
		R:            m.R,
		BBS:          m.BBS,
	})
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var w metadataWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	required := []struct {
		name    string
		missing bool
	}{
		{"softDropId", w.SoftDrop == nil},
		{"gameStart", w.GameStart == nil},
		{"gameEnd", w.GameEnd == nil},
		{"seed", w.Seed == nil},
		{"bs", w.BlockSkin == nil},
		{"se", w.SoundEffects == nil},
		{"m", w.Mode == nil},
		{"v", w.Version == nil},
	}
	for _, f := range required {
		if f.missing {
			return &MissingFieldError{Field: f.name}
		}
	}

	*m = Metadata{
		SoftDrop:     *w.SoftDrop,
		GameStart:    time.UnixMilli(*w.GameStart).UTC(),
		GameEnd:      time.UnixMilli(*w.GameEnd).UTC(),
		Seed:         *w.Seed,
		BlockSkin:    *w.BlockSkin,
		SoundEffects: *w.SoundEffects,
		DAS:          w.DAS,
		ARR:          w.ARR,
		Mode:         *w.Mode,
		Version:      *w.Version,
		R:            w.R,
		BBS:          w.BBS,
	}
	return nil
}
