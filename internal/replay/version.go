package replay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/shopspring/decimal"
)

// Version is the replay format version, sent as a JSON number MAJOR.MINOR.
type Version struct {
	Major uint8
	Minor uint8
}

// ParseVersion splits the decimal rendering of a version number. A missing
// fraction is minor 0.
func ParseVersion(s string) (Version, error) {
	majStr, minStr, found := strings.Cut(s, ".")
	if !found {
		minStr = "0"
	}
	maj, err := strconv.ParseUint(majStr, 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("replay: invalid version %q: %w", s, err)
	}
	min, err := strconv.ParseUint(minStr, 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("replay: invalid version %q: %w", s, err)
	}
	return Version{Major: uint8(maj), Minor: uint8(min)}, nil
}

// String renders the version the way it appears on the wire.
func (v Version) String() string {
	return v.decimal().String()
}

func (v Version) decimal() decimal.Decimal {
	minor := decimal.NewFromInt(int64(v.Minor))
	digits := len(strconv.Itoa(int(v.Minor)))
	return decimal.NewFromInt(int64(v.Major)).Add(minor.Shift(int32(-digits)))
}

// Semver returns the version as MAJOR.MINOR.0.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), 0, "", "")
}

// MarshalJSON writes the version as a bare JSON number.
func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalJSON accepts a JSON number and renders it in shortest decimal
// form before splitting.
func (v *Version) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return fmt.Errorf("replay: version must be a number, got null")
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("replay: version must be a number: %w", err)
	}
	parsed, err := ParseVersion(decimal.NewFromFloat(f).String())
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// VersionPolicy is the range of versions a decoder accepts: the exact
// major, and any minor at or above MinimumMinor.
type VersionPolicy struct {
	ExpectedMajor uint8 `yaml:"expected_major" json:"expectedMajor"`
	MinimumMinor  uint8 `yaml:"minimum_minor" json:"minimumMinor"`
}

// DefaultVersionPolicy accepts 3.3 and newer 3.x replays.
var DefaultVersionPolicy = VersionPolicy{ExpectedMajor: 3, MinimumMinor: 3}

// VersionError reports a version outside the policy.
type VersionError struct {
	Expected VersionPolicy
	Actual   Version
}

func (e *VersionError) Error() string {
	if e.Actual.Major != e.Expected.ExpectedMajor {
		return fmt.Sprintf("replay: expected major version %d, got major version %d in `%s`",
			e.Expected.ExpectedMajor, e.Actual.Major, e.Actual)
	}
	return fmt.Sprintf("replay: expected minor version >= %d, got minor version %d in `%s`",
		e.Expected.MinimumMinor, e.Actual.Minor, e.Actual)
}

// Constraint returns the policy as a semver range.
func (p VersionPolicy) Constraint() *semver.Constraints {
	c, err := semver.NewConstraint(fmt.Sprintf(">= %d.%d.0, < %d.0.0",
		p.ExpectedMajor, p.MinimumMinor, uint(p.ExpectedMajor)+1))
	if err != nil {
		panic(err)
	}
	return c
}

// Check returns a *VersionError when v falls outside the policy.
func (p VersionPolicy) Check(v Version) error {
	if !p.Constraint().Check(v.Semver()) {
		return &VersionError{Expected: p, Actual: v}
	}
	return nil
}

func (p VersionPolicy) String() string {
	return fmt.Sprintf(">=%d.%d <%d", p.ExpectedMajor, p.MinimumMinor, uint(p.ExpectedMajor)+1)
}
