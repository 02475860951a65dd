package types

import "github.com/m-mizutani/goerr/v2"

// MagnitudeType selects how magnitude thresholds are expressed
type MagnitudeType string

const (
	// MagnitudeTypeAbsolute measures magnitude in currency units
	MagnitudeTypeAbsolute MagnitudeType = "ABSOLUTE"
	// MagnitudeTypeRelative measures magnitude as a percentage of a denominator such as EBITDA
	MagnitudeTypeRelative MagnitudeType = "RELATIVE"
)

func (m MagnitudeType) IsValid() bool {
	switch m {
	case MagnitudeTypeAbsolute, MagnitudeTypeRelative:
		return true
	default:
		return false
	}
}

func (m MagnitudeType) String() string {
	return string(m)
}

// ParseMagnitudeType parses a string into a MagnitudeType
func ParseMagnitudeType(s string) (MagnitudeType, error) {
	t := MagnitudeType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid magnitude type", goerr.V("type", s))
	}
	return t, nil
}
