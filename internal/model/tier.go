package model

import (
	"errors"
	"fmt"
)

// ErrUnsupportedTier is returned when a report tier is not one of the
// enumerated values "1", "2", "3" or "4".
var ErrUnsupportedTier = errors.New("unsupported report type: must be 1, 2, 3 or 4")

// Tier selects the verbosity of a formatted report. The values match the
// WAVE API "reporttype" parameter.
type Tier string

const (
	// Tier1 reports category counts only.
	Tier1 Tier = "1"

	// Tier2 reports category and item descriptions with counts.
	Tier2 Tier = "2"

	// Tier3 reports everything Tier2 does plus item XPaths and contrast data.
	Tier3 Tier = "3"

	// Tier4 is formatted like Tier2.
	Tier4 Tier = "4"
)

// DefaultTier is used when a caller does not request a tier.
const DefaultTier = Tier1

// Tiers returns all supported tiers in ascending order.
func Tiers() []Tier {
	return []Tier{Tier1, Tier2, Tier3, Tier4}
}

// Valid reports whether t is one of the enumerated tiers.
func (t Tier) Valid() bool {
	switch t {
	case Tier1, Tier2, Tier3, Tier4:
		return true
	default:
		return false
	}
}

// String returns the tier value as sent to the WAVE API.
func (t Tier) String() string {
	return string(t)
}

// IncludesItems reports whether the tier lists items under each category.
func (t Tier) IncludesItems() bool {
	return t.Valid() && t != Tier1
}

// IncludesDetail reports whether the tier lists XPaths and contrast data.
func (t Tier) IncludesDetail() bool {
	return t == Tier3
}

// ParseTier converts s to a Tier. An empty string yields DefaultTier;
// anything outside the enumeration is rejected with ErrUnsupportedTier.
func ParseTier(s string) (Tier, error) {
	if s == "" {
		return DefaultTier, nil
	}
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: got %q", ErrUnsupportedTier, s)
	}
	return t, nil
}
