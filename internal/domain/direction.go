package domain

import "strings"

// Direction is a direction of travel.
type Direction int

const (
	Unknown Direction = iota
	North
	South
	East
	West
	NorthSouth
	EastWest
)

var directionNames = [...]struct {
	full   string
	abbrev string
}{
	Unknown:    {"Unknown", "?"},
	North:      {"Northbound", "NB"},
	South:      {"Southbound", "SB"},
	East:       {"Eastbound", "EB"},
	West:       {"Westbound", "WB"},
	NorthSouth: {"NorthSouth", "N-S"},
	EastWest:   {"EastWest", "E-W"},
}

func (d Direction) valid() bool {
	return d >= Unknown && d <= EastWest
}

// String returns the full name, e.g. "Northbound".
func (d Direction) String() string {
	if !d.valid() {
		return directionNames[Unknown].full
	}
	return directionNames[d].full
}

// Abbrev returns the short form, e.g. "NB".
func (d Direction) Abbrev() string {
	if !d.valid() {
		return directionNames[Unknown].abbrev
	}
	return directionNames[d].abbrev
}

// Char returns the single-letter compass form used in location labels.
// Compound and unknown directions render as '?'.
func (d Direction) Char() byte {
	switch d {
	case North, South, East, West:
		return directionNames[d].abbrev[0]
	default:
		return '?'
	}
}

// Opposite swaps N/S and E/W and leaves every other value unchanged.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return d
	}
}

// Both widens a cardinal direction to its two-way form.
func (d Direction) Both() Direction {
	switch d {
	case North, South:
		return NorthSouth
	case East, West:
		return EastWest
	default:
		return d
	}
}

// MarshalText encodes the direction by its full name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes any form accepted by ParseDirection.
func (d *Direction) UnmarshalText(b []byte) error {
	*d = ParseDirection(string(b))
	return nil
}

// ParseDirection matches s case-insensitively as an abbreviation ("NB",
// "E-W"), then as a prefix of a full direction name ("N", "north",
// "Northbound"). Anything else is Unknown.
func ParseDirection(s string) Direction {
	s = strings.TrimSpace(s)
	if s == "" || s == "?" {
		return Unknown
	}
	for _, d := range []Direction{North, South, East, West, NorthSouth, EastWest} {
		if strings.EqualFold(directionNames[d].abbrev, s) {
			return d
		}
	}
	us := strings.ToUpper(s)
	for _, d := range []Direction{North, South, East, West, NorthSouth, EastWest} {
		if strings.HasPrefix(strings.ToUpper(directionNames[d].full), us) {
			return d
		}
	}
	return Unknown
}

// Link directions from the CARS feed relative to a route's default bearing.
const (
	LinkPositive = "positive-direction-only"
	LinkNegative = "negative-direction-only"
	LinkBoth     = "both-directions"
)

// TravelDirection resolves a link direction against the default bearing of
// the nearest milepost.
func TravelDirection(linkDir string, defaultDir Direction) Direction {
	switch linkDir {
	case LinkPositive:
		return defaultDir
	case LinkNegative:
		return defaultDir.Opposite()
	case LinkBoth:
		return defaultDir.Both()
	default:
		return Unknown
	}
}
