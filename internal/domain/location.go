package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PlanarPoint is a normalized incident location in UTM meters.
type PlanarPoint struct {
	Easting  float64
	Northing float64
	Zone     string  // UTM designator, e.g. "15T"
	Linear   float64 // route-relative mile
	Name     string  // display label, e.g. "MP 15 N of Main St"
	// Direction is the direction of travel affected by the incident.
	Direction Direction
	Metro     bool
	// Resolved is set when the raw coordinates were present and parsed.
	Resolved bool
}

// ValidIn reports whether the point was resolved and lies inside region.
// It is recomputed on every call.
func (p PlanarPoint) ValidIn(region Region) bool {
	return p.Resolved && region.Contains(p.Easting, p.Northing)
}

func (p PlanarPoint) String() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%d,%d", int64(math.Round(p.Easting)), int64(math.Round(p.Northing)))
}

// ParseMicrodegrees parses an integer count of millionths of a degree.
// Plain decimal degrees are accepted as well.
func ParseMicrodegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("degrees: %w: empty", ErrMalformedCoordinate)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(n) / 1e6, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("degrees %q: %w", s, ErrMalformedCoordinate)
	}
	return v, nil
}

// ParseSurveyXY parses a Thomas Brothers pair "6736155:1629797". Enclosing
// quotes are stripped. An empty value reports ok false with no error.
func ParseSurveyXY(s string) (x, y float64, ok bool, err error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return 0, 0, false, nil
	}
	xs, ys, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false, fmt.Errorf("survey coordinates %q: %w: want x:y", s, ErrMalformedCoordinate)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return 0, 0, false, fmt.Errorf("survey coordinates %q: %w", s, ErrMalformedCoordinate)
	}
	return x, y, true, nil
}

// ParseLinear parses a route-relative mile.
func ParseLinear(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("linear reference: %w", ErrMissingField)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("linear reference %q: %w", s, ErrMalformedCoordinate)
	}
	return v, nil
}

// DirectionFromText finds the first NB/SB/EB/WB token in a free-text
// location such as "NB SR99 JSO S UNION AV".
func DirectionFromText(s string) Direction {
	for _, tok := range strings.Fields(strings.ToUpper(s)) {
		switch tok {
		case "NB":
			return North
		case "SB":
			return South
		case "EB":
			return East
		case "WB":
			return West
		}
	}
	return Unknown
}
