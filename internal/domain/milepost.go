package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// MilepostRecord is a reference point along a roadway.
type MilepostRecord struct {
	Route     string
	Mile      float64 // "actual miles" ordinate
	BriefName string
	Bearing   Direction
	Metro     bool
}

// routeRecords holds one route's mileposts, ascending by Mile. NewRouteIndex
// sorts every route, which is what the early-exit search in
// DefaultDirection relies on.
type routeRecords struct {
	records []MilepostRecord
}

// RouteIndex answers location queries against milepost records grouped by
// route. It is immutable after construction and safe for concurrent use.
type RouteIndex struct {
	routes     map[string]*routeRecords
	duplicates int
}

// NewRouteIndex groups records by route and orders each route by mileage.
// When two records of a route share a mileage the first one inserted wins
// and the later one is dropped; Duplicates reports how many were dropped.
func NewRouteIndex(records []MilepostRecord) (*RouteIndex, error) {
	grouped := make(map[string][]MilepostRecord)
	for i, rec := range records {
		if rec.Route == "" {
			return nil, fmt.Errorf("milepost record %d: %w: route", i, ErrMissingField)
		}
		if math.IsNaN(rec.Mile) || math.IsInf(rec.Mile, 0) {
			return nil, fmt.Errorf("milepost record %d (route %s): %w: mileage %v", i, rec.Route, ErrMalformedCoordinate, rec.Mile)
		}
		grouped[rec.Route] = append(grouped[rec.Route], rec)
	}

	ix := &RouteIndex{routes: make(map[string]*routeRecords, len(grouped))}
	for route, recs := range grouped {
		slices.SortStableFunc(recs, compareMile)
		deduped := recs[:0]
		for _, rec := range recs {
			if n := len(deduped); n > 0 && deduped[n-1].Mile == rec.Mile {
				ix.duplicates++
				continue
			}
			deduped = append(deduped, rec)
		}
		ix.routes[route] = &routeRecords{records: deduped}
	}
	return ix, nil
}

func compareMile(a, b MilepostRecord) int {
	return cmp.Compare(a.Mile, b.Mile)
}

// Duplicates returns the number of records dropped for sharing a mileage.
func (ix *RouteIndex) Duplicates() int {
	return ix.duplicates
}

// Routes returns the number of indexed routes.
func (ix *RouteIndex) Routes() int {
	return len(ix.routes)
}

// Records returns a copy of the ordered records for a route.
func (ix *RouteIndex) Records(route string) []MilepostRecord {
	rr, ok := ix.routes[route]
	if !ok {
		return nil
	}
	return slices.Clone(rr.records)
}

// LocationName is the result of a milepost lookup.
type LocationName struct {
	Name      string    // brief name of the milepost the location is named after
	Direction Direction // compass side of that milepost, Unknown on an exact match
	Label     string    // display form, e.g. "MP 15 N of Main St"
}

// Lookup names the location at mile along route. Between two mileposts the
// primary location (extent false) is named after the milepost below it;
// the secondary location of an extent (extent true) is named after the one
// above it, seen from the opposite side. An unknown route is an error.
func (ix *RouteIndex) Lookup(route string, mile float64, extent bool) (LocationName, error) {
	rr, ok := ix.routes[route]
	if !ok || len(rr.records) == 0 {
		return LocationName{}, fmt.Errorf("lookup %s at MP %s: %w", route, formatMile(mile), ErrUnknownRoute)
	}

	var below, above *MilepostRecord
	for i := range rr.records {
		rec := &rr.records[i]
		if rec.Mile < mile {
			below = rec
			continue
		}
		if rec.Mile == mile {
			return LocationName{Name: rec.BriefName, Label: rec.BriefName}, nil
		}
		above = rec
		break
	}

	var name string
	var dir Direction
	switch {
	case below == nil && above == nil:
		return LocationName{Label: "MP " + formatMile(mile)}, nil
	case below == nil:
		name, dir = above.BriefName, above.Bearing.Opposite()
	case above == nil:
		name, dir = below.BriefName, below.Bearing
	case extent:
		name, dir = above.BriefName, below.Bearing.Opposite()
	default:
		name, dir = below.BriefName, below.Bearing
	}
	return LocationName{
		Name:      name,
		Direction: dir,
		Label:     fmt.Sprintf("MP %s %c of %s", formatMile(mile), dir.Char(), name),
	}, nil
}

// Metro reports the metro flag of the milepost nearest to mile. A route
// with no records is assumed to be metro; unlike Lookup this never fails,
// so an incident on an unindexed roadway is not filtered out here.
func (ix *RouteIndex) Metro(route string, mile float64) bool {
	rr, ok := ix.routes[route]
	if !ok || len(rr.records) == 0 {
		return true
	}
	best := nearest(rr.records, mile, false)
	return rr.records[best].Metro
}

// DefaultDirection returns the bearing of the milepost nearest to mile, or
// Unknown for a route with no records.
func (ix *RouteIndex) DefaultDirection(route string, mile float64) Direction {
	rr, ok := ix.routes[route]
	if !ok || len(rr.records) == 0 {
		return Unknown
	}
	best := nearest(rr.records, mile, true)
	return rr.records[best].Bearing
}

// nearest returns the index of the record with the smallest |mile - actual|,
// the lowest index winning ties. With earlyExit the scan stops as soon as
// the distance stops improving, which requires ascending records.
func nearest(records []MilepostRecord, mile float64, earlyExit bool) int {
	best := 0
	closest := math.MaxFloat64
	for i, rec := range records {
		diff := math.Abs(mile - rec.Mile)
		if diff < closest {
			best, closest = i, diff
			continue
		}
		if earlyExit {
			break
		}
	}
	return best
}

func formatMile(mile float64) string {
	return strconv.FormatFloat(mile, 'f', -1, 64)
}
