// Command validate checks a reference table and, optionally, a feed snapshot
// offline. It verifies the reference data loads, that the coordinate
// conversions reproduce known control points, that every service-area
// rectangle is usable, and that each snapshot record normalizes.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -reference reference.yaml \
//	  -feed data/cars_snapshot.json -agency cars \
//	  -at 2024-05-01T12:00:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/incident-feed-etl/internal/adapter/feed"
	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/couchcryptid/incident-feed-etl/internal/reftable"
	"github.com/jonboulle/clockwork"
)

// controlPoint is a published lat/lon with its UTM coordinates.
type controlPoint struct {
	lat, lon          float64
	zone              string
	easting, northing float64
}

var controlPoints = []controlPoint{
	{lat: 44.955, lon: -93.102, zone: "15T", easting: 491954.55, northing: 4977956.551},
	{lat: 37.6391, lon: -120.9969, zone: "10S", easting: 676734.436, northing: 4167660.722},
	{lat: -33.8688, lon: 151.2093, zone: "56H", easting: 334368.634, northing: 6250948.345},
	{lat: 60, lon: 5, zone: "32V", easting: 276979.926, northing: 6658157.203},
}

// toleranceMeters bounds forward-projection error against control points.
const toleranceMeters = 1.0

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	refPath := flag.String("reference", "reference.yaml", "path to the reference table")
	feedPath := flag.String("feed", "", "optional feed snapshot (JSON) to normalize")
	agencyName := flag.String("agency", "cars", "feed format of the snapshot: cars or chp")
	tzName := flag.String("tz", "Local", "time zone of CHP log times")
	at := flag.String("at", "", "evaluate time windows at this RFC 3339 instant instead of now")
	flag.Parse()

	if code := run(*refPath, *feedPath, *agencyName, *tzName, *at); code != 0 {
		os.Exit(code)
	}
}

func run(refPath, feedPath, agencyName, tzName, at string) int {
	if at != "" {
		instant, err := time.Parse(time.RFC3339, at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: invalid -at: %v\n", err)
			return 1
		}
		domain.SetClock(clockwork.NewFakeClockAt(instant))
		defer domain.SetClock(nil)
	}

	fmt.Println("=== Incident Feed Validation ===")
	fmt.Println()

	ref, refPhase := validateReference(refPath)
	phases := []*phase{
		refPhase,
		validateControlPoints(),
		validateSurveyZones(),
	}
	if ref != nil {
		phases = append(phases, validateRegion(ref.Region))
	}

	var summary string
	if feedPath != "" && ref != nil {
		p, s := validateFeed(ref, feedPath, agencyName, tzName)
		phases = append(phases, p)
		summary = s
	}

	// Report results.
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	if summary != "" {
		fmt.Println()
		fmt.Println(summary)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateReference(path string) (*reftable.Reference, *phase) {
	p := &phase{name: "Reference table"}
	ref, err := reftable.Load(path)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	if ref.Routes.Routes() == 0 {
		p.errorf("no milepost routes in %s", path)
	}
	if ref.Signs.Len() == 0 {
		p.errorf("no sign rules in %s; every incident would use %q", path, domain.DefaultSign)
	}
	return ref, p
}

func validateControlPoints() *phase {
	p := &phase{name: "Geodetic control points"}
	for _, cp := range controlPoints {
		utm := domain.LatLonToUTM(cp.lat, cp.lon)
		if utm.Zone() != cp.zone {
			p.errorf("(%.4f, %.4f): zone %s, want %s", cp.lat, cp.lon, utm.Zone(), cp.zone)
			continue
		}
		if d := math.Hypot(utm.Easting-cp.easting, utm.Northing-cp.northing); d > toleranceMeters {
			p.errorf("(%.4f, %.4f): off by %.3f m", cp.lat, cp.lon, d)
		}

		lat, lon, err := domain.PlanarToLatLon(domain.LatLonToPlanar(cp.lat, cp.lon))
		if err != nil {
			p.errorf("(%.4f, %.4f): inverse: %v", cp.lat, cp.lon, err)
			continue
		}
		if math.Abs(lat-cp.lat) > 1e-6 || math.Abs(lon-cp.lon) > 1e-6 {
			p.errorf("(%.4f, %.4f): round trip gave (%.7f, %.7f)", cp.lat, cp.lon, lat, lon)
		}
	}
	return p
}

// surveyPoints are dispatch-center survey pairs with their planar coordinates.
var surveyPoints = []struct {
	center            string
	x, y              float64
	easting, northing float64
}{
	{center: "STCC", x: 6780370, y: 1734265, easting: 654511.909, northing: 4198280.029},
	{center: "STCC", x: 6736155, y: 1629797, easting: 641035.150, northing: 4166438.119},
	{center: "FRCC", x: 6372490, y: 2368383, easting: 795776.837, northing: 4131487.582},
}

func validateSurveyZones() *phase {
	p := &phase{name: "Survey zone conversion"}
	for _, sp := range surveyPoints {
		zone, err := domain.ResolveSurveyZone(sp.center)
		if err != nil {
			p.errorf("%s: %v", sp.center, err)
			continue
		}
		pt, err := domain.LocalSurveyToPlanar(sp.x, sp.y, zone)
		if err != nil {
			p.errorf("%s: %v", sp.center, err)
			continue
		}
		if d := math.Hypot(pt.Easting-sp.easting, pt.Northing-sp.northing); d > toleranceMeters {
			p.errorf("%s (%.0f, %.0f): off by %.3f m", sp.center, sp.x, sp.y, d)
		}
	}
	if _, err := domain.LocalSurveyToPlanar(0, 0, domain.SurveyZone(99)); err == nil {
		p.errorf("zone 99 converted without error")
	}
	return p
}

func validateRegion(region domain.Region) *phase {
	p := &phase{name: "Service region"}
	if region.Empty() {
		p.errorf("region has no rectangles")
		return p
	}
	for _, r := range region.Rectangles() {
		cx := (r.MinEasting + r.MaxEasting) / 2
		cy := (r.MinNorthing + r.MaxNorthing) / 2
		if !region.Contains(cx, cy) {
			p.errorf("%s: center (%.0f, %.0f) not contained", r.Name, cx, cy)
		}
	}
	if region.Contains(0, 0) {
		p.errorf("region contains the origin")
	}
	return p
}

func validateFeed(ref *reftable.Reference, path, agencyName, tzName string) (*phase, string) {
	p := &phase{name: "Feed normalization"}

	agency, err := domain.ParseAgency(agencyName)
	if err != nil {
		p.errorf("%v", err)
		return p, ""
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		p.errorf("time zone %q: %v", tzName, err)
		return p, ""
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallbacks := 0
	normalizer, err := domain.NewNormalizer(domain.NormalizerConfig{
		Agency:         agency,
		Routes:         ref.Routes,
		Signs:          ref.Signs,
		Location:       loc,
		Logger:         logger,
		OnZoneFallback: func(string) { fallbacks++ },
	})
	if err != nil {
		p.errorf("%v", err)
		return p, ""
	}
	validator, err := domain.NewValidator(agency, ref.Region)
	if err != nil {
		p.errorf("%v", err)
		return p, ""
	}

	records, err := feed.NewSource(path, 0, logger).Fetch(context.Background())
	if err != nil {
		p.errorf("%v", err)
		return p, ""
	}

	accepted := 0
	rejected := make(map[string]int)
	for _, rec := range records {
		inc, err := normalizer.Normalize(rec)
		if err != nil {
			p.errorf("[%s] %v", domain.ErrorKind(err), err)
			continue
		}
		verdict, err := validator.Validate(inc)
		if err != nil {
			p.errorf("[%s] %v", domain.ErrorKind(err), err)
			continue
		}
		if verdict.Accepted {
			accepted++
		} else {
			rejected[verdict.Reason]++
		}
	}

	total := 0
	reasons := make([]string, 0, len(rejected))
	for r, n := range rejected {
		reasons = append(reasons, r)
		total += n
	}
	summary := fmt.Sprintf("Records: %d read, %d accepted, %d rejected, %d failed, %d zone fallbacks",
		len(records), accepted, total, len(p.errors), fallbacks)
	sort.Strings(reasons)
	for _, r := range reasons {
		summary += fmt.Sprintf("\n  rejected %-20s %d", r, rejected[r])
	}
	return p, summary
}
