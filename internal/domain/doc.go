// Package domain normalizes agency traffic-incident records and decides which
// incidents are publishable.
//
// # Data Sources
//
// Two agency feeds are supported:
//
//	CARS (Minnesota DOT): incidents are located by a route designator and a
//	linear reference (mile marker). Coordinates arrive as latitude/longitude
//	in microdegrees, e.g. "44955000" = 44.955°.
//	CHP (California Highway Patrol, Caltrans District 10): incidents carry a
//	Thomas Brothers map coordinate pair in US survey feet plus the id of the
//	dispatch center that logged them (STCC, FRCC).
//
// # Locations
//
// Every location is normalized into UTM (WGS-84). CARS locations are named by
// interpolating between milepost records of a [RouteIndex]:
//
//	"MP 15 N of Main St"   15 miles, north of the Main St milepost
//	"Main St"              linear reference exactly at a milepost
//
// Thomas Brothers coordinates are mapped to UTM zone 10 with a per-zone
// affine transform whose offsets were fitted from CHP control points. The
// fit is good to a few hundred meters, so the D10 service area [Region] is
// deliberately coarse.
//
// # Event Times
//
// CHP records carry a single log timestamp ([SimpleTimestamp]). CARS
// records carry a start time, an optional expected end, an estimated
// duration in minutes and, for recurring work zones, a weekday bit mask
// (Sunday=1 … Saturday=64) with an optional "HHMMHHMM" daily window
// ([RecurringSchedule]). A duration of 2000000 minutes means "until further
// notice".
//
// # Publication
//
// A normalized [Incident] is published only when its [Validator] accepts it:
// location resolved, inside the service area, time window active now, and an
// accepted event class (incidents, flooding, and roadwork that closes
// through lanes).
package domain
