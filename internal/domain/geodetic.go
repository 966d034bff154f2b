package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Ellipsoid is a reference ellipsoid for the transverse Mercator projection.
type Ellipsoid struct {
	Name                string
	EquatorialRadius    float64 // meters
	EccentricitySquared float64
}

// WGS84 is the reference ellipsoid used for every UTM conversion.
var WGS84 = Ellipsoid{Name: "WGS-84", EquatorialRadius: 6378137, EccentricitySquared: 0.00669438}

const (
	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0 // southern hemisphere offset
)

// UTM is a planar coordinate in the Universal Transverse Mercator grid.
type UTM struct {
	Easting    float64
	Northing   float64
	ZoneNumber int
	ZoneLetter byte
}

// Zone returns the zone designator, e.g. "15T".
func (u UTM) Zone() string {
	return fmt.Sprintf("%d%c", u.ZoneNumber, u.ZoneLetter)
}

// LatLonToUTM projects WGS-84 degrees (east and north positive) to UTM.
func LatLonToUTM(lat, lon float64) UTM {
	return WGS84.LatLonToUTM(lat, lon)
}

// LatLonToUTM projects degrees to UTM on this ellipsoid. The zone is taken
// from the longitude band, with the Norway (32V) and Svalbard (31X-37X)
// exceptions. Equations from USGS Bulletin 1532.
func (e Ellipsoid) LatLonToUTM(lat, lon float64) UTM {
	lon = normalizeLongitude(lon)
	zone := utmZoneNumber(lat, lon)

	a := e.EquatorialRadius
	e2 := e.EccentricitySquared
	ep2 := e2 / (1 - e2)

	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	originRad := zoneOrigin(zone) * math.Pi / 180

	sinLat := math.Sin(latRad)
	cosLat := math.Cos(latRad)
	tanLat := math.Tan(latRad)

	n := a / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	aa := cosLat * (lonRad - originRad)
	m := meridianArc(a, e2, latRad)

	easting := utmScale*n*(aa+
		(1-t+c)*math.Pow(aa, 3)/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(aa, 5)/120) + utmFalseEasting

	northing := utmScale * (m + n*tanLat*(aa*aa/2+
		(5-t+9*c+4*c*c)*math.Pow(aa, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(aa, 6)/720))
	if lat < 0 {
		northing += utmFalseNorthing
	}

	return UTM{Easting: easting, Northing: northing, ZoneNumber: zone, ZoneLetter: utmLetter(lat)}
}

// UTMToLatLon inverts LatLonToUTM on this ellipsoid.
func (e Ellipsoid) UTMToLatLon(u UTM) (lat, lon float64) {
	a := e.EquatorialRadius
	e2 := e.EccentricitySquared
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	x := u.Easting - utmFalseEasting
	y := u.Northing
	if u.ZoneLetter < 'N' {
		y -= utmFalseNorthing
	}

	m := y / utmScale
	mu := m / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu)

	sinPhi := math.Sin(phi1)
	cosPhi := math.Cos(phi1)
	tanPhi := math.Tan(phi1)

	n1 := a / math.Sqrt(1-e2*sinPhi*sinPhi)
	t1 := tanPhi * tanPhi
	c1 := ep2 * cosPhi * cosPhi
	r1 := a * (1 - e2) / math.Pow(1-e2*sinPhi*sinPhi, 1.5)
	d := x / (n1 * utmScale)

	latRad := phi1 - (n1*tanPhi/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
	lonRad := (d -
		(1+2*t1+c1)*math.Pow(d, 3)/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120) / cosPhi

	return latRad * 180 / math.Pi, zoneOrigin(u.ZoneNumber) + lonRad*180/math.Pi
}

// LatLonToPlanar converts degrees to a resolved PlanarPoint.
func LatLonToPlanar(lat, lon float64) PlanarPoint {
	u := LatLonToUTM(lat, lon)
	return PlanarPoint{Easting: u.Easting, Northing: u.Northing, Zone: u.Zone(), Resolved: true}
}

// PlanarToLatLon inverts a resolved PlanarPoint back to WGS-84 degrees
// using its zone designator.
func PlanarToLatLon(p PlanarPoint) (lat, lon float64, err error) {
	if !p.Resolved {
		return 0, 0, fmt.Errorf("inverse projection: %w: unresolved point", ErrMalformedCoordinate)
	}
	u, err := ParseUTMZone(p.Zone)
	if err != nil {
		return 0, 0, err
	}
	u.Easting, u.Northing = p.Easting, p.Northing
	lat, lon = WGS84.UTMToLatLon(u)
	return lat, lon, nil
}

// ParseUTMZone parses a designator such as "10S" into a UTM with only the
// zone fields set.
func ParseUTMZone(zone string) (UTM, error) {
	if len(zone) < 2 {
		return UTM{}, fmt.Errorf("utm zone %q: %w", zone, ErrUnknownZone)
	}
	letter := zone[len(zone)-1]
	n, err := strconv.Atoi(zone[:len(zone)-1])
	if err != nil || n < 1 || n > 60 || letter < 'C' || letter > 'X' || letter == 'I' || letter == 'O' {
		return UTM{}, fmt.Errorf("utm zone %q: %w", zone, ErrUnknownZone)
	}
	return UTM{ZoneNumber: n, ZoneLetter: letter}, nil
}

// normalizeLongitude maps any longitude into [-180, 180).
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func utmZoneNumber(lat, lon float64) int {
	zone := int((lon+180)/6) + 1
	if lat >= 56 && lat < 64 && lon >= 3 && lon < 12 {
		return 32
	}
	if lat >= 72 && lat < 84 {
		switch {
		case lon >= 0 && lon < 9:
			return 31
		case lon >= 9 && lon < 21:
			return 33
		case lon >= 21 && lon < 33:
			return 35
		case lon >= 33 && lon < 42:
			return 37
		}
	}
	return zone
}

// zoneOrigin returns the central meridian of a zone in degrees.
func zoneOrigin(zone int) float64 {
	return float64((zone-1)*6-180) + 3
}

func meridianArc(a, e2, latRad float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return a * ((1-e2/4-3*e4/64-5*e6/256)*latRad -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*latRad) +
		(15*e4/256+45*e6/1024)*math.Sin(4*latRad) -
		(35*e6/3072)*math.Sin(6*latRad))
}

// utmLetter returns the latitude band letter, or 'Z' outside 80S..84N.
func utmLetter(lat float64) byte {
	const bands = "CDEFGHJKLMNPQRSTUVWX"
	switch {
	case lat > 84 || lat < -80:
		return 'Z'
	case lat >= 72:
		return 'X'
	default:
		return bands[int(math.Floor((lat+80)/8))]
	}
}
