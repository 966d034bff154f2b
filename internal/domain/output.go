package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// LocationView is the published form of a PlanarPoint.
type LocationView struct {
	Easting   float64   `json:"easting"`
	Northing  float64   `json:"northing"`
	Zone      string    `json:"zone"`
	Lat       float64   `json:"lat,omitempty"`
	Lon       float64   `json:"lon,omitempty"`
	Linear    float64   `json:"linear,omitempty"`
	Name      string    `json:"name,omitempty"`
	Direction Direction `json:"direction"`
	Metro     bool      `json:"metro"`
}

// IncidentEvent is the serialized form of an accepted incident, sent to
// every subscriber.
type IncidentEvent struct {
	ID          string        `json:"id"`
	Agency      Agency        `json:"agency"`
	Roadway     string        `json:"roadway,omitempty"`
	RoadName    string        `json:"road_name,omitempty"`
	Start       LocationView  `json:"start"`
	End         *LocationView `json:"end,omitempty"`
	TimeText    string        `json:"time"`
	TimeValid   bool          `json:"time_valid"`
	Events      []SubEvent    `json:"events"`
	Sign        string        `json:"sign"`
	Description string        `json:"description"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// NewIncidentEvent stamps an incident with the package clock and renders
// its text fields.
func NewIncidentEvent(inc Incident) IncidentEvent {
	now := Now()
	ev := IncidentEvent{
		ID:          inc.MessageID,
		Agency:      inc.Agency,
		Roadway:     inc.Roadway,
		RoadName:    inc.RoadName(),
		Start:       viewOf(inc.Start),
		Events:      append([]SubEvent(nil), inc.Events...),
		Sign:        inc.Sign,
		Description: inc.Description(now),
		ProcessedAt: now,
	}
	if inc.End != nil {
		end := viewOf(*inc.End)
		ev.End = &end
	}
	if inc.Time != nil {
		ev.TimeText = inc.Time.Describe(now)
		ev.TimeValid = inc.Time.ValidAt(now)
	}
	return ev
}

func viewOf(p PlanarPoint) LocationView {
	v := LocationView{
		Easting:   p.Easting,
		Northing:  p.Northing,
		Zone:      p.Zone,
		Linear:    p.Linear,
		Name:      p.Name,
		Direction: p.Direction,
		Metro:     p.Metro,
	}
	if lat, lon, err := PlanarToLatLon(p); err == nil {
		v.Lat, v.Lon = lat, lon
	}
	return v
}

// incidentID derives a stable id for records that arrive without one, so
// a record seen on every poll keeps the same key.
func incidentID(agency Agency, roadway, location, logged string) string {
	input := fmt.Sprintf("%s|%s|%s|%s", agency, roadway, location, logged)
	hash := sha256.Sum256([]byte(input))
	return string(agency) + "-" + hex.EncodeToString(hash[:8])
}
