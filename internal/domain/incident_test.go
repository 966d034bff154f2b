package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncidentRoadName(t *testing.T) {
	inc := Incident{Roadway: "94", Start: PlanarPoint{Resolved: true, Direction: North}}
	assert.Equal(t, "NB 94", inc.RoadName())

	inc.Start.Direction = EastWest
	assert.Equal(t, "94 in both directions", inc.RoadName())

	inc.Start.Direction = Unknown
	assert.Equal(t, "94", inc.RoadName())

	inc.Start.Resolved = false
	assert.Empty(t, inc.RoadName())
}

func TestIncidentPhrases(t *testing.T) {
	inc := Incident{Events: []SubEvent{
		{Type: "roadwork", Message: "road-construction"},
		{Type: "closures", Message: "right-lane-closed"},
		{Type: "closures"},
	}}
	assert.Equal(t, "Road construction, right lane closed", inc.Phrases())
	assert.Empty(t, Incident{}.Phrases())
}

func TestIncidentDescription(t *testing.T) {
	start := time.Date(2024, time.May, 1, 7, 0, 0, 0, time.UTC)
	end := PlanarPoint{Resolved: true, Name: "Elm St"}
	inc := Incident{
		Agency:  AgencyCARS,
		Roadway: "94",
		Start:   PlanarPoint{Resolved: true, Name: "MP 15 N of Main St", Direction: North},
		End:     &end,
		Time:    RecurringSchedule{Start: start, DurationMinutes: IndefiniteDuration},
		Events: []SubEvent{
			{Type: "roadwork", Message: "road-construction"},
			{Type: "closures", Message: "right-lane-closed"},
		},
		AdditionalText: "Expect delays",
	}
	assert.Equal(t,
		"Road construction, right lane closed, Expect delays on NB 94 from MP 15 N of Main St to Elm St since 7:00 AM, 05/01/24 until further notice.",
		inc.Description(start))

	chp := Incident{
		Agency: AgencyCHP,
		Start:  PlanarPoint{Resolved: true, Name: "NB SR99 JSO S UNION AV"},
		Area:   "Stockton",
		Time:   SimpleTimestamp{Logged: start},
		Events: []SubEvent{{Type: "incident", Message: "1125A - Traffic Hazard - Animal"}, {Type: "detail", Message: "cow"}},
	}
	assert.Equal(t,
		"1125A - Traffic Hazard - Animal at NB SR99 JSO S UNION AV, Stockton logged 7:00 AM, 05/01/24.",
		chp.Description(start))
}

func TestParseAgency(t *testing.T) {
	a, err := ParseAgency(" CHP ")
	require.NoError(t, err)
	assert.Equal(t, AgencyCHP, a)

	_, err = ParseAgency("511")
	require.Error(t, err)
}

func TestNewIncidentEvent(t *testing.T) {
	fixed := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	start := LatLonToPlanar(44.955, -93.102)
	start.Name = "Main St"
	start.Direction = North
	start.Metro = true
	inc := Incident{
		MessageID: "1234",
		Agency:    AgencyCARS,
		Roadway:   "94",
		Start:     start,
		Time:      RecurringSchedule{Start: fixed.Add(-30 * time.Minute), DurationMinutes: 60},
		Events:    []SubEvent{{Type: "incident", Message: "crash"}},
		Sign:      "crash",
	}

	ev := NewIncidentEvent(inc)
	assert.Equal(t, "1234", ev.ID)
	assert.Equal(t, fixed, ev.ProcessedAt)
	assert.True(t, ev.TimeValid)
	assert.Equal(t, "NB 94", ev.RoadName)
	assert.Nil(t, ev.End)
	assert.InDelta(t, 44.955, ev.Start.Lat, 1e-6)
	assert.InDelta(t, -93.102, ev.Start.Lon, 1e-6)
	assert.Equal(t, "Crash on NB 94 at Main St since 11:30 AM, 05/01/24 for the next 30 minutes.", ev.Description)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "cars", decoded["agency"])
	assert.Equal(t, "2024-05-01T12:00:00Z", decoded["processed_at"])
	startView, ok := decoded["start"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Northbound", startView["direction"])
	assert.NotContains(t, decoded, "end")

	var back IncidentEvent
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(ev, back); diff != "" {
		t.Errorf("decoded event mismatch (-want +got):\n%s", diff)
	}
}

func TestIncidentID(t *testing.T) {
	a := incidentID(AgencyCHP, "STCC", "1:2", "2/8/2008 8:21:08 AM")
	b := incidentID(AgencyCHP, "STCC", "1:2", "2/8/2008 8:21:08 AM")
	c := incidentID(AgencyCHP, "STCC", "1:3", "2/8/2008 8:21:08 AM")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^chp-[0-9a-f]{16}$`, a)
}
