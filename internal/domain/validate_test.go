package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeWindow() EventTime {
	return RecurringSchedule{Start: testNow.Add(-30 * time.Minute), DurationMinutes: 60}
}

func carsIncident(events ...SubEvent) Incident {
	return Incident{
		MessageID: "m-1",
		Agency:    AgencyCARS,
		Roadway:   "94",
		Start:     PlanarPoint{Resolved: true, Metro: true},
		Time:      activeWindow(),
		Events:    events,
	}
}

func TestCARSValidator(t *testing.T) {
	v, err := NewValidator(AgencyCARS, Region{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		events []SubEvent
		want   Verdict
	}{
		{"lead incident", []SubEvent{{"incident", "crash"}}, accept()},
		{"flooding anywhere", []SubEvent{{"obstruction", "debris"}, {"weather", "flooding"}}, accept()},
		{"roadwork with lane closure", []SubEvent{{"roadwork", "road-construction"}, {"closures", "lane closure"}}, accept()},
		{"roadwork with ramp closure", []SubEvent{{"roadwork", "road-construction"}, {"closures", "entrance-ramp-closed"}}, reject(ReasonEventClass)},
		{"roadwork with shoulder closure", []SubEvent{{"roadwork", "road-construction"}, {"closures", "shoulder closed"}}, reject(ReasonEventClass)},
		{"ramp match is case-sensitive", []SubEvent{{"roadwork", "road-construction"}, {"closures", "Ramp closed"}}, accept()},
		{"roadwork without closures", []SubEvent{{"roadwork", "road-construction"}}, reject(ReasonEventClass)},
		{"roadwork, closure after ramp", []SubEvent{{"roadwork", "x"}, {"closures", "ramp-closed"}, {"closures", "road-closed"}}, accept()},
		{"other lead", []SubEvent{{"obstruction", "debris"}}, reject(ReasonEventClass)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateAt(carsIncident(tt.events...), testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty event list is an error", func(t *testing.T) {
		_, err := v.ValidateAt(carsIncident(), testNow)
		require.ErrorIs(t, err, ErrEmptyEventList)
	})

	t.Run("check order", func(t *testing.T) {
		inc := carsIncident(SubEvent{"obstruction", "debris"})
		inc.Start.Resolved = false
		inc.Start.Metro = false
		got, err := v.ValidateAt(inc, testNow)
		require.NoError(t, err)
		assert.Equal(t, ReasonUnresolvedLocation, got.Reason)

		inc.Start.Resolved = true
		got, _ = v.ValidateAt(inc, testNow)
		assert.Equal(t, ReasonOutOfRegion, got.Reason)

		inc.Start.Metro = true
		inc.End = &PlanarPoint{Resolved: true, Metro: false}
		got, _ = v.ValidateAt(inc, testNow)
		assert.Equal(t, ReasonOutOfRegion, got.Reason, "end location must also be in scope")

		inc.End.Metro = true
		got, _ = v.ValidateAt(inc, testNow.Add(2*time.Hour))
		assert.Equal(t, ReasonTimeInactive, got.Reason)

		got, _ = v.ValidateAt(inc, testNow)
		assert.Equal(t, ReasonEventClass, got.Reason)
	})
}

func TestCHPValidator(t *testing.T) {
	v, err := NewValidator(AgencyCHP, Region{})
	require.NoError(t, err)
	chp, ok := v.(CHPValidator)
	require.True(t, ok)
	assert.Len(t, chp.Region.Rectangles(), 4, "empty region falls back to D10")

	inside, err := LocalSurveyToPlanar(6780370, 1734265, SurveyZoneSTCC)
	require.NoError(t, err)
	inc := Incident{
		MessageID: "0132D0130",
		Agency:    AgencyCHP,
		Start:     inside,
		Time:      SimpleTimestamp{Logged: testNow},
		Events:    []SubEvent{{"incident", "1125A - Traffic Hazard - Animal"}},
	}

	got, err := v.ValidateAt(inc, testNow)
	require.NoError(t, err)
	assert.True(t, got.Accepted)

	// Metro is irrelevant to the CHP variant.
	inc.Start.Metro = false
	got, _ = v.ValidateAt(inc, testNow)
	assert.True(t, got.Accepted)

	inc.Start = LatLonToPlanar(44.955, -93.102)
	got, _ = v.ValidateAt(inc, testNow)
	assert.Equal(t, reject(ReasonOutOfRegion), got)
}

func TestNewValidator_UnknownAgency(t *testing.T) {
	_, err := NewValidator("wsdot", Region{})
	require.Error(t, err)
}
