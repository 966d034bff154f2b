package reftable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ref, err := Load(filepath.Join("testdata", "reference.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 2, ref.Routes.Routes())
	assert.Equal(t, 1, ref.Routes.Duplicates())
	recs := ref.Routes.Records("94")
	require.Len(t, recs, 2)
	assert.Equal(t, domain.MilepostRecord{Route: "94", Mile: 10, BriefName: "Main St", Bearing: domain.North, Metro: true}, recs[0])
	assert.Equal(t, "Elm St", recs[1].BriefName, "first of two equal mileages wins")
	assert.Equal(t, domain.East, ref.Routes.Records("35W")[0].Bearing)
	assert.True(t, ref.Routes.Records("35W")[0].Metro)

	assert.Equal(t, 2, ref.Signs.Len())
	assert.Equal(t, "crash", ref.Signs.Lookup(domain.SubEvent{Type: "incident", Message: "crash"}))

	assert.Len(t, ref.Region.Rectangles(), 4, "defaults to the D10 area")

	loc, err := ref.Routes.Lookup("94", 15, false)
	require.NoError(t, err)
	assert.Equal(t, "MP 15 N of Main St", loc.Label)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Regions(t *testing.T) {
	ref, err := Parse([]byte(`
tables:
  - name: cars
    records: []
regions:
  - {name: box, min_easting: 0, min_northing: 0, max_easting: 10, max_northing: 10}
`))
	require.NoError(t, err)
	assert.True(t, ref.Region.Contains(5, 5))
	assert.False(t, ref.Region.Contains(625001, 4137001))
	assert.Zero(t, ref.Routes.Routes())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "tables: [::"},
		{"no tables", "tables: []"},
		{"unknown field", "tables:\n  - name: cars\n    rows: []"},
		{"missing milepost table", "tables:\n  - name: xml_event\n    records: []"},
		{"missing route", `tables: [{name: cars, records: [{actual_miles: "1", brief_name: "A"}]}]`},
		{"bad mileage", `tables: [{name: cars, records: [{route: "94", actual_miles: "ten", brief_name: "A"}]}]`},
		{"incomplete sign rule", `tables: [{name: cars, records: []}, {name: xml_event, records: [{event_type: "incident"}]}]`},
		{"inverted rectangle", `{tables: [{name: cars, records: []}], regions: [{name: r, min_easting: 10, max_easting: 0}]}`},
		{"unnamed rectangle", `{tables: [{name: cars, records: []}], regions: [{max_easting: 1, max_northing: 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestParseMetro(t *testing.T) {
	for _, s := range []string{"T", "true", "Y", " 1 "} {
		assert.True(t, parseMetro(s), s)
	}
	for _, s := range []string{"F", "", "no"} {
		assert.False(t, parseMetro(s), s)
	}
}
