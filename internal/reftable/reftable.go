// Package reftable loads the static reference resource: milepost records,
// sign rules and the optional service-region rectangles.
package reftable

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Table names in the reference document.
const (
	TableMileposts = "cars"
	TableSigns     = "xml_event"
)

// Reference is the loaded, validated reference data.
type Reference struct {
	Routes *domain.RouteIndex
	Signs  domain.SignTable
	// Region is the built-in D10 area unless the document lists regions.
	Region domain.Region
}

type document struct {
	Tables  []table     `yaml:"tables" validate:"required,min=1,dive"`
	Regions []rectangle `yaml:"regions" validate:"dive"`
}

type table struct {
	Name    string   `yaml:"name" validate:"required"`
	Records []record `yaml:"records"`
}

// record is a row of any table; which fields matter depends on the table.
type record struct {
	Route       string `yaml:"route"`
	ActualMiles string `yaml:"actual_miles"`
	BriefName   string `yaml:"brief_name"`
	Bearing     string `yaml:"bearing"`
	Metro       string `yaml:"metro"`

	EventType string `yaml:"event_type"`
	SubType   string `yaml:"sub_type"`
	Sign      string `yaml:"sign"`
}

type milepostRow struct {
	Route       string `validate:"required"`
	ActualMiles string `validate:"required,numeric"`
	BriefName   string `validate:"required"`
	Bearing     string `validate:"omitempty,max=16"`
}

type signRow struct {
	EventType string `validate:"required"`
	SubType   string `validate:"required"`
	Sign      string `validate:"required"`
}

type rectangle struct {
	Name        string  `yaml:"name" validate:"required"`
	MinEasting  float64 `yaml:"min_easting"`
	MinNorthing float64 `yaml:"min_northing"`
	MaxEasting  float64 `yaml:"max_easting" validate:"gtefield=MinEasting"`
	MaxNorthing float64 `yaml:"max_northing" validate:"gtefield=MinNorthing"`
}

// Load reads and parses the reference document at path.
func Load(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference table: %w", err)
	}
	ref, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ref, nil
}

// Parse decodes a reference document. Unknown fields are rejected; tables
// other than the milepost and sign tables are ignored.
func Parse(data []byte) (*Reference, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode reference table: %w", err)
	}

	v := validator.New()
	if err := v.Struct(doc); err != nil {
		return nil, fmt.Errorf("validate reference table: %w", err)
	}

	var (
		mileposts []domain.MilepostRecord
		rules     []domain.SignRule
		seenCars  bool
	)
	for _, t := range doc.Tables {
		switch t.Name {
		case TableMileposts:
			seenCars = true
			for i, rec := range t.Records {
				mp, err := milepost(v, rec)
				if err != nil {
					return nil, fmt.Errorf("table %s record %d: %w", t.Name, i, err)
				}
				mileposts = append(mileposts, mp)
			}
		case TableSigns:
			for i, rec := range t.Records {
				row := signRow{EventType: rec.EventType, SubType: rec.SubType, Sign: rec.Sign}
				if err := v.Struct(row); err != nil {
					return nil, fmt.Errorf("table %s record %d: %w", t.Name, i, err)
				}
				rules = append(rules, domain.SignRule(row))
			}
		}
	}
	if !seenCars {
		return nil, errors.New("reference table: missing table " + TableMileposts)
	}

	routes, err := domain.NewRouteIndex(mileposts)
	if err != nil {
		return nil, fmt.Errorf("index mileposts: %w", err)
	}

	region := domain.D10Region()
	if len(doc.Regions) > 0 {
		rects := make([]domain.Rectangle, len(doc.Regions))
		for i, r := range doc.Regions {
			rects[i] = domain.Rectangle(r)
		}
		if region, err = domain.NewRegion(rects...); err != nil {
			return nil, err
		}
	}

	return &Reference{
		Routes: routes,
		Signs:  domain.NewSignTable(rules),
		Region: region,
	}, nil
}

func milepost(v *validator.Validate, rec record) (domain.MilepostRecord, error) {
	row := milepostRow{
		Route:       strings.TrimSpace(rec.Route),
		ActualMiles: strings.TrimSpace(rec.ActualMiles),
		BriefName:   strings.TrimSpace(rec.BriefName),
		Bearing:     strings.TrimSpace(rec.Bearing),
	}
	if err := v.Struct(row); err != nil {
		return domain.MilepostRecord{}, err
	}
	mile, err := strconv.ParseFloat(row.ActualMiles, 64)
	if err != nil {
		return domain.MilepostRecord{}, fmt.Errorf("actual_miles %q: %w", row.ActualMiles, domain.ErrMalformedCoordinate)
	}
	return domain.MilepostRecord{
		Route:     row.Route,
		Mile:      mile,
		BriefName: row.BriefName,
		Bearing:   domain.ParseDirection(row.Bearing),
		Metro:     parseMetro(rec.Metro),
	}, nil
}

func parseMetro(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "y", "yes", "1":
		return true
	default:
		return false
	}
}
