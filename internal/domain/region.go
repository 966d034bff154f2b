package domain

import (
	"fmt"
	"slices"
)

// Rectangle is an axis-aligned box in planar meters, edges inclusive.
type Rectangle struct {
	Name        string
	MinEasting  float64
	MinNorthing float64
	MaxEasting  float64
	MaxNorthing float64
}

// Contains reports whether the point lies inside or on the rectangle.
func (r Rectangle) Contains(easting, northing float64) bool {
	return easting >= r.MinEasting && easting <= r.MaxEasting &&
		northing >= r.MinNorthing && northing <= r.MaxNorthing
}

// Region is a union of rectangles. Rectangles may overlap.
type Region struct {
	rects []Rectangle
}

// NewRegion builds a region, rejecting inverted rectangles.
func NewRegion(rects ...Rectangle) (Region, error) {
	for i, r := range rects {
		if r.MinEasting > r.MaxEasting || r.MinNorthing > r.MaxNorthing {
			return Region{}, fmt.Errorf("region rectangle %d (%s): lower-left corner is above or right of upper-right", i, r.Name)
		}
	}
	return Region{rects: slices.Clone(rects)}, nil
}

// D10Region is the Caltrans District 10 service area in UTM zone 10.
func D10Region() Region {
	return Region{rects: []Rectangle{
		{Name: "d10-1", MinEasting: 625000, MinNorthing: 4137000, MaxEasting: 671000, MaxNorthing: 4235600},
		{Name: "d10-2", MinEasting: 671000, MinNorthing: 4137000, MaxEasting: 730000, MaxNorthing: 4269500},
		{Name: "d10-3", MinEasting: 730000, MinNorthing: 4113000, MaxEasting: 799000, MaxNorthing: 4306000},
		{Name: "d10-4", MinEasting: 658000, MinNorthing: 4080000, MaxEasting: 730000, MaxNorthing: 4137000},
	}}
}

// Contains reports whether any rectangle contains the point.
func (g Region) Contains(easting, northing float64) bool {
	for _, r := range g.rects {
		if r.Contains(easting, northing) {
			return true
		}
	}
	return false
}

// Rectangles returns a copy of the region's rectangles.
func (g Region) Rectangles() []Rectangle {
	return slices.Clone(g.rects)
}

// Empty reports whether the region has no rectangles.
func (g Region) Empty() bool {
	return len(g.rects) == 0
}
