package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionOpposite(t *testing.T) {
	tests := []struct {
		in, want Direction
	}{
		{North, South},
		{South, North},
		{East, West},
		{West, East},
		{Unknown, Unknown},
		{NorthSouth, NorthSouth},
		{EastWest, EastWest},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Opposite())
		})
	}

	t.Run("involution", func(t *testing.T) {
		for _, d := range []Direction{North, South, East, West} {
			assert.Equal(t, d, d.Opposite().Opposite())
		}
	})
}

func TestDirectionBoth(t *testing.T) {
	assert.Equal(t, NorthSouth, North.Both())
	assert.Equal(t, NorthSouth, South.Both())
	assert.Equal(t, EastWest, East.Both())
	assert.Equal(t, EastWest, West.Both())
	assert.Equal(t, Unknown, Unknown.Both())
	assert.Equal(t, NorthSouth, NorthSouth.Both())
}

func TestDirectionRendering(t *testing.T) {
	assert.Equal(t, "Northbound", North.String())
	assert.Equal(t, "NB", North.Abbrev())
	assert.Equal(t, byte('N'), North.Char())
	assert.Equal(t, byte('W'), West.Char())
	assert.Equal(t, byte('?'), NorthSouth.Char())
	assert.Equal(t, "Unknown", Direction(42).String())
	assert.Equal(t, "?", Direction(-1).Abbrev())
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"N", North},
		{"north", North},
		{"Northbound", North},
		{"NB", North},
		{"sb", South},
		{"E", East},
		{"W", West},
		{"WESTBOUND", West},
		{"N-S", NorthSouth},
		{"e-w", EastWest},
		{"", Unknown},
		{"?", Unknown},
		{"up", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirection(tt.in))
		})
	}
}

func TestDirectionText(t *testing.T) {
	b, err := East.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Eastbound", string(b))

	var d Direction
	require.NoError(t, d.UnmarshalText([]byte("Southbound")))
	assert.Equal(t, South, d)
}

func TestTravelDirection(t *testing.T) {
	assert.Equal(t, North, TravelDirection(LinkPositive, North))
	assert.Equal(t, South, TravelDirection(LinkNegative, North))
	assert.Equal(t, EastWest, TravelDirection(LinkBoth, West))
	assert.Equal(t, Unknown, TravelDirection("", North))
	assert.Equal(t, Unknown, TravelDirection("sideways", North))
}

func TestDirectionFromText(t *testing.T) {
	assert.Equal(t, North, DirectionFromText("NB SR99 JSO S UNION AV"))
	assert.Equal(t, West, DirectionFromText("I5 wb at Eight Mile Rd"))
	assert.Equal(t, Unknown, DirectionFromText("SBX ONRAMP"))
	assert.Equal(t, Unknown, DirectionFromText(""))
}
