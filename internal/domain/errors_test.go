package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("wrap: %w", ErrMalformedCoordinate), "malformed_coordinate"},
		{ErrUnknownRoute, "unknown_route"},
		{ErrUnknownZone, "unknown_zone"},
		{ErrTimeParse, "time_parse"},
		{&RecordError{MessageID: "m1", Err: ErrEmptyEventList}, "empty_event_list"},
		{ErrMissingField, "missing_field"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestRecordError(t *testing.T) {
	err := &RecordError{MessageID: "1234", Route: "94", Err: ErrTimeParse}
	assert.Equal(t, `record 1234 (route "94"): time parse failure`, err.Error())
	assert.ErrorIs(t, err, ErrTimeParse)
}
