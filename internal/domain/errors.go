package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCoordinate marks unparsable numeric location fields.
	ErrMalformedCoordinate = errors.New("malformed coordinate")
	// ErrUnknownRoute marks a roadway with no milepost records.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrUnknownZone marks an unmapped dispatch-center id. It is never fatal.
	ErrUnknownZone = errors.New("unknown survey zone")
	// ErrTimeParse marks an unparsable feed timestamp.
	ErrTimeParse = errors.New("time parse failure")
	// ErrEmptyEventList marks a feed record without sub-events.
	ErrEmptyEventList = errors.New("empty event list")
	// ErrMissingField marks a required record field that is absent.
	ErrMissingField = errors.New("missing field")
)

// RecordError ties a normalization failure to the feed record that caused it.
type RecordError struct {
	MessageID string
	Route     string
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s (route %q): %v", e.MessageID, e.Route, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ErrorKind maps an error to a stable label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedCoordinate):
		return "malformed_coordinate"
	case errors.Is(err, ErrUnknownRoute):
		return "unknown_route"
	case errors.Is(err, ErrUnknownZone):
		return "unknown_zone"
	case errors.Is(err, ErrTimeParse):
		return "time_parse"
	case errors.Is(err, ErrEmptyEventList):
		return "empty_event_list"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	default:
		return "other"
	}
}
