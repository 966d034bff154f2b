package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IndefiniteDuration is the duration value meaning "until further notice".
const IndefiniteDuration = 2000000

const (
	minutesPerDay = 1440

	// describeLayout renders instants in human-readable descriptions.
	describeLayout = "3:04 PM, 01/02/06"
	// chpLogLayout matches "2/8/2008 8:21:08 AM".
	chpLogLayout      = "1/2/2006 3:4:5 PM"
	chpLogShortLayout = "1/2/06 3:4:5 PM"
	// carsZonedLayout is the CARS date with the literal Z removed.
	carsZonedLayout = "2006-01-02T15:04:05-07:00"
)

// EventTime is the time window of an incident. Validity is evaluated
// against a supplied instant and never cached.
type EventTime interface {
	// ValidAt reports whether the window is active at now.
	ValidAt(now time.Time) bool
	// IsValid reports whether the window is active at the package clock.
	IsValid() bool
	// Describe renders the window as display text.
	Describe(now time.Time) string
}

// SimpleTimestamp is the instant a record was logged. Once constructed it
// is always valid, since a parse failure fails construction.
type SimpleTimestamp struct {
	Logged time.Time
}

// NewSimpleTimestamp parses a CHP log time ("2/8/2008 8:21:08 AM") in loc.
// Enclosing double quotes are stripped first.
func NewSimpleTimestamp(raw string, loc *time.Location) (SimpleTimestamp, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return SimpleTimestamp{}, fmt.Errorf("log time: %w: empty", ErrTimeParse)
	}
	t, err := time.ParseInLocation(chpLogLayout, s, loc)
	if err != nil {
		var shortErr error
		if t, shortErr = time.ParseInLocation(chpLogShortLayout, s, loc); shortErr != nil {
			return SimpleTimestamp{}, fmt.Errorf("log time %q: %w: %v", s, ErrTimeParse, err)
		}
	}
	return SimpleTimestamp{Logged: t}, nil
}

func (SimpleTimestamp) ValidAt(time.Time) bool { return true }

func (SimpleTimestamp) IsValid() bool { return true }

func (t SimpleTimestamp) Describe(time.Time) string {
	return "logged " + t.Logged.Format(describeLayout)
}

// WeekdayMask is a set of days, one bit per day.
type WeekdayMask uint8

const (
	MaskSunday WeekdayMask = 1 << iota
	MaskMonday
	MaskTuesday
	MaskWednesday
	MaskThursday
	MaskFriday
	MaskSaturday

	MaskWeekdays = MaskMonday | MaskTuesday | MaskWednesday | MaskThursday | MaskFriday
	MaskWeekends = MaskSunday | MaskSaturday
	MaskDaily    = MaskWeekdays | MaskWeekends
)

var dayNames = [7]string{"Sundays", "Mondays", "Tuesdays", "Wednesdays", "Thursdays", "Fridays", "Saturdays"}

// MaskOf returns the bit for a weekday.
func MaskOf(d time.Weekday) WeekdayMask {
	return 1 << uint(d)
}

// Has reports whether the day's bit is set.
func (m WeekdayMask) Has(d time.Weekday) bool {
	bit := MaskOf(d)
	return m&bit == bit
}

// String renders the mask compactly: "daily", "Weekdays and Saturdays",
// "Weekends, Mondays", "Tuesdays, Thursdays". An empty mask renders "".
func (m WeekdayMask) String() string {
	m &= MaskDaily
	switch {
	case m == MaskDaily:
		return "daily"
	case m&MaskWeekdays == MaskWeekdays:
		if m.Has(time.Saturday) {
			return "Weekdays and Saturdays"
		}
		if m.Has(time.Sunday) {
			return "Weekdays and Sundays"
		}
		return "Weekdays"
	}

	var parts []string
	rest := m
	if m&MaskWeekends == MaskWeekends {
		parts = append(parts, "Weekends")
		rest &^= MaskWeekends
	}
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		if rest.Has(d) {
			parts = append(parts, dayNames[d])
		}
	}
	return strings.Join(parts, ", ")
}

// RecurringSchedule is a CARS event timeline: a start, an optional end or
// duration, and for recurrent events a weekly day mask with an optional
// daily sub-window.
type RecurringSchedule struct {
	Start           time.Time
	End             time.Time // zero when the feed gave none
	DurationMinutes int
	Recurrent       bool
	Days            WeekdayMask
	DailyStart      string // "HHMM", empty when active all day
	DailyEnd        string
	Qualifier       string
	// Location sets the wall clock used for the weekday and the daily
	// window. Nil uses the location of the instant being tested.
	Location *time.Location
}

// Until reports the end of a one-shot window. ok is false when the window
// is unbounded.
func (s RecurringSchedule) Until() (end time.Time, ok bool) {
	if !s.End.IsZero() {
		return s.End, true
	}
	if s.DurationMinutes == IndefiniteDuration {
		return time.Time{}, false
	}
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute), true
}

// ValidAt reports whether now falls in the window. Bounds are inclusive.
// A daily window whose end precedes its start runs overnight.
func (s RecurringSchedule) ValidAt(now time.Time) bool {
	if !s.Recurrent {
		if now.Before(s.Start) {
			return false
		}
		end, bounded := s.Until()
		return !bounded || !now.After(end)
	}

	if s.Location != nil {
		now = now.In(s.Location)
	}
	if !s.Days.Has(now.Weekday()) {
		return false
	}
	if s.DailyStart == "" {
		return true
	}
	start, err := clockOn(now, s.DailyStart)
	if err != nil {
		return false
	}
	end, err := clockOn(now, s.DailyEnd)
	if err != nil {
		return false
	}
	if end.Before(start) {
		return !now.Before(start) || !now.After(end)
	}
	return !now.Before(start) && !now.After(end)
}

func (s RecurringSchedule) IsValid() bool {
	return s.ValidAt(Now())
}

// Describe renders e.g. "since 7:00 AM, 05/01/24 until further notice on
// Weekdays from 09:00 to 15:30".
func (s RecurringSchedule) Describe(now time.Time) string {
	var b strings.Builder
	b.WriteString("since ")
	b.WriteString(s.inLocation(s.Start).Format(describeLayout))
	switch {
	case !s.End.IsZero():
		b.WriteString(" until ")
		b.WriteString(s.inLocation(s.End).Format(describeLayout))
	case s.DurationMinutes == IndefiniteDuration:
		b.WriteString(" until further notice")
	case s.DurationMinutes > 0:
		past := int(now.Sub(s.Start) / time.Minute)
		if remaining := s.DurationMinutes - past; remaining > 0 {
			b.WriteString(" for the next ")
			b.WriteString(formatRemaining(remaining))
		}
	}
	if !s.Recurrent {
		return b.String()
	}
	if days := s.Days.String(); days == "daily" {
		b.WriteString(" daily")
	} else if days != "" {
		b.WriteString(" on ")
		b.WriteString(days)
	}
	if s.Qualifier != "" {
		b.WriteString(" ")
		b.WriteString(s.Qualifier)
	}
	if len(s.DailyStart) == 4 && len(s.DailyEnd) == 4 {
		fmt.Fprintf(&b, " from %s:%s to %s:%s", s.DailyStart[:2], s.DailyStart[2:], s.DailyEnd[:2], s.DailyEnd[2:])
	}
	return b.String()
}

func (s RecurringSchedule) inLocation(t time.Time) time.Time {
	if s.Location != nil {
		return t.In(s.Location)
	}
	return t
}

// formatRemaining renders minutes as "2 days, 3 hours, 1 minute"; a single
// unit drops its count ("hour").
func formatRemaining(minutes int) string {
	units := []struct {
		name  string
		value int
	}{
		{"day", minutes / minutesPerDay},
		{"hour", minutes % minutesPerDay / 60},
		{"minute", minutes % 60},
	}
	var parts []string
	for _, u := range units {
		switch {
		case u.value == 1:
			parts = append(parts, u.name)
		case u.value > 1:
			parts = append(parts, strconv.Itoa(u.value)+" "+u.name+"s")
		}
	}
	return strings.Join(parts, ", ")
}

// clockOn returns the "HHMM" time of day on now's date and location.
func clockOn(now time.Time, hhmm string) (time.Time, error) {
	h, m, err := parseHHMM(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d, h, m, 0, 0, now.Location()), nil
}

func parseHHMM(hhmm string) (hour, minute int, err error) {
	if len(hhmm) != 4 {
		return 0, 0, fmt.Errorf("schedule time %q: %w: want HHMM", hhmm, ErrTimeParse)
	}
	hour, herr := strconv.Atoi(hhmm[:2])
	minute, merr := strconv.Atoi(hhmm[2:])
	if herr != nil || merr != nil || hour > 23 || minute > 59 || hour < 0 || minute < 0 {
		return 0, 0, fmt.Errorf("schedule time %q: %w", hhmm, ErrTimeParse)
	}
	return hour, minute, nil
}

// ParseScheduleTimes splits "HHMMHHMM" into its daily start and end. An
// empty value means no daily window.
func ParseScheduleTimes(s string) (start, end string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", nil
	}
	if len(s) != 8 {
		return "", "", fmt.Errorf("schedule times %q: %w: want HHMMHHMM", s, ErrTimeParse)
	}
	start, end = s[:4], s[4:]
	if _, _, err := parseHHMM(start); err != nil {
		return "", "", err
	}
	if _, _, err := parseHHMM(end); err != nil {
		return "", "", err
	}
	return start, end, nil
}

// ParseQualifier normalizes an effective-period qualifier: "not-specified"
// is dropped and dashes become spaces.
func ParseQualifier(q string) string {
	q = strings.TrimSpace(q)
	if q == "not-specified" {
		return ""
	}
	return strings.ReplaceAll(q, "-", " ")
}

// ParseCARSTime parses a CARS date such as "2024-05-01T07:00:00Z-05:00",
// where the offset trails a literal Z, and falls back to RFC 3339.
func ParseCARSTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 20 && s[19] == 'Z' {
		// Positive offsets are written without a sign: "Z05:30".
		offset := s[20:]
		if offset[0] >= '0' && offset[0] <= '9' {
			offset = "+" + offset
		}
		if t, err := time.Parse(carsZonedLayout, s[:19]+offset); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cars time %q: %w: %v", s, ErrTimeParse, err)
	}
	return t, nil
}
