package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-05-01 is a Wednesday.
var testNow = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func TestRecurringSchedule_OneShot(t *testing.T) {
	t.Run("within duration", func(t *testing.T) {
		s := RecurringSchedule{Start: testNow.Add(-30 * time.Minute), DurationMinutes: 60}
		assert.True(t, s.ValidAt(testNow))
	})

	t.Run("past duration", func(t *testing.T) {
		s := RecurringSchedule{Start: testNow.Add(-90 * time.Minute), DurationMinutes: 60}
		assert.False(t, s.ValidAt(testNow))
	})

	t.Run("not started", func(t *testing.T) {
		s := RecurringSchedule{Start: testNow.Add(time.Minute), DurationMinutes: 60}
		assert.False(t, s.ValidAt(testNow))
	})

	t.Run("explicit end wins over duration", func(t *testing.T) {
		s := RecurringSchedule{
			Start:           testNow.Add(-3 * time.Hour),
			End:             testNow.Add(time.Hour),
			DurationMinutes: 10,
		}
		assert.True(t, s.ValidAt(testNow))
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		s := RecurringSchedule{Start: testNow, End: testNow.Add(time.Hour)}
		assert.True(t, s.ValidAt(testNow))
		assert.True(t, s.ValidAt(testNow.Add(time.Hour)))
		assert.False(t, s.ValidAt(testNow.Add(time.Hour+time.Second)))
	})

	t.Run("until further notice", func(t *testing.T) {
		s := RecurringSchedule{Start: testNow.AddDate(-10, 0, 0), DurationMinutes: IndefiniteDuration}
		assert.True(t, s.ValidAt(testNow))
		_, bounded := s.Until()
		assert.False(t, bounded)
	})

	t.Run("zero duration without end", func(t *testing.T) {
		s := RecurringSchedule{Start: testNow.Add(-time.Minute)}
		assert.False(t, s.ValidAt(testNow))
	})
}

func TestRecurringSchedule_Recurrent(t *testing.T) {
	base := RecurringSchedule{Start: testNow.AddDate(0, -1, 0), Recurrent: true}

	t.Run("today's bit unset", func(t *testing.T) {
		s := base
		s.Days = MaskDaily &^ MaskWednesday
		for h := 0; h < 24; h++ {
			now := time.Date(2024, time.May, 1, h, 30, 0, 0, time.UTC)
			assert.False(t, s.ValidAt(now), "hour %d", h)
		}
	})

	t.Run("today's bit set, no daily window", func(t *testing.T) {
		s := base
		s.Days = MaskWednesday
		assert.True(t, s.ValidAt(testNow))
		assert.True(t, s.ValidAt(time.Date(2024, time.May, 1, 23, 59, 0, 0, time.UTC)))
	})

	t.Run("daily window", func(t *testing.T) {
		s := base
		s.Days = MaskWeekdays
		s.DailyStart, s.DailyEnd = "0900", "1530"
		assert.True(t, s.ValidAt(testNow))
		assert.True(t, s.ValidAt(time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)))
		assert.False(t, s.ValidAt(time.Date(2024, time.May, 1, 8, 59, 0, 0, time.UTC)))
		assert.False(t, s.ValidAt(time.Date(2024, time.May, 1, 15, 31, 0, 0, time.UTC)))
	})

	t.Run("overnight window", func(t *testing.T) {
		s := base
		s.Days = MaskDaily
		s.DailyStart, s.DailyEnd = "2200", "0500"
		assert.True(t, s.ValidAt(time.Date(2024, time.May, 1, 23, 0, 0, 0, time.UTC)))
		assert.True(t, s.ValidAt(time.Date(2024, time.May, 1, 4, 0, 0, 0, time.UTC)))
		assert.False(t, s.ValidAt(testNow))
	})

	t.Run("weekday in schedule location", func(t *testing.T) {
		chicago := time.FixedZone("CDT", -5*3600)
		s := base
		s.Days = MaskTuesday
		s.Location = chicago
		// 03:00 UTC Wednesday is still Tuesday evening in Chicago.
		assert.True(t, s.ValidAt(time.Date(2024, time.May, 1, 3, 0, 0, 0, time.UTC)))
	})
}

func TestRecurringSchedule_IsValidUsesClock(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { SetClock(nil) })

	s := RecurringSchedule{Start: testNow.Add(-30 * time.Minute), DurationMinutes: 60}
	assert.True(t, s.IsValid())
	SetClock(clockwork.NewFakeClockAt(testNow.Add(time.Hour)))
	assert.False(t, s.IsValid())
}

func TestWeekdayMaskString(t *testing.T) {
	tests := []struct {
		mask WeekdayMask
		want string
	}{
		{MaskDaily, "daily"},
		{MaskWeekdays, "Weekdays"},
		{MaskWeekdays | MaskSaturday, "Weekdays and Saturdays"},
		{MaskWeekdays | MaskSunday, "Weekdays and Sundays"},
		{MaskWeekends, "Weekends"},
		{MaskWeekends | MaskMonday, "Weekends, Mondays"},
		{MaskTuesday | MaskThursday, "Tuesdays, Thursdays"},
		{MaskFriday | MaskSunday, "Fridays, Sundays"},
		{0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mask.String())
		})
	}
}

func TestWeekdayMaskBits(t *testing.T) {
	assert.Equal(t, WeekdayMask(1), MaskOf(time.Sunday))
	assert.Equal(t, WeekdayMask(64), MaskOf(time.Saturday))
	assert.Equal(t, WeekdayMask(62), MaskWeekdays)
	assert.True(t, MaskWeekends.Has(time.Sunday))
	assert.False(t, MaskWeekends.Has(time.Monday))
}

func TestRecurringSchedule_Describe(t *testing.T) {
	start := time.Date(2024, time.May, 1, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		s    RecurringSchedule
		now  time.Time
		want string
	}{
		{
			name: "explicit end",
			s:    RecurringSchedule{Start: start, End: start.Add(26 * time.Hour)},
			want: "since 7:00 AM, 05/01/24 until 9:00 AM, 05/02/24",
		},
		{
			name: "until further notice",
			s:    RecurringSchedule{Start: start, DurationMinutes: IndefiniteDuration},
			want: "since 7:00 AM, 05/01/24 until further notice",
		},
		{
			name: "remaining duration",
			s:    RecurringSchedule{Start: start, DurationMinutes: 1440 + 180},
			now:  start.Add(59 * time.Minute),
			want: "since 7:00 AM, 05/01/24 for the next day, 2 hours, minute",
		},
		{
			name: "elapsed duration",
			s:    RecurringSchedule{Start: start, DurationMinutes: 30},
			now:  start.Add(time.Hour),
			want: "since 7:00 AM, 05/01/24",
		},
		{
			name: "recurrent weekdays with window",
			s: RecurringSchedule{
				Start: start, DurationMinutes: IndefiniteDuration, Recurrent: true,
				Days: MaskWeekdays, Qualifier: "during the day", DailyStart: "0900", DailyEnd: "1530",
			},
			want: "since 7:00 AM, 05/01/24 until further notice on Weekdays during the day from 09:00 to 15:30",
		},
		{
			name: "recurrent daily",
			s:    RecurringSchedule{Start: start, End: start.Add(time.Hour), Recurrent: true, Days: MaskDaily},
			want: "since 7:00 AM, 05/01/24 until 8:00 AM, 05/01/24 daily",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			if now.IsZero() {
				now = start
			}
			assert.Equal(t, tt.want, tt.s.Describe(now))
		})
	}
}

func TestNewSimpleTimestamp(t *testing.T) {
	la := time.FixedZone("PST", -8*3600)

	t.Run("chp log time", func(t *testing.T) {
		ts, err := NewSimpleTimestamp("2/8/2008 8:21:08 AM", la)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2008, 2, 8, 8, 21, 8, 0, la), ts.Logged)
		assert.True(t, ts.IsValid())
		assert.True(t, ts.ValidAt(time.Time{}))
		assert.Equal(t, "logged 8:21 AM, 02/08/08", ts.Describe(testNow))
	})

	t.Run("quoted, single-digit fields", func(t *testing.T) {
		ts, err := NewSimpleTimestamp(`"12/25/2023 1:5:9 PM"`, la)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 12, 25, 13, 5, 9, 0, la), ts.Logged)
	})

	t.Run("two-digit year", func(t *testing.T) {
		ts, err := NewSimpleTimestamp("2/8/08 8:21:08 PM", la)
		require.NoError(t, err)
		assert.Equal(t, 2008, ts.Logged.Year())
	})

	t.Run("parse failure is an error", func(t *testing.T) {
		_, err := NewSimpleTimestamp("yesterday", la)
		require.ErrorIs(t, err, ErrTimeParse)

		_, err = NewSimpleTimestamp(`""`, la)
		require.ErrorIs(t, err, ErrTimeParse)
	})
}

func TestParseCARSTime(t *testing.T) {
	t.Run("offset after Z", func(t *testing.T) {
		got, err := ParseCARSTime("2024-05-01T07:00:00Z-05:00")
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
		_, offset := got.Zone()
		assert.Equal(t, -5*3600, offset)
	})

	t.Run("unsigned offset after Z", func(t *testing.T) {
		got, err := ParseCARSTime("2024-05-01T07:00:00Z05:30")
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2024, 5, 1, 1, 30, 0, 0, time.UTC)))
		_, offset := got.Zone()
		assert.Equal(t, 5*3600+30*60, offset)
	})

	t.Run("rfc3339", func(t *testing.T) {
		got, err := ParseCARSTime("2024-05-01T07:00:00Z")
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseCARSTime("May 1")
		require.ErrorIs(t, err, ErrTimeParse)
	})
}

func TestParseScheduleTimes(t *testing.T) {
	start, end, err := ParseScheduleTimes("09001530")
	require.NoError(t, err)
	assert.Equal(t, "0900", start)
	assert.Equal(t, "1530", end)

	start, end, err = ParseScheduleTimes("")
	require.NoError(t, err)
	assert.Empty(t, start)
	assert.Empty(t, end)

	_, _, err = ParseScheduleTimes("0900")
	require.ErrorIs(t, err, ErrTimeParse)
	_, _, err = ParseScheduleTimes("25001530")
	require.ErrorIs(t, err, ErrTimeParse)
}

func TestParseQualifier(t *testing.T) {
	assert.Equal(t, "", ParseQualifier("not-specified"))
	assert.Equal(t, "during the day", ParseQualifier("during-the-day"))
	assert.Equal(t, "", ParseQualifier(""))
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "hour", formatRemaining(60))
	assert.Equal(t, "2 days, minute", formatRemaining(2*1440+1))
	assert.Equal(t, "45 minutes", formatRemaining(45))
}
