package timeutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	// 23:30 UTC on Jan 31 is already Feb 1 in Moscow.
	utc := time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC)
	got := StartOfDay(utc)

	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 0, got.Hour())
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 28, DaysIn(1900, time.February)) // century, not leap
	assert.Equal(t, 29, DaysIn(2000, time.February)) // 400-year rule
	assert.Equal(t, 31, DaysIn(2024, time.January))
	assert.Equal(t, 30, DaysIn(2024, time.April))
}

func TestLastDayOfMonth(t *testing.T) {
	got := LastDayOfMonth(Date(2024, 2, 10))
	assert.Equal(t, Date(2024, 2, 29), got)

	got = LastDayOfMonth(Date(2023, 2, 1))
	assert.Equal(t, Date(2023, 2, 28), got)
}

func TestFormatRuLongDate(t *testing.T) {
	assert.Equal(t, "20 Января 2024", FormatRuLongDate(Date(2024, 1, 20)))
	assert.Equal(t, "1 Сентября 2025", FormatRuLongDate(Date(2025, 9, 1)))
}

func TestFormatDateAndTime(t *testing.T) {
	dt := time.Date(2024, 3, 5, 14, 7, 0, 0, MoscowTZ)
	assert.Equal(t, "2024-03-05", FormatDateStr(dt))
	assert.Equal(t, "14:07", FormatTimeStr(dt))
}

func TestEachDay(t *testing.T) {
	var days []string
	err := EachDay(Date(2024, 2, 27), Date(2024, 3, 1), func(day time.Time) error {
		days = append(days, FormatDateStr(day))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, days)
}

func TestEachDayStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := EachDay(Date(2024, 1, 1), Date(2024, 1, 10), func(day time.Time) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestMoscowTZ(t *testing.T) {
	name, offset := Date(2024, 1, 1).Zone()
	assert.Equal(t, "MSK", name)
	assert.Equal(t, 3*60*60, offset)
}
