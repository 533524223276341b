package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

func TestParseCronExpressionRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"* * * *",
		"* * * * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"* * * 13 *",
		"* * * * 7",
		"abc * * * *",
	}
	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, "expression %q should not parse", expr)
	}
}

func TestMustParseCronExpressionPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParseCronExpression("not a cron")
	})
	assert.NotPanics(t, func() {
		MustParseCronExpression(EveryDayMidnight)
	})
}

func TestCronNextEveryMinute(t *testing.T) {
	ce := MustParseCronExpression("* * * * *")
	after := time.Date(2024, 2, 15, 10, 30, 45, 0, timeutil.MoscowTZ)
	next := ce.Next(after)
	assert.Equal(t, time.Date(2024, 2, 15, 10, 31, 0, 0, timeutil.MoscowTZ), next)
}

func TestCronNextDaily(t *testing.T) {
	ce := MustParseCronExpression("0 9 * * *")

	// Before nine: today at nine.
	after := time.Date(2024, 2, 15, 8, 0, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, time.Date(2024, 2, 15, 9, 0, 0, 0, timeutil.MoscowTZ), ce.Next(after))

	// After nine: tomorrow at nine.
	after = time.Date(2024, 2, 15, 9, 0, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, time.Date(2024, 2, 16, 9, 0, 0, 0, timeutil.MoscowTZ), ce.Next(after))
}

func TestCronNextWeekday(t *testing.T) {
	ce := MustParseCronExpression(EveryMondayMorning)

	// Thursday Feb 15 2024: next Monday is Feb 19.
	after := time.Date(2024, 2, 15, 12, 0, 0, 0, timeutil.MoscowTZ)
	next := ce.Next(after)
	assert.Equal(t, time.Date(2024, 2, 19, 9, 0, 0, 0, timeutil.MoscowTZ), next)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestCronNextFirstOfMonth(t *testing.T) {
	ce := MustParseCronExpression(FirstOfMonth10AM)

	after := time.Date(2024, 2, 15, 12, 0, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, timeutil.MoscowTZ), ce.Next(after))

	// Across the year boundary.
	after = time.Date(2024, 12, 10, 12, 0, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, timeutil.MoscowTZ), ce.Next(after))
}

func TestCronNextStepAndRange(t *testing.T) {
	ce := MustParseCronExpression("*/15 9-10 * * *")

	after := time.Date(2024, 2, 15, 9, 16, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, time.Date(2024, 2, 15, 9, 30, 0, 0, timeutil.MoscowTZ), ce.Next(after))

	after = time.Date(2024, 2, 15, 10, 46, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, time.Date(2024, 2, 16, 9, 0, 0, 0, timeutil.MoscowTZ), ce.Next(after))
}

func TestCronNextList(t *testing.T) {
	ce, err := ParseCronExpression("0 9,18 * * *")
	require.NoError(t, err)

	after := time.Date(2024, 2, 15, 10, 0, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, time.Date(2024, 2, 15, 18, 0, 0, 0, timeutil.MoscowTZ), ce.Next(after))
}

func TestCronString(t *testing.T) {
	ce := MustParseCronExpression("0 10 1 * *")
	assert.Equal(t, "0 10 1 * *", ce.String())
}

func TestIntervalScheduleNext(t *testing.T) {
	s := Every(10 * time.Minute)
	now := time.Date(2024, 2, 15, 10, 0, 0, 0, timeutil.MoscowTZ)
	assert.Equal(t, now.Add(10*time.Minute), s.Next(now))
	assert.Equal(t, "every 10m0s", s.String())
}

func TestIntervalScheduleZero(t *testing.T) {
	s := Every(0)
	assert.True(t, s.Next(time.Now()).IsZero())
}
