package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/shared"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

func TestBoundedRejectsReversedRange(t *testing.T) {
	_, err := Bounded(timeutil.Date(2024, 2, 1), timeutil.Date(2024, 1, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidPeriod)
}

func TestMonthCurrent(t *testing.T) {
	// Mid-February reference: the Current window is the whole of January.
	p := Month(timeutil.Date(2024, 2, 15), Current)

	start, ok := p.Start()
	require.True(t, ok)
	end, ok := p.End()
	require.True(t, ok)

	assert.Equal(t, timeutil.Date(2024, 1, 1), start)
	assert.Equal(t, timeutil.Date(2024, 1, 31), end)
}

func TestMonthNextCoversLeapFebruary(t *testing.T) {
	// Next relative to mid-February 2024 is February itself, 29 days.
	p := Month(timeutil.Date(2024, 2, 15), Next)

	start, _ := p.Start()
	end, _ := p.End()
	assert.Equal(t, timeutil.Date(2024, 2, 1), start)
	assert.Equal(t, timeutil.Date(2024, 2, 29), end)
}

func TestMonthPreviousAcrossYearBoundary(t *testing.T) {
	// Current relative to Jan 10 is December; Previous is November.
	p := Month(timeutil.Date(2025, 1, 10), Previous)

	start, _ := p.Start()
	end, _ := p.End()
	assert.Equal(t, timeutil.Date(2024, 11, 1), start)
	assert.Equal(t, timeutil.Date(2024, 11, 30), end)
}

func TestMonthOnFirstDayOfMonth(t *testing.T) {
	// On the 1st the shifted end lands on the last day of the previous month.
	p := Month(timeutil.Date(2024, 3, 1), Current)

	start, _ := p.Start()
	end, _ := p.End()
	assert.Equal(t, timeutil.Date(2024, 2, 1), start)
	assert.Equal(t, timeutil.Date(2024, 2, 29), end)
}

func TestCurrentWeek(t *testing.T) {
	// 2024-02-15 is a Thursday; the week is Mon 12th through Sun 18th.
	p := CurrentWeek(timeutil.Date(2024, 2, 15))

	start, _ := p.Start()
	end, _ := p.End()
	assert.Equal(t, timeutil.Date(2024, 2, 12), start)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, timeutil.Date(2024, 2, 18), end)
	assert.Equal(t, time.Sunday, end.Weekday())
}

func TestCurrentWeekOnMonday(t *testing.T) {
	p := CurrentWeek(timeutil.Date(2024, 2, 12))
	start, _ := p.Start()
	assert.Equal(t, timeutil.Date(2024, 2, 12), start)
}

func TestCurrentWeekOnSunday(t *testing.T) {
	p := CurrentWeek(timeutil.Date(2024, 2, 18))
	start, _ := p.Start()
	end, _ := p.End()
	assert.Equal(t, timeutil.Date(2024, 2, 12), start)
	assert.Equal(t, timeutil.Date(2024, 2, 18), end)
}

func TestAfterCurrentWeek(t *testing.T) {
	p := AfterCurrentWeek(timeutil.Date(2024, 2, 15))

	assert.Equal(t, KindLowerBounded, p.Kind())
	start, ok := p.Start()
	require.True(t, ok)
	assert.Equal(t, timeutil.Date(2024, 2, 19), start)

	_, hasEnd := p.End()
	assert.False(t, hasEnd)
}

func TestString(t *testing.T) {
	p, err := Bounded(timeutil.Date(2024, 1, 1), timeutil.Date(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01..2024-01-31", p.String())

	assert.Equal(t, "2024-02-05..", LowerBounded(timeutil.Date(2024, 2, 5)).String())
	assert.Equal(t, "..2024-03-31", UpperBounded(timeutil.Date(2024, 3, 31)).String())
	assert.Equal(t, "*", Unbounded().String())
}
