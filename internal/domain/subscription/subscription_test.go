package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/period"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

func datePtr(year, month, day int) *time.Time {
	d := timeutil.Date(year, month, day)
	return &d
}

func TestIsEligible(t *testing.T) {
	assert.True(t, Record{LessonQuantity: 8, EndDate: datePtr(2024, 1, 31)}.IsEligible())

	// Single-lesson passes are trials regardless of end date.
	assert.False(t, Record{LessonQuantity: 1, EndDate: datePtr(2024, 1, 31)}.IsEligible())

	// Open passes without an end date never qualify.
	assert.False(t, Record{LessonQuantity: 8}.IsEligible())
}

func TestEligible(t *testing.T) {
	records := []Record{
		{ID: "real", LessonQuantity: 8, EndDate: datePtr(2024, 1, 20)},
		{ID: "trial", LessonQuantity: 1, EndDate: datePtr(2024, 1, 20)},
		{ID: "open", LessonQuantity: 4},
	}
	got := Eligible(records)
	require.Len(t, got, 1)
	assert.Equal(t, "real", got[0].ID)
}

func TestFilterByEndDateExclusive(t *testing.T) {
	p, err := period.Bounded(timeutil.Date(2024, 1, 1), timeutil.Date(2024, 1, 31))
	require.NoError(t, err)

	records := []Record{
		{ID: "inside", EndDate: datePtr(2024, 1, 15)},
		{ID: "on-start", EndDate: datePtr(2024, 1, 1)},
		{ID: "on-end", EndDate: datePtr(2024, 1, 31)},
		{ID: "before", EndDate: datePtr(2023, 12, 31)},
		{ID: "after", EndDate: datePtr(2024, 2, 1)},
		{ID: "dateless"},
	}

	got := FilterByEndDate(records, p, BoundaryExclusive)
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].ID)
}

func TestFilterByEndDateInclusive(t *testing.T) {
	p, err := period.Bounded(timeutil.Date(2024, 1, 1), timeutil.Date(2024, 1, 31))
	require.NoError(t, err)

	records := []Record{
		{ID: "inside", EndDate: datePtr(2024, 1, 15)},
		{ID: "on-start", EndDate: datePtr(2024, 1, 1)},
		{ID: "on-end", EndDate: datePtr(2024, 1, 31)},
		{ID: "after", EndDate: datePtr(2024, 2, 1)},
	}

	got := FilterByEndDate(records, p, BoundaryInclusive)
	require.Len(t, got, 3)
	assert.Equal(t, "inside", got[0].ID)
	assert.Equal(t, "on-start", got[1].ID)
	assert.Equal(t, "on-end", got[2].ID)
}

func TestFilterByEndDateLowerBounded(t *testing.T) {
	p := period.LowerBounded(timeutil.Date(2024, 2, 19))

	records := []Record{
		{ID: "later", EndDate: datePtr(2024, 3, 1)},
		{ID: "on-bound", EndDate: datePtr(2024, 2, 19)},
		{ID: "earlier", EndDate: datePtr(2024, 2, 10)},
	}

	got := FilterByEndDate(records, p, BoundaryExclusive)
	require.Len(t, got, 1)
	assert.Equal(t, "later", got[0].ID)

	got = FilterByEndDate(records, p, BoundaryInclusive)
	require.Len(t, got, 2)
}

func TestFilterByEndDateUnbounded(t *testing.T) {
	records := []Record{
		{ID: "a", EndDate: datePtr(2020, 1, 1)},
		{ID: "dateless"},
	}
	got := FilterByEndDate(records, period.Unbounded(), BoundaryExclusive)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestMostRecent(t *testing.T) {
	records := []Record{
		{ID: "old", EndDate: datePtr(2024, 1, 10)},
		{ID: "new", EndDate: datePtr(2024, 3, 10)},
		{ID: "mid", EndDate: datePtr(2024, 2, 10)},
		{ID: "dateless"},
	}

	best, ok := MostRecent(records)
	require.True(t, ok)
	assert.Equal(t, "new", best.ID)

	_, ok = MostRecent([]Record{{ID: "dateless"}})
	assert.False(t, ok)
}
