package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequiresTeacher(t *testing.T) {
	c := NewStatsCollector()
	err := c.Record(Event{ID: "ev1"})
	assert.ErrorIs(t, err, ErrNoTeacher)
}

func TestRecordCountsStatuses(t *testing.T) {
	c := NewStatsCollector()
	err := c.Record(Event{
		ID:       "ev1",
		Teachers: []string{"Иванова А.", "Петров Б."},
		Attendees: []Attendee{
			{StudentID: "s1", Status: StatusAttend},
			{StudentID: "s2", Status: StatusAttendedTrial},
			{StudentID: "s3", Status: StatusAttendedFreeTrial},
			{StudentID: "s4", Status: StatusWorkedOut},
			{StudentID: "s5", Status: StatusSkip},
			{StudentID: "s6", Status: StatusUnknown},
		},
	})
	require.NoError(t, err)

	stats := c.Drain()
	require.Contains(t, stats, "Иванова А.")
	// Only the first listed teacher gets the event.
	assert.NotContains(t, stats, "Петров Б.")

	s := stats["Иванова А."]
	assert.Equal(t, 1, s.Statuses.Attend)
	assert.Equal(t, 1, s.Statuses.AttendedTrial)
	assert.Equal(t, 1, s.Statuses.WorkedOut)
	assert.Equal(t, 1, s.Statuses.Skip)
	assert.Equal(t, 1, s.AttendancesCount)
}

func TestRecordIgnoresFreeTrials(t *testing.T) {
	c := NewStatsCollector()
	err := c.Record(Event{
		ID:        "ev1",
		Teachers:  []string{"Иванова А."},
		Attendees: []Attendee{{StudentID: "s1", Status: StatusAttendedFreeTrial}},
	})
	require.NoError(t, err)

	s := c.Drain()["Иванова А."]
	assert.Equal(t, 0, s.Statuses.AttendedTrial)
	assert.Equal(t, 0, s.AttendancesCount)
}

func TestRecordAllSkippedEventNotCounted(t *testing.T) {
	c := NewStatsCollector()
	err := c.Record(Event{
		ID:       "ev1",
		Teachers: []string{"Иванова А."},
		Attendees: []Attendee{
			{StudentID: "s1", Status: StatusSkip},
			{StudentID: "s2", Status: StatusSkip},
		},
	})
	require.NoError(t, err)

	s := c.Drain()["Иванова А."]
	assert.Equal(t, 2, s.Statuses.Skip)
	assert.Equal(t, 0, s.AttendancesCount)
}

func TestRecordAccumulatesAcrossEvents(t *testing.T) {
	c := NewStatsCollector()
	for i := 0; i < 3; i++ {
		err := c.Record(Event{
			Teachers:  []string{"Иванова А."},
			Attendees: []Attendee{{Status: StatusAttend}},
		})
		require.NoError(t, err)
	}

	s := c.Drain()["Иванова А."]
	assert.Equal(t, 3, s.Statuses.Attend)
	assert.Equal(t, 3, s.AttendancesCount)
}

func TestDrainResets(t *testing.T) {
	c := NewStatsCollector()
	require.NoError(t, c.Record(Event{
		Teachers:  []string{"Иванова А."},
		Attendees: []Attendee{{Status: StatusAttend}},
	}))

	first := c.Drain()
	assert.Len(t, first, 1)

	second := c.Drain()
	assert.Empty(t, second)
}

func TestStatusIsTrial(t *testing.T) {
	assert.True(t, StatusAttendedTrial.IsTrial())
	assert.True(t, StatusAttendedFreeTrial.IsTrial())
	assert.False(t, StatusAttend.IsTrial())
	assert.False(t, StatusSkip.IsTrial())
	assert.False(t, StatusUnknown.IsTrial())
}
