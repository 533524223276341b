package attendance

import (
	"errors"
	"sync"
)

// ErrNoTeacher is returned when an event carries no teacher to attribute
// its attendance to.
var ErrNoTeacher = errors.New("attendance: event has no teacher")

// StatusCounts holds per-status counters for one teacher. Only the four
// statuses below are counted; free trials are not part of teacher stats.
type StatusCounts struct {
	AttendedTrial int
	WorkedOut     int
	Skip          int
	Attend        int
}

// TeacherStats is the accumulated attendance summary for one teacher.
type TeacherStats struct {
	Statuses StatusCounts
	// AttendancesCount is the number of events with at least one counted
	// non-skip attendee. An event where everyone skipped does not count.
	AttendancesCount int
}

// StatsCollector accumulates per-teacher attendance counters across one
// batch of events. Record and Drain are safe for concurrent use; Drain is
// atomic, so no caller can observe a partially-drained state.
type StatsCollector struct {
	mu   sync.Mutex
	data map[string]*TeacherStats
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{data: make(map[string]*TeacherStats)}
}

// Record attributes the event to its first listed teacher and updates that
// teacher's counters. The teacher's counters are zero-initialized on first
// sight. AttendancesCount grows by one for the whole event iff at least one
// attendee had a counted non-skip status.
func (c *StatsCollector) Record(ev Event) error {
	if len(ev.Teachers) == 0 {
		return ErrNoTeacher
	}
	teacher := ev.Teachers[0]

	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.data[teacher]
	if !ok {
		stats = &TeacherStats{}
		c.data[teacher] = stats
	}

	counted := false
	for _, a := range ev.Attendees {
		switch a.Status {
		case StatusAttendedTrial:
			stats.Statuses.AttendedTrial++
			counted = true
		case StatusWorkedOut:
			stats.Statuses.WorkedOut++
			counted = true
		case StatusAttend:
			stats.Statuses.Attend++
			counted = true
		case StatusSkip:
			stats.Statuses.Skip++
		}
	}

	if counted {
		stats.AttendancesCount++
	}
	return nil
}

// Drain returns the accumulated mapping and resets the collector to empty
// in one indivisible step. A second immediate Drain returns an empty map.
func (c *StatsCollector) Drain() map[string]TeacherStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]TeacherStats, len(c.data))
	for teacher, stats := range c.data {
		out[teacher] = *stats
	}
	c.data = make(map[string]*TeacherStats)
	return out
}
