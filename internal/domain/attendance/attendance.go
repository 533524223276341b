// Package attendance holds attendance events, the closed attendance-status
// enumeration, and the per-teacher stats collector.
//
// Paraplan reports statuses as opaque UUID strings. They are resolved into
// the Status enum once, at the data-source boundary; classification logic
// never compares raw strings.
package attendance

import "time"

// Status is the closed set of attendance outcomes.
type Status int

const (
	// StatusUnknown marks a status UUID the mapper could not resolve.
	StatusUnknown Status = iota
	// StatusAttendedTrial is a paid trial lesson visit.
	StatusAttendedTrial
	// StatusAttendedFreeTrial is a free trial lesson visit.
	StatusAttendedFreeTrial
	// StatusWorkedOut is a make-up lesson for an earlier miss.
	StatusWorkedOut
	// StatusSkip is a missed lesson.
	StatusSkip
	// StatusAttend is a regular visit.
	StatusAttend
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusAttendedTrial:
		return "ATTENDED_TRIAL"
	case StatusAttendedFreeTrial:
		return "ATTENDED_FREE_TRIAL"
	case StatusWorkedOut:
		return "WORKED_OUT"
	case StatusSkip:
		return "SKIP"
	case StatusAttend:
		return "ATTEND"
	default:
		return "UNKNOWN"
	}
}

// IsTrial reports whether the status marks a trial lesson visit of either kind.
func (s Status) IsTrial() bool {
	return s == StatusAttendedTrial || s == StatusAttendedFreeTrial
}

// EventKind distinguishes group lessons from individual ones.
type EventKind int

const (
	// KindGroup is a group lesson.
	KindGroup EventKind = iota
	// KindIndividual is a one-on-one lesson.
	KindIndividual
)

// String returns the kind name as the CRM query parameter expects it.
func (k EventKind) String() string {
	if k == KindIndividual {
		return "INDIVIDUAL"
	}
	return "GROUP"
}

// Attendee is one student's presence record within an event.
type Attendee struct {
	StudentID   string
	StudentName string
	Status      Status
}

// Event is a single lesson occurrence with its attendee list.
type Event struct {
	ID        string
	DateTime  time.Time
	Teachers  []string
	Attendees []Attendee
}
