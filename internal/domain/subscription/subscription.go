// Package subscription holds the subscription record model and the filters
// that decide which records participate in lifecycle classification.
package subscription

import (
	"time"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/period"
)

// Record is a single subscription (абонемент) of a student as reported by
// the CRM. EndDate is nil for open passes that were sold without a fixed
// end, such as unredeemed trial lessons.
type Record struct {
	ID             string
	StudentID      string
	LessonQuantity int
	EndDate        *time.Time
	TotalPrice     float64
	GroupIDs       []string
}

// IsEligible reports whether the record is a real multi-lesson subscription.
// Trial and single-lesson passes never enter classification.
func (r Record) IsEligible() bool {
	return r.LessonQuantity > 1 && r.EndDate != nil
}

// Eligible keeps only real subscriptions: more than one lesson and a
// non-nil end date.
func Eligible(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsEligible() {
			out = append(out, r)
		}
	}
	return out
}

// BoundaryPolicy decides how period boundaries compare against end dates.
// The production report definitions diverged on this, so the policy is an
// explicit configuration choice rather than an implementation detail.
type BoundaryPolicy int

const (
	// BoundaryExclusive uses strict comparison: a subscription ending
	// exactly on a period boundary does not match. This is the default.
	BoundaryExclusive BoundaryPolicy = iota
	// BoundaryInclusive uses non-strict comparison: boundary dates match.
	BoundaryInclusive
)

// String returns the policy name for logs and config dumps.
func (p BoundaryPolicy) String() string {
	if p == BoundaryInclusive {
		return "inclusive"
	}
	return "exclusive"
}

// before reports a < b, or a <= b under the inclusive policy.
func (p BoundaryPolicy) before(a, b time.Time) bool {
	if p == BoundaryInclusive {
		return !a.After(b)
	}
	return a.Before(b)
}

// FilterByEndDate keeps records whose end date falls inside the period
// under the given boundary policy. Records without an end date are always
// dropped. An unbounded period keeps every dated record.
func FilterByEndDate(records []Record, p period.Period, policy BoundaryPolicy) []Record {
	start, hasStart := p.Start()
	end, hasEnd := p.End()

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.EndDate == nil {
			continue
		}
		d := *r.EndDate
		switch {
		case hasStart && hasEnd:
			if policy.before(start, d) && policy.before(d, end) {
				out = append(out, r)
			}
		case hasStart:
			if policy.before(start, d) {
				out = append(out, r)
			}
		case hasEnd:
			if policy.before(d, end) {
				out = append(out, r)
			}
		default:
			out = append(out, r)
		}
	}
	return out
}

// MostRecent returns the record with the latest end date, or the zero
// record and false when none of the records carries an end date.
func MostRecent(records []Record) (Record, bool) {
	var best Record
	found := false
	for _, r := range records {
		if r.EndDate == nil {
			continue
		}
		if !found || r.EndDate.After(*best.EndDate) {
			best = r
			found = true
		}
	}
	return best, found
}
