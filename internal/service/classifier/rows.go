package classifier

// RenewalStatusRow is one student who did not renew after their previous
// month's subscription ran out.
type RenewalStatusRow struct {
	StudentName string
	SubsEndDate string // formatted, e.g. "20 Января 2024"
	CardLink    string
	GroupType   string
	Teacher     string
}

// WeekEntry is one student in the weekly renewal report.
type WeekEntry struct {
	CardLink  string
	GroupType string
	Teacher   string
}

// WeekReport splits students whose subscription ends this week into those
// who already bought a follow-up and those who did not.
type WeekReport struct {
	Renewed    []WeekEntry
	NonRenewed []WeekEntry
}

// Total is the number of students considered by the weekly report.
func (r *WeekReport) Total() int {
	return len(r.Renewed) + len(r.NonRenewed)
}

// EndingSoonRow is one forecast row for a subscription ending next month.
// In the per-student-sum mode TotalPrice aggregates all qualifying
// subscriptions of the student.
type EndingSoonRow struct {
	TotalPrice  float64
	SubsEndDate string
	CardLink    string
}

// TrialConversionRow is one (attendee, event) pair from the trial
// conversion report.
type TrialConversionRow struct {
	StudentName string
	CardLink    string
	Date        string // "YYYY-MM-DD HH:MM"
	Subscribed  bool
	Teachers    string // space-joined
}
