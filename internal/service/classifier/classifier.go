// Package classifier implements the subscription lifecycle classifier: it
// computes calendar periods, pulls raw records from a data source, narrows
// them through the subscription filters, and assigns each student a
// lifecycle bucket (non-renewed, renewed, ending-soon, trial-converted).
//
// Classification is sequential and deterministic: students in roster order,
// days ascending, events and attendees in data-source order. Running the
// classifier twice over identical data-source responses yields identical
// row sequences.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/group"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/period"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/shared"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/student"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/subscription"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

// DataSource is the abstract record source the classifier consumes. The
// period filter on ListSubscriptions is forwarded to the backend; the
// classifier still applies its own eligibility and end-date filters to
// whatever comes back.
type DataSource interface {
	ListStudents(ctx context.Context) ([]student.Student, error)
	ListSubscriptions(ctx context.Context, studentID string, p period.Period) ([]subscription.Record, error)
	ListAttendanceEvents(ctx context.Context, day time.Time, kind attendance.EventKind) ([]attendance.Event, error)
	GetGroupInfo(ctx context.Context, groupID string) (*group.Info, error)
}

// EndingSoonMode selects how the ending-soon report aggregates multiple
// qualifying subscriptions of one student.
type EndingSoonMode int

const (
	// PerSubscription emits one row per qualifying subscription. Default.
	PerSubscription EndingSoonMode = iota
	// PerStudentSum emits one row per student with prices summed.
	PerStudentSum
)

// String returns the mode name as used in configuration.
func (m EndingSoonMode) String() string {
	if m == PerStudentSum {
		return "per-student-sum"
	}
	return "per-subscription"
}

// DefaultCardLinkTemplate builds the CRM student-card URL from a student id.
const DefaultCardLinkTemplate = "https://paraplancrm.ru/crm/#/students/%s/groups"

// Config contains classifier policy choices.
type Config struct {
	// Boundary decides inclusive vs exclusive period boundary comparison.
	Boundary subscription.BoundaryPolicy

	// EndingSoon selects the ending-soon aggregation mode.
	EndingSoon EndingSoonMode

	// CardLinkTemplate formats a student id into a CRM card link.
	CardLinkTemplate string

	// Now supplies the reference date; defaults to Moscow wall clock.
	Now func() time.Time

	// Logger for structured logging.
	Logger *slog.Logger
}

// Classifier runs the four lifecycle reports against a data source.
type Classifier struct {
	source DataSource
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Classifier.
func New(source DataSource, cfg Config) *Classifier {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = timeutil.Now
	}
	if cfg.CardLinkTemplate == "" {
		cfg.CardLinkTemplate = DefaultCardLinkTemplate
	}
	return &Classifier{
		source: source,
		cfg:    cfg,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
}

func (c *Classifier) cardLink(studentID string) string {
	return fmt.Sprintf(c.cfg.CardLinkTemplate, studentID)
}

// eligibleSubscriptions fetches a student's subscriptions for the period
// and drops trial/single-lesson passes before they can enter classification.
func (c *Classifier) eligibleSubscriptions(ctx context.Context, studentID string, p period.Period) ([]subscription.Record, error) {
	subs, err := c.source.ListSubscriptions(ctx, studentID, p)
	if err != nil {
		return nil, err
	}
	return subscription.Eligible(subs), nil
}

// groupMeta resolves the display group type and teacher from a
// subscription's first group. Lookup failures degrade to placeholders: the
// row is still worth emitting without its group metadata.
func (c *Classifier) groupMeta(ctx context.Context, rec subscription.Record) (groupType, teacher string) {
	groupType, teacher = "-", "-"
	if len(rec.GroupIDs) == 0 {
		return
	}
	info, err := c.source.GetGroupInfo(ctx, rec.GroupIDs[0])
	if err != nil {
		c.logger.Warn("group lookup failed",
			"group_id", rec.GroupIDs[0],
			"subscription_id", rec.ID,
			"error", err,
		)
		return
	}
	if info.Type != "" {
		groupType = info.Type
	}
	teacher = info.PrimaryTeacher()
	return
}

// ══════════════════════════════════════════════════════════════════════════════
// NON-RENEWED IN MONTH
// ══════════════════════════════════════════════════════════════════════════════

// NonRenewedInMonth finds students whose subscription ran out in the
// previous month window and who have nothing in the current one. Per-student
// failures are logged and skipped; only a roster fetch failure or an
// authentication failure aborts the pass.
func (c *Classifier) NonRenewedInMonth(ctx context.Context) ([]RenewalStatusRow, error) {
	today := c.now()
	prev := period.Month(today, period.Previous)
	cur := period.Month(today, period.Current)

	students, err := c.source.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	rows := make([]RenewalStatusRow, 0)
	for _, s := range students {
		row, err := c.classifyMonthRenewal(ctx, s, prev, cur)
		if err != nil {
			if shared.IsFatal(err) {
				return nil, err
			}
			c.logger.Error("month renewal check failed, skipping student",
				"student_id", s.ID, "error", err)
			continue
		}
		if row == nil {
			continue
		}
		rows = append(rows, *row)
		c.logger.Info("student processed", "student_id", s.ID, "report", "non_renewed_month")
	}
	return rows, nil
}

func (c *Classifier) classifyMonthRenewal(ctx context.Context, s student.Student, prev, cur period.Period) (*RenewalStatusRow, error) {
	prevSubs, err := c.eligibleSubscriptions(ctx, s.ID, prev)
	if err != nil {
		return nil, err
	}
	if len(prevSubs) == 0 {
		// Nothing to renew.
		return nil, nil
	}

	curSubs, err := c.eligibleSubscriptions(ctx, s.ID, cur)
	if err != nil {
		return nil, err
	}
	if len(curSubs) > 0 {
		// Already renewed.
		return nil, nil
	}

	groupType, teacher := "-", "-"
	if latest, ok := subscription.MostRecent(prevSubs); ok {
		groupType, teacher = c.groupMeta(ctx, latest)
	}

	return &RenewalStatusRow{
		StudentName: s.Name,
		SubsEndDate: timeutil.FormatRuLongDate(*prevSubs[0].EndDate),
		CardLink:    c.cardLink(s.ID),
		GroupType:   groupType,
		Teacher:     teacher,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WEEK RENEWAL
// ══════════════════════════════════════════════════════════════════════════════

// WeekRenewal splits students with a subscription ending this week into
// those who already hold one ending after the week and those who do not.
// Students without a subscription ending this week stay out of the report.
func (c *Classifier) WeekRenewal(ctx context.Context) (*WeekReport, error) {
	today := c.now()
	week := period.CurrentWeek(today)
	after := period.AfterCurrentWeek(today)

	students, err := c.source.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	report := &WeekReport{
		Renewed:    make([]WeekEntry, 0),
		NonRenewed: make([]WeekEntry, 0),
	}
	for _, s := range students {
		renewed, entry, err := c.classifyWeekRenewal(ctx, s, week, after)
		if err != nil {
			if shared.IsFatal(err) {
				return nil, err
			}
			c.logger.Error("week renewal check failed, skipping student",
				"student_id", s.ID, "error", err)
			continue
		}
		if entry == nil {
			continue
		}
		if renewed {
			report.Renewed = append(report.Renewed, *entry)
		} else {
			report.NonRenewed = append(report.NonRenewed, *entry)
		}
		c.logger.Info("student processed", "student_id", s.ID, "report", "week_renewal")
	}
	return report, nil
}

func (c *Classifier) classifyWeekRenewal(ctx context.Context, s student.Student, week, after period.Period) (bool, *WeekEntry, error) {
	weekSubs, err := c.eligibleSubscriptions(ctx, s.ID, week)
	if err != nil {
		return false, nil, err
	}
	weekSubs = subscription.FilterByEndDate(weekSubs, week, c.cfg.Boundary)
	if len(weekSubs) == 0 {
		return false, nil, nil
	}

	afterSubs, err := c.eligibleSubscriptions(ctx, s.ID, after)
	if err != nil {
		return false, nil, err
	}
	afterSubs = subscription.FilterByEndDate(afterSubs, after, c.cfg.Boundary)

	groupType, teacher := c.groupMeta(ctx, weekSubs[0])
	entry := &WeekEntry{
		CardLink:  c.cardLink(s.ID),
		GroupType: groupType,
		Teacher:   teacher,
	}
	return len(afterSubs) > 0, entry, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENDING SOON
// ══════════════════════════════════════════════════════════════════════════════

// EndingSoon forecasts subscriptions ending in the next month window. In
// PerSubscription mode a student with several qualifying subscriptions
// appears once per subscription; in PerStudentSum mode prices are summed
// into one row carrying the earliest end date.
func (c *Classifier) EndingSoon(ctx context.Context) ([]EndingSoonRow, error) {
	next := period.Month(c.now(), period.Next)

	students, err := c.source.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	rows := make([]EndingSoonRow, 0)
	for _, s := range students {
		subs, err := c.eligibleSubscriptions(ctx, s.ID, next)
		if err != nil {
			if shared.IsFatal(err) {
				return nil, err
			}
			c.logger.Error("ending-soon check failed, skipping student",
				"student_id", s.ID, "error", err)
			continue
		}
		subs = subscription.FilterByEndDate(subs, next, c.cfg.Boundary)
		if len(subs) == 0 {
			continue
		}

		link := c.cardLink(s.ID)
		if c.cfg.EndingSoon == PerStudentSum {
			var total float64
			earliest := *subs[0].EndDate
			for _, sub := range subs {
				total += sub.TotalPrice
				if sub.EndDate.Before(earliest) {
					earliest = *sub.EndDate
				}
			}
			rows = append(rows, EndingSoonRow{
				TotalPrice:  total,
				SubsEndDate: timeutil.FormatRuLongDate(earliest),
				CardLink:    link,
			})
		} else {
			for _, sub := range subs {
				rows = append(rows, EndingSoonRow{
					TotalPrice:  sub.TotalPrice,
					SubsEndDate: timeutil.FormatRuLongDate(*sub.EndDate),
					CardLink:    link,
				})
			}
		}
		c.logger.Info("student processed", "student_id", s.ID, "report", "ending_soon")
	}
	return rows, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TRIAL CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

// TrialConversion walks every calendar day of the period, collects trial
// attendees from group and individual lessons, and marks whether each of
// them bought an eligible subscription on or after the attendance date.
// Output ordering is deterministic: days ascending, events and attendees in
// data-source order. Per-day and per-attendee failures are logged and
// skipped.
func (c *Classifier) TrialConversion(ctx context.Context, p period.Period) ([]TrialConversionRow, error) {
	start, hasStart := p.Start()
	end, hasEnd := p.End()
	if !hasStart || !hasEnd {
		return nil, shared.NewDomainError("classifier", "TrialConversion",
			shared.ErrInvalidPeriod, "trial conversion needs a bounded period")
	}

	rows := make([]TrialConversionRow, 0)
	err := timeutil.EachDay(start, end, func(day time.Time) error {
		for _, kind := range []attendance.EventKind{attendance.KindGroup, attendance.KindIndividual} {
			events, err := c.source.ListAttendanceEvents(ctx, day, kind)
			if err != nil {
				if shared.IsFatal(err) {
					return err
				}
				c.logger.Error("attendance fetch failed, skipping day",
					"date", timeutil.FormatDateStr(day), "kind", kind.String(), "error", err)
				continue
			}
			for _, ev := range events {
				dayRows, err := c.classifyTrialEvent(ctx, day, ev)
				if err != nil {
					return err // fatal only; transient ones are handled inside
				}
				rows = append(rows, dayRows...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Classifier) classifyTrialEvent(ctx context.Context, day time.Time, ev attendance.Event) ([]TrialConversionRow, error) {
	teachers := strings.Join(ev.Teachers, " ")
	dateStr := timeutil.FormatDateStr(day) + " " + timeutil.FormatTimeStr(ev.DateTime)

	rows := make([]TrialConversionRow, 0)
	for _, a := range ev.Attendees {
		if !a.Status.IsTrial() {
			continue
		}
		subs, err := c.eligibleSubscriptions(ctx, a.StudentID, period.LowerBounded(day))
		if err != nil {
			if shared.IsFatal(err) {
				return nil, err
			}
			c.logger.Error("subscription check failed, skipping attendee",
				"student_id", a.StudentID, "event_id", ev.ID,
				"date", timeutil.FormatDateStr(day), "error", err)
			continue
		}
		rows = append(rows, TrialConversionRow{
			StudentName: a.StudentName,
			CardLink:    c.cardLink(a.StudentID),
			Date:        dateStr,
			Subscribed:  len(subs) > 0,
			Teachers:    teachers,
		})
		c.logger.Info("student processed", "student_id", a.StudentID, "report", "trial_conversion")
	}
	return rows, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER STATS
// ══════════════════════════════════════════════════════════════════════════════

// CollectTeacherStats walks every calendar day of the period and feeds
// every group and individual lesson into the collector. The caller drains
// the collector when the batch is complete.
func (c *Classifier) CollectTeacherStats(ctx context.Context, p period.Period, collector *attendance.StatsCollector) error {
	start, hasStart := p.Start()
	end, hasEnd := p.End()
	if !hasStart || !hasEnd {
		return shared.NewDomainError("classifier", "CollectTeacherStats",
			shared.ErrInvalidPeriod, "teacher stats need a bounded period")
	}

	return timeutil.EachDay(start, end, func(day time.Time) error {
		for _, kind := range []attendance.EventKind{attendance.KindGroup, attendance.KindIndividual} {
			events, err := c.source.ListAttendanceEvents(ctx, day, kind)
			if err != nil {
				if shared.IsFatal(err) {
					return err
				}
				c.logger.Error("attendance fetch failed, skipping day",
					"date", timeutil.FormatDateStr(day), "kind", kind.String(), "error", err)
				continue
			}
			for _, ev := range events {
				if err := collector.Record(ev); err != nil {
					if errors.Is(err, attendance.ErrNoTeacher) {
						c.logger.Warn("event without teacher skipped", "event_id", ev.ID)
						continue
					}
					return err
				}
			}
		}
		return nil
	})
}
