// Package jobs contains the scheduled report jobs of the hub. Every job
// follows the same shape: classify, render the workbook, deliver it, and
// journal the run.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/report"
	"github.com/paraplan-hub/paraplan-report-hub/internal/service/classifier"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

// Report kind names as journaled and logged.
const (
	KindMonthlyRenewal  = "monthly_renewal"
	KindWeeklyRenewal   = "weekly_renewal"
	KindEndingSoon      = "ending_soon"
	KindTrialConversion = "trial_conversion"
	KindTeacherStats    = "teacher_stats"
)

// Delivery sends a finished report file to the recipients.
type Delivery interface {
	Deliver(ctx context.Context, filePath, caption string) error
}

// RunRecorder journals finished runs. Implementations must tolerate being
// called with a failed run (empty path, zero rows).
type RunRecorder interface {
	RecordRun(ctx context.Context, kind string, startedAt, finishedAt time.Time, rowCount int, delivered bool, runErr error) error
}

// Deps bundles what every report job needs.
type Deps struct {
	Classifier *classifier.Classifier
	Writer     *report.ExcelWriter
	Delivery   Delivery

	// Recorder is optional; without it runs are only logged.
	Recorder RunRecorder

	// Now supplies the reference date for period computation.
	Now func() time.Time

	// Timeout bounds a single run. Zero disables the bound.
	Timeout time.Duration

	Logger *slog.Logger
}

func (d *Deps) normalize() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = timeutil.Now
	}
}

// produceFunc runs the classification and rendering of one report kind and
// returns the written file path and its data row count.
type produceFunc func(ctx context.Context) (path string, rows int, err error)

// run is the shared job body: produce, deliver, journal.
func (d *Deps) run(ctx context.Context, kind, caption string, produce produceFunc) error {
	d.normalize()

	startedAt := time.Now()
	d.Logger.Info("report job started", "kind", kind)

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	path, rows, err := produce(ctx)
	delivered := false
	if err == nil {
		if deliverErr := d.Delivery.Deliver(ctx, path, caption); deliverErr != nil {
			err = deliverErr
		} else {
			delivered = true
		}
	}

	finishedAt := time.Now()
	d.journal(kind, startedAt, finishedAt, rows, delivered, err)

	if err != nil {
		d.Logger.Error("report job failed", "kind", kind, "error", err)
		return err
	}
	d.Logger.Info("report job completed",
		"kind", kind, "rows", rows, "duration", finishedAt.Sub(startedAt).String())
	return nil
}

// journal records the run outside the job context so a cancelled run is
// still written.
func (d *Deps) journal(kind string, startedAt, finishedAt time.Time, rows int, delivered bool, runErr error) {
	if d.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.Recorder.RecordRun(ctx, kind, startedAt, finishedAt, rows, delivered, runErr); err != nil {
		d.Logger.Warn("run journal write failed", "kind", kind, "error", err)
	}
}
