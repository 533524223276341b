package jobs

import (
	"context"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/period"
)

// TrialConversionJob reports every trial visit of the current month together
// with whether the student bought a subscription afterwards.
type TrialConversionJob struct {
	deps Deps
}

func NewTrialConversionJob(deps Deps) *TrialConversionJob {
	deps.normalize()
	return &TrialConversionJob{deps: deps}
}

func (j *TrialConversionJob) Name() string { return KindTrialConversion }

func (j *TrialConversionJob) Description() string {
	return "trial visits of the current month and their conversion outcome"
}

func (j *TrialConversionJob) Run(ctx context.Context) error {
	return j.deps.run(ctx, KindTrialConversion, "Конверсия пробных занятий за месяц", func(ctx context.Context) (string, int, error) {
		p := period.Month(j.deps.Now(), period.Current)
		rows, err := j.deps.Classifier.TrialConversion(ctx, p)
		if err != nil {
			return "", 0, err
		}
		path, err := j.deps.Writer.WriteTrialConversion(rows)
		return path, len(rows), err
	})
}
