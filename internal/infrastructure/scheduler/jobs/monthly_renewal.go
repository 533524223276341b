package jobs

import (
	"context"
)

// MonthlyRenewalJob reports students whose subscriptions ended in the
// reporting month and were not renewed.
type MonthlyRenewalJob struct {
	deps Deps
}

func NewMonthlyRenewalJob(deps Deps) *MonthlyRenewalJob {
	deps.normalize()
	return &MonthlyRenewalJob{deps: deps}
}

func (j *MonthlyRenewalJob) Name() string { return KindMonthlyRenewal }

func (j *MonthlyRenewalJob) Description() string {
	return "monthly list of students with non-renewed subscriptions"
}

func (j *MonthlyRenewalJob) Run(ctx context.Context) error {
	return j.deps.run(ctx, KindMonthlyRenewal, "Непродлившие абонемент за месяц", func(ctx context.Context) (string, int, error) {
		rows, err := j.deps.Classifier.NonRenewedInMonth(ctx)
		if err != nil {
			return "", 0, err
		}
		path, err := j.deps.Writer.WriteRenewalStatus(rows)
		return path, len(rows), err
	})
}
