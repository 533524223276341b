package jobs

import (
	"context"
)

// WeeklyRenewalJob reports the renewed/non-renewed split for subscriptions
// that ended during the current week.
type WeeklyRenewalJob struct {
	deps Deps
}

func NewWeeklyRenewalJob(deps Deps) *WeeklyRenewalJob {
	deps.normalize()
	return &WeeklyRenewalJob{deps: deps}
}

func (j *WeeklyRenewalJob) Name() string { return KindWeeklyRenewal }

func (j *WeeklyRenewalJob) Description() string {
	return "weekly renewed versus non-renewed subscription summary"
}

func (j *WeeklyRenewalJob) Run(ctx context.Context) error {
	return j.deps.run(ctx, KindWeeklyRenewal, "Продления абонементов за неделю", func(ctx context.Context) (string, int, error) {
		week, err := j.deps.Classifier.WeekRenewal(ctx)
		if err != nil {
			return "", 0, err
		}
		path, err := j.deps.Writer.WriteWeekSummary(week)
		return path, week.Total(), err
	})
}
