package jobs

import (
	"context"
)

// EndingSoonJob reports subscriptions that run out in the next month so the
// administrators can reach out before the end date.
type EndingSoonJob struct {
	deps Deps
}

func NewEndingSoonJob(deps Deps) *EndingSoonJob {
	deps.normalize()
	return &EndingSoonJob{deps: deps}
}

func (j *EndingSoonJob) Name() string { return KindEndingSoon }

func (j *EndingSoonJob) Description() string {
	return "subscriptions ending in the upcoming month"
}

func (j *EndingSoonJob) Run(ctx context.Context) error {
	return j.deps.run(ctx, KindEndingSoon, "Абонементы, заканчивающиеся в следующем месяце", func(ctx context.Context) (string, int, error) {
		rows, err := j.deps.Classifier.EndingSoon(ctx)
		if err != nil {
			return "", 0, err
		}
		path, err := j.deps.Writer.WriteEndingSoon(rows)
		return path, len(rows), err
	})
}
