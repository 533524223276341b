package jobs

import (
	"context"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/period"
)

// TeacherStatsJob reports per-teacher lesson and attendance counters for the
// current month.
type TeacherStatsJob struct {
	deps Deps
}

func NewTeacherStatsJob(deps Deps) *TeacherStatsJob {
	deps.normalize()
	return &TeacherStatsJob{deps: deps}
}

func (j *TeacherStatsJob) Name() string { return KindTeacherStats }

func (j *TeacherStatsJob) Description() string {
	return "per-teacher lesson and attendance counters for the current month"
}

func (j *TeacherStatsJob) Run(ctx context.Context) error {
	return j.deps.run(ctx, KindTeacherStats, "Статистика педагогов за месяц", func(ctx context.Context) (string, int, error) {
		p := period.Month(j.deps.Now(), period.Current)
		collector := attendance.NewStatsCollector()
		if err := j.deps.Classifier.CollectTeacherStats(ctx, p, collector); err != nil {
			return "", 0, err
		}
		stats := collector.Drain()
		path, err := j.deps.Writer.WriteTeacherStats(stats)
		return path, len(stats), err
	})
}
