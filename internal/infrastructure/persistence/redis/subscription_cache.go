package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/group"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/period"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/student"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/subscription"
	"github.com/paraplan-hub/paraplan-report-hub/internal/service/classifier"
)

// CachingDataSource decorates a classifier data source with read-through
// caching of rosters and subscription listings. Attendance screens and group
// details stay uncached: attendance data is only read once per run, and
// group lookups are rare.
//
// Cache failures never fail a read. The decorator logs them and falls
// through to the upstream source.
type CachingDataSource struct {
	upstream classifier.DataSource
	cache    *Cache
	logger   *slog.Logger
}

// NewCachingDataSource wraps upstream with the cache.
func NewCachingDataSource(upstream classifier.DataSource, cache *Cache, logger *slog.Logger) *CachingDataSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingDataSource{
		upstream: upstream,
		cache:    cache,
		logger:   logger,
	}
}

func subscriptionsKey(studentID string, p period.Period) string {
	return PrefixSubscriptions + studentID + ":" + p.String()
}

// ListStudents serves the roster from cache when possible.
func (d *CachingDataSource) ListStudents(ctx context.Context) ([]student.Student, error) {
	var cached []student.Student
	err := d.cache.Get(ctx, PrefixRoster, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		d.logger.Warn("roster cache read failed", "error", err)
	}

	students, err := d.upstream.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Set(ctx, PrefixRoster, students); err != nil {
		d.logger.Warn("roster cache write failed", "error", err)
	}
	return students, nil
}

// ListSubscriptions serves subscription listings from cache when possible.
// The key carries the period, so different windows never collide.
func (d *CachingDataSource) ListSubscriptions(ctx context.Context, studentID string, p period.Period) ([]subscription.Record, error) {
	key := subscriptionsKey(studentID, p)

	var cached []subscription.Record
	err := d.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		d.logger.Warn("subscription cache read failed", "key", key, "error", err)
	}

	records, err := d.upstream.ListSubscriptions(ctx, studentID, p)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Set(ctx, key, records); err != nil {
		d.logger.Warn("subscription cache write failed", "key", key, "error", err)
	}
	return records, nil
}

// ListAttendanceEvents passes through to the upstream source.
func (d *CachingDataSource) ListAttendanceEvents(ctx context.Context, day time.Time, kind attendance.EventKind) ([]attendance.Event, error) {
	return d.upstream.ListAttendanceEvents(ctx, day, kind)
}

// GetGroupInfo passes through to the upstream source.
func (d *CachingDataSource) GetGroupInfo(ctx context.Context, groupID string) (*group.Info, error) {
	return d.upstream.GetGroupInfo(ctx, groupID)
}

// Invalidate drops the roster and all cached subscription listings.
func (d *CachingDataSource) Invalidate(ctx context.Context) error {
	if err := d.cache.Delete(ctx, PrefixRoster); err != nil {
		return err
	}
	return d.cache.Flush(ctx, PrefixSubscriptions)
}
