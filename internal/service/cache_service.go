package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

const (
	defaultViewTTL = 10 * time.Minute
	viewKeyPrefix  = "timetable:view"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps listed timetable views keyed by school and filter.
// Every view of a school is dropped when that school's entries change.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs the view cache. A non-positive ttl falls back to ten minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// GetTimetable returns the cached view for the query. Backend failures are logged and reported as a miss.
func (s *CacheService) GetTimetable(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableView, bool) {
	if !s.Enabled() {
		return nil, false
	}
	key := timetableViewKey(query)
	start := time.Now()
	var view dto.TimetableView
	err := s.repo.Get(ctx, key, &view)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if view.SchoolID != query.SchoolID {
		s.metrics.RecordCacheOperation(false, duration)
		return nil, false
	}
	if view.Entries == nil {
		view.Entries = make([]models.TimetableEntry, 0)
	}
	s.metrics.RecordCacheOperation(true, duration)
	return &view, true
}

// SetTimetable stores the view under the query key.
func (s *CacheService) SetTimetable(ctx context.Context, query dto.TimetableQuery, view *dto.TimetableView) error {
	if !s.Enabled() || view == nil {
		return nil
	}
	key := timetableViewKey(query)
	start := time.Now()
	err := s.repo.Set(ctx, key, view, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache timetable view: %w", err)
	}
	return nil
}

// InvalidateSchool drops every cached view of the school.
func (s *CacheService) InvalidateSchool(ctx context.Context, schoolID string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := schoolViewPattern(schoolID)
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("timetable cache invalidate failed", zap.String("school_id", schoolID), zap.Error(err))
		return fmt.Errorf("invalidate school %s views: %w", schoolID, err)
	}
	return nil
}

func timetableViewKey(query dto.TimetableQuery) string {
	return fmt.Sprintf("%s:%s:%s:%s", viewKeyPrefix, query.SchoolID, query.ClassID, query.TeacherID)
}

func schoolViewPattern(schoolID string) string {
	return fmt.Sprintf("%s:%s:*", viewKeyPrefix, schoolID)
}
