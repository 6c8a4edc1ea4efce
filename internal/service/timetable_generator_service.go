package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/lock"
)

type timetableStore interface {
	ListSchools(ctx context.Context) ([]models.School, error)
	FindClass(ctx context.Context, schoolID, classID string) (*models.ClassGroup, error)
	FindTeacher(ctx context.Context, schoolID, teacherID string) (*models.Teacher, error)
	ListAssignments(ctx context.Context, schoolID string) ([]models.Assignment, error)
	ListCourses(ctx context.Context, schoolID string) ([]models.Course, error)
	ListTeachers(ctx context.Context, schoolID string) ([]models.Teacher, error)
	ListClasses(ctx context.Context, schoolID string) ([]models.ClassGroup, error)
	ListEntries(ctx context.Context, schoolID string, filter models.EntryFilter) ([]models.TimetableEntry, error)
	DeleteEntries(ctx context.Context, exec sqlx.ExtContext, schoolID string, filter models.EntryFilter) (int64, error)
	InsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableGeneratorConfig carries the grid and engine limits of a deployment.
type TimetableGeneratorConfig struct {
	Grid   *scheduler.TimeGrid
	Engine scheduler.Options
}

// TimetableGeneratorService resolves generation scope, runs the engine and persists the result.
// Runs for the same school are serialized through the locker.
type TimetableGeneratorService struct {
	store     timetableStore
	tx        txProvider
	locker    lock.Locker
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	engine    *scheduler.Engine
	now       func() time.Time
}

// NewTimetableGeneratorService wires the service.
func NewTimetableGeneratorService(
	store timetableStore,
	tx txProvider,
	locker lock.Locker,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if locker == nil {
		locker = lock.NewLocalLocker(0)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableGeneratorService{
		store:     store,
		tx:        tx,
		locker:    locker,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		engine:    scheduler.NewEngine(cfg.Grid, cfg.Engine),
		now:       time.Now,
	}
}

type schoolData struct {
	input   scheduler.RequirementInput
	plan    scheduler.LessonPlan
	entries []models.TimetableEntry
}

// runPlan is what a scope resolves to. A nil purge deletes nothing; an empty filter purges the school.
type runPlan struct {
	units     []scheduler.LessonUnit
	occupancy []models.TimetableEntry
	purge     *models.EntryFilter
}

type planner func(ctx context.Context, data *schoolData) (*runPlan, *dto.Notice, error)

// GenerateWholeSchool schedules the school for the requested scope.
func (s *TimetableGeneratorService) GenerateWholeSchool(ctx context.Context, req dto.GenerateSchoolRequest) (*dto.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school generation payload")
	}
	return s.generate(ctx, dto.ModeSchool, req.Scope, req.SchoolID, func(_ context.Context, data *schoolData) (*runPlan, *dto.Notice, error) {
		if data.plan.Len() == 0 {
			return nil, &dto.Notice{Code: dto.NoticeNoAssignments, Message: "school has no schedulable assignments"}, nil
		}
		if req.Regenerate {
			return &runPlan{units: data.plan.Units, purge: &models.EntryFilter{}}, nil, nil
		}

		// Every scope places the per-unit deficit; the scope only labels the run.
		remaining := data.plan.Uncovered(data.entries)
		if remaining.Len() == 0 {
			return nil, &dto.Notice{Code: dto.NoticeAlreadyScheduled, Message: "every requested lesson is already scheduled"}, nil
		}
		return &runPlan{units: remaining.Units, occupancy: data.entries}, nil, nil
	})
}

// GenerateForClass schedules one class against the rest of the school.
func (s *TimetableGeneratorService) GenerateForClass(ctx context.Context, req dto.GenerateClassRequest) (*dto.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class generation payload")
	}
	return s.generate(ctx, dto.ModeClass, "", req.SchoolID, func(ctx context.Context, data *schoolData) (*runPlan, *dto.Notice, error) {
		if _, err := s.store.FindClass(ctx, req.SchoolID, req.ClassID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &dto.Notice{Code: dto.NoticeClassNotFound, Message: fmt.Sprintf("class %s not found in school", req.ClassID)}, nil
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		return scopedPlan(data, data.plan.ForClass(req.ClassID), req.Regenerate,
			models.EntryFilter{ClassID: req.ClassID},
			func(e models.TimetableEntry) bool { return e.ClassID == req.ClassID },
			"class has no assignments", "class already has timetable entries")
	})
}

// GenerateForTeacher schedules one teacher or trainer against the rest of the school.
func (s *TimetableGeneratorService) GenerateForTeacher(ctx context.Context, req dto.GenerateTeacherRequest) (*dto.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher generation payload")
	}
	return s.generate(ctx, dto.ModeTeacher, "", req.SchoolID, func(ctx context.Context, data *schoolData) (*runPlan, *dto.Notice, error) {
		if _, err := s.store.FindTeacher(ctx, req.SchoolID, req.TeacherID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &dto.Notice{Code: dto.NoticeTeacherNotFound, Message: fmt.Sprintf("teacher %s not found in school", req.TeacherID)}, nil
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		return scopedPlan(data, data.plan.ForTeacher(req.TeacherID), req.Regenerate,
			models.EntryFilter{TeacherID: req.TeacherID},
			func(e models.TimetableEntry) bool { return e.TeacherID == req.TeacherID },
			"teacher has no assignments", "teacher already has timetable entries")
	})
}

// scopedPlan resolves a single class or teacher run. Without regenerate an already scheduled
// target is left untouched.
func scopedPlan(
	data *schoolData,
	scoped scheduler.LessonPlan,
	regenerate bool,
	filter models.EntryFilter,
	owned func(models.TimetableEntry) bool,
	emptyMessage, scheduledMessage string,
) (*runPlan, *dto.Notice, error) {
	if scoped.Len() == 0 {
		return nil, &dto.Notice{Code: dto.NoticeNoAssignments, Message: emptyMessage}, nil
	}
	others := make([]models.TimetableEntry, 0, len(data.entries))
	existing := 0
	for _, entry := range data.entries {
		if owned(entry) {
			existing++
			continue
		}
		others = append(others, entry)
	}
	if !regenerate {
		if existing > 0 {
			return nil, &dto.Notice{Code: dto.NoticeAlreadyScheduled, Message: scheduledMessage}, nil
		}
		return &runPlan{units: scoped.Units, occupancy: others}, nil, nil
	}
	return &runPlan{units: scoped.Units, occupancy: others, purge: &filter}, nil, nil
}

// ClearAll deletes every timetable entry of the school.
func (s *TimetableGeneratorService) ClearAll(ctx context.Context, schoolID string) (*dto.ClearResult, error) {
	if schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school id is required")
	}
	release, err := s.acquire(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	defer release()

	deleted, err := s.persist(ctx, schoolID, &models.EntryFilter{}, nil)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, schoolID)
	s.logger.Info("timetable cleared", zap.String("school_id", schoolID), zap.Int64("deleted", deleted))
	return &dto.ClearResult{Deleted: deleted}, nil
}

// ListTimetable returns stored entries, served from cache when enabled.
func (s *TimetableGeneratorService) ListTimetable(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	if cached, hit := s.cache.GetTimetable(ctx, query); hit {
		return cached, nil
	}

	entries, err := s.store.ListEntries(ctx, query.SchoolID, models.EntryFilter{ClassID: query.ClassID, TeacherID: query.TeacherID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if entries == nil {
		entries = make([]models.TimetableEntry, 0)
	}
	view := &dto.TimetableView{SchoolID: query.SchoolID, Entries: entries, Count: len(entries)}
	_ = s.cache.SetTimetable(ctx, query, view)
	return view, nil
}

// ListSchools returns every school, used by batch generation.
func (s *TimetableGeneratorService) ListSchools(ctx context.Context) ([]models.School, error) {
	schools, err := s.store.ListSchools(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	return schools, nil
}

func (s *TimetableGeneratorService) generate(ctx context.Context, mode dto.GenerationMode, scope dto.GenerationScope, schoolID string, plan planner) (*dto.GenerationResult, error) {
	start := time.Now()
	release, err := s.acquire(ctx, schoolID)
	if err != nil {
		s.metrics.RecordGeneration(string(mode), "error", 0, nil, time.Since(start))
		return nil, err
	}
	defer release()

	data, err := s.load(ctx, schoolID)
	if err != nil {
		s.metrics.RecordGeneration(string(mode), "error", 0, nil, time.Since(start))
		return nil, err
	}

	result := &dto.GenerationResult{
		Mode:      mode,
		Scope:     scope,
		Entries:   make([]models.TimetableEntry, 0),
		Conflicts: make([]dto.ConflictView, 0),
		Warnings:  warningViews(data.plan.Warnings),
	}
	if len(result.Warnings) > 0 {
		s.logger.Warn("inconsistent assignments skipped", zap.String("school_id", schoolID), zap.Int("count", len(result.Warnings)))
	}

	run, notice, err := plan(ctx, data)
	if err != nil {
		s.metrics.RecordGeneration(string(mode), "error", 0, nil, time.Since(start))
		return nil, err
	}
	if notice != nil {
		result.Notice = notice
		result.Success = !notice.NotFound()
		s.metrics.RecordGeneration(string(mode), "notice", 0, nil, time.Since(start))
		s.logger.Info("timetable generation skipped", zap.String("school_id", schoolID), zap.String("mode", string(mode)), zap.String("notice", string(notice.Code)))
		return result, nil
	}

	availability := scheduler.NewAvailabilityIndex(s.engine.Grid(), data.input.Teachers)
	outcome := s.engine.Schedule(run.units, run.occupancy, availability)
	entries := s.toEntries(schoolID, outcome.Placed)

	deleted, err := s.persist(ctx, schoolID, run.purge, entries)
	if err != nil {
		s.metrics.RecordGeneration(string(mode), "error", 0, nil, time.Since(start))
		return nil, err
	}
	s.invalidate(ctx, schoolID)

	result.Success = outcome.Success()
	result.Placed = len(entries)
	result.Deleted = deleted
	result.Entries = entries
	reasons := make([]string, 0, len(outcome.Conflicts))
	for _, conflict := range outcome.Conflicts {
		reasons = append(reasons, string(conflict.Reason))
		result.Conflicts = append(result.Conflicts, dto.ConflictView{
			TeacherID: conflict.Unit.TeacherID,
			ClassID:   conflict.Unit.ClassID,
			CourseID:  conflict.Unit.CourseID,
			Kind:      conflict.Unit.Kind,
			Track:     conflict.Unit.Track,
			Reason:    string(conflict.Reason),
		})
	}

	outcomeLabel := "success"
	if !result.Success {
		outcomeLabel = "partial"
	}
	duration := time.Since(start)
	s.metrics.RecordGeneration(string(mode), outcomeLabel, result.Placed, reasons, duration)
	s.logger.Info("timetable generation finished",
		zap.String("school_id", schoolID),
		zap.String("mode", string(mode)),
		zap.Int("units", len(run.units)),
		zap.Int("placed", result.Placed),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Int64("deleted", deleted),
		zap.Duration("duration", duration),
	)
	return result, nil
}

func (s *TimetableGeneratorService) acquire(ctx context.Context, schoolID string) (lock.Release, error) {
	start := time.Now()
	release, err := s.locker.Acquire(ctx, lock.SchoolKey(schoolID))
	s.metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	return release, nil
}

func (s *TimetableGeneratorService) load(ctx context.Context, schoolID string) (*schoolData, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("load_school", time.Since(start)) }()

	wrap := func(err error, what string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
	}

	assignments, err := s.store.ListAssignments(ctx, schoolID)
	if err != nil {
		return nil, wrap(err, "assignments")
	}
	courses, err := s.store.ListCourses(ctx, schoolID)
	if err != nil {
		return nil, wrap(err, "courses")
	}
	teachers, err := s.store.ListTeachers(ctx, schoolID)
	if err != nil {
		return nil, wrap(err, "teachers")
	}
	classes, err := s.store.ListClasses(ctx, schoolID)
	if err != nil {
		return nil, wrap(err, "classes")
	}
	entries, err := s.store.ListEntries(ctx, schoolID, models.EntryFilter{})
	if err != nil {
		return nil, wrap(err, "timetable entries")
	}

	input := scheduler.RequirementInput{Assignments: assignments, Courses: courses, Teachers: teachers, Classes: classes}
	return &schoolData{input: input, plan: scheduler.BuildLessonUnits(input), entries: entries}, nil
}

// persist applies the purge and inserts entries in one transaction.
func (s *TimetableGeneratorService) persist(ctx context.Context, schoolID string, purge *models.EntryFilter, entries []models.TimetableEntry) (int64, error) {
	if purge == nil && len(entries) == 0 {
		return 0, nil
	}
	if s.tx == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("write_entries", time.Since(start)) }()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var deleted int64
	if purge != nil {
		if deleted, err = s.store.DeleteEntries(ctx, tx, schoolID, *purge); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entries")
			return 0, err
		}
	}
	if err = s.store.InsertEntries(ctx, tx, entries); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write timetable entries")
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
		return 0, err
	}
	return deleted, nil
}

func (s *TimetableGeneratorService) invalidate(ctx context.Context, schoolID string) {
	_ = s.cache.InvalidateSchool(ctx, schoolID)
}

func (s *TimetableGeneratorService) toEntries(schoolID string, placed []scheduler.Placement) []models.TimetableEntry {
	now := s.now().UTC()
	entries := make([]models.TimetableEntry, 0, len(placed))
	for _, placement := range placed {
		courseID := placement.Unit.CourseID
		entry := models.TimetableEntry{
			ID:         uuid.NewString(),
			SchoolID:   schoolID,
			ClassID:    placement.Unit.ClassID,
			TeacherID:  placement.Unit.TeacherID,
			TimeCellID: placement.Cell.ID,
			Day:        placement.Cell.Day.String(),
			Period:     placement.Cell.Period,
			CreatedAt:  now,
		}
		if placement.Unit.Kind == models.AssignmentKindModule {
			entry.ModuleID = &courseID
		} else {
			entry.SubjectID = &courseID
		}
		entries = append(entries, entry)
	}
	return entries
}

func warningViews(warnings []scheduler.Warning) []dto.WarningView {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]dto.WarningView, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, dto.WarningView{
			Code:      string(w.Code),
			TeacherID: w.Assignment.TeacherID,
			ClassID:   w.Assignment.ClassID,
			CourseID:  w.Assignment.CourseID,
			Kind:      w.Assignment.Kind,
		})
	}
	return out
}
