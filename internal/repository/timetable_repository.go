package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TimetableRepository reads school records and persists timetable entries.
// Queries are written with ? placeholders and rebound for the active driver.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

type teacherRow struct {
	ID                 string `db:"id"`
	SchoolID           string `db:"school_id"`
	MaxWeeklyHours     int    `db:"max_weekly_hours"`
	UnavailableDays    string `db:"unavailable_days"`
	UnavailablePeriods string `db:"unavailable_periods"`
	Track              string `db:"track"`
}

func (row teacherRow) toModel() (models.Teacher, error) {
	teacher := models.Teacher{
		ID:             row.ID,
		SchoolID:       row.SchoolID,
		MaxWeeklyHours: row.MaxWeeklyHours,
		Track:          models.Track(row.Track),
	}
	for _, raw := range splitCSV(row.UnavailableDays) {
		day, err := models.ParseDay(raw)
		if err != nil {
			return models.Teacher{}, fmt.Errorf("teacher %s unavailable days: %w", row.ID, err)
		}
		teacher.UnavailableDays = append(teacher.UnavailableDays, day)
	}
	for _, raw := range splitCSV(row.UnavailablePeriods) {
		period, err := strconv.Atoi(raw)
		if err != nil {
			return models.Teacher{}, fmt.Errorf("teacher %s unavailable periods: %w", row.ID, err)
		}
		teacher.UnavailablePeriods = append(teacher.UnavailablePeriods, period)
	}
	return teacher, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

const teacherColumns = `id, school_id, max_weekly_hours, unavailable_days, unavailable_periods, track`

// ListSchools returns every school ordered by id.
func (r *TimetableRepository) ListSchools(ctx context.Context) ([]models.School, error) {
	const query = `SELECT id, name FROM schools ORDER BY id ASC`
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// FindClass returns a class of the school or sql.ErrNoRows.
func (r *TimetableRepository) FindClass(ctx context.Context, schoolID, classID string) (*models.ClassGroup, error) {
	query := r.db.Rebind(`SELECT id, school_id, level, stream FROM classes WHERE school_id = ? AND id = ?`)
	var class models.ClassGroup
	if err := r.db.GetContext(ctx, &class, query, schoolID, classID); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindTeacher returns a teacher of the school or sql.ErrNoRows.
func (r *TimetableRepository) FindTeacher(ctx context.Context, schoolID, teacherID string) (*models.Teacher, error) {
	query := r.db.Rebind(`SELECT ` + teacherColumns + ` FROM teachers WHERE school_id = ? AND id = ?`)
	var row teacherRow
	if err := r.db.GetContext(ctx, &row, query, schoolID, teacherID); err != nil {
		return nil, err
	}
	teacher, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListClasses returns the classes of a school.
func (r *TimetableRepository) ListClasses(ctx context.Context, schoolID string) ([]models.ClassGroup, error) {
	query := r.db.Rebind(`SELECT id, school_id, level, stream FROM classes WHERE school_id = ? ORDER BY id ASC`)
	var classes []models.ClassGroup
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListTeachers returns the teachers and trainers of a school with their availability rules.
func (r *TimetableRepository) ListTeachers(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	query := r.db.Rebind(`SELECT ` + teacherColumns + ` FROM teachers WHERE school_id = ? ORDER BY id ASC`)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teacher, err := row.toModel()
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}
	return teachers, nil
}

// ListCourses returns subjects and modules of a school tagged with their kind.
func (r *TimetableRepository) ListCourses(ctx context.Context, schoolID string) ([]models.Course, error) {
	query := r.db.Rebind(`
SELECT 'SUBJECT' AS kind, id, school_id, periods_per_week, track FROM subjects WHERE school_id = ?
UNION ALL
SELECT 'MODULE' AS kind, id, school_id, periods_per_week, track FROM modules WHERE school_id = ?`)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, schoolID, schoolID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListAssignments returns teacher-subject and trainer-module assignments as one list.
func (r *TimetableRepository) ListAssignments(ctx context.Context, schoolID string) ([]models.Assignment, error) {
	query := r.db.Rebind(`
SELECT 'SUBJECT' AS kind, school_id, teacher_id, class_id, subject_id AS course_id FROM teacher_subject_assignments WHERE school_id = ?
UNION ALL
SELECT 'MODULE' AS kind, school_id, trainer_id AS teacher_id, class_id, module_id AS course_id FROM trainer_module_assignments WHERE school_id = ?`)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, schoolID, schoolID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

func entryWhere(schoolID string, filter models.EntryFilter) (string, []interface{}) {
	clauses := []string{"school_id = ?"}
	args := []interface{}{schoolID}
	if filter.ClassID != "" {
		clauses = append(clauses, "class_id = ?")
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		clauses = append(clauses, "teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// entryOrder sorts by class, then day in week order rather than by name, then period.
const entryOrder = ` ORDER BY class_id ASC, CASE day WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3 WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6 ELSE 7 END ASC, period ASC, teacher_id ASC`

// ListEntries returns entries of a school ordered by class, day and period.
func (r *TimetableRepository) ListEntries(ctx context.Context, schoolID string, filter models.EntryFilter) ([]models.TimetableEntry, error) {
	where, args := entryWhere(schoolID, filter)
	query := r.db.Rebind(`SELECT id, school_id, class_id, teacher_id, subject_id, module_id, time_cell_id, day, period, created_at FROM timetable_entries` + where + entryOrder)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// DeleteEntries removes entries matching the filter and reports how many were removed.
func (r *TimetableRepository) DeleteEntries(ctx context.Context, exec sqlx.ExtContext, schoolID string, filter models.EntryFilter) (int64, error) {
	target := r.exec(exec)
	where, args := entryWhere(schoolID, filter)
	result, err := target.ExecContext(ctx, target.Rebind(`DELETE FROM timetable_entries`+where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete timetable entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted timetable rows: %w", err)
	}
	return affected, nil
}

// InsertEntries writes entries, assigning ids and timestamps where missing.
func (r *TimetableRepository) InsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO timetable_entries (id, school_id, class_id, teacher_id, subject_id, module_id, time_cell_id, day, period, created_at)
VALUES (:id, :school_id, :class_id, :teacher_id, :subject_id, :module_id, :time_cell_id, :day, :period, :created_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("insert timetable entry %s: %w", entry.TimeCellID, err)
		}
	}
	return nil
}
