package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*TimetableRepository, *sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewTimetableRepository(sqlxDB), sqlxDB, mock, func() { db.Close() }
}

func strPtr(v string) *string { return &v }

func TestTimetableRepositoryListAssignmentsUnion(t *testing.T) {
	repo, _, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"kind", "school_id", "teacher_id", "class_id", "course_id"}).
		AddRow("SUBJECT", "school-1", "teacher-1", "class-1", "math").
		AddRow("MODULE", "school-1", "trainer-1", "class-1", "welding")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 'SUBJECT' AS kind, school_id, teacher_id, class_id, subject_id AS course_id FROM teacher_subject_assignments WHERE school_id = ? UNION ALL")).
		WithArgs("school-1", "school-1").
		WillReturnRows(rows)

	assignments, err := repo.ListAssignments(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, models.AssignmentKindSubject, assignments[0].Kind)
	assert.Equal(t, models.AssignmentKindModule, assignments[1].Kind)
	assert.Equal(t, "trainer-1", assignments[1].TeacherID)
	assert.Equal(t, "welding", assignments[1].CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListTeachersParsesAvailability(t *testing.T) {
	repo, _, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "school_id", "max_weekly_hours", "unavailable_days", "unavailable_periods", "track"}).
		AddRow("teacher-1", "school-1", 10, "saturday, FRIDAY", "1,8", "ACADEMIC").
		AddRow("trainer-1", "school-1", 0, "", "", "TECHNICAL")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, max_weekly_hours, unavailable_days, unavailable_periods, track FROM teachers WHERE school_id = ? ORDER BY id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	teachers, err := repo.ListTeachers(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, []models.Day{models.Saturday, models.Friday}, teachers[0].UnavailableDays)
	assert.Equal(t, []int{1, 8}, teachers[0].UnavailablePeriods)
	assert.Equal(t, 10, teachers[0].MaxWeeklyHours)
	assert.Empty(t, teachers[1].UnavailableDays)
	assert.Equal(t, models.TrackTechnical, teachers[1].Track)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListTeachersRejectsBadDay(t *testing.T) {
	repo, _, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "school_id", "max_weekly_hours", "unavailable_days", "unavailable_periods", "track"}).
		AddRow("teacher-1", "school-1", 10, "SUNDAY", "", "ACADEMIC")
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE school_id = ?")).
		WithArgs("school-1").
		WillReturnRows(rows)

	_, err := repo.ListTeachers(context.Background(), "school-1")
	assert.Error(t, err)
}

func TestTimetableRepositoryFindClassNotFound(t *testing.T) {
	repo, _, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, level, stream FROM classes WHERE school_id = ? AND id = ?")).
		WithArgs("school-1", "class-x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "level", "stream"}))

	_, err := repo.FindClass(context.Background(), "school-1", "class-x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListEntriesOrdersInQuery(t *testing.T) {
	repo, _, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "school_id", "class_id", "teacher_id", "subject_id", "module_id", "time_cell_id", "day", "period", "created_at"}).
		AddRow("e1", "school-1", "class-1", "trainer-1", nil, "welding", "MONDAY-1", "MONDAY", 1, now).
		AddRow("e2", "school-1", "class-1", "teacher-1", "math", nil, "MONDAY-2", "MONDAY", 2, now).
		AddRow("e3", "school-1", "class-1", "teacher-1", "math", nil, "TUESDAY-1", "TUESDAY", 1, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, class_id, teacher_id, subject_id, module_id, time_cell_id, day, period, created_at FROM timetable_entries WHERE school_id = ? AND class_id = ? ORDER BY class_id ASC, CASE day WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3 WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6 ELSE 7 END ASC, period ASC, teacher_id ASC")).
		WithArgs("school-1", "class-1").
		WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background(), "school-1", models.EntryFilter{ClassID: "class-1"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Equal(t, models.AssignmentKindModule, entries[0].Kind())
	assert.Equal(t, "math", entries[1].CourseID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteAndInsertInTransaction(t *testing.T) {
	repo, db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE school_id = ? AND class_id = ?")).
		WithArgs("school-1", "class-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "school-1", "class-1", "teacher-1", "math", nil, "MONDAY-1", "MONDAY", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "school-1", "class-1", "trainer-1", nil, "welding", "MONDAY-2", "MONDAY", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	deleted, err := repo.DeleteEntries(ctx, tx, "school-1", models.EntryFilter{ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	entries := []models.TimetableEntry{
		{SchoolID: "school-1", ClassID: "class-1", TeacherID: "teacher-1", SubjectID: strPtr("math"), TimeCellID: "MONDAY-1", Day: "MONDAY", Period: 1},
		{SchoolID: "school-1", ClassID: "class-1", TeacherID: "trainer-1", ModuleID: strPtr("welding"), TimeCellID: "MONDAY-2", Day: "MONDAY", Period: 2},
	}
	require.NoError(t, repo.InsertEntries(ctx, tx, entries))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[1].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryInsertNothing(t *testing.T) {
	repo, _, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	require.NoError(t, repo.InsertEntries(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
