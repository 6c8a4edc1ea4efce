package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
)

var sqliteSeed = []string{
	`INSERT INTO schools (id, name) VALUES ('school-1', 'SMK Satu'), ('school-2', 'SMA Dua')`,
	`INSERT INTO classes (id, school_id, level, stream) VALUES ('class-1', 'school-1', 'X', 'TKJ'), ('class-2', 'school-1', 'XI', 'TKJ')`,
	`INSERT INTO teachers (id, school_id, max_weekly_hours, unavailable_days, unavailable_periods, track)
		VALUES ('teacher-1', 'school-1', 12, 'SATURDAY', '', 'ACADEMIC'), ('trainer-1', 'school-1', 0, '', '7,8', 'TECHNICAL')`,
	`INSERT INTO subjects (id, school_id, periods_per_week, track) VALUES ('math', 'school-1', 3, 'ACADEMIC')`,
	`INSERT INTO modules (id, school_id, periods_per_week, track) VALUES ('welding', 'school-1', 2, 'TECHNICAL')`,
	`INSERT INTO teacher_subject_assignments (id, school_id, teacher_id, class_id, subject_id) VALUES ('a1', 'school-1', 'teacher-1', 'class-1', 'math')`,
	`INSERT INTO trainer_module_assignments (id, school_id, trainer_id, class_id, module_id) VALUES ('a2', 'school-1', 'trainer-1', 'class-2', 'welding')`,
}

func newSQLiteRepo(t *testing.T) (*TimetableRepository, *sqlx.DB) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	for _, stmt := range sqliteSeed {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return NewTimetableRepository(db), db
}

func TestTimetableRepositorySQLiteReads(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	schools, err := repo.ListSchools(ctx)
	require.NoError(t, err)
	assert.Len(t, schools, 2)

	assignments, err := repo.ListAssignments(ctx, "school-1")
	require.NoError(t, err)
	assert.Len(t, assignments, 2)

	courses, err := repo.ListCourses(ctx, "school-1")
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	teacher, err := repo.FindTeacher(ctx, "school-1", "trainer-1")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, teacher.UnavailablePeriods)

	class, err := repo.FindClass(ctx, "school-1", "class-2")
	require.NoError(t, err)
	assert.Equal(t, "XI", class.Level)

	_, err = repo.FindClass(ctx, "school-2", "class-2")
	assert.Error(t, err)
}

func TestTimetableRepositorySQLiteWriteCycle(t *testing.T) {
	repo, db := newSQLiteRepo(t)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.InsertEntries(ctx, tx, []models.TimetableEntry{
		{SchoolID: "school-1", ClassID: "class-1", TeacherID: "teacher-1", SubjectID: strPtr("math"), TimeCellID: "MONDAY-1", Day: "MONDAY", Period: 1},
		{SchoolID: "school-1", ClassID: "class-2", TeacherID: "trainer-1", ModuleID: strPtr("welding"), TimeCellID: "MONDAY-1", Day: "MONDAY", Period: 1},
	}))
	require.NoError(t, tx.Commit())

	entries, err := repo.ListEntries(ctx, "school-1", models.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "class-1", entries[0].ClassID)
	assert.Equal(t, models.AssignmentKindModule, entries[1].Kind())

	err = repo.InsertEntries(ctx, nil, []models.TimetableEntry{
		{SchoolID: "school-1", ClassID: "class-1", TeacherID: "trainer-1", ModuleID: strPtr("welding"), TimeCellID: "MONDAY-1", Day: "MONDAY", Period: 1},
	})
	assert.Error(t, err, "class already busy in that cell")

	own, err := repo.ListEntries(ctx, "school-1", models.EntryFilter{TeacherID: "teacher-1"})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	deleted, err := repo.DeleteEntries(ctx, nil, "school-1", models.EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestTimetableRepositorySQLiteListsInWeekOrder(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	entry := func(classID, teacherID string, day models.Day, period int) models.TimetableEntry {
		e := models.TimetableEntry{SchoolID: "school-1", ClassID: classID, TeacherID: teacherID, TimeCellID: models.CellID(day, period), Day: day.String(), Period: period}
		if teacherID == "trainer-1" {
			e.ModuleID = strPtr("welding")
		} else {
			e.SubjectID = strPtr("math")
		}
		return e
	}
	require.NoError(t, repo.InsertEntries(ctx, nil, []models.TimetableEntry{
		entry("class-2", "trainer-1", models.Monday, 3),
		entry("class-1", "teacher-1", models.Saturday, 1),
		entry("class-1", "teacher-1", models.Friday, 2),
		entry("class-1", "teacher-1", models.Monday, 2),
		entry("class-1", "teacher-1", models.Tuesday, 5),
		entry("class-1", "teacher-1", models.Monday, 1),
	}))

	entries, err := repo.ListEntries(ctx, "school-1", models.EntryFilter{})
	require.NoError(t, err)
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.ClassID+"/"+e.TimeCellID)
	}
	assert.Equal(t, []string{
		"class-1/MONDAY-1",
		"class-1/MONDAY-2",
		"class-1/TUESDAY-5",
		"class-1/FRIDAY-2",
		"class-1/SATURDAY-1",
		"class-2/MONDAY-3",
	}, got)
}
