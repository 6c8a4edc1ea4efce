package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func strPtr(v string) *string { return &v }

func lessonFixture() RequirementInput {
	return RequirementInput{
		Assignments: []models.Assignment{
			models.NewModuleAssignment("school-1", "trainer-1", "class-1", "module-1"),
			models.NewSubjectAssignment("school-1", "teacher-1", "class-1", "math"),
			models.NewSubjectAssignment("school-1", "teacher-1", "class-2", "math"),
		},
		Courses: []models.Course{
			{Kind: models.AssignmentKindSubject, ID: "math", PeriodsPerWeek: 2},
			{Kind: models.AssignmentKindModule, ID: "module-1", PeriodsPerWeek: 0},
		},
		Teachers: []models.Teacher{{ID: "teacher-1"}, {ID: "trainer-1"}},
		Classes:  []models.ClassGroup{{ID: "class-1"}, {ID: "class-2"}},
	}
}

func TestBuildLessonUnitsExpandsPeriods(t *testing.T) {
	plan := BuildLessonUnits(lessonFixture())

	require.Equal(t, 5, plan.Len())
	assert.Empty(t, plan.Warnings)

	assert.Equal(t, models.AssignmentKindSubject, plan.Units[0].Kind)
	assert.Equal(t, "class-1", plan.Units[0].ClassID)
	assert.Equal(t, models.TrackAcademic, plan.Units[0].Track)
	assert.Equal(t, "class-2", plan.Units[2].ClassID)

	module := plan.Units[4]
	assert.Equal(t, models.AssignmentKindModule, module.Kind)
	assert.Equal(t, "trainer-1", module.TeacherID)
	assert.Equal(t, models.TrackTechnical, module.Track)
}

func TestBuildLessonUnitsWarnsOnBadReferences(t *testing.T) {
	in := lessonFixture()
	in.Assignments = append(in.Assignments,
		models.NewSubjectAssignment("school-1", "teacher-1", "class-1", "math"),
		models.NewSubjectAssignment("school-1", "teacher-1", "class-1", "history"),
		models.NewSubjectAssignment("school-1", "ghost", "class-1", "math"),
		models.NewSubjectAssignment("school-1", "teacher-1", "class-9", "math"),
	)

	plan := BuildLessonUnits(in)
	assert.Equal(t, 5, plan.Len())

	codes := make(map[WarningCode]int)
	for _, w := range plan.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, map[WarningCode]int{
		WarningDuplicateAssignment: 1,
		WarningMissingCourse:       1,
		WarningMissingTeacher:      1,
		WarningMissingClass:        1,
	}, codes)
}

func TestLessonPlanScopes(t *testing.T) {
	plan := BuildLessonUnits(lessonFixture())

	assert.Equal(t, 3, plan.ForClass("class-1").Len())
	assert.Equal(t, 4, plan.ForTeacher("teacher-1").Len())
	assert.Equal(t, 0, plan.ForClass("class-9").Len())
}

func TestLessonPlanUncovered(t *testing.T) {
	plan := BuildLessonUnits(lessonFixture())

	remaining := plan.Uncovered([]models.TimetableEntry{
		{TeacherID: "teacher-1", ClassID: "class-1", SubjectID: strPtr("math")},
		{TeacherID: "trainer-1", ClassID: "class-1", ModuleID: strPtr("module-1")},
	})
	require.Equal(t, 3, remaining.Len())
	for _, unit := range remaining.Units {
		assert.Equal(t, "teacher-1", unit.TeacherID)
	}
	assert.Equal(t, 1, remaining.ForClass("class-1").Len())
}
