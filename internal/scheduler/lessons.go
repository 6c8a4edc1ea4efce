package scheduler

import (
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// LessonUnit is one still-unplaced weekly occurrence of an assignment.
type LessonUnit struct {
	TeacherID string                `json:"teacher_id"`
	ClassID   string                `json:"class_id"`
	CourseID  string                `json:"course_id"`
	Kind      models.AssignmentKind `json:"kind"`
	Track     models.Track          `json:"track"`
}

// WarningCode classifies inconsistent input that was skipped.
type WarningCode string

const (
	WarningMissingCourse       WarningCode = "MISSING_COURSE"
	WarningMissingTeacher      WarningCode = "MISSING_TEACHER"
	WarningMissingClass        WarningCode = "MISSING_CLASS"
	WarningDuplicateAssignment WarningCode = "DUPLICATE_ASSIGNMENT"
)

// Warning reports an assignment that produced no lesson units.
type Warning struct {
	Code       WarningCode       `json:"code"`
	Assignment models.Assignment `json:"assignment"`
}

// RequirementInput is every record of one school the builder reads.
type RequirementInput struct {
	Assignments []models.Assignment
	Courses     []models.Course
	Teachers    []models.Teacher
	Classes     []models.ClassGroup
}

// LessonPlan is the derived set of units plus the soft warnings raised while deriving it.
type LessonPlan struct {
	Units    []LessonUnit
	Warnings []Warning
}

type courseKey struct {
	kind models.AssignmentKind
	id   string
}

type assignmentKey struct {
	kind      models.AssignmentKind
	teacherID string
	classID   string
	courseID  string
}

// BuildLessonUnits expands every assignment into periodsPerWeek units (at least one).
// Assignments referencing a missing course, teacher or class are skipped with a warning.
func BuildLessonUnits(in RequirementInput) LessonPlan {
	courses := make(map[courseKey]models.Course, len(in.Courses))
	for _, course := range in.Courses {
		courses[courseKey{kind: course.Kind, id: course.ID}] = course
	}
	teachers := make(map[string]bool, len(in.Teachers))
	for _, teacher := range in.Teachers {
		teachers[teacher.ID] = true
	}
	classes := make(map[string]bool, len(in.Classes))
	for _, class := range in.Classes {
		classes[class.ID] = true
	}

	assignments := make([]models.Assignment, len(in.Assignments))
	copy(assignments, in.Assignments)
	sort.SliceStable(assignments, func(i, j int) bool {
		return lessAssignment(assignments[i], assignments[j])
	})

	plan := LessonPlan{Units: make([]LessonUnit, 0, len(assignments))}
	seen := make(map[assignmentKey]bool, len(assignments))
	for _, assignment := range assignments {
		key := assignmentKey{kind: assignment.Kind, teacherID: assignment.TeacherID, classID: assignment.ClassID, courseID: assignment.CourseID}
		if seen[key] {
			plan.Warnings = append(plan.Warnings, Warning{Code: WarningDuplicateAssignment, Assignment: assignment})
			continue
		}
		seen[key] = true

		course, ok := courses[courseKey{kind: assignment.Kind, id: assignment.CourseID}]
		switch {
		case !ok:
			plan.Warnings = append(plan.Warnings, Warning{Code: WarningMissingCourse, Assignment: assignment})
			continue
		case !teachers[assignment.TeacherID]:
			plan.Warnings = append(plan.Warnings, Warning{Code: WarningMissingTeacher, Assignment: assignment})
			continue
		case !classes[assignment.ClassID]:
			plan.Warnings = append(plan.Warnings, Warning{Code: WarningMissingClass, Assignment: assignment})
			continue
		}

		track := course.Track
		if track == "" {
			track = assignment.Kind.DefaultTrack()
		}
		count := course.PeriodsPerWeek
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			plan.Units = append(plan.Units, LessonUnit{
				TeacherID: assignment.TeacherID,
				ClassID:   assignment.ClassID,
				CourseID:  assignment.CourseID,
				Kind:      assignment.Kind,
				Track:     track,
			})
		}
	}
	return plan
}

// Len returns the number of derived units.
func (p LessonPlan) Len() int {
	return len(p.Units)
}

// ForClass returns the units of one class, warnings untouched.
func (p LessonPlan) ForClass(classID string) LessonPlan {
	return p.filter(func(u LessonUnit) bool { return u.ClassID == classID })
}

// ForTeacher returns the units of one teacher, warnings untouched.
func (p LessonPlan) ForTeacher(teacherID string) LessonPlan {
	return p.filter(func(u LessonUnit) bool { return u.TeacherID == teacherID })
}

// Uncovered drops one unit for every existing entry with the same teacher, class and course.
func (p LessonPlan) Uncovered(entries []models.TimetableEntry) LessonPlan {
	covered := make(map[assignmentKey]int, len(entries))
	for _, entry := range entries {
		covered[assignmentKey{kind: entry.Kind(), teacherID: entry.TeacherID, classID: entry.ClassID, courseID: entry.CourseID()}]++
	}
	return p.filter(func(u LessonUnit) bool {
		key := unitKey(u)
		if covered[key] > 0 {
			covered[key]--
			return false
		}
		return true
	})
}

func (p LessonPlan) filter(keep func(LessonUnit) bool) LessonPlan {
	out := LessonPlan{Units: make([]LessonUnit, 0, len(p.Units)), Warnings: p.Warnings}
	for _, unit := range p.Units {
		if keep(unit) {
			out.Units = append(out.Units, unit)
		}
	}
	return out
}

func unitKey(u LessonUnit) assignmentKey {
	return assignmentKey{kind: u.Kind, teacherID: u.TeacherID, classID: u.ClassID, courseID: u.CourseID}
}

func lessAssignment(a, b models.Assignment) bool {
	if a.Kind != b.Kind {
		return a.Kind > b.Kind // SUBJECT before MODULE
	}
	if a.TeacherID != b.TeacherID {
		return a.TeacherID < b.TeacherID
	}
	if a.ClassID != b.ClassID {
		return a.ClassID < b.ClassID
	}
	return a.CourseID < b.CourseID
}
