package models

import (
	"fmt"
	"strings"
	"time"
)

// Day is a teaching day of the week, MONDAY=1 .. SATURDAY=6.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = map[Day]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
}

var dayIndex = map[string]Day{
	"MONDAY":    Monday,
	"TUESDAY":   Tuesday,
	"WEDNESDAY": Wednesday,
	"THURSDAY":  Thursday,
	"FRIDAY":    Friday,
	"SATURDAY":  Saturday,
}

// String returns the upper-case day name.
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DAY(%d)", int(d))
}

// Valid reports whether d is within MONDAY..SATURDAY.
func (d Day) Valid() bool {
	return d >= Monday && d <= Saturday
}

// ParseDay accepts day names in any case.
func ParseDay(raw string) (Day, error) {
	day, ok := dayIndex[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return 0, fmt.Errorf("unknown day %q", raw)
	}
	return day, nil
}

// Track distinguishes academic subjects from technical modules.
type Track string

const (
	TrackAcademic  Track = "ACADEMIC"
	TrackTechnical Track = "TECHNICAL"
)

// AssignmentKind tags which form of assignment a record is.
type AssignmentKind string

const (
	// AssignmentKindSubject is a teacher-subject-class assignment.
	AssignmentKindSubject AssignmentKind = "SUBJECT"
	// AssignmentKindModule is a trainer-module-class assignment.
	AssignmentKindModule AssignmentKind = "MODULE"
)

// DefaultTrack is the track implied by the assignment form.
func (k AssignmentKind) DefaultTrack() Track {
	if k == AssignmentKindModule {
		return TrackTechnical
	}
	return TrackAcademic
}

// TimeCell is one (day, period) slot of the weekly grid.
type TimeCell struct {
	ID      string `json:"id"`
	Day     Day    `json:"day"`
	Period  int    `json:"period"`
	IsBreak bool   `json:"is_break"`
}

// CellID builds the identifier used for a (day, period) cell.
func CellID(day Day, period int) string {
	return fmt.Sprintf("%s-%d", day, period)
}

// School is the tenant boundary of every timetable operation.
type School struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Teacher carries the availability rules the scheduler reads.
type Teacher struct {
	ID                 string `json:"id"`
	SchoolID           string `json:"school_id"`
	MaxWeeklyHours     int    `json:"max_weekly_hours"`
	UnavailableDays    []Day  `json:"unavailable_days"`
	UnavailablePeriods []int  `json:"unavailable_periods"`
	Track              Track  `json:"track"`
}

// ClassGroup is a class used as an occupancy key.
type ClassGroup struct {
	ID       string `db:"id" json:"id"`
	SchoolID string `db:"school_id" json:"school_id"`
	Level    string `db:"level" json:"level"`
	Stream   string `db:"stream" json:"stream"`
}

// Course is a subject or a module; only PeriodsPerWeek drives scheduling.
type Course struct {
	Kind           AssignmentKind `db:"kind" json:"kind"`
	ID             string         `db:"id" json:"id"`
	SchoolID       string         `db:"school_id" json:"school_id"`
	PeriodsPerWeek int            `db:"periods_per_week" json:"periods_per_week"`
	Track          Track          `db:"track" json:"track"`
}

// Assignment declares that a teacher teaches a course to a class.
type Assignment struct {
	Kind      AssignmentKind `db:"kind" json:"kind"`
	SchoolID  string         `db:"school_id" json:"school_id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	ClassID   string         `db:"class_id" json:"class_id"`
	CourseID  string         `db:"course_id" json:"course_id"`
}

// NewSubjectAssignment builds a teacher-subject-class assignment.
func NewSubjectAssignment(schoolID, teacherID, classID, subjectID string) Assignment {
	return Assignment{Kind: AssignmentKindSubject, SchoolID: schoolID, TeacherID: teacherID, ClassID: classID, CourseID: subjectID}
}

// NewModuleAssignment builds a trainer-module-class assignment.
func NewModuleAssignment(schoolID, trainerID, classID, moduleID string) Assignment {
	return Assignment{Kind: AssignmentKindModule, SchoolID: schoolID, TeacherID: trainerID, ClassID: classID, CourseID: moduleID}
}

// TimetableEntry is one persisted lesson placement.
type TimetableEntry struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	SubjectID  *string   `db:"subject_id" json:"subject_id,omitempty"`
	ModuleID   *string   `db:"module_id" json:"module_id,omitempty"`
	TimeCellID string    `db:"time_cell_id" json:"time_cell_id"`
	Day        string    `db:"day" json:"day"`
	Period     int       `db:"period" json:"period"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Kind reports whether the entry is for a subject or a module.
func (e TimetableEntry) Kind() AssignmentKind {
	if e.ModuleID != nil && *e.ModuleID != "" {
		return AssignmentKindModule
	}
	return AssignmentKindSubject
}

// CourseID returns the subject or module id of the entry.
func (e TimetableEntry) CourseID() string {
	if e.ModuleID != nil && *e.ModuleID != "" {
		return *e.ModuleID
	}
	if e.SubjectID != nil {
		return *e.SubjectID
	}
	return ""
}

// EntryFilter narrows which timetable rows an operation touches.
type EntryFilter struct {
	ClassID   string
	TeacherID string
}
