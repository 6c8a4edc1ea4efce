package dto

import "github.com/noah-isme/sma-timetable/internal/models"

// GenerationScope selects which units a whole-school run considers.
type GenerationScope string

const (
	ScopeAllClasses  GenerationScope = "ALL_CLASSES"
	ScopeAllTeachers GenerationScope = "ALL_TEACHERS"
	ScopeBoth        GenerationScope = "BOTH"
)

// GenerationMode names the entry point that produced a result.
type GenerationMode string

const (
	ModeSchool  GenerationMode = "SCHOOL"
	ModeClass   GenerationMode = "CLASS"
	ModeTeacher GenerationMode = "TEACHER"
)

// GenerateSchoolRequest schedules every class or teacher of a school.
type GenerateSchoolRequest struct {
	SchoolID   string          `json:"-" validate:"required"`
	Scope      GenerationScope `json:"scope" validate:"required,oneof=ALL_CLASSES ALL_TEACHERS BOTH"`
	Regenerate bool            `json:"regenerate"`
}

// GenerateClassRequest schedules one class. Regenerate wins over Incremental.
type GenerateClassRequest struct {
	SchoolID    string `json:"-" validate:"required"`
	ClassID     string `json:"-" validate:"required"`
	Incremental bool   `json:"incremental"`
	Regenerate  bool   `json:"regenerate"`
}

// GenerateTeacherRequest schedules one teacher or trainer. Regenerate wins over Incremental.
type GenerateTeacherRequest struct {
	SchoolID    string `json:"-" validate:"required"`
	TeacherID   string `json:"-" validate:"required"`
	Incremental bool   `json:"incremental"`
	Regenerate  bool   `json:"regenerate"`
}

// TimetableQuery filters the stored timetable of a school.
type TimetableQuery struct {
	SchoolID  string `form:"-" validate:"required"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
}

// NoticeCode explains a run that ended without scheduling.
type NoticeCode string

const (
	NoticeClassNotFound    NoticeCode = "CLASS_NOT_FOUND"
	NoticeTeacherNotFound  NoticeCode = "TEACHER_NOT_FOUND"
	NoticeNoAssignments    NoticeCode = "NO_ASSIGNMENTS"
	NoticeAlreadyScheduled NoticeCode = "ALREADY_SCHEDULED"
)

// Notice is an informational outcome, not an error.
type Notice struct {
	Code    NoticeCode `json:"code"`
	Message string     `json:"message"`
}

// NotFound reports whether the notice means the target does not exist.
func (n *Notice) NotFound() bool {
	return n != nil && (n.Code == NoticeClassNotFound || n.Code == NoticeTeacherNotFound)
}

// ConflictView is one unplaced lesson with a machine-readable reason.
type ConflictView struct {
	TeacherID string                `json:"teacherId"`
	ClassID   string                `json:"classId"`
	CourseID  string                `json:"courseId"`
	Kind      models.AssignmentKind `json:"kind"`
	Track     models.Track          `json:"track"`
	Reason    string                `json:"reason"`
}

// WarningView is an assignment skipped because its data is inconsistent.
type WarningView struct {
	Code      string                `json:"code"`
	TeacherID string                `json:"teacherId"`
	ClassID   string                `json:"classId"`
	CourseID  string                `json:"courseId"`
	Kind      models.AssignmentKind `json:"kind"`
}

// GenerationResult is returned by every generation entry point.
type GenerationResult struct {
	Mode      GenerationMode          `json:"mode"`
	Scope     GenerationScope         `json:"scope,omitempty"`
	Success   bool                    `json:"success"`
	Placed    int                     `json:"placed"`
	Deleted   int64                   `json:"deleted"`
	Entries   []models.TimetableEntry `json:"entries"`
	Conflicts []ConflictView          `json:"conflicts"`
	Warnings  []WarningView           `json:"warnings,omitempty"`
	Notice    *Notice                 `json:"notice,omitempty"`
}

// ClearResult reports how many entries were removed.
type ClearResult struct {
	Deleted int64 `json:"deleted"`
}

// TimetableView is the stored timetable of a school, optionally filtered.
type TimetableView struct {
	SchoolID string                  `json:"schoolId"`
	Entries  []models.TimetableEntry `json:"entries"`
	Count    int                     `json:"count"`
}
