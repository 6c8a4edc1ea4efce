package scheduler

import (
	"math"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Unlimited is reported as remaining hours for teachers without a weekly cap.
const Unlimited = math.MaxInt32

type teacherWindow struct {
	capped    bool
	remaining int
	days      map[models.Day]bool
	periods   map[int]bool
	allowed   int
}

// AvailabilityIndex holds per-teacher forbidden cells and a running weekly-hour counter.
// It is rebuilt for every run and mutated only by the engine.
type AvailabilityIndex struct {
	teachers map[string]*teacherWindow
}

// NewAvailabilityIndex precomputes the static availability of every teacher on the grid.
// A MaxWeeklyHours of zero or less means uncapped.
func NewAvailabilityIndex(grid *TimeGrid, teachers []models.Teacher) *AvailabilityIndex {
	idx := &AvailabilityIndex{teachers: make(map[string]*teacherWindow, len(teachers))}
	for _, teacher := range teachers {
		window := &teacherWindow{
			capped:    teacher.MaxWeeklyHours > 0,
			remaining: teacher.MaxWeeklyHours,
			days:      make(map[models.Day]bool, len(teacher.UnavailableDays)),
			periods:   make(map[int]bool, len(teacher.UnavailablePeriods)),
		}
		for _, day := range teacher.UnavailableDays {
			window.days[day] = true
		}
		for _, period := range teacher.UnavailablePeriods {
			window.periods[period] = true
		}
		for _, cell := range grid.TeachingCells() {
			if window.permits(cell) {
				window.allowed++
			}
		}
		idx.teachers[teacher.ID] = window
	}
	return idx
}

func (w *teacherWindow) permits(cell models.TimeCell) bool {
	return !cell.IsBreak && !w.days[cell.Day] && !w.periods[cell.Period]
}

// Known reports whether the teacher was part of the index.
func (a *AvailabilityIndex) Known(teacherID string) bool {
	_, ok := a.teachers[teacherID]
	return ok
}

// IsAllowed reports whether the teacher may be placed in the cell.
func (a *AvailabilityIndex) IsAllowed(teacherID string, cell models.TimeCell) bool {
	window, ok := a.teachers[teacherID]
	if !ok {
		return false
	}
	if window.capped && window.remaining <= 0 {
		return false
	}
	return window.permits(cell)
}

// PermitsCell checks only the static rules (break, unavailable day and period).
func (a *AvailabilityIndex) PermitsCell(teacherID string, cell models.TimeCell) bool {
	window, ok := a.teachers[teacherID]
	return ok && window.permits(cell)
}

// HasCap reports whether the teacher has a weekly hour limit.
func (a *AvailabilityIndex) HasCap(teacherID string) bool {
	window, ok := a.teachers[teacherID]
	return ok && window.capped
}

// RemainingWeeklyHours returns the hours left this run, or Unlimited.
func (a *AvailabilityIndex) RemainingWeeklyHours(teacherID string) int {
	window, ok := a.teachers[teacherID]
	if !ok {
		return 0
	}
	if !window.capped {
		return Unlimited
	}
	if window.remaining < 0 {
		return 0
	}
	return window.remaining
}

// AllowedCellCount is the number of teaching cells the static rules permit.
func (a *AvailabilityIndex) AllowedCellCount(teacherID string) int {
	window, ok := a.teachers[teacherID]
	if !ok {
		return 0
	}
	return window.allowed
}

// Consume books one hour of the teacher's weekly budget.
func (a *AvailabilityIndex) Consume(teacherID string, _ models.TimeCell) {
	window, ok := a.teachers[teacherID]
	if !ok || !window.capped {
		return
	}
	window.remaining--
}
