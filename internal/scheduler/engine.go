package scheduler

import (
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ConflictReason names the constraint that left a unit without a cell.
type ConflictReason string

const (
	ReasonTeacherUnavailable ConflictReason = "TEACHER_UNAVAILABLE"
	ReasonTeacherOverloaded  ConflictReason = "TEACHER_OVERLOADED"
	ReasonNoFreeSlotForClass ConflictReason = "NO_FREE_SLOT_FOR_CLASS"
	ReasonConsecutiveLimit   ConflictReason = "CONSECUTIVE_LIMIT"
)

// Conflict is a unit that could not be placed.
type Conflict struct {
	Unit   LessonUnit     `json:"unit"`
	Reason ConflictReason `json:"reason"`
}

// Placement is a unit committed to a cell.
type Placement struct {
	Unit LessonUnit      `json:"unit"`
	Cell models.TimeCell `json:"cell"`
}

// Result is the outcome of one engine run. Placements keep processing order.
type Result struct {
	Placed    []Placement `json:"placed"`
	Conflicts []Conflict  `json:"conflicts"`
}

// Success is true when every unit was placed.
func (r Result) Success() bool {
	return len(r.Conflicts) == 0
}

// Options tunes the engine.
type Options struct {
	// MaxConsecutive caps back-to-back periods of one teacher with one class on a day.
	MaxConsecutive int
	// MaxRelocations bounds how many blocked cells are tried when moving an earlier
	// placement out of the way. Zero disables relocation.
	MaxRelocations int
}

// DefaultOptions returns the system rules.
func DefaultOptions() Options {
	return Options{MaxConsecutive: 2, MaxRelocations: 16}
}

// Engine places lesson units onto a grid. It is stateless between runs.
type Engine struct {
	grid *TimeGrid
	opts Options
}

// NewEngine builds an engine for a grid.
func NewEngine(grid *TimeGrid, opts Options) *Engine {
	if opts.MaxConsecutive <= 0 {
		opts.MaxConsecutive = DefaultOptions().MaxConsecutive
	}
	if opts.MaxRelocations < 0 {
		opts.MaxRelocations = 0
	}
	return &Engine{grid: grid, opts: opts}
}

// Grid returns the grid the engine schedules on.
func (e *Engine) Grid() *TimeGrid {
	return e.grid
}

// Schedule places units most-constrained-teacher first. Occupancy rows constrain placement
// and count against teachers' weekly hours; they are never moved. Units that cannot be
// placed become conflicts and the run continues.
func (e *Engine) Schedule(units []LessonUnit, occupancy []models.TimetableEntry, availability *AvailabilityIndex) Result {
	state := newRunState(e.grid, e.opts, availability)
	state.seed(occupancy)

	ordered := state.order(units)
	result := Result{Conflicts: make([]Conflict, 0)}
	for _, unit := range ordered {
		if state.place(unit) {
			continue
		}
		result.Conflicts = append(result.Conflicts, Conflict{Unit: unit, Reason: state.diagnose(unit)})
	}
	result.Placed = state.placed
	if result.Placed == nil {
		result.Placed = make([]Placement, 0)
	}
	return result
}

const baselineOwner = -1

type cellKey struct {
	owner string
	cell  string
}

type pairDayKey struct {
	teacherID string
	classID   string
	day       models.Day
}

type classDayKey struct {
	classID string
	day     models.Day
}

type runState struct {
	grid         *TimeGrid
	teaching     []models.TimeCell
	opts         Options
	availability *AvailabilityIndex

	classBusy   map[cellKey]int
	teacherBusy map[cellKey]bool
	pairPeriods map[pairDayKey]map[int]bool
	classLoad   map[classDayKey]int
	placed      []Placement
}

func newRunState(grid *TimeGrid, opts Options, availability *AvailabilityIndex) *runState {
	return &runState{
		grid:         grid,
		teaching:     grid.TeachingCells(),
		opts:         opts,
		availability: availability,
		classBusy:    make(map[cellKey]int),
		teacherBusy:  make(map[cellKey]bool),
		pairPeriods:  make(map[pairDayKey]map[int]bool),
		classLoad:    make(map[classDayKey]int),
	}
}

func (s *runState) seed(occupancy []models.TimetableEntry) {
	for _, entry := range occupancy {
		cell, ok := s.resolveCell(entry)
		if !ok {
			continue
		}
		s.mark(entry.ClassID, entry.TeacherID, cell, baselineOwner)
		s.availability.Consume(entry.TeacherID, cell)
	}
}

func (s *runState) resolveCell(entry models.TimetableEntry) (models.TimeCell, bool) {
	if cell, ok := s.grid.Cell(entry.TimeCellID); ok {
		return cell, true
	}
	day, err := models.ParseDay(entry.Day)
	if err != nil {
		return models.TimeCell{}, false
	}
	return s.grid.CellAt(day, entry.Period)
}

// order sorts units by ascending teacher freedom with a total tie-break.
func (s *runState) order(units []LessonUnit) []LessonUnit {
	freedom := make(map[string]int)
	for _, unit := range units {
		if _, ok := freedom[unit.TeacherID]; ok {
			continue
		}
		free := 0
		for _, cell := range s.teaching {
			if s.availability.PermitsCell(unit.TeacherID, cell) && !s.teacherBusy[cellKey{owner: unit.TeacherID, cell: cell.ID}] {
				free++
			}
		}
		if s.availability.HasCap(unit.TeacherID) {
			if remaining := s.availability.RemainingWeeklyHours(unit.TeacherID); remaining < free {
				free = remaining
			}
		}
		freedom[unit.TeacherID] = free
	}

	ordered := make([]LessonUnit, len(units))
	copy(ordered, units)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if freedom[a.TeacherID] != freedom[b.TeacherID] {
			return freedom[a.TeacherID] < freedom[b.TeacherID]
		}
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		return a.Kind > b.Kind
	})
	return ordered
}

func (s *runState) place(unit LessonUnit) bool {
	if cell, ok := s.bestCell(unit, "", false); ok {
		s.commit(unit, cell)
		return true
	}
	return s.relocate(unit)
}

// bestCell returns the valid cell with the lightest class day, earliest first. A moving
// unit has already paid its hour, so only the static teacher rules apply to it.
func (s *runState) bestCell(unit LessonUnit, exclude string, moving bool) (models.TimeCell, bool) {
	var (
		best     models.TimeCell
		bestLoad int
		found    bool
	)
	for _, cell := range s.teaching {
		if cell.ID == exclude || !s.fits(unit, cell, moving) {
			continue
		}
		load := s.classLoad[classDayKey{classID: unit.ClassID, day: cell.Day}]
		if !found || load < bestLoad {
			best, bestLoad, found = cell, load, true
		}
	}
	return best, found
}

func (s *runState) fits(unit LessonUnit, cell models.TimeCell, moving bool) bool {
	if cell.IsBreak {
		return false
	}
	if _, busy := s.classBusy[cellKey{owner: unit.ClassID, cell: cell.ID}]; busy {
		return false
	}
	if s.teacherBusy[cellKey{owner: unit.TeacherID, cell: cell.ID}] {
		return false
	}
	if moving {
		if !s.availability.PermitsCell(unit.TeacherID, cell) {
			return false
		}
	} else if !s.availability.IsAllowed(unit.TeacherID, cell) {
		return false
	}
	return s.runLength(unit.TeacherID, unit.ClassID, cell) <= s.opts.MaxConsecutive
}

// runLength is the length of the contiguous block the pair would teach if cell were added.
func (s *runState) runLength(teacherID, classID string, cell models.TimeCell) int {
	periods := s.pairPeriods[pairDayKey{teacherID: teacherID, classID: classID, day: cell.Day}]
	length := 1
	for p := cell.Period - 1; periods[p]; p-- {
		length++
	}
	for p := cell.Period + 1; periods[p]; p++ {
		length++
	}
	return length
}

// relocate frees a cell held by an earlier placement of this run for the same class,
// moving that placement to another valid cell. Baseline rows are never moved.
func (s *runState) relocate(unit LessonUnit) bool {
	if s.opts.MaxRelocations == 0 || !s.availability.Known(unit.TeacherID) {
		return false
	}
	if s.availability.RemainingWeeklyHours(unit.TeacherID) <= 0 {
		return false
	}
	attempts := 0
	for _, cell := range s.teaching {
		owner, busy := s.classBusy[cellKey{owner: unit.ClassID, cell: cell.ID}]
		if !busy || owner == baselineOwner {
			continue
		}
		if s.teacherBusy[cellKey{owner: unit.TeacherID, cell: cell.ID}] || !s.availability.IsAllowed(unit.TeacherID, cell) {
			continue
		}
		if s.runLength(unit.TeacherID, unit.ClassID, cell) > s.opts.MaxConsecutive {
			continue
		}
		attempts++
		if attempts > s.opts.MaxRelocations {
			return false
		}

		blocker := s.placed[owner]
		s.unmark(blocker.Unit.ClassID, blocker.Unit.TeacherID, cell)
		target, ok := s.bestCell(blocker.Unit, cell.ID, true)
		if !ok {
			s.mark(blocker.Unit.ClassID, blocker.Unit.TeacherID, cell, owner)
			continue
		}
		s.mark(blocker.Unit.ClassID, blocker.Unit.TeacherID, target, owner)
		s.placed[owner].Cell = target
		s.commit(unit, cell)
		return true
	}
	return false
}

func (s *runState) commit(unit LessonUnit, cell models.TimeCell) {
	s.mark(unit.ClassID, unit.TeacherID, cell, len(s.placed))
	s.placed = append(s.placed, Placement{Unit: unit, Cell: cell})
	s.availability.Consume(unit.TeacherID, cell)
}

func (s *runState) mark(classID, teacherID string, cell models.TimeCell, owner int) {
	s.classBusy[cellKey{owner: classID, cell: cell.ID}] = owner
	s.teacherBusy[cellKey{owner: teacherID, cell: cell.ID}] = true
	key := pairDayKey{teacherID: teacherID, classID: classID, day: cell.Day}
	if s.pairPeriods[key] == nil {
		s.pairPeriods[key] = make(map[int]bool)
	}
	s.pairPeriods[key][cell.Period] = true
	s.classLoad[classDayKey{classID: classID, day: cell.Day}]++
}

func (s *runState) unmark(classID, teacherID string, cell models.TimeCell) {
	delete(s.classBusy, cellKey{owner: classID, cell: cell.ID})
	delete(s.teacherBusy, cellKey{owner: teacherID, cell: cell.ID})
	key := pairDayKey{teacherID: teacherID, classID: classID, day: cell.Day}
	delete(s.pairPeriods[key], cell.Period)
	s.classLoad[classDayKey{classID: classID, day: cell.Day}]--
}

// diagnose re-checks the constraints in a fixed order to name why no cell was valid.
func (s *runState) diagnose(unit LessonUnit) ConflictReason {
	if !s.availability.Known(unit.TeacherID) {
		return ReasonTeacherUnavailable
	}
	if s.availability.HasCap(unit.TeacherID) && s.availability.RemainingWeeklyHours(unit.TeacherID) <= 0 {
		return ReasonTeacherOverloaded
	}
	classFree := false
	teacherFits := false
	for _, cell := range s.teaching {
		if _, busy := s.classBusy[cellKey{owner: unit.ClassID, cell: cell.ID}]; busy {
			continue
		}
		classFree = true
		if s.teacherBusy[cellKey{owner: unit.TeacherID, cell: cell.ID}] || !s.availability.PermitsCell(unit.TeacherID, cell) {
			continue
		}
		teacherFits = true
	}
	switch {
	case !classFree:
		return ReasonNoFreeSlotForClass
	case !teacherFits:
		return ReasonTeacherUnavailable
	default:
		return ReasonConsecutiveLimit
	}
}
