package scheduler

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TimeGrid is the immutable weekly schedulable space.
type TimeGrid struct {
	days          []models.Day
	periodsPerDay int
	cells         []models.TimeCell
	byID          map[string]int
}

// NewTimeGrid builds a grid of periods 1..periodsPerDay on every day. Periods listed in
// breakPeriods are break cells on every day.
func NewTimeGrid(days []models.Day, periodsPerDay int, breakPeriods []int) (*TimeGrid, error) {
	if periodsPerDay < 1 {
		return nil, fmt.Errorf("periods per day must be >= 1, got %d", periodsPerDay)
	}
	seen := make(map[models.Day]bool, len(days))
	normalized := make([]models.Day, 0, len(days))
	for _, day := range days {
		if !day.Valid() {
			return nil, fmt.Errorf("invalid day %d", int(day))
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		normalized = append(normalized, day)
	}
	if len(normalized) == 0 {
		return nil, fmt.Errorf("grid needs at least one day")
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })

	breaks := make(map[int]bool, len(breakPeriods))
	for _, period := range breakPeriods {
		if period < 1 || period > periodsPerDay {
			return nil, fmt.Errorf("break period %d outside 1..%d", period, periodsPerDay)
		}
		breaks[period] = true
	}
	if len(breaks) == periodsPerDay {
		return nil, fmt.Errorf("grid has no teaching periods")
	}

	grid := &TimeGrid{
		days:          normalized,
		periodsPerDay: periodsPerDay,
		cells:         make([]models.TimeCell, 0, len(normalized)*periodsPerDay),
		byID:          make(map[string]int, len(normalized)*periodsPerDay),
	}
	for _, day := range normalized {
		for period := 1; period <= periodsPerDay; period++ {
			cell := models.TimeCell{
				ID:      models.CellID(day, period),
				Day:     day,
				Period:  period,
				IsBreak: breaks[period],
			}
			grid.byID[cell.ID] = len(grid.cells)
			grid.cells = append(grid.cells, cell)
		}
	}
	return grid, nil
}

// NewTimeGridFromNames parses day names, as read from configuration.
func NewTimeGridFromNames(dayNames []string, periodsPerDay int, breakPeriods []int) (*TimeGrid, error) {
	days := make([]models.Day, 0, len(dayNames))
	for _, name := range dayNames {
		day, err := models.ParseDay(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return NewTimeGrid(days, periodsPerDay, breakPeriods)
}

// Days returns the grid days in order.
func (g *TimeGrid) Days() []models.Day {
	out := make([]models.Day, len(g.days))
	copy(out, g.days)
	return out
}

// PeriodsPerDay returns the number of periods on each day, breaks included.
func (g *TimeGrid) PeriodsPerDay() int {
	return g.periodsPerDay
}

// Cells returns every cell ordered by day then period.
func (g *TimeGrid) Cells() []models.TimeCell {
	out := make([]models.TimeCell, len(g.cells))
	copy(out, g.cells)
	return out
}

// TeachingCells returns the non-break cells ordered by day then period.
func (g *TimeGrid) TeachingCells() []models.TimeCell {
	out := make([]models.TimeCell, 0, len(g.cells))
	for _, cell := range g.cells {
		if !cell.IsBreak {
			out = append(out, cell)
		}
	}
	return out
}

// Cell looks a cell up by id.
func (g *TimeGrid) Cell(id string) (models.TimeCell, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return models.TimeCell{}, false
	}
	return g.cells[idx], true
}

// CellAt looks a cell up by day and period.
func (g *TimeGrid) CellAt(day models.Day, period int) (models.TimeCell, bool) {
	return g.Cell(models.CellID(day, period))
}
