package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
)

var (
	okLabel      = color.New(color.FgGreen).SprintFunc()
	partialLabel = color.New(color.FgYellow).SprintFunc()
	failLabel    = color.New(color.FgRed).SprintFunc()
	noticeLabel  = color.New(color.FgCyan).SprintFunc()
)

func statusLabel(result *dto.GenerationResult) string {
	switch {
	case result.Notice != nil && result.Notice.NotFound():
		return failLabel("NOT FOUND")
	case result.Notice != nil:
		return noticeLabel("SKIPPED")
	case result.Success:
		return okLabel("OK")
	default:
		return partialLabel("PARTIAL")
	}
}

func printResult(w io.Writer, schoolID string, result *dto.GenerationResult) {
	fmt.Fprintf(w, "%s %s [%s]", statusLabel(result), schoolID, result.Mode)
	if result.Scope != "" {
		fmt.Fprintf(w, " scope=%s", result.Scope)
	}
	fmt.Fprintln(w)

	if result.Notice != nil {
		fmt.Fprintf(w, "  %s: %s\n", result.Notice.Code, result.Notice.Message)
		return
	}
	fmt.Fprintf(w, "  placed=%d deleted=%d conflicts=%d\n", result.Placed, result.Deleted, len(result.Conflicts))
	for _, conflict := range result.Conflicts {
		fmt.Fprintf(w, "  %s %s teacher=%s class=%s %s=%s\n",
			failLabel("x"), conflict.Reason, conflict.TeacherID, conflict.ClassID, kindLabel(conflict.Kind), conflict.CourseID)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  %s %s teacher=%s class=%s %s=%s\n",
			partialLabel("!"), warning.Code, warning.TeacherID, warning.ClassID, kindLabel(warning.Kind), warning.CourseID)
	}
}

func kindLabel(kind models.AssignmentKind) string {
	if kind == models.AssignmentKindModule {
		return "module"
	}
	return "subject"
}

// printEntries renders one table per class with the grid periods as rows and its days as columns.
func printEntries(w io.Writer, grid *scheduler.TimeGrid, entries []models.TimetableEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no timetable entries")
		return
	}

	byClass := make(map[string][]models.TimetableEntry)
	classes := make([]string, 0)
	for _, entry := range entries {
		if _, ok := byClass[entry.ClassID]; !ok {
			classes = append(classes, entry.ClassID)
		}
		byClass[entry.ClassID] = append(byClass[entry.ClassID], entry)
	}
	sort.Strings(classes)

	title := lipgloss.NewStyle().Bold(true)
	for _, classID := range classes {
		fmt.Fprintln(w, title.Render("Class "+classID))
		rendered, offGrid := classTable(grid, byClass[classID])
		fmt.Fprintln(w, rendered)
		for _, entry := range offGrid {
			fmt.Fprintf(w, "  %s %s period %d outside the grid: %s (%s)\n",
				partialLabel("!"), entry.Day, entry.Period, entry.CourseID(), entry.TeacherID)
		}
	}
}

// classTable returns the rendered table and the entries that fall on no grid cell.
func classTable(grid *scheduler.TimeGrid, entries []models.TimetableEntry) (string, []models.TimetableEntry) {
	cells := make(map[string]string, len(entries))
	var offGrid []models.TimetableEntry
	for _, entry := range entries {
		day, err := models.ParseDay(entry.Day)
		if err != nil {
			offGrid = append(offGrid, entry)
			continue
		}
		cell, ok := grid.CellAt(day, entry.Period)
		if !ok {
			offGrid = append(offGrid, entry)
			continue
		}
		cells[cell.ID] = entry.CourseID() + " (" + entry.TeacherID + ")"
	}

	days := grid.Days()
	headers := make([]string, 0, len(days)+1)
	headers = append(headers, "P")
	for _, day := range days {
		headers = append(headers, day.String())
	}

	rows := make([][]string, 0, grid.PeriodsPerDay())
	for period := 1; period <= grid.PeriodsPerDay(); period++ {
		row := make([]string, 0, len(headers))
		row = append(row, strconv.Itoa(period))
		for _, day := range days {
			cell, _ := grid.CellAt(day, period)
			if cell.IsBreak {
				row = append(row, "break")
				continue
			}
			row = append(row, cells[cell.ID])
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String(), offGrid
}
