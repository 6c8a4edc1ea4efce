package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is portable between PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS schools (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS classes (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		level TEXT NOT NULL DEFAULT '',
		stream TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS teachers (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		max_weekly_hours INTEGER NOT NULL DEFAULT 0,
		unavailable_days TEXT NOT NULL DEFAULT '',
		unavailable_periods TEXT NOT NULL DEFAULT '',
		track TEXT NOT NULL DEFAULT 'ACADEMIC'
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		periods_per_week INTEGER NOT NULL DEFAULT 1,
		track TEXT NOT NULL DEFAULT 'ACADEMIC'
	)`,
	`CREATE TABLE IF NOT EXISTS modules (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		periods_per_week INTEGER NOT NULL DEFAULT 1,
		track TEXT NOT NULL DEFAULT 'TECHNICAL'
	)`,
	`CREATE TABLE IF NOT EXISTS teacher_subject_assignments (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		teacher_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		subject_id TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trainer_module_assignments (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		trainer_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		module_id TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS timetable_entries (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		teacher_id TEXT NOT NULL,
		subject_id TEXT NULL,
		module_id TEXT NULL,
		time_cell_id TEXT NOT NULL,
		day TEXT NOT NULL,
		period INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_timetable_class_cell ON timetable_entries (school_id, class_id, time_cell_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_timetable_teacher_cell ON timetable_entries (school_id, teacher_id, time_cell_id)`,
	`CREATE INDEX IF NOT EXISTS idx_timetable_school ON timetable_entries (school_id)`,
}

// Migrate creates the tables the timetable service reads and writes.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
