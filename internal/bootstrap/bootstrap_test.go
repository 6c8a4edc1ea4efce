package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/lock"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Env:      config.EnvDevelopment,
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Lock:     config.LockConfig{Backend: config.LockBackendLocal, Timeout: time.Second},
		Cache:    config.CacheConfig{TTL: time.Minute},
		Scheduler: config.SchedulerConfig{
			Days:           []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"},
			PeriodsPerDay:  8,
			BreakPeriods:   []int{4},
			MaxConsecutive: 2,
			MaxRelocations: 16,
		},
	}
}

func TestNewWiresSQLiteApp(t *testing.T) {
	app, err := New(sqliteConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	ctx := context.Background()

	require.NoError(t, app.Migrate(ctx))
	require.NoError(t, app.Ping(ctx))
	assert.False(t, app.Cache.Enabled())

	seed := []string{
		`INSERT INTO schools (id, name) VALUES ('s1', 'SMK Satu')`,
		`INSERT INTO classes (id, school_id, level, stream) VALUES ('C1', 's1', 'X', 'TKJ')`,
		`INSERT INTO teachers (id, school_id, max_weekly_hours, unavailable_days, unavailable_periods, track) VALUES ('T1', 's1', 10, 'SATURDAY', '', 'ACADEMIC')`,
		`INSERT INTO subjects (id, school_id, periods_per_week, track) VALUES ('Subj1', 's1', 3, 'ACADEMIC')`,
		`INSERT INTO teacher_subject_assignments (id, school_id, teacher_id, class_id, subject_id) VALUES ('a1', 's1', 'T1', 'C1', 'Subj1')`,
	}
	for _, stmt := range seed {
		_, err := app.DB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	result, err := app.Timetable.GenerateForClass(ctx, dto.GenerateClassRequest{SchoolID: "s1", ClassID: "C1"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Placed)

	view, err := app.Timetable.ListTimetable(ctx, dto.TimetableQuery{SchoolID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 3, view.Count)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Scheduler.Days = []string{"FUNDAY"}
	_, err := New(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = sqliteConfig()
	cfg.Lock.Backend = config.LockBackendRedis
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewLockerLocal(t *testing.T) {
	locker, err := newLocker(config.LockConfig{}, nil, zap.NewNop())
	require.NoError(t, err)
	_, ok := locker.(*lock.LocalLocker)
	assert.True(t, ok)

	_, err = newLocker(config.LockConfig{Backend: "etcd"}, nil, zap.NewNop())
	assert.Error(t, err)
}
