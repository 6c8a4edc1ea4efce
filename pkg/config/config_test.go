package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}, cfg.Scheduler.Days)
	assert.Equal(t, 8, cfg.Scheduler.PeriodsPerDay)
	assert.Equal(t, []int{4}, cfg.Scheduler.BreakPeriods)
	assert.Equal(t, 2, cfg.Scheduler.MaxConsecutive)
	assert.Equal(t, LockBackendLocal, cfg.Lock.Backend)
	assert.Equal(t, 10*time.Second, cfg.Lock.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestOverrides(t *testing.T) {
	v := newTestViper()
	v.Set("DB_DRIVER", "SQLITE3")
	v.Set("SCHEDULER_DAYS", "monday, tuesday")
	v.Set("SCHEDULER_BREAK_PERIODS", "3, x, 6")
	v.Set("SCHEDULER_LOCK_TIMEOUT", "not-a-duration")
	v.Set("LOCK_BACKEND", "Redis")

	cfg := fromViper(v)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, []string{"MONDAY", "TUESDAY"}, cfg.Scheduler.Days)
	assert.Equal(t, []int{3, 6}, cfg.Scheduler.BreakPeriods)
	assert.Equal(t, 10*time.Second, cfg.Lock.Timeout)
	assert.Equal(t, LockBackendRedis, cfg.Lock.Backend)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a ,, b "))
}
