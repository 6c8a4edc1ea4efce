package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func TestSchoolKey(t *testing.T) {
	assert.Equal(t, "timetable:lock:school-1", SchoolKey("school-1"))
}

func TestLocalLockerTimesOutWhileHeld(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)

	release, err := locker.Acquire(context.Background(), SchoolKey("s1"))
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), SchoolKey("s1"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrLockTimeout.Code, appErr.Code)

	other, err := locker.Acquire(context.Background(), SchoolKey("s2"))
	require.NoError(t, err, "different schools do not contend")
	other()

	release()
	release()
	again, err := locker.Acquire(context.Background(), SchoolKey("s1"))
	require.NoError(t, err)
	again()
}

func TestLocalLockerSerializesHolders(t *testing.T) {
	locker := NewLocalLocker(0)
	var (
		active int32
		peak   int32
		wg     sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "k")
			if err != nil {
				return
			}
			defer release()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker(0)
	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
