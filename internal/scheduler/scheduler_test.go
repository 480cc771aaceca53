package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func mustClock(hour, minute int) time.Time {
	return time.Date(0, time.January, 1, hour, minute, 0, 0, time.UTC)
}

func TestNextTriggerSameDay(t *testing.T) {
	t.Parallel()

	s := New(mustClock(8, 0), filepath.Join(t.TempDir(), "run.lock"), fixedClock{}, zap.NewNop())

	now := time.Date(2024, time.March, 5, 6, 30, 0, 0, time.UTC)
	next := s.NextTrigger(now)
	require.Equal(t, time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC), next)
}

func TestNextTriggerRollsToTomorrow(t *testing.T) {
	t.Parallel()

	s := New(mustClock(8, 0), filepath.Join(t.TempDir(), "run.lock"), fixedClock{}, zap.NewNop())

	now := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	next := s.NextTrigger(now)
	require.Equal(t, time.Date(2024, time.March, 6, 8, 0, 0, 0, time.UTC), next)
}

func TestRunOnceExecutesTask(t *testing.T) {
	t.Parallel()

	s := New(mustClock(8, 0), filepath.Join(t.TempDir(), "run.lock"), fixedClock{}, zap.NewNop())

	ran := false
	s.RunOnce(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	require.True(t, ran)
}

func TestRunOnceDropsOverlappingTrigger(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "run.lock")
	s := New(mustClock(8, 0), lockPath, fixedClock{}, zap.NewNop())

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.RunOnce(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// Second trigger while the first run holds the lock: dropped.
	second := New(mustClock(8, 0), lockPath, fixedClock{}, zap.NewNop())
	overlapped := false
	second.RunOnce(context.Background(), func(context.Context) error {
		overlapped = true
		return nil
	})
	require.False(t, overlapped)

	close(release)
	wg.Wait()
}
