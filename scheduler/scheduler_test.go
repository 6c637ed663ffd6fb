package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/eorzealink/server/scheduler"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTickerRuns(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	defer s.Stop()

	var runs atomic.Int32
	s.AddTicker("tick", 5*time.Millisecond, func() { runs.Add(1) })

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		2*time.Second, 5*time.Millisecond)
}

func TestTickerSurvivesPanic(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	defer s.Stop()

	var runs atomic.Int32
	s.AddTicker("panicky", 5*time.Millisecond, func() {
		runs.Add(1)
		panic("boom")
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestRemoveStopsTask(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	defer s.Stop()

	var runs atomic.Int32
	s.AddTicker("tick", 5*time.Millisecond, func() { runs.Add(1) })
	s.Remove("tick")

	before := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, runs.Load(), before+1, "at most one in-flight tick after removal")
}

func TestReplaceByName(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	defer s.Stop()

	var first, second atomic.Int32
	s.AddTicker("tick", 5*time.Millisecond, func() { first.Add(1) })
	s.AddTicker("tick", 5*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
	got := first.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, first.Load(), got+1, "replaced task no longer ticks")
}

func TestStopPreventsNewTasks(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	s.Stop()

	var runs atomic.Int32
	s.AddTicker("late", time.Millisecond, func() { runs.Add(1) })
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, runs.Load())
}
