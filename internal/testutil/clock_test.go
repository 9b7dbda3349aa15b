package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtDefault(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, DefaultStart, clock.Now())
	assert.Equal(t, DefaultStart.Add(time.Minute), clock.Now())
	assert.Equal(t, int64(2), clock.Reads())
}

func TestDeterministicClock_PeekDoesNotAdvance(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, DefaultStart, clock.Peek())
	assert.Equal(t, DefaultStart, clock.Peek())
	assert.Equal(t, int64(0), clock.Reads())
}

func TestDeterministicClock_SetDay(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()

	clock.SetDay("2025-03-05")
	now := clock.Now()
	assert.Equal(t, "2025-03-05", now.Format("2006-01-02"))
	assert.Equal(t, 9, now.Hour())
	assert.Equal(t, 0, now.Minute())
}

func TestDeterministicClock_SetDayPanicsOnBadDate(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Panics(t, func() { clock.SetDay("03/05/2025") })
}

func TestDeterministicClock_ConcurrentReadsAreUnique(t *testing.T) {
	clock := NewDeterministicClockAt(DefaultStart, time.Second)

	const n = 50
	seen := make(chan time.Time, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- clock.Now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		unique[ts] = true
	}
	require.Len(t, unique, n)
	assert.Equal(t, DefaultStart.Add(n*time.Second), clock.Peek())
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("plan")
	assert.Equal(t, "plan-1", ids.Next())
	assert.Equal(t, "plan-2", ids.Next())

	def := NewSequentialIDs("")
	assert.Equal(t, "id-1", def.Next())
}
