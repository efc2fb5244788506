package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateTable_Cost(t *testing.T) {
	assert.InDelta(t, 3.0, DefaultRates.Cost(1_000_000, 0), 1e-9)
	assert.InDelta(t, 15.0, DefaultRates.Cost(0, 1_000_000), 1e-9)
	assert.InDelta(t, 0.000018, DefaultRates.Cost(1, 1), 1e-12)
}

func TestTracker_RecordAndReset(t *testing.T) {
	tr := NewTracker(DefaultRates)

	tr.Record(1000, 200)
	tr.Record(500, 100)

	assert.Equal(t, int64(500), tr.LastInputTokens())
	assert.Equal(t, int64(100), tr.LastOutputTokens())
	assert.Equal(t, int64(1500), tr.TotalInputTokens())
	assert.Equal(t, int64(300), tr.TotalOutputTokens())
	assert.InDelta(t, 1500*3e-6+300*15e-6, tr.TotalCost(), 1e-12)
	assert.Equal(t, 2, tr.Snapshot().Calls)

	tr.Reset()
	assert.Equal(t, Usage{}, tr.Snapshot())
}

func TestTracker_ConcurrentRecord(t *testing.T) {
	tr := NewTracker(RateTable{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(2, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), tr.TotalInputTokens())
	assert.Equal(t, int64(50), tr.TotalOutputTokens())
	assert.Zero(t, tr.TotalCost())
}
