// store_test.go - Tests for the DuckDB telemetry archive
package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motion-console/backend/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), 2, "256MB")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func snapshotAt(x, y, z float64) *models.MachineSnapshot {
	return &models.MachineSnapshot{
		Current: models.CurrentState{
			Position: models.AxisTriple{X: x, Y: y, Z: z},
			Speed:    models.AxisTriple{X: 300, Y: 300, Z: 150},
		},
	}
}

func TestAppendAndQueryTelemetry(t *testing.T) {
	store := newTestStore(t)

	store.AppendTelemetry(snapshotAt(1, 2, 3))
	store.AppendTelemetry(snapshotAt(4, 5, 6))

	// QueryTelemetry flushes the pending batch itself.
	samples, err := store.QueryTelemetry(context.Background(), 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 1.0, samples[0].PosX)
	assert.Equal(t, 4.0, samples[1].PosX)
	assert.Equal(t, 300.0, samples[0].SpeedX)
	assert.LessOrEqual(t, samples[0].Timestamp, samples[1].Timestamp, "oldest first")
}

func TestQueryTelemetry_TimeWindow(t *testing.T) {
	store := newTestStore(t)

	store.AppendTelemetry(snapshotAt(1, 0, 0))
	require.NoError(t, store.Flush())

	future := time.Now().Add(time.Hour).UnixMilli()
	samples, err := store.QueryTelemetry(context.Background(), future, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, samples, "window past the data must match nothing")
}

func TestQueryTelemetry_Limit(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		store.AppendTelemetry(snapshotAt(float64(i), 0, 0))
	}
	samples, err := store.QueryTelemetry(context.Background(), 0, 0, 3)
	require.NoError(t, err)
	assert.Len(t, samples, 3)
}

func TestRecordRunState_DeduplicatesUnchangedStates(t *testing.T) {
	store := newTestStore(t)

	running := models.RunState{Running: true, Route: "r1", Index: 1, Total: 5}
	store.RecordRunState(running)
	store.RecordRunState(running)
	store.RecordRunState(running)
	store.RecordRunState(models.RunState{Running: false})

	events, err := store.RunEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2, "only transitions are archived")

	// Newest first.
	assert.False(t, events[0].Running)
	assert.True(t, events[1].Running)
	assert.Equal(t, "r1", events[1].Route)
}

func TestPruneOlderThan(t *testing.T) {
	store := newTestStore(t)

	store.AppendTelemetry(snapshotAt(1, 0, 0))
	store.RecordRunState(models.RunState{Running: true, Route: "r1"})
	require.NoError(t, store.Flush())

	require.NoError(t, store.PruneOlderThan(time.Now().Add(time.Minute)))

	samples, err := store.QueryTelemetry(context.Background(), 0, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, samples)

	events, err := store.RunEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, 2, "256MB")
	require.NoError(t, err)
	store.AppendTelemetry(snapshotAt(7, 8, 9))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir, 2, "256MB")
	require.NoError(t, err)
	defer reopened.Close()

	samples, err := reopened.QueryTelemetry(context.Background(), 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 7.0, samples[0].PosX)
}
