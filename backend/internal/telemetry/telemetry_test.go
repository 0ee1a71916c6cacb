package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetryManager_BoundedJournal(t *testing.T) {
	tm := NewTelemetryManager(3, log.New(io.Discard, "", 0))

	for i := 0; i < 5; i++ {
		tm.Record(Event{SessionID: "s1", Type: EventObjectSpawned, Score: i})
	}

	recent := tm.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, 2, recent[0].Score, "самые старые записи вытеснены")
	assert.Equal(t, 4, recent[2].Score)
	assert.NotZero(t, recent[0].Timestamp)

	last := tm.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, 4, last[0].Score)

	assert.Equal(t, 5, tm.Totals()[EventObjectSpawned])
}

func TestTelemetryManager_DisabledDropsEvents(t *testing.T) {
	tm := NewTelemetryManager(10, log.New(io.Discard, "", 0))
	tm.SetEnabled(false)
	tm.Record(Event{Type: EventSlice})

	assert.Empty(t, tm.Recent(0))
	assert.Empty(t, tm.Totals())
}

func TestTelemetryManager_JSONAndClear(t *testing.T) {
	tm := NewTelemetryManager(10, log.New(io.Discard, "", 0))
	tm.Record(Event{SessionID: "s1", Type: EventGameOver, Hazard: true, Score: 7})

	raw, err := tm.GetTelemetryJSON()
	require.NoError(t, err)

	var decoded struct {
		Events []Event        `json:"events"`
		Totals map[string]int `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Events, 1)
	assert.True(t, decoded.Events[0].Hazard)
	assert.Equal(t, 1, decoded.Totals[EventGameOver])

	tm.Clear()
	assert.Empty(t, tm.Recent(0))
	assert.Empty(t, tm.Totals())
}

func TestSetupTracing_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "x-slice-test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracing_CreatesProvider(t *testing.T) {
	// немаршрутизируемый адрес, экспорт не произойдет
	shutdown, err := SetupTracing(context.Background(), "x-slice-test", "http://192.0.2.1:4318")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
