package ws

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/session"
	"x-slice/backend/internal/world"
)

func TestGetCurrentServerTime(t *testing.T) {
	now := time.Now().UnixMilli()
	serverTime := GetCurrentServerTime()

	// Допускаем разницу в 100 мс
	if serverTime < now-100 || serverTime > now+100 {
		t.Errorf("GetCurrentServerTime() returned time too far from current time. Got %d, expected around %d", serverTime, now)
	}
}

func TestParseMessage(t *testing.T) {
	name, speed := "alice", 1.5

	tests := []struct {
		name     string
		json     string
		expected interface{}
		err      error
	}{
		{
			name:     "Settings",
			json:     `{"type":"settings","name":"alice","speed":1.5}`,
			expected: &SettingsMessage{Type: MessageTypeSettings, Name: &name, Speed: &speed},
		},
		{
			name:     "Settings - only name",
			json:     `{"type":"settings","name":"alice"}`,
			expected: &SettingsMessage{Type: MessageTypeSettings, Name: &name},
		},
		{
			name:     "Resize",
			json:     `{"type":"resize","width":800,"height":600}`,
			expected: &ResizeMessage{Type: MessageTypeResize, Width: 800, Height: 600},
		},
		{
			name:     "Start",
			json:     `{"type":"start"}`,
			expected: &ControlMessage{Type: MessageTypeStart},
		},
		{
			name:     "Restart",
			json:     `{"type":"restart"}`,
			expected: &ControlMessage{Type: MessageTypeRestart},
		},
		{
			name:     "Landmark",
			json:     `{"type":"landmark","x":0.25,"y":0.5,"detected":true,"timestamp_ms":1234}`,
			expected: &LandmarkMessage{Type: MessageTypeLandmark, X: 0.25, Y: 0.5, Detected: true, TimestampMs: 1234},
		},
		{
			name:     "Ping",
			json:     `{"type":"ping","client_time":42}`,
			expected: &PingMessage{Type: MessageTypePing, ClientTime: 42},
		},
		{
			name: "Unknown type",
			json: `{"type":"teleport"}`,
			err:  ErrUnknownMessage,
		},
		{
			name: "Missing type",
			json: `{"width":1}`,
			err:  ErrInvalidMessage,
		},
		{
			name: "Invalid JSON",
			json: `{"type":`,
			err:  ErrInvalidMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.json))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg)
		})
	}
}

func TestParseMessage_WrongFieldType(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":"resize","width":"wide"}`))
	assert.Error(t, err)
}

func TestNewFrameMessage(t *testing.T) {
	snap := session.Snapshot{
		Phase:  session.PhaseRunning,
		Score:  3,
		Speed:  1.5,
		Bounds: world.Bounds{Width: 800, Height: 600, FloorMargin: 32},
		Objects: []world.FallingObject{
			{ID: "a", X: 10, Y: 20, Radius: 60, Kind: world.KindHazard, FallSpeed: 250},
		},
		Trail: []gesture.FingertipSample{{X: 1, Y: 2, TimestampMs: 3}},
	}

	msg := NewFrameMessage(snap)
	assert.Equal(t, MessageTypeFrame, msg.Type)
	assert.Equal(t, "running", msg.State)
	assert.Equal(t, 568.0, msg.FloorY)
	assert.NotZero(t, msg.ServerTime)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"hazard"`)
	assert.Contains(t, string(raw), `"timestamp_ms":3`)
}

func TestNewFrameMessage_EmptyListsAreArrays(t *testing.T) {
	raw, err := json.Marshal(NewFrameMessage(session.Snapshot{Phase: session.PhaseStart}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"objects":[]`)
	assert.Contains(t, string(raw), `"trail":[]`)
}

func TestSanitizeMapValues(t *testing.T) {
	nan := math.NaN()

	data := map[string]interface{}{
		"x":      nan,
		"nested": map[string]interface{}{"y": nan, "ok": 1.5},
		"list":   []interface{}{nan, 2.0, map[string]interface{}{"z": nan}},
	}
	sanitizeMapValues(data)

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":0,"nested":{"y":0,"ok":1.5},"list":[0,2,{"z":0}]}`, string(raw))
}
