package telemetry

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// Виды событий журнала
const (
	EventSessionStarted = "session_started"
	EventObjectSpawned  = "object_spawned"
	EventObjectSliced   = "object_sliced"
	EventObjectMissed   = "object_missed"
	EventSlice          = "slice"
	EventGameOver       = "game_over"
	EventRestart        = "restart"
)

// Vector2 позиция на игровом поле
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event запись журнала сессии
type Event struct {
	Timestamp  int64   `json:"timestamp"`             // Время в миллисекундах
	SessionID  string  `json:"session_id"`            // ID сессии
	Type       string  `json:"type"`                  // Вид события
	ObjectID   string  `json:"object_id,omitempty"`   // ID объекта
	ObjectKind string  `json:"object_kind,omitempty"` // normal / hazard
	Position   Vector2 `json:"position"`              // Позиция объекта или начало разреза
	Score      int     `json:"score"`                 // Счет на момент события
	Hazard     bool    `json:"hazard,omitempty"`      // Для game_over: причина
}

// TelemetryManager хранит последние события всех сессий в кольцевом буфере
type TelemetryManager struct {
	enabled    bool
	data       []Event
	mutex      sync.RWMutex
	maxEntries int
	logger     *log.Logger

	// Счетчики по видам событий
	counters      map[string]int
	totals        map[string]int
	lastPrint     time.Time
	printInterval time.Duration
}

// NewTelemetryManager создает журнал на maxEntries последних записей
func NewTelemetryManager(maxEntries int, logger *log.Logger) *TelemetryManager {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TelemetryManager{
		enabled:       true,
		data:          make([]Event, 0, maxEntries),
		maxEntries:    maxEntries,
		logger:        logger,
		counters:      make(map[string]int),
		totals:        make(map[string]int),
		lastPrint:     time.Now(),
		printInterval: 10 * time.Second,
	}
}

// Record добавляет событие в журнал
func (tm *TelemetryManager) Record(ev Event) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}

	tm.data = append(tm.data, ev)
	if len(tm.data) > tm.maxEntries {
		// сдвигаем на месте, чтобы не расти бесконечно по емкости
		copy(tm.data, tm.data[len(tm.data)-tm.maxEntries:])
		tm.data = tm.data[:tm.maxEntries]
	}

	tm.counters[ev.Type]++
	tm.totals[ev.Type]++
}

// PrintSummary выводит счетчики за интервал и сбрасывает их
func (tm *TelemetryManager) PrintSummary() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}
	now := time.Now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return
	}

	keys := make([]string, 0, len(tm.counters))
	for key := range tm.counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tm.logger.Printf("[Telemetry] %d entries buffered", len(tm.data))
	for _, key := range keys {
		tm.logger.Printf("[Telemetry] %s: %d", key, tm.counters[key])
	}

	tm.counters = make(map[string]int)
	tm.lastPrint = now
}

// Recent возвращает последние n событий, от старых к новым. n <= 0 - все.
func (tm *TelemetryManager) Recent(n int) []Event {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	start := 0
	if n > 0 && n < len(tm.data) {
		start = len(tm.data) - n
	}
	result := make([]Event, len(tm.data)-start)
	copy(result, tm.data[start:])
	return result
}

// Totals возвращает накопленные счетчики по видам событий
func (tm *TelemetryManager) Totals() map[string]int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	result := make(map[string]int, len(tm.totals))
	for k, v := range tm.totals {
		result[k] = v
	}
	return result
}

// GetTelemetryJSON возвращает журнал в JSON формате
func (tm *TelemetryManager) GetTelemetryJSON() ([]byte, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	return json.MarshalIndent(struct {
		Events []Event        `json:"events"`
		Totals map[string]int `json:"totals"`
	}{tm.data, tm.totals}, "", "  ")
}

// SetEnabled включает/выключает запись
func (tm *TelemetryManager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.enabled = enabled
	tm.logger.Printf("[Telemetry] recording enabled: %t", enabled)
}

// Clear очищает журнал и счетчики
func (tm *TelemetryManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = tm.data[:0]
	tm.counters = make(map[string]int)
	tm.totals = make(map[string]int)
}
