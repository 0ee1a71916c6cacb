// Package gesture превращает поток позиций кончика пальца в события разреза и хвост для отрисовки.
package gesture

import (
	"log"
	"math"
	"sync"
)

// Config пороги распознавания жеста
type Config struct {
	MovementThresholdPx float64 // Смещение по любой оси, после которого движение считается разрезом
	TimeWindowMs        int64   // Медленнее этого окна движение не считается разрезом
	TrailLength         int     // Длина хвоста для отрисовки
}

// DefaultConfig возвращает пороги по умолчанию
func DefaultConfig() Config {
	return Config{
		MovementThresholdPx: 30,
		TimeWindowMs:        200,
		TrailLength:         10,
	}
}

// Aggregator копит разрезы до следующего шага симуляции и держит ограниченный хвост.
// Все методы безопасны для вызова из разных горутин.
type Aggregator struct {
	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	last    *FingertipSample
	trail   []FingertipSample
	pending []SliceEvent

	samples uint64
	slices  uint64
}

// NewAggregator создает агрегатор жестов
func NewAggregator(cfg Config, logger *log.Logger) *Aggregator {
	if cfg.TrailLength <= 0 {
		cfg.TrailLength = DefaultConfig().TrailLength
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Aggregator{
		cfg:    cfg,
		logger: logger,
		trail:  make([]FingertipSample, 0, cfg.TrailLength),
	}
}

// Push принимает новый сэмпл. Возвращает true, если он породил разрез.
func (a *Aggregator) Push(sample FingertipSample) bool {
	if !sample.valid() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.samples++

	a.trail = append(a.trail, sample)
	if len(a.trail) > a.cfg.TrailLength {
		a.trail = a.trail[len(a.trail)-a.cfg.TrailLength:]
	}

	fired := false
	if prev := a.last; prev != nil {
		dx := sample.X - prev.X
		dy := sample.Y - prev.Y
		dt := sample.TimestampMs - prev.TimestampMs

		moved := math.Abs(dx) > a.cfg.MovementThresholdPx || math.Abs(dy) > a.cfg.MovementThresholdPx
		if moved && dt < a.cfg.TimeWindowMs {
			a.pending = append(a.pending, SliceEvent{
				X1:          prev.X,
				Y1:          prev.Y,
				X2:          sample.X,
				Y2:          sample.Y,
				TimestampMs: sample.TimestampMs,
			})
			a.slices++
			fired = true
		}
	}

	last := sample
	a.last = &last

	return fired
}

// PushLandmark проецирует landmark и передает его в Push. Отсутствующая рука пропускается.
func (a *Aggregator) PushLandmark(lm *Landmark, width, height float64, timestampMs int64) bool {
	sample, ok := Project(lm, width, height, timestampMs)
	if !ok {
		return false
	}
	return a.Push(sample)
}

// Drain забирает накопленные разрезы и очищает очередь одной операцией
func (a *Aggregator) Drain() []SliceEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pending) == 0 {
		return nil
	}
	batch := a.pending
	a.pending = nil
	return batch
}

// Pending возвращает количество разрезов, ожидающих обработки
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Trail возвращает копию хвоста от старых точек к новым
func (a *Aggregator) Trail() []FingertipSample {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]FingertipSample, len(a.trail))
	copy(out, a.trail)
	return out
}

// Reset забывает последнюю позицию, хвост и неразобранные разрезы
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.last = nil
	a.trail = a.trail[:0]
	a.pending = nil
}

// Stats возвращает счетчики сэмплов и разрезов
func (a *Aggregator) Stats() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	return map[string]interface{}{
		"samples":        a.samples,
		"slices":         a.slices,
		"pending":        len(a.pending),
		"trail_length":   len(a.trail),
		"threshold_px":   a.cfg.MovementThresholdPx,
		"time_window_ms": a.cfg.TimeWindowMs,
	}
}
