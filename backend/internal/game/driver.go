package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"x-slice/backend/internal/world"
)

var ErrNotIdle = errors.New("driver is not idle")

// State состояние игрового цикла
type State int

const (
	StateIdle   State = iota // Не запущен
	StateActive              // Шагает
	StateHalted              // Игра окончена, ждет внешнего рестарта
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateHalted:
		return "halted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sink получатель очков и сигнала окончания игры
type Sink interface {
	OnScore()
	OnGameOver(causedByHazard bool)
}

// Observer необязательное расширение Sink для наблюдения за появлением и удалением объектов
type Observer interface {
	OnSpawned(objs []world.FallingObject)
	OnRemoved(objs []world.FallingObject)
}

// DriverConfig настройки шага
type DriverConfig struct {
	// MaxFrameDelta ограничивает время одного шага после паузы в доставке кадров. 0 - без ограничения.
	MaxFrameDelta time.Duration
}

// DefaultDriverConfig возвращает настройки по умолчанию
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{MaxFrameDelta: 100 * time.Millisecond}
}

// Фазы шага в порядке выполнения
const (
	PhaseSpawn     = "spawn"
	PhaseMove      = "move"
	PhaseFloor     = "floor"
	PhaseCollision = "collision"
)

// Driver пошаговый оркестратор: спавн -> движение -> проверка пола -> коллизии.
// Шаги вызывает хост по своему сигналу "следующий кадр"; после остановки драйвер просто
// перестает просить следующий шаг.
type Driver struct {
	cfg      DriverConfig
	world    *world.Manager
	policy   *SpawnPolicy
	resolver *CollisionResolver
	events   EventSource
	sink     Sink
	observer Observer
	logger   *log.Logger

	perfMonitor *PerformanceMonitor

	mu              sync.RWMutex
	state           State
	bounds          world.Bounds
	speedMultiplier float64
	lastStep        time.Time
	tickCount       uint64
	clampedSteps    uint64
	haltedByHazard  bool
}

// NewDriver создает драйвер. sink получает очки и окончание игры, events - источник разрезов.
func NewDriver(cfg DriverConfig, w *world.Manager, policy *SpawnPolicy, events EventSource, sink Sink, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.Default()
	}

	d := &Driver{
		cfg:             cfg,
		world:           w,
		policy:          policy,
		resolver:        NewCollisionResolver(w, logger),
		events:          events,
		sink:            sink,
		logger:          logger,
		perfMonitor:     NewPerformanceMonitor(60, 4*time.Millisecond),
		speedMultiplier: 1,
	}
	if obs, ok := sink.(Observer); ok {
		d.observer = obs
	}
	for _, phase := range []string{PhaseSpawn, PhaseMove, PhaseFloor, PhaseCollision} {
		d.perfMonitor.initPhaseMetrics(phase)
	}

	return d
}

// Start переводит драйвер из Idle в Active: очищает поле и таймер спавна
func (d *Driver) Start(now time.Time, bounds world.Bounds, speedMultiplier float64) error {
	if !bounds.Valid() {
		return fmt.Errorf("start: invalid bounds %+v", bounds)
	}
	if speedMultiplier <= 0 {
		speedMultiplier = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateIdle {
		return fmt.Errorf("start from %s: %w", d.state, ErrNotIdle)
	}

	d.world.Reset()
	d.policy.Reset()
	d.events.Drain()

	d.state = StateActive
	d.bounds = bounds
	d.speedMultiplier = speedMultiplier
	d.lastStep = now
	d.tickCount = 0
	d.haltedByHazard = false

	d.logger.Printf("[Driver] started: field %.0fx%.0f, floor at %.0f, speed x%.1f",
		bounds.Width, bounds.Height, bounds.FloorY(), speedMultiplier)
	return nil
}

// Reset возвращает драйвер в Idle по внешнему сигналу рестарта
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateIdle {
		d.logger.Printf("[Driver] reset from %s after %d ticks", d.state, d.tickCount)
	}
	d.state = StateIdle
}

// Step выполняет один шаг по стенному времени now.
// Возвращает true, если хосту нужно запросить следующий кадр.
func (d *Driver) Step(now time.Time) bool {
	d.mu.Lock()
	if d.state != StateActive {
		d.mu.Unlock()
		return false
	}
	dt := now.Sub(d.lastStep)
	d.lastStep = now
	d.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	return d.StepDelta(dt)
}

// StepDelta выполняет один шаг с заданной длительностью
func (d *Driver) StepDelta(dt time.Duration) bool {
	d.mu.Lock()
	if d.state != StateActive {
		d.mu.Unlock()
		return false
	}
	if d.cfg.MaxFrameDelta > 0 && dt > d.cfg.MaxFrameDelta {
		d.clampedSteps++
		if d.clampedSteps%20 == 1 {
			d.logger.Printf("[Driver] frame delta %v clamped to %v", dt, d.cfg.MaxFrameDelta)
		}
		dt = d.cfg.MaxFrameDelta
	}
	d.tickCount++
	bounds := d.bounds
	speedMultiplier := d.speedMultiplier
	d.mu.Unlock()

	d.runPhase(PhaseSpawn, func() {
		spawned := d.policy.Tick(dt, bounds, speedMultiplier)
		if len(spawned) == 0 {
			return
		}
		d.world.Add(spawned...)
		if d.observer != nil {
			copies := make([]world.FallingObject, 0, len(spawned))
			for _, obj := range spawned {
				copies = append(copies, *obj)
			}
			d.observer.OnSpawned(copies)
		}
	})

	d.runPhase(PhaseMove, func() {
		removed := d.world.Advance(dt.Seconds(), bounds.Height)
		if len(removed) > 0 && d.observer != nil {
			d.observer.OnRemoved(removed)
		}
	})

	breached := false
	d.runPhase(PhaseFloor, func() {
		floorY := bounds.FloorY()
		for _, obj := range d.world.Objects() {
			// опасные объекты на полу игру не заканчивают
			if obj.Kind == world.KindNormal && obj.ReachedFloor(floorY) {
				d.logger.Printf("[Driver] object %s reached the floor at y=%.1f", obj.ID, obj.Y)
				breached = true
				return
			}
		}
	})
	if breached {
		d.halt(false)
		return false
	}

	var result CollisionResult
	d.runPhase(PhaseCollision, func() {
		result = d.resolver.Resolve(d.events, func(world.FallingObject) {
			d.sink.OnScore()
		})
	})
	if result.HazardHit {
		d.halt(true)
		return false
	}

	return true
}

// halt переводит драйвер в Halted и сообщает о конце игры ровно один раз
func (d *Driver) halt(causedByHazard bool) {
	d.mu.Lock()
	if d.state != StateActive {
		d.mu.Unlock()
		return
	}
	d.state = StateHalted
	d.haltedByHazard = causedByHazard
	ticks := d.tickCount
	d.mu.Unlock()

	d.logger.Printf("[Driver] halted after %d ticks (hazard: %t)", ticks, causedByHazard)
	d.sink.OnGameOver(causedByHazard)
}

// runPhase выполняет фазу шага с замером времени и перехватом паники
func (d *Driver) runPhase(name string, fn func()) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("[Driver] phase %s panicked: %v", name, r)
			d.perfMonitor.recordError(name)
		}
		d.perfMonitor.recordExecution(name, time.Since(start))
	}()

	fn()
}

// State возвращает текущее состояние
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Bounds возвращает размеры поля текущей сессии
func (d *Driver) Bounds() world.Bounds {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bounds
}

// World возвращает менеджер объектов
func (d *Driver) World() *world.Manager {
	return d.world
}

// GetTickCount возвращает количество шагов текущей сессии
func (d *Driver) GetTickCount() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tickCount
}

// GetStats возвращает статистику драйвера
func (d *Driver) GetStats() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]interface{}{
		"state":            d.state.String(),
		"tick_count":       d.tickCount,
		"clamped_steps":    d.clampedSteps,
		"halted_by_hazard": d.haltedByHazard,
		"objects":          d.world.Count(),
		"speed_multiplier": d.speedMultiplier,
		"spawn":            d.policy.GetStats(),
		"phases":           d.perfMonitor.GetPhaseStats(),
	}
}
