package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"x-slice/backend/internal/world"
)

var ErrInvalidSpawnConfig = errors.New("invalid spawn config")

// SpawnConfig настройки появления объектов
type SpawnConfig struct {
	Interval       time.Duration // Интервал симулированного времени между спавнами
	CountWeights   []float64     // Вес i-го элемента - вероятность создать i+1 объект
	HazardRate     float64       // Доля опасных объектов
	MinSpeed       float64       // px/s
	MaxSpeed       float64       // px/s
	Radius         float64       // Радиус объекта
	NormalVariants int           // Количество спрайтов обычных объектов
}

// DefaultSpawnConfig возвращает настройки по умолчанию
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		Interval:       900 * time.Millisecond,
		CountWeights:   []float64{0.70, 0.25, 0.05},
		HazardRate:     0.05,
		MinSpeed:       200,
		MaxSpeed:       500,
		Radius:         60,
		NormalVariants: 7,
	}
}

// Validate проверяет настройки спавна
func (c SpawnConfig) Validate() error {
	switch {
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidSpawnConfig, c.Interval)
	case len(c.CountWeights) == 0:
		return fmt.Errorf("%w: count weights are empty", ErrInvalidSpawnConfig)
	case c.HazardRate < 0 || c.HazardRate > 1:
		return fmt.Errorf("%w: hazard rate %.3f out of [0,1]", ErrInvalidSpawnConfig, c.HazardRate)
	case c.MinSpeed <= 0 || c.MaxSpeed < c.MinSpeed:
		return fmt.Errorf("%w: speed range [%.1f, %.1f]", ErrInvalidSpawnConfig, c.MinSpeed, c.MaxSpeed)
	case c.Radius <= 0:
		return fmt.Errorf("%w: radius must be positive", ErrInvalidSpawnConfig)
	case c.NormalVariants <= 0:
		return fmt.Errorf("%w: normal variants must be positive", ErrInvalidSpawnConfig)
	}

	total := 0.0
	for i, w := range c.CountWeights {
		if w < 0 {
			return fmt.Errorf("%w: count weight %d is negative", ErrInvalidSpawnConfig, i)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("%w: count weights sum to zero", ErrInvalidSpawnConfig)
	}
	return nil
}

// SpawnPolicy решает, сколько и каких объектов создать на каждом тике спавна.
// Время считается по симулированным шагам, а не по стенным часам.
type SpawnPolicy struct {
	cfg    SpawnConfig
	logger *log.Logger
	mu     sync.Mutex

	rng   *rand.Rand
	count distuv.Categorical // индекс -> количество-1
	kind  distuv.Categorical // 0 обычный, 1 опасный

	elapsed time.Duration

	spawned uint64
	hazards uint64
	ticks   uint64
}

// NewSpawnPolicy создает политику спавна. src задает источник случайности; nil берет случайное зерно.
func NewSpawnPolicy(cfg SpawnConfig, src rand.Source, logger *log.Logger) (*SpawnPolicy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if logger == nil {
		logger = log.Default()
	}

	return &SpawnPolicy{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(src),
		count:  distuv.NewCategorical(cfg.CountWeights, src),
		kind:   distuv.NewCategorical([]float64{1 - cfg.HazardRate, cfg.HazardRate}, src),
	}, nil
}

// Tick продвигает таймер спавна на dt и, если интервал истек, создает новые объекты
func (sp *SpawnPolicy) Tick(dt time.Duration, bounds world.Bounds, speedMultiplier float64) []*world.FallingObject {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.elapsed += dt
	if sp.elapsed < sp.cfg.Interval {
		return nil
	}
	sp.elapsed = 0

	return sp.spawn(bounds, speedMultiplier)
}

// Spawn выполняет одно решение о спавне без учета таймера
func (sp *SpawnPolicy) Spawn(bounds world.Bounds, speedMultiplier float64) []*world.FallingObject {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.spawn(bounds, speedMultiplier)
}

func (sp *SpawnPolicy) spawn(bounds world.Bounds, speedMultiplier float64) []*world.FallingObject {
	if speedMultiplier <= 0 {
		speedMultiplier = 1
	}

	n := int(sp.count.Rand()) + 1
	objects := make([]*world.FallingObject, 0, n)
	for i := 0; i < n; i++ {
		objects = append(objects, sp.newObject(bounds, speedMultiplier))
	}

	sp.ticks++
	sp.spawned += uint64(n)

	if sp.ticks%50 == 0 {
		sp.logger.Printf("[SpawnPolicy] spawn ticks: %d, objects: %d, hazards: %d",
			sp.ticks, sp.spawned, sp.hazards)
	}
	return objects
}

// newObject создает объект над верхней кромкой поля
func (sp *SpawnPolicy) newObject(bounds world.Bounds, speedMultiplier float64) *world.FallingObject {
	r := sp.cfg.Radius

	x := bounds.Width / 2
	if span := bounds.Width - 2*r; span > 0 {
		x = r + sp.rng.Float64()*span
	}

	// квадрат равномерной величины смещает скорость к нижней границе диапазона
	u := sp.rng.Float64()
	speed := (sp.cfg.MinSpeed + u*u*(sp.cfg.MaxSpeed-sp.cfg.MinSpeed)) * speedMultiplier

	obj := &world.FallingObject{
		ID:        uuid.NewString(),
		X:         x,
		Y:         -r,
		Radius:    r,
		Kind:      world.KindNormal,
		FallSpeed: speed,
	}

	if sp.kind.Rand() == 1 {
		obj.Kind = world.KindHazard
		sp.hazards++
	} else {
		obj.Variant = sp.rng.IntN(sp.cfg.NormalVariants)
	}

	return obj
}

// Reset обнуляет таймер спавна перед новой сессией
func (sp *SpawnPolicy) Reset() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.elapsed = 0
}

// GetStats возвращает статистику спавна
func (sp *SpawnPolicy) GetStats() map[string]interface{} {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	return map[string]interface{}{
		"spawn_ticks": sp.ticks,
		"spawned":     sp.spawned,
		"hazards":     sp.hazards,
		"interval_ms": sp.cfg.Interval.Milliseconds(),
	}
}
