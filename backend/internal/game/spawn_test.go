package game

import (
	"io"
	"log"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-slice/backend/internal/world"
)

var testBounds = world.Bounds{Width: 480, Height: 640, FloorMargin: 32}

func newTestLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestPolicy(t testing.TB, cfg SpawnConfig, seed uint64) *SpawnPolicy {
	t.Helper()
	policy, err := NewSpawnPolicy(cfg, rand.NewPCG(seed, seed+1), newTestLogger())
	require.NoError(t, err)
	return policy
}

func TestSpawnPolicy_TickUsesSimulatedInterval(t *testing.T) {
	policy := newTestPolicy(t, DefaultSpawnConfig(), 1)

	assert.Nil(t, policy.Tick(500*time.Millisecond, testBounds, 1))
	spawned := policy.Tick(400*time.Millisecond, testBounds, 1)
	assert.NotEmpty(t, spawned, "900ms накоплено - должен быть спавн")
	assert.Nil(t, policy.Tick(100*time.Millisecond, testBounds, 1), "таймер сбрасывается после спавна")

	policy.Reset()
	assert.Nil(t, policy.Tick(899*time.Millisecond, testBounds, 1))
}

func TestSpawnPolicy_ObjectPlacement(t *testing.T) {
	cfg := DefaultSpawnConfig()
	policy := newTestPolicy(t, cfg, 2)

	ids := make(map[string]struct{})
	for i := 0; i < 2000; i++ {
		for _, obj := range policy.Spawn(testBounds, 1.5) {
			assert.Equal(t, -cfg.Radius, obj.Y)
			assert.Equal(t, cfg.Radius, obj.Radius)
			assert.GreaterOrEqual(t, obj.X, cfg.Radius)
			assert.LessOrEqual(t, obj.X, testBounds.Width-cfg.Radius)
			assert.GreaterOrEqual(t, obj.FallSpeed, cfg.MinSpeed*1.5)
			assert.LessOrEqual(t, obj.FallSpeed, cfg.MaxSpeed*1.5)
			assert.False(t, obj.Sliced)
			if obj.Kind == world.KindNormal {
				assert.Less(t, obj.Variant, cfg.NormalVariants)
			}

			_, dup := ids[obj.ID]
			require.False(t, dup, "идентификаторы уникальны")
			ids[obj.ID] = struct{}{}
		}
	}
}

func TestSpawnPolicy_NarrowFieldCentersObjects(t *testing.T) {
	policy := newTestPolicy(t, DefaultSpawnConfig(), 3)

	narrow := world.Bounds{Width: 100, Height: 640, FloorMargin: 32}
	for _, obj := range policy.Spawn(narrow, 1) {
		assert.Equal(t, 50.0, obj.X)
	}
}

func TestSpawnPolicy_HazardRateConverges(t *testing.T) {
	policy := newTestPolicy(t, DefaultSpawnConfig(), 42)

	total, hazards := 0, 0
	for i := 0; i < 40000; i++ {
		for _, obj := range policy.Spawn(testBounds, 1) {
			total++
			if obj.Kind == world.KindHazard {
				hazards++
			}
		}
	}

	rate := float64(hazards) / float64(total)
	assert.InDelta(t, 0.05, rate, 0.006, "доля опасных объектов %.4f", rate)
}

func TestSpawnPolicy_CountDistribution(t *testing.T) {
	policy := newTestPolicy(t, DefaultSpawnConfig(), 7)

	const ticks = 40000
	counts := make(map[int]int)
	for i := 0; i < ticks; i++ {
		counts[len(policy.Spawn(testBounds, 1))]++
	}

	assert.InDelta(t, 0.70, float64(counts[1])/ticks, 0.01)
	assert.InDelta(t, 0.25, float64(counts[2])/ticks, 0.01)
	assert.InDelta(t, 0.05, float64(counts[3])/ticks, 0.006)
	assert.Zero(t, counts[0])
	assert.Zero(t, counts[4])
}

func TestSpawnPolicy_SpeedSkewedLow(t *testing.T) {
	cfg := DefaultSpawnConfig()
	policy := newTestPolicy(t, cfg, 9)

	var sum float64
	n, belowMid := 0, 0
	mid := (cfg.MinSpeed + cfg.MaxSpeed) / 2
	for i := 0; i < 20000; i++ {
		for _, obj := range policy.Spawn(testBounds, 1) {
			sum += obj.FallSpeed
			n++
			if obj.FallSpeed < mid {
				belowMid++
			}
		}
	}

	// E[u^2] = 1/3, поэтому среднее = min + (max-min)/3
	assert.InDelta(t, cfg.MinSpeed+(cfg.MaxSpeed-cfg.MinSpeed)/3, sum/float64(n), 5)
	// P(u^2 < 0.5) = sqrt(0.5)
	assert.InDelta(t, 0.707, float64(belowMid)/float64(n), 0.02)
}

func TestSpawnPolicy_DeterministicWithSeed(t *testing.T) {
	a := newTestPolicy(t, DefaultSpawnConfig(), 100)
	b := newTestPolicy(t, DefaultSpawnConfig(), 100)

	for i := 0; i < 50; i++ {
		objsA := a.Spawn(testBounds, 1)
		objsB := b.Spawn(testBounds, 1)
		require.Len(t, objsB, len(objsA))
		for j := range objsA {
			assert.Equal(t, objsA[j].X, objsB[j].X)
			assert.Equal(t, objsA[j].FallSpeed, objsB[j].FallSpeed)
			assert.Equal(t, objsA[j].Kind, objsB[j].Kind)
		}
	}
}

func TestSpawnConfig_Validate(t *testing.T) {
	mutate := func(fn func(*SpawnConfig)) SpawnConfig {
		cfg := DefaultSpawnConfig()
		fn(&cfg)
		return cfg
	}

	bad := []SpawnConfig{
		mutate(func(c *SpawnConfig) { c.Interval = 0 }),
		mutate(func(c *SpawnConfig) { c.CountWeights = nil }),
		mutate(func(c *SpawnConfig) { c.CountWeights = []float64{0, 0} }),
		mutate(func(c *SpawnConfig) { c.CountWeights = []float64{1, -1} }),
		mutate(func(c *SpawnConfig) { c.HazardRate = 1.5 }),
		mutate(func(c *SpawnConfig) { c.MinSpeed = 0 }),
		mutate(func(c *SpawnConfig) { c.MaxSpeed = 100 }),
		mutate(func(c *SpawnConfig) { c.Radius = -1 }),
		mutate(func(c *SpawnConfig) { c.NormalVariants = 0 }),
	}
	for i, cfg := range bad {
		_, err := NewSpawnPolicy(cfg, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidSpawnConfig, "случай %d", i)
	}

	assert.NoError(t, DefaultSpawnConfig().Validate())
}

func BenchmarkSpawnPolicy_Spawn(b *testing.B) {
	policy := newTestPolicy(b, DefaultSpawnConfig(), 5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		policy.Spawn(testBounds, 1)
	}
}
