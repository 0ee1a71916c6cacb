package geometry

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestSegmentIntersectsCircle_Cases(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		cx, cy, r      float64
		want           bool
	}{
		{"crosses through center", -10, 0, 10, 0, 0, 0, 5, true},
		{"misses above", -10, 10, 10, 10, 0, 0, 5, false},
		{"tangent touches", -10, 5, 10, 5, 0, 0, 5, true},
		{"stops short of circle", -20, 0, -6, 0, 0, 0, 5, false},
		{"ends inside circle", -20, 0, 0, 0, 0, 0, 5, true},
		{"starts inside circle", 0, 0, 20, 0, 0, 0, 5, true},
		{"fully inside circle", -1, 0, 1, 0, 0, 0, 5, true},
		{"infinite line hits but segment does not", 10, 0, 20, 0, 0, 0, 5, false},
		{"diagonal slice", 0, 0, 100, 100, 50, 50, 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentIntersectsCircle(tt.x1, tt.y1, tt.x2, tt.y2, tt.cx, tt.cy, tt.r)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentIntersectsCircle_ZeroLength(t *testing.T) {
	assert.True(t, SegmentIntersectsCircle(1, 1, 1, 1, 0, 0, 5), "точка внутри круга")
	assert.True(t, SegmentIntersectsCircle(5, 0, 5, 0, 0, 0, 5), "точка на окружности")
	assert.False(t, SegmentIntersectsCircle(10, 10, 10, 10, 0, 0, 5), "точка снаружи")
}

// Сверяем квадратное решение с прямым вычислением расстояния до отрезка
func TestSegmentIntersectsCircle_MatchesDistance(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	coord := func() float64 { return rng.Float64()*400 - 200 }

	checked := 0
	for i := 0; i < 20000; i++ {
		a := mgl64.Vec2{coord(), coord()}
		b := mgl64.Vec2{coord(), coord()}
		if i%10 == 0 {
			b = a
		}
		c := mgl64.Vec2{coord(), coord()}
		r := rng.Float64() * 120

		dist := PointSegmentDistance(c, a, b)
		if math.Abs(dist-r) < 1e-6 {
			continue
		}
		checked++

		want := dist <= r
		got := SegmentHitsCircle(a, b, c, r)
		if got != want {
			t.Fatalf("sample %d: a=%v b=%v c=%v r=%.4f dist=%.4f: got %v, want %v", i, a, b, c, r, dist, got, want)
		}
	}
	assert.Greater(t, checked, 19000)
}

func TestPointSegmentDistance(t *testing.T) {
	a := mgl64.Vec2{0, 0}
	b := mgl64.Vec2{10, 0}

	assert.InDelta(t, 3.0, PointSegmentDistance(mgl64.Vec2{5, 3}, a, b), 1e-9)
	assert.InDelta(t, 5.0, PointSegmentDistance(mgl64.Vec2{-3, 4}, a, b), 1e-9)
	assert.InDelta(t, math.Hypot(13, 4), PointSegmentDistance(mgl64.Vec2{13, 4}, a, a), 1e-9)
}
