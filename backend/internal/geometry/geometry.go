// Package geometry содержит чистую математику попаданий: отрезок разреза против круга объекта.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SegmentIntersectsCircle проверяет, задевает ли отрезок (x1,y1)-(x2,y2) круг радиуса r с центром (cx,cy).
func SegmentIntersectsCircle(x1, y1, x2, y2, cx, cy, r float64) bool {
	return SegmentHitsCircle(mgl64.Vec2{x1, y1}, mgl64.Vec2{x2, y2}, mgl64.Vec2{cx, cy}, r)
}

// SegmentHitsCircle решает квадратное уравнение пересечения прямой AB с окружностью
// и проверяет, что найденный интервал параметра t пересекается с [0,1].
// Отрезок нулевой длины проверяется как точка.
func SegmentHitsCircle(a, b, center mgl64.Vec2, r float64) bool {
	d := b.Sub(a)
	f := a.Sub(center)

	qa := d.Dot(d)
	qc := f.Dot(f) - r*r
	if qa == 0 {
		return qc <= 0
	}
	qb := 2 * f.Dot(d)

	discriminant := qb*qb - 4*qa*qc
	if discriminant < 0 {
		return false
	}
	discriminant = math.Sqrt(discriminant)

	t1 := (-qb - discriminant) / (2 * qa)
	t2 := (-qb + discriminant) / (2 * qa)

	// t1 <= t2; отрезок целиком внутри круга дает t1 < 0 и t2 > 1
	return t1 <= 1 && t2 >= 0
}

// PointSegmentDistance возвращает расстояние от точки p до ближайшей точки отрезка AB.
func PointSegmentDistance(p, a, b mgl64.Vec2) float64 {
	d := b.Sub(a)
	lenSq := d.Dot(d)
	if lenSq == 0 {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(d) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := a.Add(d.Mul(t))
	return p.Sub(closest).Len()
}
