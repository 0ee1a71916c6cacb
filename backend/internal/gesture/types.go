package gesture

import "math"

// FingertipSample позиция кончика пальца в пикселях игрового поля
type FingertipSample struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// valid отсекает NaN и бесконечности, пришедшие от трекера
func (s FingertipSample) valid() bool {
	return !math.IsNaN(s.X) && !math.IsNaN(s.Y) && !math.IsInf(s.X, 0) && !math.IsInf(s.Y, 0)
}

// SliceEvent отрезок быстрого движения руки между двумя соседними сэмплами
type SliceEvent struct {
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// Landmark нормализованная точка от трекера руки (0..1 по обеим осям)
type Landmark struct {
	X float64
	Y float64
}

// Project переводит landmark в пиксели поля с зеркалированием по X, как у фронтальной камеры.
// nil означает, что рука не найдена.
func Project(lm *Landmark, width, height float64, timestampMs int64) (FingertipSample, bool) {
	if lm == nil {
		return FingertipSample{}, false
	}

	sample := FingertipSample{
		X:           width - lm.X*width,
		Y:           lm.Y * height,
		TimestampMs: timestampMs,
	}
	if !sample.valid() {
		return FingertipSample{}, false
	}
	return sample, true
}
