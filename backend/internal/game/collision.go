package game

import (
	"log"

	"x-slice/backend/internal/geometry"
	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/world"
)

// EventSource отдает накопленные разрезы и сразу очищает свою очередь
type EventSource interface {
	Drain() []gesture.SliceEvent
}

// CollisionResult итог одного прохода коллизий
type CollisionResult struct {
	Events    int    // Сколько разрезов обработано
	Scored    int    // Сколько обычных объектов разрезано
	HazardHit bool   // Задет опасный объект
	HazardID  string // Какой именно
}

// CollisionResolver сопоставляет разрезы с живыми объектами
type CollisionResolver struct {
	world  *world.Manager
	logger *log.Logger
}

// NewCollisionResolver создает обработчик коллизий
func NewCollisionResolver(w *world.Manager, logger *log.Logger) *CollisionResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &CollisionResolver{
		world:  w,
		logger: logger,
	}
}

// Resolve забирает все ожидающие разрезы и проверяет каждый против каждого неразрезанного объекта.
// Обычный объект помечается разрезанным и сообщается в onScore. Опасный объект
// прерывает проход целиком; оставшиеся разрезы все равно считаются потребленными.
func (cr *CollisionResolver) Resolve(source EventSource, onScore func(obj world.FallingObject)) CollisionResult {
	events := source.Drain()
	result := CollisionResult{Events: len(events)}
	if len(events) == 0 {
		return result
	}

	objects := cr.world.Objects()

	for _, ev := range events {
		for _, obj := range objects {
			if obj.Sliced {
				continue
			}
			if !geometry.SegmentIntersectsCircle(ev.X1, ev.Y1, ev.X2, ev.Y2, obj.X, obj.Y, obj.Radius) {
				continue
			}

			if obj.Kind == world.KindHazard {
				cr.logger.Printf("[CollisionResolver] hazard %s sliced at (%.1f, %.1f)", obj.ID, obj.X, obj.Y)
				result.HazardHit = true
				result.HazardID = obj.ID
				return result
			}

			cr.world.MarkSliced(obj)
			result.Scored++
			if onScore != nil {
				onScore(*obj)
			}
		}
	}

	return result
}
