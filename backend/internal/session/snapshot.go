package session

import (
	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/world"
)

// Snapshot состояние сессии для отрисовки одного кадра
type Snapshot struct {
	SessionID  string                    `json:"session_id"`
	Phase      Phase                     `json:"phase"`
	State      string                    `json:"state"`
	Score      int                       `json:"score"`
	Speed      float64                   `json:"speed"`
	Player     string                    `json:"player"`
	Bounds     world.Bounds              `json:"bounds"`
	Objects    []world.FallingObject     `json:"objects"`
	Trail      []gesture.FingertipSample `json:"trail"`
	LastHazard bool                      `json:"last_hazard"`
}

// Snapshot возвращает копию видимого состояния
func (s *GameSession) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		SessionID:  s.id,
		Phase:      s.phase,
		Score:      s.score,
		Speed:      s.speed,
		Player:     s.name,
		Bounds:     s.bounds,
		LastHazard: s.lastHazard,
	}
	s.mu.RUnlock()

	snap.State = s.driver.State().String()
	snap.Objects = s.world.Snapshot()
	snap.Trail = s.aggregator.Trail()
	return snap
}
