package ws

import (
	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/world"
)

// Константы для WebSocket сообщений
const (
	// Клиент -> сервер
	MessageTypeSettings = "settings" // Имя игрока и скорость
	MessageTypeResize   = "resize"   // Размер игрового поля
	MessageTypeStart    = "start"    // Начать игру
	MessageTypeRestart  = "restart"  // Вернуться на стартовый экран
	MessageTypeLandmark = "landmark" // Точка трекера руки
	MessageTypePing     = "ping"     // Пинг для измерения задержки

	// Сервер -> клиент
	MessageTypeInfo     = "info"      // Информационное сообщение
	MessageTypePong     = "pong"      // Ответ на пинг
	MessageTypeCamera   = "camera"    // Включить / выключить трекер
	MessageTypeFrame    = "frame"     // Кадр для отрисовки
	MessageTypeScore    = "score"     // Изменение счета
	MessageTypeGameOver = "game_over" // Конец игры
	MessageTypeError    = "error"     // Ошибка обработки сообщения
)

// Действия трекера
const (
	CameraStart = "start"
	CameraStop  = "stop"
)

// SettingsMessage настройки игрока; применяются только вне игры
type SettingsMessage struct {
	Type  string   `json:"type"`
	Name  *string  `json:"name,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
}

// ResizeMessage размер игрового поля клиента в пикселях
type ResizeMessage struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ControlMessage команда без параметров (start, restart)
type ControlMessage struct {
	Type string `json:"type"`
}

// LandmarkMessage нормализованная точка кончика пальца; detected=false - рука не найдена
type LandmarkMessage struct {
	Type        string  `json:"type"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Detected    bool    `json:"detected"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// PingMessage представляет пинг от клиента
type PingMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
}

// PongMessage представляет ответ на пинг от сервера
type PongMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}

// InfoMessage представляет информационное сообщение от сервера
type InfoMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// CameraMessage просит клиента включить или выключить трекер
type CameraMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// FrameMessage состояние сессии для одного кадра
type FrameMessage struct {
	Type       string                    `json:"type"`
	State      string                    `json:"state"`
	Score      int                       `json:"score"`
	Speed      float64                   `json:"speed"`
	Width      float64                   `json:"width"`
	Height     float64                   `json:"height"`
	FloorY     float64                   `json:"floor_y"`
	Objects    []world.FallingObject     `json:"objects"`
	Trail      []gesture.FingertipSample `json:"trail"`
	ServerTime int64                     `json:"server_time"`
}

// ScoreMessage новый счет
type ScoreMessage struct {
	Type  string `json:"type"`
	Score int    `json:"score"`
}

// GameOverMessage итог игры
type GameOverMessage struct {
	Type   string `json:"type"`
	Hazard bool   `json:"hazard"`
	Score  int    `json:"score"`
}

// ErrorMessage ошибка обработки сообщения клиента
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
