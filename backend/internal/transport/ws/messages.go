package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/session"
	"x-slice/backend/internal/world"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownMessage = errors.New("unknown message type")
)

// ParseMessage разбирает входящее сообщение в соответствующий тип
func ParseMessage(data []byte) (interface{}, error) {
	messageType, err := GetMessageType(data)
	if err != nil {
		return nil, err
	}

	var msg interface{}
	switch messageType {
	case MessageTypeSettings:
		msg = &SettingsMessage{}
	case MessageTypeResize:
		msg = &ResizeMessage{}
	case MessageTypeStart, MessageTypeRestart:
		msg = &ControlMessage{}
	case MessageTypeLandmark:
		msg = &LandmarkMessage{}
	case MessageTypePing:
		msg = &PingMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, messageType)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("error parsing %s message: %w", messageType, err)
	}
	return msg, nil
}

// GetMessageType возвращает значение поля type
func GetMessageType(data []byte) (string, error) {
	var baseMessage struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &baseMessage); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if baseMessage.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return baseMessage.Type, nil
}

// GetCurrentServerTime возвращает текущее время сервера в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

// NewInfoMessage создает информационное сообщение
func NewInfoMessage(message, sessionID string) *InfoMessage {
	return &InfoMessage{Type: MessageTypeInfo, Message: message, SessionID: sessionID}
}

// NewPongMessage создает ответ на пинг
func NewPongMessage(clientTime int64) *PongMessage {
	return &PongMessage{Type: MessageTypePong, ClientTime: clientTime, ServerTime: GetCurrentServerTime()}
}

// NewCameraMessage создает команду трекеру
func NewCameraMessage(action string) *CameraMessage {
	return &CameraMessage{Type: MessageTypeCamera, Action: action}
}

// NewErrorMessage создает сообщение об ошибке
func NewErrorMessage(err error) *ErrorMessage {
	return &ErrorMessage{Type: MessageTypeError, Message: err.Error()}
}

// NewFrameMessage собирает кадр из снимка сессии
func NewFrameMessage(snap session.Snapshot) *FrameMessage {
	objects := snap.Objects
	if objects == nil {
		objects = []world.FallingObject{}
	}
	trail := snap.Trail
	if trail == nil {
		trail = []gesture.FingertipSample{}
	}

	return &FrameMessage{
		Type:       MessageTypeFrame,
		State:      string(snap.Phase),
		Score:      snap.Score,
		Speed:      snap.Speed,
		Width:      snap.Bounds.Width,
		Height:     snap.Bounds.Height,
		FloorY:     snap.Bounds.FloorY(),
		Objects:    objects,
		Trail:      trail,
		ServerTime: GetCurrentServerTime(),
	}
}
