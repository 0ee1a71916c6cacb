package ws

import (
	"time"

	"x-slice/backend/internal/gesture"
)

// MessageHandler - тип функции обработчика сообщений
type MessageHandler func(c *connection, message interface{}) error

func (s *WSServer) registerDefaultHandlers() {
	s.RegisterHandler(MessageTypeSettings, s.handleSettings)
	s.RegisterHandler(MessageTypeResize, s.handleResize)
	s.RegisterHandler(MessageTypeStart, s.handleStart)
	s.RegisterHandler(MessageTypeRestart, s.handleRestart)
	s.RegisterHandler(MessageTypeLandmark, s.handleLandmark)
	s.RegisterHandler(MessageTypePing, s.handlePing)
}

func (s *WSServer) handleSettings(c *connection, message interface{}) error {
	msg, ok := message.(*SettingsMessage)
	if !ok {
		return ErrInvalidMessage
	}

	if msg.Name != nil {
		c.session.SetPlayer(*msg.Name)
	}
	if msg.Speed != nil {
		if _, err := c.session.SetSpeed(*msg.Speed); err != nil {
			return err
		}
	}
	c.markDirty()
	return nil
}

func (s *WSServer) handleResize(c *connection, message interface{}) error {
	msg, ok := message.(*ResizeMessage)
	if !ok {
		return ErrInvalidMessage
	}
	if err := c.session.SetBounds(msg.Width, msg.Height); err != nil {
		return err
	}
	c.markDirty()
	return nil
}

func (s *WSServer) handleStart(c *connection, _ interface{}) error {
	if err := c.session.Start(time.Now()); err != nil {
		return err
	}
	c.markDirty()
	return nil
}

func (s *WSServer) handleRestart(c *connection, _ interface{}) error {
	c.session.Restart()
	c.markDirty()
	return nil
}

func (s *WSServer) handleLandmark(c *connection, message interface{}) error {
	msg, ok := message.(*LandmarkMessage)
	if !ok {
		return ErrInvalidMessage
	}

	ts := msg.TimestampMs
	if ts == 0 {
		ts = GetCurrentServerTime()
	}
	var lm *gesture.Landmark
	if msg.Detected {
		lm = &gesture.Landmark{X: msg.X, Y: msg.Y}
	}
	c.session.PushLandmark(lm, ts)
	return nil
}

func (s *WSServer) handlePing(c *connection, message interface{}) error {
	msg, ok := message.(*PingMessage)
	if !ok {
		return ErrInvalidMessage
	}
	return c.writer.WriteJSON(NewPongMessage(msg.ClientTime))
}
