package ws

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"x-slice/backend/internal/session"
	"x-slice/backend/internal/telemetry"
)

const (
	DefaultFrameInterval = 16 * time.Millisecond // Интервал шага и отправки кадров
	DefaultPingInterval  = 10 * time.Second      // Интервал отправки пингов

	maxMessageSize = 4 << 10
	inboundBuffer  = 64
)

// Config настройки WebSocket сервера
type Config struct {
	Session       session.Options // Базовые настройки сессии; трекер и слушатель задаются на соединение
	FrameInterval time.Duration
	PingInterval  time.Duration // 0 - без пингов
}

// WSServer WebSocket сервер: одна игровая сессия на соединение
type WSServer struct {
	upgrader  websocket.Upgrader
	cfg       Config
	handlers  map[string]MessageHandler
	submitter session.ScoreSubmitter
	journal   *telemetry.TelemetryManager
	logger    *log.Logger

	conns            map[string]*connection
	connsMu          sync.RWMutex
	totalConnections uint64
}

// connection состояние одного клиента. Поля, кроме writer, трогает только горутина цикла соединения.
type connection struct {
	id      string
	writer  *SafeWriter
	session *session.GameSession
	logger  *log.Logger
	dirty   bool // нужно отправить кадр, даже если игра не идет
}

func (c *connection) markDirty() {
	c.dirty = true
}

func (c *connection) logf(format string, args ...interface{}) {
	c.logger.Printf("[WSServer] %s: "+format, append([]interface{}{c.id}, args...)...)
}

// NewWSServer создает сервер. submitter и journal могут быть nil.
func NewWSServer(cfg Config, submitter session.ScoreSubmitter, journal *telemetry.TelemetryManager, logger *log.Logger) *WSServer {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if logger == nil {
		logger = log.Default()
	}

	server := &WSServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg:       cfg,
		handlers:  make(map[string]MessageHandler),
		submitter: submitter,
		journal:   journal,
		logger:    logger,
		conns:     make(map[string]*connection),
	}
	server.registerDefaultHandlers()

	return server
}

// RegisterHandler регистрирует обработчик для конкретного типа сообщений
func (s *WSServer) RegisterHandler(messageType string, handler MessageHandler) {
	s.handlers[messageType] = handler
}

// HandleWS обрабатывает входящие WebSocket соединения
func (s *WSServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WSServer] upgrade error: %v", err)
		return
	}

	writer := NewSafeWriter(conn)
	defer writer.Close()

	c := &connection{writer: writer, logger: s.logger, dirty: true}

	opts := s.cfg.Session
	opts.Tracker = &remoteTracker{writer: writer}
	opts.Listener = &connListener{conn: c}
	opts.Submitter = s.submitter
	opts.Telemetry = s.journal
	opts.Logger = s.logger

	sess, err := session.New(opts)
	if err != nil {
		s.logger.Printf("[WSServer] session create failed: %v", err)
		_ = writer.WriteJSON(NewErrorMessage(fmt.Errorf("session unavailable")))
		return
	}
	defer sess.Close()

	c.id = sess.ID()
	c.session = sess
	s.addConnection(c)
	defer s.removeConnection(c)

	c.logf("connected from %s", conn.RemoteAddr())

	if err := writer.WriteJSON(NewInfoMessage("connected to x-slice", c.id)); err != nil {
		c.logf("welcome write failed: %v", err)
		return
	}

	inbound := make(chan []byte, inboundBuffer)
	done := make(chan struct{})
	defer close(done)
	go s.readLoop(c, conn, inbound, done)

	s.run(c, inbound)
	c.logf("connection closed")
}

// readLoop читает сообщения клиента и передает их циклу соединения
func (s *WSServer) readLoop(c *connection, conn *websocket.Conn, inbound chan<- []byte, done <-chan struct{}) {
	defer close(inbound)

	conn.SetReadLimit(maxMessageSize)
	if s.cfg.PingInterval > 0 {
		pongWait := 3 * s.cfg.PingInterval
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logf("read error: %v", err)
			}
			return
		}

		select {
		case inbound <- data:
		case <-done:
			return
		}
	}
}

// run цикл соединения: входящие сообщения, шаги игры и кадры выполняются в одной горутине
func (s *WSServer) run(c *connection, inbound <-chan []byte) {
	frameTicker := time.NewTicker(s.cfg.FrameInterval)
	defer frameTicker.Stop()

	var pingC <-chan time.Time
	if s.cfg.PingInterval > 0 {
		pingTicker := time.NewTicker(s.cfg.PingInterval)
		defer pingTicker.Stop()
		pingC = pingTicker.C
	}

	for {
		select {
		case data, ok := <-inbound:
			if !ok {
				return
			}
			s.dispatch(c, data)

		case now := <-frameTicker.C:
			running := c.session.Running()
			if running {
				c.session.Step(now)
			}
			if running || c.dirty {
				if err := c.writer.WriteJSON(NewFrameMessage(c.session.Snapshot())); err != nil {
					c.logf("frame write failed: %v", err)
					return
				}
				c.dirty = false
			}

		case <-pingC:
			if err := c.writer.WritePing(); err != nil {
				c.logf("ping failed: %v", err)
				return
			}
		}
	}
}

// dispatch разбирает сообщение и вызывает обработчик; ошибки отправляются клиенту
func (s *WSServer) dispatch(c *connection, data []byte) {
	message, err := ParseMessage(data)
	if err != nil {
		_ = c.writer.WriteJSON(NewErrorMessage(err))
		return
	}

	messageType, _ := GetMessageType(data)
	handler, ok := s.handlers[messageType]
	if !ok {
		_ = c.writer.WriteJSON(NewErrorMessage(fmt.Errorf("%w: %q", ErrUnknownMessage, messageType)))
		return
	}

	if err := handler(c, message); err != nil {
		c.logf("error handling %s: %v", messageType, err)
		_ = c.writer.WriteJSON(NewErrorMessage(err))
	}
}

func (s *WSServer) addConnection(c *connection) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[c.id] = c
	s.totalConnections++
}

func (s *WSServer) removeConnection(c *connection) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, c.id)
}

// ActiveConnections возвращает количество открытых соединений
func (s *WSServer) ActiveConnections() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// GetStats возвращает статистику сервера и его сессий
func (s *WSServer) GetStats() map[string]interface{} {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()

	sessions := make(map[string]interface{}, len(s.conns))
	for id, c := range s.conns {
		sessions[id] = c.session.GetStats()
	}
	return map[string]interface{}{
		"active_connections": len(s.conns),
		"total_connections":  s.totalConnections,
		"sessions":           sessions,
	}
}
