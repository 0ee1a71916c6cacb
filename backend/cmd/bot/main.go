package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"x-slice/backend/internal/geometry"
	"x-slice/backend/internal/transport/ws"
	"x-slice/backend/internal/world"
)

// Bot подключается к серверу и играет: режет самый низкий обычный объект, обходя опасные
type Bot struct {
	ID          string
	ServerURL   string
	Conn        *websocket.Conn
	Running     bool
	Stats       BotStats
	Duration    time.Duration
	CommandRate time.Duration
	Speed       float64
	mu          sync.RWMutex
	writeMu     sync.Mutex // Мьютекс для синхронизации записи в WebSocket

	frame    *ws.FrameMessage // Последний полученный кадр
	swingDir float64          // Направление следующего взмаха: -1 / +1
	restarts chan struct{}
}

// BotStats содержит статистику работы бота
type BotStats struct {
	LandmarksSent int
	Frames        int
	Games         int
	HazardLosses  int
	BestScore     int
	TotalScore    int
	Errors        int
	StartTime     time.Time
	mu            sync.RWMutex
}

// NewBot создает нового бота
func NewBot(id, serverURL string, duration, commandRate time.Duration, speed float64) *Bot {
	return &Bot{
		ID:          id,
		ServerURL:   serverURL,
		Duration:    duration,
		CommandRate: commandRate,
		Speed:       speed,
		swingDir:    1,
		restarts:    make(chan struct{}, 1),
		Stats: BotStats{
			StartTime: time.Now(),
		},
	}
}

// Connect подключается к серверу
func (b *Bot) Connect() error {
	u, err := url.Parse(b.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	log.Printf("[Bot %s] connecting to %s", b.ID, u.String())

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  1024,
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	b.mu.Lock()
	b.Conn = conn
	b.Running = true
	b.mu.Unlock()

	log.Printf("[Bot %s] connected", b.ID)
	return nil
}

// Disconnect отключается от сервера
func (b *Bot) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Conn != nil && b.Running {
		b.Running = false
		b.Conn.Close()
		log.Printf("[Bot %s] disconnected", b.ID)
	}
}

func (b *Bot) isRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Running
}

func (b *Bot) send(v interface{}) error {
	b.mu.RLock()
	conn := b.Conn
	b.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// startGame задает настройки и начинает новую игру
func (b *Bot) startGame() error {
	name := "bot-" + b.ID
	if err := b.send(ws.SettingsMessage{Type: ws.MessageTypeSettings, Name: &name, Speed: &b.Speed}); err != nil {
		return err
	}
	return b.send(ws.ControlMessage{Type: ws.MessageTypeStart})
}

// nextSwing выбирает отрезок взмаха по последнему кадру. ok=false - резать нечего или опасно.
func (b *Bot) nextSwing() (from, to [2]float64, width, height float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frame := b.frame
	if frame == nil || frame.State != "running" {
		return from, to, 0, 0, false
	}

	var target *world.FallingObject
	for i := range frame.Objects {
		obj := &frame.Objects[i]
		if obj.Kind != world.KindNormal || obj.Sliced || obj.Y < 0 {
			continue
		}
		if target == nil || obj.Y > target.Y {
			target = obj
		}
	}
	if target == nil {
		return from, to, 0, 0, false
	}

	reach := 1.5 * target.Radius
	from = [2]float64{target.X - b.swingDir*reach, target.Y}
	to = [2]float64{target.X + b.swingDir*reach, target.Y}

	for _, obj := range frame.Objects {
		if obj.Kind == world.KindHazard &&
			geometry.SegmentIntersectsCircle(from[0], from[1], to[0], to[1], obj.X, obj.Y, obj.Radius) {
			return from, to, 0, 0, false
		}
	}

	b.swingDir = -b.swingDir
	return from, to, frame.Width, frame.Height, true
}

// landmark переводит пиксели поля в нормализованную точку трекера (ось X зеркальна)
func landmark(p [2]float64, width, height float64, ts int64) ws.LandmarkMessage {
	return ws.LandmarkMessage{
		Type:        ws.MessageTypeLandmark,
		X:           (width - p[0]) / width,
		Y:           p[1] / height,
		Detected:    true,
		TimestampMs: ts,
	}
}

// swing отправляет две точки взмаха подряд
func (b *Bot) swing() error {
	from, to, width, height, ok := b.nextSwing()
	if !ok {
		return b.send(ws.LandmarkMessage{Type: ws.MessageTypeLandmark, Detected: false})
	}

	now := time.Now().UnixMilli()
	if err := b.send(landmark(from, width, height, now)); err != nil {
		return err
	}
	if err := b.send(landmark(to, width, height, now+10)); err != nil {
		return err
	}

	b.Stats.mu.Lock()
	b.Stats.LandmarksSent += 2
	b.Stats.mu.Unlock()
	return nil
}

// handleMessage обрабатывает входящие сообщения
func (b *Bot) handleMessage(messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	msgType, err := ws.GetMessageType(data)
	if err != nil {
		log.Printf("[Bot %s] bad message: %v", b.ID, err)
		return
	}

	switch msgType {
	case ws.MessageTypeFrame:
		var frame ws.FrameMessage
		if err := json.Unmarshal(data, &frame); err != nil {
			return
		}
		b.mu.Lock()
		b.frame = &frame
		b.mu.Unlock()

		b.Stats.mu.Lock()
		b.Stats.Frames++
		b.Stats.mu.Unlock()

	case ws.MessageTypeGameOver:
		var over ws.GameOverMessage
		if err := json.Unmarshal(data, &over); err != nil {
			return
		}
		b.Stats.mu.Lock()
		b.Stats.Games++
		b.Stats.TotalScore += over.Score
		if over.Score > b.Stats.BestScore {
			b.Stats.BestScore = over.Score
		}
		if over.Hazard {
			b.Stats.HazardLosses++
		}
		b.Stats.mu.Unlock()
		log.Printf("[Bot %s] game over: score %d (hazard: %t)", b.ID, over.Score, over.Hazard)

		select {
		case b.restarts <- struct{}{}:
		default:
		}

	case ws.MessageTypeInfo:
		var info ws.InfoMessage
		if err := json.Unmarshal(data, &info); err == nil {
			log.Printf("[Bot %s] info: %s (session %s)", b.ID, info.Message, info.SessionID)
		}

	case ws.MessageTypeError:
		var e ws.ErrorMessage
		if err := json.Unmarshal(data, &e); err == nil {
			log.Printf("[Bot %s] server error: %s", b.ID, e.Message)
		}
		b.Stats.mu.Lock()
		b.Stats.Errors++
		b.Stats.mu.Unlock()

	case ws.MessageTypeScore, ws.MessageTypeCamera, ws.MessageTypePong:
		// камера у бота синтетическая, счет приходит в кадрах
	}
}

// Run запускает бота
func (b *Bot) Run() error {
	if err := b.Connect(); err != nil {
		return err
	}
	defer b.Disconnect()

	go func() {
		for b.isRunning() {
			messageType, data, err := b.Conn.ReadMessage()
			if err != nil {
				if b.isRunning() {
					log.Printf("[Bot %s] read error: %v", b.ID, err)
					b.Stats.mu.Lock()
					b.Stats.Errors++
					b.Stats.mu.Unlock()
					b.Disconnect()
				}
				return
			}
			b.handleMessage(messageType, data)
		}
	}()

	if err := b.startGame(); err != nil {
		return err
	}

	commandTicker := time.NewTicker(b.CommandRate)
	defer commandTicker.Stop()

	endTime := time.Now().Add(b.Duration)
	for b.isRunning() && time.Now().Before(endTime) {
		select {
		case <-b.restarts:
			time.Sleep(500 * time.Millisecond)
			if err := b.send(ws.ControlMessage{Type: ws.MessageTypeRestart}); err != nil {
				return err
			}
			if err := b.startGame(); err != nil {
				return err
			}

		case <-commandTicker.C:
			if err := b.swing(); err != nil {
				log.Printf("[Bot %s] send failed: %v", b.ID, err)
				b.Stats.mu.Lock()
				b.Stats.Errors++
				b.Stats.mu.Unlock()
			}
		}
	}

	log.Printf("[Bot %s] finished", b.ID)
	return nil
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.Stats.mu.RLock()
	defer b.Stats.mu.RUnlock()

	duration := time.Since(b.Stats.StartTime)
	log.Printf("[Bot %s] stats:", b.ID)
	log.Printf("  uptime: %v", duration.Round(time.Millisecond))
	log.Printf("  games: %d (hazard losses: %d)", b.Stats.Games, b.Stats.HazardLosses)
	log.Printf("  best score: %d, total: %d", b.Stats.BestScore, b.Stats.TotalScore)
	log.Printf("  landmarks sent: %d, frames: %d, errors: %d", b.Stats.LandmarksSent, b.Stats.Frames, b.Stats.Errors)
}

func main() {
	var (
		serverURL   = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		count       = flag.Int("count", 1, "Количество ботов")
		duration    = flag.Duration("duration", 30*time.Second, "Длительность работы")
		commandRate = flag.Duration("rate", 40*time.Millisecond, "Интервал между взмахами")
		speed       = flag.Float64("speed", 1.0, "Множитель скорости падения")
	)
	flag.Parse()

	bots := make([]*Bot, 0, *count)
	for i := 0; i < *count; i++ {
		bots = append(bots, NewBot(fmt.Sprintf("%d", i+1), *serverURL, *duration, *commandRate, *speed))
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		log.Printf("[Bot] interrupted, shutting down")
		for _, bot := range bots {
			bot.Disconnect()
		}
	}()

	var wg sync.WaitGroup
	for _, bot := range bots {
		wg.Add(1)
		go func(bot *Bot) {
			defer wg.Done()
			if err := bot.Run(); err != nil {
				log.Printf("[Bot %s] error: %v", bot.ID, err)
			}
		}(bot)
	}
	wg.Wait()

	for _, bot := range bots {
		bot.PrintStats()
	}
}
