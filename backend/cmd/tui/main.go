package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"x-slice/backend/internal/config"
	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/leaderboard"
	"x-slice/backend/internal/session"
	"x-slice/backend/internal/world"
)

// Размер одной клетки терминала в пикселях поля
const (
	cellWidth  = 8.0
	cellHeight = 16.0
	speedStep  = 0.25
)

// Game играет сессию в терминале: мышь с зажатой кнопкой вместо кончика пальца
type Game struct {
	screen  tcell.Screen
	session *session.GameSession
	store   *leaderboard.Store
	logger  *log.Logger

	width, height int
	speed         float64
	phase         session.Phase
	top           []leaderboard.Entry
}

// NewGame создает игру поверх готовой сессии
func NewGame(screen tcell.Screen, s *session.GameSession, store *leaderboard.Store, logger *log.Logger) *Game {
	g := &Game{
		screen:  screen,
		session: s,
		store:   store,
		logger:  logger,
		speed:   1.0,
		phase:   session.PhaseStart,
	}
	g.resize()
	return g
}

// resize пересчитывает поле по размеру терминала; во время игры поле не меняется
func (g *Game) resize() {
	g.width, g.height = g.screen.Size()
	if err := g.session.SetBounds(float64(g.width)*cellWidth, float64(g.height)*cellHeight); err != nil {
		g.logger.Printf("[TUI] resize ignored: %v", err)
	}
}

func toCell(x, y float64) (int, int) {
	return int(x / cellWidth), int(y / cellHeight)
}

func (g *Game) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}

	switch ev.Rune() {
	case 'q':
		return false
	case 's', ' ':
		if err := g.session.Start(time.Now()); err != nil {
			g.logger.Printf("[TUI] start: %v", err)
		}
	case 'r':
		g.session.Restart()
		g.resize()
	case '+', '=':
		g.setSpeed(g.speed + speedStep)
	case '-':
		g.setSpeed(g.speed - speedStep)
	}
	return true
}

func (g *Game) setSpeed(v float64) {
	applied, err := g.session.SetSpeed(v)
	if err != nil {
		g.logger.Printf("[TUI] speed: %v", err)
		return
	}
	g.speed = applied
}

func (g *Game) handleMouse(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		return
	}
	cx, cy := ev.Position()
	g.session.PushSample(gesture.FingertipSample{
		X:           (float64(cx) + 0.5) * cellWidth,
		Y:           (float64(cy) + 0.5) * cellHeight,
		TimestampMs: time.Now().UnixMilli(),
	})
}

// update продвигает сессию и ловит смену фазы
func (g *Game) update(now time.Time) {
	if g.session.Running() {
		g.session.Step(now)
	}

	phase := g.session.Phase()
	if phase == session.PhaseGameOver && g.phase != session.PhaseGameOver {
		g.session.Wait()
		g.loadTop()
	}
	g.phase = phase
}

func (g *Game) loadTop() {
	if g.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	top, err := g.store.Top(ctx, 5)
	if err != nil {
		g.logger.Printf("[TUI] leaderboard: %v", err)
		return
	}
	g.top = top
}

func (g *Game) drawText(x, y int, style tcell.Style, text string) {
	for i, r := range text {
		g.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (g *Game) drawCentered(y int, style tcell.Style, text string) {
	g.drawText((g.width-len([]rune(text)))/2, y, style, text)
}

func (g *Game) drawObject(obj world.FallingObject) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	ch := 'o'
	switch {
	case obj.Sliced:
		style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		ch = '/'
	case obj.Kind == world.KindHazard:
		style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		ch = 'X'
	}

	cx, cy := toCell(obj.X, obj.Y)
	rx := int(obj.Radius / cellWidth)
	ry := int(obj.Radius / cellHeight)
	for dy := -ry; dy <= ry; dy++ {
		for dx := -rx; dx <= rx; dx++ {
			// эллипс: клетка терминала вытянута по вертикали
			nx := float64(dx) / float64(rx+1)
			ny := float64(dy) / float64(ry+1)
			if nx*nx+ny*ny > 1 {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x >= g.width || y >= g.height {
				continue
			}
			g.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func (g *Game) render() {
	g.screen.Clear()
	snap := g.session.Snapshot()

	// Пол
	floorStyle := tcell.StyleDefault.Foreground(tcell.Color(240))
	_, floorRow := toCell(0, snap.Bounds.FloorY())
	for x := 0; x < g.width; x++ {
		g.screen.SetContent(x, floorRow, '=', nil, floorStyle)
	}

	for _, obj := range snap.Objects {
		g.drawObject(obj)
	}

	trailStyle := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	for _, p := range snap.Trail {
		x, y := toCell(p.X, p.Y)
		g.screen.SetContent(x, y, '*', nil, trailStyle)
	}

	white := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	g.drawText(1, 0, white, fmt.Sprintf("Score: %d  Speed: x%.2f", snap.Score, snap.Speed))

	switch snap.Phase {
	case session.PhaseStart:
		g.drawCentered(g.height/2-1, white.Bold(true), "X-SLICE")
		g.drawCentered(g.height/2+1, white, "drag the mouse to slice, s - start, +/- speed, q - quit")

	case session.PhaseGameOver:
		reason := "missed one"
		if snap.LastHazard {
			reason = "sliced a bomb"
		}
		red := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		g.drawCentered(g.height/2-2, red, fmt.Sprintf("GAME OVER: %s", reason))
		g.drawCentered(g.height/2, white, fmt.Sprintf("score %d, r - restart", snap.Score))
		for i, e := range g.top {
			g.drawCentered(g.height/2+2+i, white, fmt.Sprintf("%d. %-16s %5d", i+1, e.Name, e.Score))
		}
	}

	g.screen.Show()
}

// run крутит цикл: ввод без блокировки, шаг сессии, отрисовка
func (g *Game) run(frame time.Duration) {
	inputChan := make(chan tcell.Event, 10)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				close(inputChan)
				return
			}
			inputChan <- ev
		}
	}()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-inputChan:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !g.handleKey(ev) {
					return
				}
			case *tcell.EventMouse:
				g.handleMouse(ev)
			case *tcell.EventResize:
				g.resize()
				g.screen.Sync()
			}

		case now := <-ticker.C:
			g.update(now)
			g.render()
		}
	}
}

func main() {
	var (
		name    = flag.String("name", "", "Имя игрока для таблицы рекордов")
		logPath = flag.String("log", "", "Файл журнала (по умолчанию журнал отключен)")
		noScore = flag.Bool("no-scores", false, "Не сохранять результаты")
	)
	flag.Parse()

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("[TUI] open log: %v", err)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[TUI] config: %v", err)
	}

	opts := cfg.SessionOptions()
	opts.Logger = logger

	var store *leaderboard.Store
	if !*noScore {
		store, err = leaderboard.Open(cfg.DBPath, logger)
		if err != nil {
			log.Fatalf("[TUI] leaderboard: %v", err)
		}
		defer store.Close()
		opts.Submitter = store
	}

	s, err := session.New(opts)
	if err != nil {
		log.Fatalf("[TUI] session: %v", err)
	}
	defer s.Close()
	s.SetPlayer(*name)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("[TUI] screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("[TUI] screen init: %v", err)
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorDefault).
		Foreground(tcell.ColorWhite))
	screen.EnableMouse()
	screen.Clear()

	NewGame(screen, s, store, logger).run(cfg.FrameInterval)
}
