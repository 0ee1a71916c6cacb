package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"x-slice/backend/internal/game"
	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/telemetry"
	"x-slice/backend/internal/world"
)

var (
	ErrAlreadyRunning = errors.New("session is already running")
	ErrNotRunning     = errors.New("session is not running")
	ErrGameOver       = errors.New("session is over, restart required")
)

// AnonymousName имя игрока по умолчанию для таблицы рекордов
const AnonymousName = "anonymous"

// Phase экранное состояние сессии
type Phase string

const (
	PhaseStart    Phase = "start"
	PhaseRunning  Phase = "running"
	PhaseGameOver Phase = "game_over"
)

// Tracker внешний источник положения пальца (камера). Живет дольше сессии,
// запускается при старте игры и останавливается при ее окончании.
type Tracker interface {
	Start() error
	Stop() error
}

// ScoreSubmitter принимает итоговый счет в конце игры
type ScoreSubmitter interface {
	Submit(ctx context.Context, name string, score int) error
}

// Listener получает уведомления о счете и конце игры. Вызывается из горутины шага.
type Listener interface {
	ScoreChanged(score int)
	GameOver(causedByHazard bool, score int)
}

// Options зависимости и настройки сессии. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	Gesture gesture.Config
	Spawn   game.SpawnConfig
	Driver  game.DriverConfig
	Bounds  world.Bounds

	MinSpeedMultiplier float64
	MaxSpeedMultiplier float64
	SubmitTimeout      time.Duration

	Tracker    Tracker
	Submitter  ScoreSubmitter
	Listener   Listener
	Telemetry  *telemetry.TelemetryManager
	RandSource rand.Source
	Logger     *log.Logger
}

// DefaultOptions возвращает настройки по умолчанию без внешних зависимостей
func DefaultOptions() Options {
	return Options{
		Gesture:            gesture.DefaultConfig(),
		Spawn:              game.DefaultSpawnConfig(),
		Driver:             game.DefaultDriverConfig(),
		Bounds:             world.Bounds{Width: 1280, Height: 720, FloorMargin: 32},
		MinSpeedMultiplier: 0.5,
		MaxSpeedMultiplier: 2.0,
		SubmitTimeout:      5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Gesture == (gesture.Config{}) {
		o.Gesture = def.Gesture
	}
	if o.Spawn.Interval == 0 && len(o.Spawn.CountWeights) == 0 {
		o.Spawn = def.Spawn
	}
	if o.Bounds == (world.Bounds{}) {
		o.Bounds = def.Bounds
	}
	if o.MinSpeedMultiplier <= 0 {
		o.MinSpeedMultiplier = def.MinSpeedMultiplier
	}
	if o.MaxSpeedMultiplier < o.MinSpeedMultiplier {
		o.MaxSpeedMultiplier = math.Max(def.MaxSpeedMultiplier, o.MinSpeedMultiplier)
	}
	if o.SubmitTimeout <= 0 {
		o.SubmitTimeout = def.SubmitTimeout
	}
	if o.Tracker == nil {
		o.Tracker = nopTracker{}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// GameSession хост-приложение одной игры: счет, состояние экрана, скорость, имя игрока.
// Ядро (драйвер) сообщает о счете и конце игры через колбэки, сессия владеет их результатом.
type GameSession struct {
	id   string
	opts Options

	aggregator *gesture.Aggregator
	world      *world.Manager
	policy     *game.SpawnPolicy
	driver     *game.Driver

	tracker   Tracker
	submitter ScoreSubmitter
	listener  Listener
	telemetry *telemetry.TelemetryManager
	tracer    trace.Tracer
	logger    *log.Logger

	mu         sync.RWMutex
	phase      Phase
	score      int
	speed      float64
	name       string
	bounds     world.Bounds
	lastHazard bool
	games      uint64

	ctx         context.Context
	cancel      context.CancelFunc
	submissions sync.WaitGroup
}

// New создает сессию в состоянии Start
func New(opts Options) (*GameSession, error) {
	opts = opts.withDefaults()
	if !opts.Bounds.Valid() {
		return nil, fmt.Errorf("session: invalid bounds %+v", opts.Bounds)
	}

	policy, err := game.NewSpawnPolicy(opts.Spawn, opts.RandSource, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &GameSession{
		id:         uuid.NewString(),
		opts:       opts,
		aggregator: gesture.NewAggregator(opts.Gesture, opts.Logger),
		world:      world.NewManager(),
		policy:     policy,
		tracker:    opts.Tracker,
		submitter:  opts.Submitter,
		listener:   opts.Listener,
		telemetry:  opts.Telemetry,
		tracer:     otel.Tracer("x-slice/session"),
		logger:     opts.Logger,
		phase:      PhaseStart,
		speed:      1,
		bounds:     opts.Bounds,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.driver = game.NewDriver(opts.Driver, s.world, policy, s.aggregator, &sink{s: s}, opts.Logger)

	return s, nil
}

// ID возвращает идентификатор сессии
func (s *GameSession) ID() string {
	return s.id
}

// SetPlayer задает имя игрока для таблицы рекордов
func (s *GameSession) SetPlayer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// SetSpeed задает множитель скорости падения. Меняется только вне игры;
// значение ограничивается допустимым диапазоном и возвращается.
func (s *GameSession) SetSpeed(multiplier float64) (float64, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return 0, fmt.Errorf("set speed: invalid multiplier %v", multiplier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseRunning {
		return s.speed, ErrAlreadyRunning
	}
	s.speed = math.Min(math.Max(multiplier, s.opts.MinSpeedMultiplier), s.opts.MaxSpeedMultiplier)
	return s.speed, nil
}

// SetBounds задает размеры поля для следующей игры
func (s *GameSession) SetBounds(width, height float64) error {
	bounds := world.Bounds{Width: width, Height: height, FloorMargin: s.opts.Bounds.FloorMargin}
	if !bounds.Valid() {
		return fmt.Errorf("set bounds: invalid field %.0fx%.0f", width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseRunning {
		return ErrAlreadyRunning
	}
	s.bounds = bounds
	return nil
}

// Start запускает игру: драйвер переходит в Active, трекер включается
func (s *GameSession) Start(now time.Time) error {
	s.mu.Lock()
	switch s.phase {
	case PhaseRunning:
		s.mu.Unlock()
		return ErrAlreadyRunning
	case PhaseGameOver:
		s.mu.Unlock()
		return ErrGameOver
	}
	bounds, speed := s.bounds, s.speed
	s.score = 0
	s.lastHazard = false
	s.mu.Unlock()

	if err := s.tracker.Start(); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}

	s.aggregator.Reset()
	if err := s.driver.Start(now, bounds, speed); err != nil {
		s.stopTracker()
		return fmt.Errorf("start: %w", err)
	}

	s.mu.Lock()
	s.phase = PhaseRunning
	s.games++
	s.mu.Unlock()

	s.record(telemetry.Event{Type: telemetry.EventSessionStarted})
	s.logger.Printf("[Session] %s started: field %.0fx%.0f, speed x%.1f", s.id, bounds.Width, bounds.Height, speed)
	return nil
}

// Restart возвращает сессию на стартовый экран со сброшенным счетом.
// Прерывает идущую игру без отправки результата.
func (s *GameSession) Restart() {
	s.mu.Lock()
	wasRunning := s.phase == PhaseRunning
	s.phase = PhaseStart
	s.score = 0
	s.lastHazard = false
	s.mu.Unlock()

	s.driver.Reset()
	s.world.Reset()
	s.aggregator.Reset()
	if wasRunning {
		s.stopTracker()
	}

	s.record(telemetry.Event{Type: telemetry.EventRestart})
}

// Step выполняет шаг по стенному времени. Возвращает true, пока игра идет.
func (s *GameSession) Step(now time.Time) bool {
	return s.driver.Step(now)
}

// StepDelta выполняет шаг заданной длительности
func (s *GameSession) StepDelta(dt time.Duration) bool {
	return s.driver.StepDelta(dt)
}

// PushSample передает позицию пальца в пикселях поля. Вне игры отбрасывается.
func (s *GameSession) PushSample(sample gesture.FingertipSample) bool {
	if !s.Running() {
		return false
	}
	emitted := s.aggregator.Push(sample)
	if emitted {
		s.record(telemetry.Event{Type: telemetry.EventSlice, Position: telemetry.Vector2{X: sample.X, Y: sample.Y}})
	}
	return emitted
}

// PushLandmark передает нормализованную точку трекера; nil - рука не найдена
func (s *GameSession) PushLandmark(lm *gesture.Landmark, timestampMs int64) bool {
	s.mu.RLock()
	bounds := s.bounds
	s.mu.RUnlock()

	sample, ok := gesture.Project(lm, bounds.Width, bounds.Height, timestampMs)
	if !ok {
		return false
	}
	return s.PushSample(sample)
}

// Running сообщает, идет ли игра
func (s *GameSession) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase == PhaseRunning
}

// Phase возвращает экранное состояние
func (s *GameSession) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Score возвращает текущий счет
func (s *GameSession) Score() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.score
}

// DriverState возвращает состояние игрового цикла
func (s *GameSession) DriverState() game.State {
	return s.driver.State()
}

// Wait ждет завершения отправок результатов
func (s *GameSession) Wait() {
	s.submissions.Wait()
}

// Close останавливает игру и отменяет незавершенные отправки
func (s *GameSession) Close() {
	if s.Running() {
		s.stopTracker()
	}
	s.driver.Reset()
	s.cancel()
	s.submissions.Wait()
}

// GetStats возвращает статистику сессии
func (s *GameSession) GetStats() map[string]interface{} {
	s.mu.RLock()
	stats := map[string]interface{}{
		"session_id": s.id,
		"phase":      string(s.phase),
		"score":      s.score,
		"speed":      s.speed,
		"games":      s.games,
	}
	s.mu.RUnlock()

	stats["driver"] = s.driver.GetStats()
	stats["gesture"] = s.aggregator.Stats()
	return stats
}

func (s *GameSession) stopTracker() {
	if err := s.tracker.Stop(); err != nil {
		s.logger.Printf("[Session] %s: tracker stop failed: %v", s.id, err)
	}
}

func (s *GameSession) record(ev telemetry.Event) {
	if s.telemetry == nil {
		return
	}
	ev.SessionID = s.id
	if ev.Score == 0 {
		ev.Score = s.Score()
	}
	s.telemetry.Record(ev)
}

// onScore вызывается драйвером на каждый разрезанный обычный объект
func (s *GameSession) onScore() {
	s.mu.Lock()
	s.score++
	score := s.score
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.ScoreChanged(score)
	}
}

// onGameOver вызывается драйвером ровно один раз за игру
func (s *GameSession) onGameOver(causedByHazard bool) {
	s.mu.Lock()
	if s.phase != PhaseRunning {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseGameOver
	s.lastHazard = causedByHazard
	score, name := s.score, s.name
	s.mu.Unlock()

	s.stopTracker()
	s.record(telemetry.Event{Type: telemetry.EventGameOver, Hazard: causedByHazard, Score: score})
	s.logger.Printf("[Session] %s game over: score %d (hazard: %t)", s.id, score, causedByHazard)

	s.submit(name, score, causedByHazard)

	if s.listener != nil {
		s.listener.GameOver(causedByHazard, score)
	}
}

// submit отправляет результат в фоне; ошибки только логируются
func (s *GameSession) submit(name string, score int, causedByHazard bool) {
	if s.submitter == nil {
		return
	}
	if name == "" {
		name = AnonymousName
	}

	s.submissions.Add(1)
	go func() {
		defer s.submissions.Done()

		ctx, cancel := context.WithTimeout(s.ctx, s.opts.SubmitTimeout)
		defer cancel()

		ctx, span := s.tracer.Start(ctx, "session.submit_score", trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("player.name", name),
			attribute.Int("game.score", score),
			attribute.Bool("game.hazard", causedByHazard),
		))
		defer span.End()

		if err := s.submitter.Submit(ctx, name, score); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submit failed")
			s.logger.Printf("[Session] %s: score submit failed: %v", s.id, err)
		}
	}()
}

// sink связывает драйвер с сессией, не открывая колбэки наружу
type sink struct {
	s *GameSession
}

func (k *sink) OnScore()                       { k.s.onScore() }
func (k *sink) OnGameOver(causedByHazard bool) { k.s.onGameOver(causedByHazard) }

func (k *sink) OnSpawned(objs []world.FallingObject) {
	for _, obj := range objs {
		k.s.record(telemetry.Event{
			Type:       telemetry.EventObjectSpawned,
			ObjectID:   obj.ID,
			ObjectKind: string(obj.Kind),
			Position:   telemetry.Vector2{X: obj.X, Y: obj.Y},
		})
	}
}

func (k *sink) OnRemoved(objs []world.FallingObject) {
	for _, obj := range objs {
		eventType := telemetry.EventObjectMissed
		if obj.Sliced {
			eventType = telemetry.EventObjectSliced
		}
		k.s.record(telemetry.Event{
			Type:       eventType,
			ObjectID:   obj.ID,
			ObjectKind: string(obj.Kind),
			Position:   telemetry.Vector2{X: obj.X, Y: obj.Y},
		})
	}
}

type nopTracker struct{}

func (nopTracker) Start() error { return nil }
func (nopTracker) Stop() error  { return nil }
