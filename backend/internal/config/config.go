package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"x-slice/backend/internal/game"
	"x-slice/backend/internal/gesture"
	"x-slice/backend/internal/session"
	"x-slice/backend/internal/world"
)

// Config настройки сервера и игры, читаются из переменных окружения X_SLICE_*
type Config struct {
	// Жесты
	MovementThresholdPx float64       `env:"X_SLICE_MOVEMENT_THRESHOLD_PX" envDefault:"30"`
	TimeWindow          time.Duration `env:"X_SLICE_TIME_WINDOW" envDefault:"200ms"`
	TrailLength         int           `env:"X_SLICE_TRAIL_LENGTH" envDefault:"10"`

	// Спавн
	SpawnInterval  time.Duration `env:"X_SLICE_SPAWN_INTERVAL" envDefault:"900ms"`
	CountWeights   []float64     `env:"X_SLICE_COUNT_WEIGHTS" envDefault:"0.70,0.25,0.05" envSeparator:","`
	HazardRate     float64       `env:"X_SLICE_HAZARD_RATE" envDefault:"0.05"`
	MinFallSpeed   float64       `env:"X_SLICE_MIN_FALL_SPEED" envDefault:"200"`
	MaxFallSpeed   float64       `env:"X_SLICE_MAX_FALL_SPEED" envDefault:"500"`
	ObjectRadius   float64       `env:"X_SLICE_OBJECT_RADIUS" envDefault:"60"`
	NormalVariants int           `env:"X_SLICE_NORMAL_VARIANTS" envDefault:"7"`

	// Поле и цикл
	FieldWidth         float64       `env:"X_SLICE_FIELD_WIDTH" envDefault:"1280"`
	FieldHeight        float64       `env:"X_SLICE_FIELD_HEIGHT" envDefault:"720"`
	FloorMargin        float64       `env:"X_SLICE_FLOOR_MARGIN" envDefault:"32"`
	MinSpeedMultiplier float64       `env:"X_SLICE_MIN_SPEED_MULTIPLIER" envDefault:"0.5"`
	MaxSpeedMultiplier float64       `env:"X_SLICE_MAX_SPEED_MULTIPLIER" envDefault:"2.0"`
	FrameInterval      time.Duration `env:"X_SLICE_FRAME_INTERVAL" envDefault:"16ms"`
	MaxFrameDelta      time.Duration `env:"X_SLICE_MAX_FRAME_DELTA" envDefault:"100ms"`

	// Сервер
	HTTPAddr         string        `env:"X_SLICE_HTTP_ADDR" envDefault:":8080"`
	DBPath           string        `env:"X_SLICE_DB_PATH" envDefault:"x-slice.db"`
	LeaderboardURL   string        `env:"X_SLICE_LEADERBOARD_URL"`
	LeaderboardSize  int           `env:"X_SLICE_LEADERBOARD_SIZE" envDefault:"10"`
	SubmitTimeout    time.Duration `env:"X_SLICE_SUBMIT_TIMEOUT" envDefault:"5s"`
	TelemetryEntries int           `env:"X_SLICE_TELEMETRY_ENTRIES" envDefault:"500"`
	OTLPEndpoint     string        `env:"X_SLICE_OTEL_ENDPOINT"`
}

// Default возвращает конфигурацию по умолчанию без чтения окружения
func Default() Config {
	return Config{
		MovementThresholdPx: 30,
		TimeWindow:          200 * time.Millisecond,
		TrailLength:         10,

		SpawnInterval:  900 * time.Millisecond,
		CountWeights:   []float64{0.70, 0.25, 0.05},
		HazardRate:     0.05,
		MinFallSpeed:   200,
		MaxFallSpeed:   500,
		ObjectRadius:   60,
		NormalVariants: 7,

		FieldWidth:         1280,
		FieldHeight:        720,
		FloorMargin:        32,
		MinSpeedMultiplier: 0.5,
		MaxSpeedMultiplier: 2.0,
		FrameInterval:      16 * time.Millisecond,
		MaxFrameDelta:      100 * time.Millisecond,

		HTTPAddr:         ":8080",
		DBPath:           "x-slice.db",
		LeaderboardSize:  10,
		SubmitTimeout:    5 * time.Second,
		TelemetryEntries: 500,
	}
}

// Load читает конфигурацию из окружения и проверяет ее
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые не проверяют сами компоненты
func (c Config) Validate() error {
	if err := c.Spawn().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.Bounds().Valid() {
		return fmt.Errorf("config: invalid field %.0fx%.0f with floor margin %.0f", c.FieldWidth, c.FieldHeight, c.FloorMargin)
	}
	if c.MovementThresholdPx <= 0 || c.TimeWindow <= 0 || c.TrailLength <= 0 {
		return fmt.Errorf("config: gesture thresholds must be positive")
	}
	if c.MinSpeedMultiplier <= 0 || c.MaxSpeedMultiplier < c.MinSpeedMultiplier {
		return fmt.Errorf("config: speed multiplier range [%.2f, %.2f]", c.MinSpeedMultiplier, c.MaxSpeedMultiplier)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("config: frame interval must be positive")
	}
	if c.MaxFrameDelta < 0 {
		return fmt.Errorf("config: max frame delta must not be negative")
	}
	if c.LeaderboardSize <= 0 {
		return fmt.Errorf("config: leaderboard size must be positive")
	}
	return nil
}

// Gesture настройки агрегатора жестов
func (c Config) Gesture() gesture.Config {
	return gesture.Config{
		MovementThresholdPx: c.MovementThresholdPx,
		TimeWindowMs:        c.TimeWindow.Milliseconds(),
		TrailLength:         c.TrailLength,
	}
}

// Spawn настройки политики спавна
func (c Config) Spawn() game.SpawnConfig {
	return game.SpawnConfig{
		Interval:       c.SpawnInterval,
		CountWeights:   append([]float64(nil), c.CountWeights...),
		HazardRate:     c.HazardRate,
		MinSpeed:       c.MinFallSpeed,
		MaxSpeed:       c.MaxFallSpeed,
		Radius:         c.ObjectRadius,
		NormalVariants: c.NormalVariants,
	}
}

// Driver настройки шага игрового цикла
func (c Config) Driver() game.DriverConfig {
	return game.DriverConfig{MaxFrameDelta: c.MaxFrameDelta}
}

// Bounds размеры поля по умолчанию
func (c Config) Bounds() world.Bounds {
	return world.Bounds{Width: c.FieldWidth, Height: c.FieldHeight, FloorMargin: c.FloorMargin}
}

// SessionOptions собирает настройки сессии; внешние зависимости задает вызывающий
func (c Config) SessionOptions() session.Options {
	return session.Options{
		Gesture:            c.Gesture(),
		Spawn:              c.Spawn(),
		Driver:             c.Driver(),
		Bounds:             c.Bounds(),
		MinSpeedMultiplier: c.MinSpeedMultiplier,
		MaxSpeedMultiplier: c.MaxSpeedMultiplier,
		SubmitTimeout:      c.SubmitTimeout,
	}
}
