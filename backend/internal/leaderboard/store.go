package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

var ErrInvalidEntry = errors.New("invalid leaderboard entry")

const (
	// DefaultLimit размер таблицы рекордов
	DefaultLimit = 10
	// MaxNameLength максимальная длина имени игрока в символах
	MaxNameLength = 32
	// AnonymousName имя для пустого поля имени
	AnonymousName = "anonymous"
)

// Entry запись таблицы рекордов
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"date"`
}

// Store хранит результаты в SQLite
type Store struct {
	db     *sql.DB
	logger *log.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Open открывает (или создает) базу по пути path и применяет миграции
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open leaderboard db: %w", err)
	}
	// один писатель: SQLite не любит параллельные записи из пула
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("leaderboard pragmas: %w", err)
	}
	if err := migrateUp(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	version, _, err := schemaVersion(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Printf("[Leaderboard] opened %s (schema v%d)", path, version)

	return &Store{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("x-slice/leaderboard"),
		now:    time.Now,
	}, nil
}

// Close закрывает базу
func (s *Store) Close() error {
	return s.db.Close()
}

// NormalizeEntry приводит имя к виду для хранения и проверяет счет
func NormalizeEntry(name string, score int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = AnonymousName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalidEntry, MaxNameLength)
	}
	if score < 0 {
		return "", fmt.Errorf("%w: negative score %d", ErrInvalidEntry, score)
	}
	return name, nil
}

// Create сохраняет результат и возвращает созданную запись
func (s *Store) Create(ctx context.Context, name string, score int) (Entry, error) {
	ctx, span := s.tracer.Start(ctx, "leaderboard.store.create", trace.WithAttributes(
		attribute.Int("game.score", score),
	))
	defer span.End()

	name, err := NormalizeEntry(name, score)
	if err != nil {
		span.SetStatus(codes.Error, "invalid entry")
		return Entry{}, err
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Score:     score,
		CreatedAt: s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (id, name, score, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Name, entry.Score, entry.CreatedAt.UnixMilli())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return Entry{}, fmt.Errorf("insert score: %w", err)
	}

	// храним с точностью до миллисекунд
	entry.CreatedAt = time.UnixMilli(entry.CreatedAt.UnixMilli()).UTC()
	return entry, nil
}

// Submit сохраняет результат конца игры
func (s *Store) Submit(ctx context.Context, name string, score int) error {
	_, err := s.Create(ctx, name, score)
	return err
}

// Top возвращает limit лучших результатов по убыванию счета; при равенстве раньше идет более ранний
func (s *Store) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, span := s.tracer.Start(ctx, "leaderboard.store.top", trace.WithAttributes(
		attribute.Int("leaderboard.limit", limit),
	))
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, created_at FROM scores
		 ORDER BY score DESC, created_at ASC, rowid ASC
		 LIMIT ?`, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry     Entry
			createdMs int64
		)
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Score, &createdMs); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		entry.CreatedAt = time.UnixMilli(createdMs).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}

	span.SetAttributes(attribute.Int("leaderboard.entries", len(entries)))
	return entries, nil
}
