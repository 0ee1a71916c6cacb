package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client обращается к HTTP API таблицы рекордов другого процесса
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient создает клиента. httpClient может быть nil.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tracer:     otel.Tracer("x-slice/leaderboard"),
	}
}

// Submit отправляет результат; реализует отправку результата сессии
func (c *Client) Submit(ctx context.Context, name string, score int) error {
	_, err := c.Create(ctx, name, score)
	return err
}

// Create отправляет результат и возвращает созданную запись
func (c *Client) Create(ctx context.Context, name string, score int) (Entry, error) {
	ctx, span := c.tracer.Start(ctx, "leaderboard.client.create", trace.WithAttributes(
		attribute.Int("game.score", score),
	))
	defer span.End()

	body, err := json.Marshal(SubmitRequest{Name: name, Score: &score})
	if err != nil {
		return Entry{}, fmt.Errorf("encode score: %w", err)
	}

	var entry Entry
	if err := c.do(ctx, http.MethodPost, bytes.NewReader(body), http.StatusCreated, &entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return Entry{}, err
	}
	return entry, nil
}

// Top запрашивает таблицу рекордов
func (c *Client) Top(ctx context.Context) ([]Entry, error) {
	ctx, span := c.tracer.Start(ctx, "leaderboard.client.top")
	defer span.End()

	var entries []Entry
	if err := c.do(ctx, http.MethodGet, nil, http.StatusOK, &entries); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "top failed")
		return nil, err
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method string, body io.Reader, wantStatus int, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/scores", body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s /api/scores: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&apiErr)
		if resp.StatusCode == http.StatusBadRequest {
			return fmt.Errorf("%w: %s", ErrInvalidEntry, apiErr.Message)
		}
		return fmt.Errorf("%s /api/scores: status %d: %s", method, resp.StatusCode, apiErr.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
