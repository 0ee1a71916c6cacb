package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// maxBodyBytes ограничение на тело POST запроса
const maxBodyBytes = 4 << 10

// ScoreStore хранилище, которым пользуется HTTP API
type ScoreStore interface {
	Create(ctx context.Context, name string, score int) (Entry, error)
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// SubmitRequest тело POST /api/scores
type SubmitRequest struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Handler HTTP API таблицы рекордов
type Handler struct {
	store  ScoreStore
	limit  int
	logger *log.Logger
}

// NewHandler создает обработчик; limit - размер выдачи GET
func NewHandler(store ScoreStore, limit int, logger *log.Logger) *Handler {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{store: store, limit: limit, logger: logger}
}

// Register регистрирует маршруты /api/scores
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/scores", withCORS(http.HandlerFunc(h.handleTop)))
	mux.Handle("POST /api/scores", withCORS(http.HandlerFunc(h.handleCreate)))
	mux.Handle("OPTIONS /api/scores", withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
}

func (h *Handler) handleTop(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Top(r.Context(), h.limit)
	if err != nil {
		h.logger.Printf("[Leaderboard] top query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to load scores"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid json body"})
		return
	}
	if req.Score == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "score is required"})
		return
	}

	entry, err := h.store.Create(r.Context(), req.Name, *req.Score)
	switch {
	case errors.Is(err, ErrInvalidEntry):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	case err != nil:
		h.logger.Printf("[Leaderboard] create failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to save score"})
		return
	}

	h.logger.Printf("[Leaderboard] new score %d by %q", entry.Score, entry.Name)
	writeJSON(w, http.StatusCreated, entry)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
