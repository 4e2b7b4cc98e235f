package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
	"github.com/iudanet/boardsync/internal/server/relay"
)

// pingTimeout ограничение на проверку базы данных
const pingTimeout = 2 * time.Second

// Pinger проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// RoomStats источник статистики комнат
type RoomStats interface {
	Stats() rooms.Stats
}

// DispatchStats источник статистики рассылки
type DispatchStats interface {
	Stats() dispatch.Stats
}

// RelayStats источник статистики межузлового relay
type RelayStats interface {
	Stats() relay.Stats
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	db         Pinger
	rooms      RoomStats
	dispatcher DispatchStats
	relay      RelayStats
	version    string
}

// NewHealthHandler создает новый handler для health check.
// db, roomStats и dispatcher могут быть nil.
func NewHealthHandler(logger *slog.Logger, version string, db Pinger, roomStats RoomStats, dispatcher DispatchStats) *HealthHandler {
	return &HealthHandler{
		responder:  responder{logger: logger},
		db:         db,
		rooms:      roomStats,
		dispatcher: dispatcher,
		version:    version,
	}
}

// WithRelay добавляет в ответ счетчики relay
func (h *HealthHandler) WithRelay(r RelayStats) *HealthHandler {
	h.relay = r
	return h
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Rooms    *rooms.Stats    `json:"rooms,omitempty"`
	Dispatch *dispatch.Stats `json:"dispatch,omitempty"`
	Relay    *relay.Stats    `json:"relay,omitempty"`
	Status   string          `json:"status"`
	Version  string          `json:"version,omitempty"`
	Database string          `json:"database,omitempty"`
}

// Health обрабатывает GET /api/v1/health
// Health check endpoint для мониторинга
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		resp.Database = "ok"
		if err := h.db.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	if h.rooms != nil {
		s := h.rooms.Stats()
		resp.Rooms = &s
	}
	if h.dispatcher != nil {
		s := h.dispatcher.Stats()
		resp.Dispatch = &s
	}
	if h.relay != nil {
		s := h.relay.Stats()
		resp.Relay = &s
	}

	h.sendJSON(w, resp, status)
}
