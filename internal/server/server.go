// Package server собирает компоненты boardsync в один HTTP сервер.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iudanet/boardsync/internal/clock"
	"github.com/iudanet/boardsync/internal/config"
	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/realtime/cursor"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/presence"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
	"github.com/iudanet/boardsync/internal/realtime/session"
	"github.com/iudanet/boardsync/internal/server/access"
	"github.com/iudanet/boardsync/internal/server/handlers"
	"github.com/iudanet/boardsync/internal/server/jwt"
	"github.com/iudanet/boardsync/internal/server/middleware"
	"github.com/iudanet/boardsync/internal/server/notify"
	"github.com/iudanet/boardsync/internal/server/profiles"
	"github.com/iudanet/boardsync/internal/server/relay"
	"github.com/iudanet/boardsync/internal/server/storage/boltdb"
	"github.com/iudanet/boardsync/internal/server/storage/sqlite"
	"github.com/iudanet/boardsync/internal/server/ws"
)

// Server все компоненты процесса. Создается New, освобождается Shutdown.
type Server struct {
	logger     *slog.Logger
	handler    http.Handler
	store      *sqlite.Storage
	inbox      *boltdb.Storage
	registry   *rooms.Registry
	dispatcher *dispatch.Dispatcher
	manager    *session.Manager
	limits     *middleware.PathRateLimiter
	relay      *relay.Relay
	redis      *redis.Client
	tokens     *jwt.Service
	nodeID     string
}

// New открывает хранилища и собирает сервер. Если задан RedisURL, события
// пересылаются другим узлам; Run нужно вызвать, чтобы принимать их.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, version string) (*Server, error) {
	s := &Server{
		logger: logger,
		nodeID: uuid.NewString(),
	}

	store, err := sqlite.New(ctx, logger, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s.store = store

	inbox, err := boltdb.New(ctx, cfg.InboxPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open inbox: %w", err)
	}
	s.inbox = inbox

	s.tokens = jwt.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL)

	s.registry = rooms.New(logger, rooms.WithStrictInvariants(cfg.StrictInvariants))
	tracker := presence.New(logger, presence.WithStrictInvariants(cfg.StrictInvariants))
	s.dispatcher = dispatch.New(logger, s.registry, clock.NewWithNodeID(s.nodeID))

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			s.closeStores()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		s.redis = redis.NewClient(opts)
		s.relay = relay.New(logger, s.redis, s.nodeID, s.dispatcher, relay.WithChannel(cfg.RedisChannel))
		s.dispatcher.SetRelay(s.relay)
	}

	checker := access.New(store)
	s.manager = session.NewManager(logger, session.Deps{
		Registry:   s.registry,
		Presence:   tracker,
		Dispatcher: s.dispatcher,
		Identity:   s.tokens,
		Boards:     checker,
		Profiles:   profiles.New(store, cfg.ProfileCacheTTL),
	},
		session.WithOutboxSize(cfg.OutboxSize),
		session.WithCursorOptions(
			cursor.WithInterval(cfg.CursorInterval),
			cursor.WithIdleTimeout(cfg.CursorIdle),
		),
	)

	notifications := notify.New(logger, inbox, s.dispatcher)

	s.limits = middleware.NewPathRateLimiter([]middleware.PathRateLimit{
		{Path: APIPrefix + "/auth/login", Rate: cfg.AuthRateLimit, Window: cfg.RateWindow},
		{Path: APIPrefix + "/auth/register", Rate: cfg.AuthRateLimit, Window: cfg.RateWindow},
	}, cfg.RateLimit, cfg.RateWindow, logger)

	health := handlers.NewHealthHandler(logger, version, store, s.registry, s.dispatcher)
	if s.relay != nil {
		health.WithRelay(s.relay)
	}

	s.handler = NewRouter(logger, Routes{
		Health: health,
		Auth:   handlers.NewAuthHandler(logger, store, s.tokens),
		Boards: handlers.NewBoardHandler(logger, handlers.BoardDeps{
			Boards:   store,
			Lists:    store,
			Cards:    store,
			Users:    store,
			Access:   checker,
			Ordering: ordering.NewEngine(logger),
			Events:   s.dispatcher,
			Presence: tracker,
			Notifier: notifications,
			Sessions: s.manager,
		}),
		Notifications: handlers.NewNotificationHandler(logger, notifications),
		WS: ws.NewHandler(logger, s.manager,
			ws.WithAuthTimeout(cfg.AuthTimeout),
			ws.WithAllowedOrigins(cfg.AllowedOrigins...),
		),
	}, s.tokens, s.limits)

	return s, nil
}

// Handler корневой HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// NodeID идентификатор узла в relay.
func (s *Server) NodeID() string { return s.nodeID }

// Run принимает события других узлов до отмены ctx. Без relay сразу возвращает nil.
func (s *Server) Run(ctx context.Context) error {
	if s.relay == nil {
		return nil
	}

	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	s.logger.Info("Relay started", "node_id", s.nodeID)

	if err := s.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

// Shutdown закрывает сессии, relay и хранилища. Вызывается после остановки http.Server.
func (s *Server) Shutdown(ctx context.Context) error {
	start := time.Now()

	// сессии закрываются первыми, чтобы board:user-left ушли до остановки relay
	s.manager.Close()
	s.limits.Stop()

	var errs []error
	if s.relay != nil {
		s.relay.Close()
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	errs = append(errs, s.closeStores()...)

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("Server components stopped", "duration", time.Since(start))
	return errors.Join(errs...)
}

func (s *Server) closeStores() []error {
	var errs []error
	if s.inbox != nil {
		if err := s.inbox.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close inbox: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errs
}
