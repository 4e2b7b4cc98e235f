// Package config собирает настройки сервера из флагов, переменных окружения и .env файла.
// Приоритет: флаг, затем переменная окружения, затем значение по умолчанию.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// minSecretLen минимальная длина секрета для HS256
const minSecretLen = 32

// Config настройки сервера
type Config struct {
	Addr           string
	DatabasePath   string
	InboxPath      string
	JWTSecret      string
	RedisURL       string
	RedisChannel   string
	LogLevel       string
	AllowedOrigins []string

	TokenTTL        time.Duration
	CursorInterval  time.Duration
	CursorIdle      time.Duration
	AuthTimeout     time.Duration
	ProfileCacheTTL time.Duration
	RateWindow      time.Duration
	ShutdownTimeout time.Duration

	OutboxSize    int
	RateLimit     int
	AuthRateLimit int

	StrictInvariants bool
	ShowVersion      bool
}

// LookupFunc источник переменных окружения (os.LookupEnv)
type LookupFunc func(key string) (string, bool)

// Load загружает .env (если есть) в окружение процесса и разбирает args.
func Load(args []string) (*Config, error) {
	envFile := ".env"
	for i, arg := range args {
		if v, ok := strings.CutPrefix(arg, "-env-file="); ok {
			envFile = v
		} else if (arg == "-env-file" || arg == "--env-file") && i+1 < len(args) {
			envFile = args[i+1]
		}
	}

	// godotenv не перезаписывает уже заданные переменные
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	return Parse(args, os.LookupEnv)
}

// Parse разбирает флаги args с переменными окружения из lookup в качестве значений по умолчанию.
func Parse(args []string, lookup LookupFunc) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{}
	fs := flag.NewFlagSet("boardsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String("env-file", ".env", "Path to .env file")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	fs.StringVar(&cfg.Addr, "addr", env.str("ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.DatabasePath, "db", env.str("DATABASE_PATH", "boardsync.db"), "Path to SQLite database")
	fs.StringVar(&cfg.InboxPath, "inbox", env.str("INBOX_PATH", "boardsync-inbox.db"), "Path to notification inbox (bbolt)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", env.str("JWT_SECRET", ""), "HS256 signing secret")
	fs.StringVar(&cfg.RedisURL, "redis-url", env.str("REDIS_URL", ""), "Redis URL for cross-node relay, empty disables relay")
	fs.StringVar(&cfg.RedisChannel, "redis-channel", env.str("REDIS_CHANNEL", "boardsync:events"), "Redis pub/sub channel")
	fs.StringVar(&cfg.LogLevel, "log-level", env.str("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	origins := fs.String("allowed-origins", env.str("ALLOWED_ORIGINS", ""), "Comma separated websocket origins, empty allows any")

	fs.DurationVar(&cfg.TokenTTL, "token-ttl", env.duration("TOKEN_TTL", 24*time.Hour), "Access token lifetime")
	fs.DurationVar(&cfg.CursorInterval, "cursor-interval", env.duration("CURSOR_INTERVAL", 50*time.Millisecond), "Minimum interval between cursor broadcasts per session")
	fs.DurationVar(&cfg.CursorIdle, "cursor-idle", env.duration("CURSOR_IDLE_TIMEOUT", 5*time.Second), "Idle time before a cursor slot is released")
	fs.DurationVar(&cfg.AuthTimeout, "ws-auth-timeout", env.duration("WS_AUTH_TIMEOUT", 10*time.Second), "Time a websocket may stay unauthenticated")
	fs.DurationVar(&cfg.ProfileCacheTTL, "profile-cache-ttl", env.duration("PROFILE_CACHE_TTL", 30*time.Second), "Profile cache lifetime")
	fs.DurationVar(&cfg.RateWindow, "rate-window", env.duration("RATE_WINDOW", time.Minute), "Rate limit window")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", env.duration("SHUTDOWN_TIMEOUT", 15*time.Second), "Graceful shutdown timeout")

	fs.IntVar(&cfg.OutboxSize, "outbox-size", env.integer("OUTBOX_SIZE", 256), "Per-session outbound queue size")
	fs.IntVar(&cfg.RateLimit, "rate-limit", env.integer("RATE_LIMIT", 300), "Requests per window per client IP")
	fs.IntVar(&cfg.AuthRateLimit, "auth-rate-limit", env.integer("AUTH_RATE_LIMIT", 10), "Login and register attempts per window per client IP")

	fs.BoolVar(&cfg.StrictInvariants, "strict", env.boolean("STRICT_INVARIANTS", false), "Panic on room and presence invariant violations")

	if env.err != nil {
		return nil, env.err
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.AllowedOrigins = splitList(*origins)

	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d bytes (JWT_SECRET)", minSecretLen))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.CursorInterval <= 0 || c.CursorIdle < c.CursorInterval {
		errs = append(errs, errors.New("cursor interval must be positive and not exceed cursor idle timeout"))
	}
	if c.OutboxSize < 1 {
		errs = append(errs, errors.New("outbox size must be positive"))
	}
	if c.RateLimit < 1 || c.AuthRateLimit < 1 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("rate limits and window must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel уровень логирования для slog
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// envReader читает типизированные переменные окружения, запоминая первую ошибку
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *envReader) integer(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
