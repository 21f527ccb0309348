package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"github.com/jwebster45206/garlic-tiger/pkg/state"
	"github.com/jwebster45206/garlic-tiger/pkg/storage"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultSessionTTL = time.Hour
	gameStatePrefix   = "gamestate:"
)

// RedisStorage implements the Storage interface using Redis for sessions
// and the filesystem for quiz content.
type RedisStorage struct {
	client     *redis.Client
	logger     *slog.Logger
	dataDir    string
	quizFile   string
	sessionTTL time.Duration

	packMu sync.Mutex
	pack   *quiz.Pack
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// Options configures a RedisStorage. Zero values fall back to defaults.
type Options struct {
	RedisURL   string        // host:port or redis:// URL
	DataDir    string        // directory holding quiz packs
	QuizFile   string        // pack file name inside DataDir
	SessionTTL time.Duration // expiry applied on every save
}

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(opts Options, logger *slog.Logger) (*RedisStorage, error) {
	redisOpts, err := parseRedisURL(opts.RedisURL)
	if err != nil {
		return nil, err
	}

	if opts.DataDir == "" {
		opts.DataDir = "./data"
	}
	if opts.QuizFile == "" {
		opts.QuizFile = "quizzes.json"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}

	return &RedisStorage{
		client:     redis.NewClient(redisOpts),
		logger:     logger,
		dataDir:    opts.DataDir,
		quizFile:   opts.QuizFile,
		sessionTTL: opts.SessionTTL,
	}, nil
}

// parseRedisURL accepts either a redis:// URL or a bare host:port address.
func parseRedisURL(redisURL string) (*redis.Options, error) {
	if redisURL == "" {
		return &redis.Options{Addr: "localhost:6379"}, nil
	}
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		return opt, nil
	}
	return &redis.Options{Addr: redisURL}, nil
}

// Client exposes the underlying Redis client for pub/sub.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// GameState operations (Redis-backed)

func (r *RedisStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	gs.UpdatedAt = time.Now()

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	if err := r.client.Set(ctx, gameStatePrefix+id.String(), data, r.sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := r.client.Get(ctx, gameStatePrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Gamestate not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load gamestate", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		r.logger.Error("Failed to unmarshal gamestate", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, gameStatePrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// Quiz operations (filesystem-backed)

// GetQuizPack loads the configured pack on first use and caches it. A pack
// that fails to load is not cached, so a fixed file is picked up on retry.
func (r *RedisStorage) GetQuizPack(ctx context.Context) (*quiz.Pack, error) {
	r.packMu.Lock()
	defer r.packMu.Unlock()

	if r.pack != nil {
		return r.pack, nil
	}

	path := filepath.Join(r.dataDir, r.quizFile)
	p, err := quiz.LoadFile(path)
	if err != nil {
		r.logger.Error("Failed to load quiz pack", "path", path, "error", err)
		return nil, err
	}
	r.logger.Info("Quiz pack loaded", "path", path, "quizzes", p.Len())
	r.pack = p
	return p, nil
}
