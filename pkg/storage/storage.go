package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"github.com/jwebster45206/garlic-tiger/pkg/state"
)

// Storage combines session persistence (Redis) with quiz content loading (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations (Redis-backed)
	// LoadGameState returns nil, nil when the session does not exist or has expired.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Quiz content (filesystem-backed, loaded once)
	GetQuizPack(ctx context.Context) (*quiz.Pack, error)
}
