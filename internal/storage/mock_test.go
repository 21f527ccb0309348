package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/pkg/overworld"
	"github.com/jwebster45206/garlic-tiger/pkg/state"
	"github.com/jwebster45206/garlic-tiger/pkg/storage"
)

func TestMockStorage_SaveAndLoadGameState(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	ctx := context.Background()

	gs := state.NewGameState(overworld.Position{X: 1, Y: 2})
	gs.Phase = state.PhaseIntro

	if err := mockStorage.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("Failed to save gamestate: %v", err)
	}

	// Mutating the caller's copy must not leak into storage.
	gs.Phase = state.PhaseVictory

	loaded, err := mockStorage.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("Failed to load gamestate: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil gamestate")
	}
	if loaded.Phase != state.PhaseIntro {
		t.Errorf("Expected phase %q, got %q", state.PhaseIntro, loaded.Phase)
	}
	if loaded.Position != (overworld.Position{X: 1, Y: 2}) {
		t.Errorf("Expected position {1 2}, got %v", loaded.Position)
	}
}

func TestMockStorage_LoadNonExistentGameState(t *testing.T) {
	mockStorage := storage.NewMockStorage()

	loaded, err := mockStorage.LoadGameState(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for non-existent gamestate, got: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil gamestate, got %+v", loaded)
	}
}

func TestMockStorage_SaveNil(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	if err := mockStorage.SaveGameState(context.Background(), uuid.New(), nil); err == nil {
		t.Error("Expected error saving nil gamestate")
	}
}
