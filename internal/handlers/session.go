package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/internal/logger"
	"github.com/jwebster45206/garlic-tiger/internal/services/events"
	"github.com/jwebster45206/garlic-tiger/pkg/overworld"
	"github.com/jwebster45206/garlic-tiger/pkg/progress"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"github.com/jwebster45206/garlic-tiger/pkg/share"
	"github.com/jwebster45206/garlic-tiger/pkg/state"
	"github.com/jwebster45206/garlic-tiger/pkg/storage"
)

const maxSessionBodyBytes = 4 << 10

// SessionResponse is returned by every session endpoint. Only the fields
// relevant to the action that was taken are populated.
type SessionResponse struct {
	Session        *state.GameState     `json:"session"`
	Moved          bool                 `json:"moved,omitempty"`          // Tiger changed cell
	Encounter      bool                 `json:"encounter,omitempty"`      // Step triggered an NPC encounter
	Quiz           *quiz.PublicQuiz     `json:"quiz,omitempty"`           // Current quiz, answer withheld
	Correct        *bool                `json:"correct,omitempty"`        // Set only on answer
	Transformation *quiz.Transformation `json:"transformation,omitempty"` // Stage just reached
	WrongFeedback  string               `json:"wrong_feedback,omitempty"`
	Encouragement  string               `json:"encouragement,omitempty"`
	ShareText      string               `json:"share_text,omitempty"`
}

type MoveRequest struct {
	Direction string `json:"direction"`
}

type AnswerRequest struct {
	Choice string `json:"choice"`
}

// SessionOptions tunes game rules for a SessionHandler.
type SessionOptions struct {
	Grid               overworld.Grid
	EncounterThreshold int
	Random             progress.RandomSource // Defaults to math/rand/v2
}

// SessionHandler runs the quest for server-side sessions. Each request loads
// the session, applies one action, saves it and reports what happened.
type SessionHandler struct {
	storage   storage.Storage
	publisher events.Publisher // Optional
	grid      overworld.Grid
	threshold int
	rng       progress.RandomSource
	logger    *slog.Logger
}

func NewSessionHandler(s storage.Storage, publisher events.Publisher, opts SessionOptions, logger *slog.Logger) *SessionHandler {
	if opts.Grid.Cols <= 0 || opts.Grid.Rows <= 0 {
		opts.Grid = overworld.DefaultGrid()
	}
	if opts.EncounterThreshold <= 0 {
		opts.EncounterThreshold = progress.DefaultEncounterThreshold
	}
	if opts.Random == nil {
		opts.Random = progress.RandomFunc(rand.Float64)
	}
	return &SessionHandler{
		storage:   s,
		publisher: publisher,
		grid:      opts.Grid,
		threshold: opts.EncounterThreshold,
		rng:       opts.Random,
		logger:    logger,
	}
}

// ServeHTTP routes:
//
//	POST   /v1/sessions
//	GET    /v1/sessions/{id}
//	DELETE /v1/sessions/{id}
//	POST   /v1/sessions/{id}/start
//	POST   /v1/sessions/{id}/continue
//	POST   /v1/sessions/{id}/move
//	GET    /v1/sessions/{id}/quiz
//	POST   /v1/sessions/{id}/answer
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || len(parts) > 4 || parts[0] != "v1" || parts[1] != "sessions" {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, r)
			return
		}
		h.handleCreate(w, r)
		return
	}

	id, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			h.methodNotAllowed(w, r)
		}
		return
	}

	action := parts[3]
	if action == "quiz" {
		if r.Method != http.MethodGet {
			h.methodNotAllowed(w, r)
			return
		}
		h.handleQuiz(w, r, id)
		return
	}

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r)
		return
	}
	switch action {
	case "start":
		h.handleStart(w, r, id)
	case "continue":
		h.handleContinue(w, r, id)
	case "move":
		h.handleMove(w, r, id)
	case "answer":
		h.handleAnswer(w, r, id)
	default:
		writeError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Unknown session action %q", action))
	}
}

func (h *SessionHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("Method not allowed for session endpoint",
		"method", r.Method,
		"path", r.URL.Path)
	writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	gs := state.NewGameState(h.grid.Start())
	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save new session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}
	logger.WithSession(h.logger, gs.ID).Info("Session created")
	writeJSON(w, h.logger, http.StatusCreated, SessionResponse{Session: gs})
}

func (h *SessionHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	resp := SessionResponse{Session: gs}
	if gs.Phase == state.PhaseEncounter {
		q, ok := h.currentQuiz(w, r, gs)
		if !ok {
			return
		}
		pub := q.Public(gs.Progress.CurrentQuizIndex)
		resp.Quiz = &pub
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), id); err != nil {
		logger.WithSession(h.logger, id).Error("Failed to delete session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStart begins a fresh run from the title, game over, victory or
// capture screens. All progress is reset.
func (h *SessionHandler) handleStart(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	from := gs.Phase
	if !h.transition(w, gs, state.PhaseIntro, "start") {
		return
	}
	gs.Position = h.grid.Start()
	if !h.save(w, r, gs) {
		return
	}
	h.publishPhase(r.Context(), gs, from)
	writeJSON(w, h.logger, http.StatusOK, SessionResponse{Session: gs})
}

// handleContinue advances past a cutscene: the intro, a transformation or
// the victory speech.
func (h *SessionHandler) handleContinue(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	from := gs.Phase

	var to state.Phase
	switch gs.Phase {
	case state.PhaseIntro:
		to = state.PhaseWalking
	case state.PhaseTransform:
		to = state.PhaseWalking
		if gs.IsQuestComplete() {
			to = state.PhaseVictory
		}
	case state.PhaseVictory:
		to = state.PhaseCapture
	default:
		writeError(w, h.logger, http.StatusConflict, fmt.Sprintf("Cannot continue during phase %s", gs.Phase))
		return
	}

	if !h.transition(w, gs, to, "continue") {
		return
	}
	if to == state.PhaseWalking {
		gs.Position = h.grid.Start()
	}
	if !h.save(w, r, gs) {
		return
	}
	h.publishPhase(r.Context(), gs, from)

	resp := SessionResponse{Session: gs}
	if to == state.PhaseVictory || to == state.PhaseCapture {
		resp.ShareText = share.Text(gs.Progress.GarlicsCollected, gs.IsQuestComplete())
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *SessionHandler) handleMove(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req MoveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBodyBytes)).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body.")
		return
	}
	dir, err := overworld.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	if gs.Phase != state.PhaseWalking {
		writeError(w, h.logger, http.StatusConflict, fmt.Sprintf("Cannot move during phase %s", gs.Phase))
		return
	}

	resp := SessionResponse{Session: gs}
	pos, moved := h.grid.Move(gs.Position, dir)
	if !moved {
		writeJSON(w, h.logger, http.StatusOK, resp)
		return
	}
	resp.Moved = true
	gs.Position = pos

	var triggered bool
	_ = gs.Update(func(m *progress.Machine) error {
		m.RecordTileStep()
		triggered = m.ShouldTriggerEncounter(h.threshold, h.rng)
		if triggered {
			m.ResetEncounterCounter()
		}
		return nil
	})

	var q *quiz.Quiz
	if triggered {
		pack, err := h.storage.GetQuizPack(r.Context())
		if err != nil {
			h.logger.Error("Failed to load quiz pack", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load quizzes")
			return
		}
		if err := gs.Transition(state.PhaseEncounter); err != nil {
			h.logger.Error("Encounter transition failed", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to start encounter")
			return
		}
		q, err = pack.At(gs.Progress.CurrentQuizIndex)
		if errors.Is(err, quiz.ErrNoQuiz) {
			// Pack ran out before the quest did; end the run as a win.
			logger.WithSession(h.logger, gs.ID).Warn("No quiz for encounter, skipping to victory",
				"quiz_index", gs.Progress.CurrentQuizIndex)
			if err := gs.Transition(state.PhaseVictory); err != nil {
				h.logger.Error("Victory transition failed", "error", err)
				writeError(w, h.logger, http.StatusInternalServerError, "Failed to end quest")
				return
			}
		}
	}

	if !h.save(w, r, gs) {
		return
	}

	if triggered {
		h.publishPhase(r.Context(), gs, state.PhaseWalking)
	}
	if q != nil && gs.Phase == state.PhaseEncounter {
		resp.Encounter = true
		pub := q.Public(gs.Progress.CurrentQuizIndex)
		resp.Quiz = &pub
		if h.publisher != nil {
			if err := h.publisher.PublishEncounter(r.Context(), gs.ID, gs.Progress.CurrentQuizIndex, q.NPC); err != nil {
				h.logger.Warn("Failed to publish encounter", "error", err)
			}
		}
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *SessionHandler) handleQuiz(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	if gs.Phase != state.PhaseEncounter {
		writeError(w, h.logger, http.StatusConflict, fmt.Sprintf("No quiz during phase %s", gs.Phase))
		return
	}
	q, ok := h.currentQuiz(w, r, gs)
	if !ok {
		return
	}
	pub := q.Public(gs.Progress.CurrentQuizIndex)
	writeJSON(w, h.logger, http.StatusOK, SessionResponse{Session: gs, Quiz: &pub})
}

func (h *SessionHandler) handleAnswer(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req AnswerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBodyBytes)).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body.")
		return
	}
	if strings.TrimSpace(req.Choice) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "choice field is required")
		return
	}

	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	if gs.Phase != state.PhaseEncounter {
		writeError(w, h.logger, http.StatusConflict, fmt.Sprintf("Cannot answer during phase %s", gs.Phase))
		return
	}
	q, ok := h.currentQuiz(w, r, gs)
	if !ok {
		return
	}
	if !q.HasChoice(req.Choice) {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Unknown choice %q", req.Choice))
		return
	}

	log := logger.WithSession(h.logger, gs.ID)
	from := gs.Phase
	resp := SessionResponse{Session: gs}
	correct := q.IsCorrect(req.Choice)
	resp.Correct = &correct

	if correct {
		if err := gs.Update((*progress.Machine).RecordCorrectAnswer); err != nil {
			log.Error("Correct answer recorded after quest completion", "error", err)
			writeError(w, h.logger, http.StatusConflict, "Quest is already complete")
			return
		}
		if err := gs.Transition(state.PhaseTransform); err != nil {
			log.Error("Transform transition failed", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to record answer")
			return
		}
		t := q.Transformation
		resp.Transformation = &t
	} else {
		if err := gs.Transition(state.PhaseGameOver); err != nil {
			log.Error("Game over transition failed", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to record answer")
			return
		}
		resp.WrongFeedback = q.WrongFeedback
		resp.Encouragement = share.Encouragement(gs.Progress.GarlicsCollected)
		resp.ShareText = share.Text(gs.Progress.GarlicsCollected, false)
	}

	if !h.save(w, r, gs) {
		return
	}

	log.Info("Answer recorded",
		"quiz_index", gs.Progress.CurrentQuizIndex,
		"correct", correct,
		"garlics", gs.Progress.GarlicsCollected)
	if correct && h.publisher != nil {
		if err := h.publisher.PublishGarlicCollected(r.Context(), gs.ID, gs.Progress.GarlicsCollected, gs.Progress.TransformationStage); err != nil {
			log.Warn("Failed to publish garlic collected", "error", err)
		}
	}
	h.publishPhase(r.Context(), gs, from)
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// load fetches a session, writing the error response itself when it cannot.
func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*state.GameState, bool) {
	gs, err := h.storage.LoadGameState(r.Context(), id)
	if err != nil {
		logger.WithSession(h.logger, id).Error("Failed to load session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return nil, false
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return gs, true
}

func (h *SessionHandler) save(w http.ResponseWriter, r *http.Request, gs *state.GameState) bool {
	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		logger.WithSession(h.logger, gs.ID).Error("Failed to save session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return false
	}
	return true
}

func (h *SessionHandler) transition(w http.ResponseWriter, gs *state.GameState, to state.Phase, action string) bool {
	if err := gs.Transition(to); err != nil {
		if errors.Is(err, state.ErrInvalidTransition) {
			writeError(w, h.logger, http.StatusConflict, fmt.Sprintf("Cannot %s during phase %s", action, gs.Phase))
			return false
		}
		logger.WithSession(h.logger, gs.ID).Error("Transition failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to change phase")
		return false
	}
	return true
}

func (h *SessionHandler) currentQuiz(w http.ResponseWriter, r *http.Request, gs *state.GameState) (*quiz.Quiz, bool) {
	pack, err := h.storage.GetQuizPack(r.Context())
	if err != nil {
		h.logger.Error("Failed to load quiz pack", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load quizzes")
		return nil, false
	}
	q, err := pack.At(gs.Progress.CurrentQuizIndex)
	if err != nil {
		logger.WithSession(h.logger, gs.ID).Error("No quiz for encounter",
			"error", err,
			"quiz_index", gs.Progress.CurrentQuizIndex)
		writeError(w, h.logger, http.StatusInternalServerError, "No quiz for current encounter")
		return nil, false
	}
	return q, true
}

func (h *SessionHandler) publishPhase(ctx context.Context, gs *state.GameState, from state.Phase) {
	if h.publisher == nil || from == gs.Phase {
		return
	}
	if err := h.publisher.PublishPhaseChanged(ctx, gs.ID, string(from), string(gs.Phase)); err != nil {
		logger.WithSession(h.logger, gs.ID).Warn("Failed to publish phase change", "error", err)
	}
}
