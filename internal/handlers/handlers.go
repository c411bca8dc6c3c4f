package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/psl-draft/internal/auth"
	"github.com/Billy-Davies-2/psl-draft/internal/draft"
	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/models"
	"github.com/Billy-Davies-2/psl-draft/internal/pubsub"
)

const maxBodyBytes = 1 << 20

// EventBus is the slice of the pub/sub broker the handlers use.
type EventBus interface {
	Publish(pubsub.Event)
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	engine    *draft.Engine
	gate      *auth.Gate
	pubsub    EventBus
	keepalive time.Duration
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(engine *draft.Engine, gate *auth.Gate, ps EventBus) *APIHandlers {
	return &APIHandlers{
		engine:    engine,
		gate:      gate,
		pubsub:    ps,
		keepalive: 30 * time.Second,
	}
}

// Register mounts every API route on mux.
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.GetState)

	mux.HandleFunc("/api/players", h.ListPlayers)
	mux.HandleFunc("/api/players/available", h.ListAvailablePlayers)
	mux.HandleFunc("/api/players/register", h.RegisterPlayer)
	mux.HandleFunc("/api/players/rating", h.SetRating)

	mux.HandleFunc("/api/teams", h.ListTeams)
	mux.HandleFunc("/api/teams/budget", h.UpdateBudget)
	mux.HandleFunc("/api/teams/budgets", h.UpdateBudgets)

	mux.HandleFunc("/api/predraft/buy", h.PreDraftBuy)

	mux.HandleFunc("/api/draft/start", h.StartDraft)
	mux.HandleFunc("/api/draft/turn", h.CurrentTurn)
	mux.HandleFunc("/api/draft/history", h.History)
	mux.HandleFunc("/api/draft/pick", h.DraftPick)
	mux.HandleFunc("/api/draft/skip", h.SkipTurn)
	mux.HandleFunc("/api/draft/undo", h.Undo)
	mux.HandleFunc("/api/draft/reset", h.ResetDraft)

	mux.HandleFunc("/api/events", h.EventsSSE)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		verr   *models.ValidationError
		derr   *models.DomainError
		serr   *models.StateError
		access *auth.AccessError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &derr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &serr):
		return http.StatusConflict
	case errors.As(err, &access):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "op", op, "error", err)
		msg = "internal error"
	} else {
		logger.Warn("Request rejected", "op", op, "status", status, "reason", msg)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return models.Validationf("Invalid request body: %v", err)
	}
	return nil
}

func (h *APIHandlers) publish(eventType string, payload interface{}) {
	if h.pubsub == nil {
		return
	}
	h.pubsub.Publish(pubsub.NewEvent(eventType, payload))
}

// GetState returns the whole draft snapshot
func (h *APIHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	logger.Debug("Getting draft state")
	writeJSON(w, http.StatusOK, h.engine.State())
}

// ListPlayers returns every player, best category first
func (h *APIHandlers) ListPlayers(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.AllPlayersSorted())
}

// ListAvailablePlayers returns unpicked players, best category first
func (h *APIHandlers) ListAvailablePlayers(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.AvailablePlayers())
}

// RegisterPlayer adds a player to the pool
func (h *APIHandlers) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Rating  int    `json:"rating"`
		Price   int    `json:"price"`
		Country string `json:"country"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "register", err)
		return
	}

	p, err := h.engine.RegisterPlayer(req.Name, req.Rating, req.Price, req.Country, req.ID)
	if err != nil {
		writeError(w, "register", err)
		return
	}

	logger.Info("Player registered", "player_id", p.ID, "category", p.Category)
	h.publish(pubsub.EventPlayerRegister, p)
	writeJSON(w, http.StatusCreated, p)
}

// SetRating replaces an unpicked player's rating (admin only)
func (h *APIHandlers) SetRating(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		PlayerID      string `json:"playerId"`
		Rating        int    `json:"rating"`
		AdminPassword string `json:"adminPassword"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "rating", err)
		return
	}
	if err := h.gate.CheckAdmin(r.Context(), req.AdminPassword); err != nil {
		writeError(w, "rating", err)
		return
	}

	p, err := h.engine.SetRating(req.PlayerID, req.Rating)
	if err != nil {
		writeError(w, "rating", err)
		return
	}

	h.publish(pubsub.EventPlayerRating, p)
	writeJSON(w, http.StatusOK, p)
}

// ListTeams returns all teams in draft order
func (h *APIHandlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Teams())
}

// UpdateBudget replaces one team's budget cap (admin only)
func (h *APIHandlers) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Team          string `json:"team"`
		Budget        int    `json:"budget"`
		AdminPassword string `json:"adminPassword"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "budget", err)
		return
	}
	if err := h.gate.CheckAdmin(r.Context(), req.AdminPassword); err != nil {
		writeError(w, "budget", err)
		return
	}

	team, err := h.engine.UpdateBudget(req.Team, req.Budget)
	if err != nil {
		writeError(w, "budget", err)
		return
	}

	logger.Info("Team budget updated", "team", team.Name, "budget", models.FormatCurrency(team.MaxBudget))
	h.publish(pubsub.EventTeamBudget, map[string]interface{}{"team": team.Name, "maxBudget": team.MaxBudget})
	writeJSON(w, http.StatusOK, team)
}

// UpdateBudgets applies every acceptable entry of a team-to-budget map (admin only)
func (h *APIHandlers) UpdateBudgets(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Budgets       map[string]int `json:"budgets"`
		AdminPassword string         `json:"adminPassword"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "budgets", err)
		return
	}
	if err := h.gate.CheckAdmin(r.Context(), req.AdminPassword); err != nil {
		writeError(w, "budgets", err)
		return
	}

	updated := h.engine.UpdateBudgets(req.Budgets)
	logger.Info("Team budgets updated", "updated", updated, "requested", len(req.Budgets))
	if updated > 0 {
		h.publish(pubsub.EventTeamBudget, map[string]interface{}{"updated": updated})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated": updated,
		"teams":   h.engine.Teams(),
	})
}

type acquisitionResponse struct {
	draft.Result
	Message string `json:"message"`
}

// PreDraftBuy lets a team buy a player before the draft (team password)
func (h *APIHandlers) PreDraftBuy(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Team     string `json:"team"`
		Password string `json:"password"`
		PlayerID string `json:"playerId"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "predraft", err)
		return
	}
	if err := h.gate.CheckTeam(req.Team, req.Password); err != nil {
		writeError(w, "predraft", err)
		return
	}

	res, err := h.engine.PreDraftBuy(req.Team, req.PlayerID)
	if err != nil {
		writeError(w, "predraft", err)
		return
	}

	msg := fmt.Sprintf("%s bought %s for %s", res.Team, res.Player.Name, models.FormatCurrency(res.Player.Price))
	logger.Info("Pre-draft purchase", "team", res.Team, "player_id", res.Player.ID)
	h.publish(pubsub.EventPreDraftBuy, res)
	writeJSON(w, http.StatusOK, acquisitionResponse{Result: res, Message: msg})
}

// StartDraft builds the snake order and opens the draft (admin only)
func (h *APIHandlers) StartDraft(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Rounds        int    `json:"rounds"`
		AdminPassword string `json:"adminPassword"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "start", err)
		return
	}
	if err := h.gate.CheckAdmin(r.Context(), req.AdminPassword); err != nil {
		writeError(w, "start", err)
		return
	}

	turn, err := h.engine.StartDraft(req.Rounds)
	if err != nil {
		writeError(w, "start", err)
		return
	}

	h.publish(pubsub.EventDraftStart, turn)
	writeJSON(w, http.StatusOK, turn)
}

// CurrentTurn reports whose turn it is
func (h *APIHandlers) CurrentTurn(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	turn, err := h.engine.CurrentTurn()
	if err != nil {
		writeError(w, "turn", err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// History returns the acquisition history, oldest first
func (h *APIHandlers) History(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	history := h.engine.History()
	if history == nil {
		history = []models.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// DraftPick assigns a player to the team holding the turn. A team name in
// the body guards against picking on someone else's turn.
func (h *APIHandlers) DraftPick(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		PlayerID string `json:"playerId"`
		Team     string `json:"team"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "pick", err)
		return
	}

	res, err := h.engine.PickAs(req.Team, req.PlayerID)
	if err != nil {
		writeError(w, "pick", err)
		return
	}

	msg := fmt.Sprintf("%s picked %s for %s", res.Team, res.Player.Name, models.FormatCurrency(res.Player.Price))
	logger.Info("Drafting player", "player_id", res.Player.ID, "team", res.Team, "round", res.Round)
	h.publish(pubsub.EventDraftPick, res)
	writeJSON(w, http.StatusOK, acquisitionResponse{Result: res, Message: msg})
}

// SkipTurn discards the current turn
func (h *APIHandlers) SkipTurn(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	skipped, err := h.engine.Skip()
	if err != nil {
		writeError(w, "skip", err)
		return
	}

	logger.Info("Turn skipped", "team", skipped.Team, "round", skipped.Round)
	h.publish(pubsub.EventDraftSkip, skipped)
	writeJSON(w, http.StatusOK, skipped)
}

// Undo reverts the latest acquisition
func (h *APIHandlers) Undo(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	res, err := h.engine.Undo()
	if err != nil {
		writeError(w, "undo", err)
		return
	}

	msg := fmt.Sprintf("Undone: %s removed from %s", res.Player.Name, res.Team)
	logger.Info("Acquisition undone", "player_id", res.Player.ID, "team", res.Team)
	h.publish(pubsub.EventDraftUndo, res)
	writeJSON(w, http.StatusOK, acquisitionResponse{Result: res, Message: msg})
}

// ResetDraft restores the seed roster (admin only)
func (h *APIHandlers) ResetDraft(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req struct {
		AdminPassword string `json:"adminPassword"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, "reset", err)
		return
	}
	if err := h.gate.CheckAdmin(r.Context(), req.AdminPassword); err != nil {
		writeError(w, "reset", err)
		return
	}

	logger.Info("Resetting draft")
	if err := h.engine.Reset(); err != nil {
		writeError(w, "reset", err)
		return
	}

	h.publish(pubsub.EventDraftReset, nil)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	if h.pubsub == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Event stream not configured"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to encode SSE event", "type", event.Type, "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
