package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"infobattle.org/internal/assist"
	"infobattle.org/internal/auth"
	"infobattle.org/internal/game"
	"infobattle.org/internal/obs"
)

const adminTokenTTL = 12 * time.Hour

func (a *API) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	scenarios, err := a.svc.Scenarios(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": scenarios})
}

func (a *API) handleChallenges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": a.svc.ChallengeCards()})
}

func (a *API) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	scenarioID := strings.TrimSpace(r.URL.Query().Get("scenarioId"))
	role := game.Role(strings.TrimSpace(r.URL.Query().Get("role")))
	templates, err := a.svc.Templates(r.Context(), scenarioID, role)
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (a *API) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	players, err := a.svc.ListPlayers(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	scoreboard, err := a.svc.Scoreboard(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"players":    players,
		"scoreboard": scoreboard,
	})
}

type bulkPlayersRequest struct {
	Players []game.ImportEntry `json:"players"`
}

func (a *API) handlePlayersBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req bulkPlayersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Players) == 0 {
		writeError(w, r, http.StatusBadRequest, "players array is required")
		return
	}
	added, err := a.svc.BulkAddPlayers(r.Context(), req.Players)
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	players, err := a.svc.ListPlayers(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}

	inserted := 0
	for _, item := range added {
		if item.Inserted {
			inserted++
		}
	}
	a.audit(r.Context(), "players.import", map[string]any{
		"submitted": len(req.Players),
		"inserted":  inserted,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"added": added,
		"total": len(players),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	last4 := strings.TrimSpace(r.URL.Query().Get("last4"))
	if last4 == "" {
		writeError(w, r, http.StatusBadRequest, "last4 query parameter is required")
		return
	}
	result, err := a.svc.ResolveLogin(r.Context(), last4)
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	if result.Admin {
		payload := map[string]any{"role": "admin"}
		if token, err := auth.GenerateAdminToken("classroom-admin", adminTokenTTL); err == nil {
			payload["token"] = token
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player":     result.Player,
		"assignment": result.Assignment,
	})
}

func (a *API) handleCurrentRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	view, err := a.svc.CurrentRound(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	if view == nil {
		writeJSON(w, http.StatusOK, map[string]any{"round": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"round": view})
}

type startRoundRequest struct {
	ScenarioID      string `json:"scenarioId"`
	ChallengeCardID string `json:"challengeCardId"`
}

func (a *API) handleStartRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	// Body is optional: an empty start request means auto-pick.
	var req startRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := a.svc.StartRound(r.Context(), req.ScenarioID, req.ChallengeCardID)
	if err != nil {
		handleGameError(w, r, err)
		return
	}

	obs.RoundStarted()
	a.audit(r.Context(), "round.start", map[string]any{
		"round":    view.ID,
		"number":   view.Number,
		"scenario": view.ScenarioID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"round": view})
}

type roundsListItem struct {
	ID           string     `json:"id"`
	RoundNumber  int        `json:"round_number"`
	Status       game.Phase `json:"status"`
	ScenarioID   string     `json:"scenario_id"`
	ScenarioName string     `json:"scenario_name"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func (a *API) handleRounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}
	rounds, err := a.svc.RecentRounds(r.Context(), limit)
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	scenarios, err := a.svc.Scenarios(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	names := make(map[string]string, len(scenarios))
	for _, s := range scenarios {
		names[s.ID] = s.Name
	}

	items := make([]roundsListItem, 0, len(rounds))
	for _, round := range rounds {
		items = append(items, roundsListItem{
			ID:           round.ID,
			RoundNumber:  round.Number,
			Status:       round.Status,
			ScenarioID:   round.ScenarioID,
			ScenarioName: names[round.ScenarioID],
			StartedAt:    round.StartedAt,
			FinishedAt:   round.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": items})
}

// handleRoundResource dispatches /api/rounds/{id}/{phase|report|export}.
func (a *API) handleRoundResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/rounds/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	roundID, action := parts[0], parts[1]
	switch action {
	case "phase":
		a.transitionPhase(w, r, roundID)
	case "report":
		a.roundReport(w, r, roundID, false)
	case "export":
		a.roundReport(w, r, roundID, true)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

type phaseRequest struct {
	Status game.Phase `json:"status"`
}

func (a *API) transitionPhase(w http.ResponseWriter, r *http.Request, roundID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req phaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !game.ValidPhase(req.Status) {
		writeError(w, r, http.StatusBadRequest, "unknown phase")
		return
	}
	view, err := a.svc.TransitionPhase(r.Context(), roundID, req.Status)
	if err != nil {
		handleGameError(w, r, err)
		return
	}

	obs.PhaseAdvanced(string(req.Status))
	a.audit(r.Context(), "round.phase", map[string]any{
		"round": roundID,
		"phase": string(req.Status),
	})
	writeJSON(w, http.StatusOK, map[string]any{"round": view})
}

func (a *API) roundReport(w http.ResponseWriter, r *http.Request, roundID string, export bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	report, err := a.svc.BuildRoundReport(r.Context(), roundID)
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	if export {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("infobattle-round-%d-report.json", report.Round.Number)))
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var draft game.MessageDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if draft.RoundID == "" || draft.AuthorID == "" ||
		strings.TrimSpace(draft.Subject) == "" || strings.TrimSpace(draft.Body) == "" {
		writeError(w, r, http.StatusBadRequest, "roundId, authorId, subject and body are required")
		return
	}
	view, err := a.svc.SubmitMessage(r.Context(), draft)
	if err != nil {
		handleGameError(w, r, err)
		return
	}

	for _, m := range view.Messages {
		if m.AuthorID == draft.AuthorID {
			obs.MessageSubmitted(string(m.Role))
			break
		}
	}
	a.audit(r.Context(), "message.submit", map[string]any{
		"round":  draft.RoundID,
		"author": draft.AuthorID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"round": view})
}

func (a *API) handleJudgements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var in game.JudgementInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if in.RoundID == "" || in.MessageID == "" || in.PlayerID == "" || in.Verdict == "" {
		writeError(w, r, http.StatusBadRequest, "roundId, messageId, playerId and verdict are required")
		return
	}
	view, scoreboard, err := a.svc.SubmitJudgement(r.Context(), in)
	if err != nil {
		handleGameError(w, r, err)
		return
	}

	obs.JudgementSubmitted(string(in.Verdict))
	a.audit(r.Context(), "judgement.submit", map[string]any{
		"round":   in.RoundID,
		"message": in.MessageID,
		"player":  in.PlayerID,
		"verdict": string(in.Verdict),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"round":      view,
		"scoreboard": scoreboard,
	})
}

func (a *API) handleMailbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	roundID := strings.TrimSpace(r.URL.Query().Get("roundId"))
	playerID := strings.TrimSpace(r.URL.Query().Get("playerId"))
	if roundID == "" || playerID == "" {
		writeError(w, r, http.StatusBadRequest, "roundId and playerId query parameters are required")
		return
	}
	mailbox, err := a.svc.Mailbox(r.Context(), roundID, playerID)
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mailbox": mailbox})
}

func (a *API) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	scoreboard, summary, err := a.svc.Statistics(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scoreboard": scoreboard,
		"summary":    summary,
	})
}

func (a *API) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	analytics, err := a.svc.Analytics(r.Context())
	if err != nil {
		handleGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

type assistantRequest struct {
	Role         game.Role    `json:"role"`
	RoundID      string       `json:"roundId"`
	Instructions string       `json:"instructions"`
	Draft        assist.Draft `json:"draft"`
}

func (a *API) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req assistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role != game.RolePhisher && req.Role != game.RoleLeader {
		writeError(w, r, http.StatusBadRequest, "role must be phisher or leader")
		return
	}
	if req.RoundID == "" {
		writeError(w, r, http.StatusBadRequest, "roundId is required")
		return
	}
	view, err := a.svc.GetRound(r.Context(), req.RoundID)
	if err != nil {
		handleGameError(w, r, err)
		return
	}

	draft := req.Draft
	draft.Instructions = req.Instructions
	result, err := a.assistant.Suggest(r.Context(), req.Role, view, draft)
	if err != nil {
		if errors.Is(err, assist.ErrUnavailable) {
			writeError(w, r, http.StatusBadGateway, "assistant temporarily unavailable")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"output":     result.Raw,
		"suggestion": result.Suggestion,
	})
}

func (a *API) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	subject, err := a.requireAdmin(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}
	ctx := auth.ContextWithAdmin(r.Context(), subject)
	if err := a.svc.ResetAll(ctx); err != nil {
		handleGameError(w, r, err)
		return
	}
	a.audit(ctx, "admin.reset", nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "all play data reset",
	})
}
