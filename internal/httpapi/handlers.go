// Package httpapi exposes the game over a polling JSON API.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"infobattle.org/internal/assist"
	"infobattle.org/internal/audit"
	"infobattle.org/internal/game"
	"infobattle.org/internal/obs"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the game service.
type API struct {
	mux        *http.ServeMux
	svc        *game.Service
	assistant  *assist.Client
	readyProbe ReadyProbe
	version    string
}

func New(svc *game.Service, assistant *assist.Client, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		assistant:  assistant,
		readyProbe: rp,
		version:    version,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	a.mux.HandleFunc("/api/health", a.Healthz)
	a.mux.HandleFunc("/api/scenarios", a.handleScenarios)
	a.mux.HandleFunc("/api/challenges", a.handleChallenges)
	a.mux.HandleFunc("/api/templates", a.handleTemplates)
	a.mux.HandleFunc("/api/players", a.handlePlayers)
	a.mux.HandleFunc("/api/players/bulk", a.handlePlayersBulk)
	a.mux.HandleFunc("/api/login", a.handleLogin)
	a.mux.HandleFunc("/api/rounds", a.handleRounds)
	a.mux.HandleFunc("/api/rounds/current", a.handleCurrentRound)
	a.mux.HandleFunc("/api/rounds/start", a.handleStartRound)
	a.mux.HandleFunc("/api/rounds/", a.handleRoundResource)
	a.mux.HandleFunc("/api/messages", a.handleMessages)
	a.mux.HandleFunc("/api/judgements", a.handleJudgements)
	a.mux.HandleFunc("/api/mailbox", a.handleMailbox)
	a.mux.HandleFunc("/api/statistics", a.handleStatistics)
	a.mux.HandleFunc("/api/analytics", a.handleAnalytics)
	a.mux.HandleFunc("/api/assistant", a.handleAssistant)
	a.mux.HandleFunc("/api/admin/reset", a.handleAdminReset)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 40, 20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- health handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "infobattle-api",
		"version":   a.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "infobattle-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleGameError maps service error kinds to HTTP statuses.
func handleGameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrRoundNotFound),
		errors.Is(err, game.ErrPlayerNotFound),
		errors.Is(err, game.ErrMessageNotFound),
		errors.Is(err, game.ErrScenarioNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrRoleNotPermitted):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrRoundInProgress),
		errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrRoundLocked):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientPlayers),
		errors.Is(err, game.ErrIncompleteSubmissions),
		errors.Is(err, game.ErrNoJudgementsYet),
		errors.Is(err, game.ErrInvalidRecipient),
		errors.Is(err, game.ErrInvalidVerdict):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	_ = audit.LogEvent(ctx, event, fields)
}
