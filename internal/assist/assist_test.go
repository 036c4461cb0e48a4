package assist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"infobattle.org/internal/game"
)

func sampleView() *game.RoundView {
	scenarios := game.SeedScenarios()
	cards := game.SeedChallengeCards()
	return &game.RoundView{
		Round:         game.Round{ID: "r-1", ScenarioID: scenarios[0].ID},
		Scenario:      &scenarios[0],
		ChallengeCard: &cards[0],
	}
}

func TestSuggestParsesStructuredOutput(t *testing.T) {
	suggestion := Suggestion{
		Strategy:     []string{"apply deadline pressure"},
		SubjectIdeas: []string{"Action required"},
		HTMLBody:     "<p>hello</p>",
		TextBody:     "hello",
	}
	raw, _ := json.Marshal(suggestion)

	var gotRequest generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": string(raw)})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	result, err := client.Suggest(context.Background(), game.RolePhisher, sampleView(), Draft{
		Subject:      "draft subject",
		Instructions: "shorter please",
	})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if result.Suggestion == nil {
		t.Fatalf("expected parsed suggestion, raw=%q", result.Raw)
	}
	if result.Suggestion.HTMLBody != "<p>hello</p>" {
		t.Fatalf("unexpected html body: %q", result.Suggestion.HTMLBody)
	}

	if gotRequest.Model != defaultModel {
		t.Fatalf("unexpected model: %q", gotRequest.Model)
	}
	if gotRequest.Stream {
		t.Fatal("expected stream to be disabled")
	}
	if !strings.Contains(gotRequest.Prompt, "draft subject") {
		t.Fatal("prompt missing draft subject")
	}
	if !strings.Contains(gotRequest.Prompt, "shorter please") {
		t.Fatal("prompt missing author instructions")
	}
	if !strings.Contains(gotRequest.System, "InfoPhisher") {
		t.Fatal("system prompt missing role label")
	}
}

func TestSuggestKeepsRawOnMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "free-form advice"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	result, err := client.Suggest(context.Background(), game.RoleLeader, sampleView(), Draft{})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if result.Suggestion != nil {
		t.Fatal("expected nil suggestion for non-JSON output")
	}
	if result.Raw != "free-form advice" {
		t.Fatalf("unexpected raw output: %q", result.Raw)
	}
}

func TestSuggestBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.Suggest(context.Background(), game.RolePhisher, sampleView(), Draft{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSuggestDisabledWithoutEndpoint(t *testing.T) {
	client := NewClient("", "")
	if client.Enabled() {
		t.Fatal("expected disabled client")
	}
	if _, err := client.Suggest(context.Background(), game.RolePhisher, sampleView(), Draft{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLeaderPromptMentionsOfficialDuties(t *testing.T) {
	system, user := buildPrompt(game.RoleLeader, sampleView(), Draft{})
	if !strings.Contains(system, "InfoLeader") {
		t.Fatal("system prompt missing leader label")
	}
	if !strings.Contains(user, "[Scenario]") {
		t.Fatal("user prompt missing scenario block")
	}
	if !strings.Contains(user, "[Challenge card]") {
		t.Fatal("user prompt missing challenge card block")
	}
}
