package game

import (
	"context"
	"fmt"
	mathrand "math/rand"
	"testing"
	"time"
)

var testBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// newTestService builds a service over a fresh memory store with a seeded
// randomness source, a ticking clock and n imported players.
func newTestService(t *testing.T, n int) (*Service, []Player) {
	t.Helper()
	store := NewMemStore()

	tick := 0
	svc := New(store,
		WithRand(mathrand.New(mathrand.NewSource(42))),
		WithClock(func() time.Time {
			tick++
			return testBase.Add(time.Duration(tick) * time.Second)
		}),
	)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	entries := make([]ImportEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, ImportEntry{
			StudentID: fmt.Sprintf("2025%04d", 1001+i),
			Name:      fmt.Sprintf("Student %d", i+1),
		})
	}
	if n > 0 {
		results, err := svc.BulkAddPlayers(context.Background(), entries)
		if err != nil {
			t.Fatalf("BulkAddPlayers: %v", err)
		}
		for _, res := range results {
			if !res.Inserted {
				t.Fatalf("player %s not inserted: %s", res.StudentID, res.Reason)
			}
		}
	}
	players, err := svc.ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	return svc, players
}

// participantWithRole returns the first participant holding the given role.
func participantWithRole(t *testing.T, view *RoundView, role Role) Participant {
	t.Helper()
	for _, p := range view.Participants {
		if p.Role == role {
			return p
		}
	}
	t.Fatalf("no participant with role %s", role)
	return Participant{}
}

// citizensOf returns all citizen participants of the round.
func citizensOf(view *RoundView) []Participant {
	var out []Participant
	for _, p := range view.Participants {
		if p.Role == RoleCitizen {
			out = append(out, p)
		}
	}
	return out
}

// submitBothMessages fills the phisher and leader slots with broadcast mail.
func submitBothMessages(t *testing.T, svc *Service, view *RoundView) *RoundView {
	t.Helper()
	ctx := context.Background()
	phisher := participantWithRole(t, view, RolePhisher)
	leader := participantWithRole(t, view, RoleLeader)

	_, err := svc.SubmitMessage(ctx, MessageDraft{
		RoundID:  view.ID,
		AuthorID: phisher.PlayerID,
		Subject:  "Urgent: verify your subsidy account",
		Body:     "Submit your details within 24 hours.",
	})
	if err != nil {
		t.Fatalf("submit phisher message: %v", err)
	}
	updated, err := svc.SubmitMessage(ctx, MessageDraft{
		RoundID:  view.ID,
		AuthorID: leader.PlayerID,
		Subject:  "Official notice on the subsidy program",
		Body:     "Verify requests only via the city hall desk.",
	})
	if err != nil {
		t.Fatalf("submit leader message: %v", err)
	}
	return updated
}

// completeRound walks a drafting round all the way to completed.
func completeRound(t *testing.T, svc *Service, view *RoundView) *RoundView {
	t.Helper()
	ctx := context.Background()
	view = submitBothMessages(t, svc, view)
	view, err := svc.TransitionPhase(ctx, view.ID, PhaseJudging)
	if err != nil {
		t.Fatalf("to judging: %v", err)
	}

	citizen := citizensOf(view)[0]
	phisherMsg := messageWithRole(t, view, RolePhisher)
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: phisherMsg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictSuspect,
	}); err != nil {
		t.Fatalf("judge: %v", err)
	}

	view, err = svc.TransitionPhase(ctx, view.ID, PhaseCompleted)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	return view
}

func messageWithRole(t *testing.T, view *RoundView, role Role) Message {
	t.Helper()
	for _, m := range view.Messages {
		if m.Role == role {
			return m
		}
	}
	t.Fatalf("no message with role %s", role)
	return Message{}
}

func TestInitIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	first, err := svc.Scenarios(ctx)
	if err != nil {
		t.Fatalf("Scenarios: %v", err)
	}
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	second, err := svc.Scenarios(ctx)
	if err != nil {
		t.Fatalf("Scenarios: %v", err)
	}
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("expected stable catalog, got %d then %d", len(first), len(second))
	}
}

func TestCurrentRoundNilBeforeFirstStart(t *testing.T) {
	svc, _ := newTestService(t, 3)
	view, err := svc.CurrentRound(context.Background())
	if err != nil {
		t.Fatalf("CurrentRound: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil round, got %+v", view.Round)
	}
}

func TestResetKeepsCatalog(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	view, err := svc.StartRound(ctx, "", "")
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	completeRound(t, svc, view)

	if err := svc.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}

	players, err := svc.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("expected empty directory after reset, got %d", len(players))
	}
	current, err := svc.CurrentRound(ctx)
	if err != nil || current != nil {
		t.Fatalf("expected no current round after reset, got %v, %v", current, err)
	}
	scenarios, err := svc.Scenarios(ctx)
	if err != nil {
		t.Fatalf("Scenarios: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatal("scenario catalog should survive a reset")
	}
	templates, err := svc.Templates(ctx, "", "")
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("template catalog should survive a reset")
	}
}

func TestTemplatesFilter(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	all, err := svc.Templates(ctx, "", "")
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected seeded templates")
	}

	scenarios, _ := svc.Scenarios(ctx)
	filtered, err := svc.Templates(ctx, scenarios[0].ID, RolePhisher)
	if err != nil {
		t.Fatalf("Templates filtered: %v", err)
	}
	if len(filtered) == 0 || len(filtered) >= len(all) {
		t.Fatalf("expected a strict subset, got %d of %d", len(filtered), len(all))
	}
	for _, tpl := range filtered {
		if tpl.ScenarioID != scenarios[0].ID || tpl.Role != RolePhisher {
			t.Fatalf("filter leaked template %+v", tpl)
		}
	}
}

func TestRecentRoundsLimits(t *testing.T) {
	svc, _ := newTestService(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		view, err := svc.StartRound(ctx, "", "")
		if err != nil {
			t.Fatalf("StartRound %d: %v", i+1, err)
		}
		completeRound(t, svc, view)
	}

	rounds, err := svc.RecentRounds(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRounds: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}
	if rounds[0].Number != 3 || rounds[1].Number != 2 {
		t.Fatalf("expected newest first, got %d then %d", rounds[0].Number, rounds[1].Number)
	}

	all, err := svc.RecentRounds(ctx, 0)
	if err != nil {
		t.Fatalf("RecentRounds default: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 rounds under the default limit, got %d", len(all))
	}
}
