package game

import (
	"context"
	"errors"
	"testing"
)

// judgingRound starts a round, fills both message slots and moves to judging.
func judgingRound(t *testing.T, svc *Service) *RoundView {
	t.Helper()
	ctx := context.Background()
	view, err := svc.StartRound(ctx, "", "")
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	view = submitBothMessages(t, svc, view)
	view, err = svc.TransitionPhase(ctx, view.ID, PhaseJudging)
	if err != nil {
		t.Fatalf("to judging: %v", err)
	}
	return view
}

func TestSubmitJudgementValidation(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()
	view := judgingRound(t, svc)

	citizen := citizensOf(view)[0]
	msg := messageWithRole(t, view, RolePhisher)

	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   Verdict("maybe"),
	}); !errors.Is(err, ErrInvalidVerdict) {
		t.Fatalf("bad verdict: expected ErrInvalidVerdict, got %v", err)
	}

	leader := participantWithRole(t, view, RoleLeader)
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  leader.PlayerID,
		Verdict:   VerdictTrust,
	}); !errors.Is(err, ErrRoleNotPermitted) {
		t.Fatalf("leader judging: expected ErrRoleNotPermitted, got %v", err)
	}

	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  "outsider",
		Verdict:   VerdictTrust,
	}); !errors.Is(err, ErrRoleNotPermitted) {
		t.Fatalf("outsider judging: expected ErrRoleNotPermitted, got %v", err)
	}

	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: "missing",
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictTrust,
	}); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("missing message: expected ErrMessageNotFound, got %v", err)
	}
}

func TestSubmitJudgementPhaseWindow(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	view, err := svc.StartRound(ctx, "", "")
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	view = submitBothMessages(t, svc, view)
	citizen := citizensOf(view)[0]
	msg := messageWithRole(t, view, RolePhisher)

	// Still drafting.
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictSuspect,
	}); !errors.Is(err, ErrRoundLocked) {
		t.Fatalf("drafting: expected ErrRoundLocked, got %v", err)
	}

	view, err = svc.TransitionPhase(ctx, view.ID, PhaseJudging)
	if err != nil {
		t.Fatalf("to judging: %v", err)
	}
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictSuspect,
	}); err != nil {
		t.Fatalf("judging phase: %v", err)
	}

	// Retro still accepts changes of mind.
	view, err = svc.TransitionPhase(ctx, view.ID, PhaseRetro)
	if err != nil {
		t.Fatalf("to retro: %v", err)
	}
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictTrust,
	}); err != nil {
		t.Fatalf("retro phase: %v", err)
	}

	view, err = svc.TransitionPhase(ctx, view.ID, PhaseCompleted)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictSuspect,
	}); !errors.Is(err, ErrRoundLocked) {
		t.Fatalf("completed: expected ErrRoundLocked, got %v", err)
	}
}

func TestSubmitJudgementUpsert(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()
	view := judgingRound(t, svc)

	citizen := citizensOf(view)[0]
	msg := messageWithRole(t, view, RolePhisher)

	first, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictTrust,
	})
	if err != nil {
		t.Fatalf("first judgement: %v", err)
	}
	if len(first.Judgements) != 1 {
		t.Fatalf("got %d judgements, want 1", len(first.Judgements))
	}
	originalID := first.Judgements[0].ID

	second, board, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictSuspect,
		Reasoning: "the reply-to does not match",
	})
	if err != nil {
		t.Fatalf("second judgement: %v", err)
	}
	if len(second.Judgements) != 1 {
		t.Fatalf("resubmission must replace, got %d judgements", len(second.Judgements))
	}
	j := second.Judgements[0]
	if j.ID != originalID {
		t.Fatalf("resubmission changed judgement id: %s -> %s", originalID, j.ID)
	}
	if j.Verdict != VerdictSuspect || j.Reasoning == "" {
		t.Fatalf("content not refreshed: %+v", j)
	}
	if j.PlayerName == "" || j.MessageRole != RolePhisher {
		t.Fatalf("judgement not hydrated: %+v", j)
	}

	// Flipping trust to suspect removes the phisher's earned points.
	for _, entry := range board {
		if entry.ID == msg.AuthorID && entry.Points != 0 {
			t.Fatalf("author kept %d points after verdict flip", entry.Points)
		}
	}
}

func TestSubmitJudgementRejectsCrossRoundMessage(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	first := judgingRound(t, svc)
	staleMsg := messageWithRole(t, first, RolePhisher)
	if _, err := svc.TransitionPhase(ctx, first.ID, PhaseCompleted); err != nil {
		t.Fatalf("complete first round: %v", err)
	}

	second := judgingRound(t, svc)
	citizen := citizensOf(second)[0]
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   second.ID,
		MessageID: staleMsg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictSuspect,
	}); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("cross-round message: expected ErrMessageNotFound, got %v", err)
	}
}
