package game

import (
	"context"
	"testing"
)

// Four players, one full round, both citizens judging correctly: the leader
// earns two being-believed awards, each citizen earns two correct calls, and
// the phisher earns nothing.
func TestScoreboardAfterOneCleanRound(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()
	view := judgingRound(t, svc)

	leader := participantWithRole(t, view, RoleLeader)
	phisher := participantWithRole(t, view, RolePhisher)
	leaderMsg := messageWithRole(t, view, RoleLeader)
	phisherMsg := messageWithRole(t, view, RolePhisher)

	var board []ScoreboardEntry
	for _, citizen := range citizensOf(view) {
		var err error
		if _, _, err = svc.SubmitJudgement(ctx, JudgementInput{
			RoundID:   view.ID,
			MessageID: leaderMsg.ID,
			PlayerID:  citizen.PlayerID,
			Verdict:   VerdictTrust,
		}); err != nil {
			t.Fatalf("trust leader: %v", err)
		}
		if _, board, err = svc.SubmitJudgement(ctx, JudgementInput{
			RoundID:   view.ID,
			MessageID: phisherMsg.ID,
			PlayerID:  citizen.PlayerID,
			Verdict:   VerdictSuspect,
		}); err != nil {
			t.Fatalf("suspect phisher: %v", err)
		}
	}

	points := map[string]int{}
	for _, e := range board {
		points[e.ID] = e.Points
	}
	if got := points[leader.PlayerID]; got != 2*authorTrustPoints {
		t.Fatalf("leader points = %d, want %d", got, 2*authorTrustPoints)
	}
	if got := points[phisher.PlayerID]; got != 0 {
		t.Fatalf("phisher points = %d, want 0", got)
	}
	for _, citizen := range citizensOf(view) {
		if got := points[citizen.PlayerID]; got != 2*citizenCorrectPoints {
			t.Fatalf("citizen %s points = %d, want %d", citizen.PlayerID, got, 2*citizenCorrectPoints)
		}
	}
}

// A fooled citizen awards the phisher and earns nothing for that verdict.
func TestScoreboardRewardsDeception(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()
	view := judgingRound(t, svc)

	phisher := participantWithRole(t, view, RolePhisher)
	phisherMsg := messageWithRole(t, view, RolePhisher)
	fooled := citizensOf(view)[0]

	_, board, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: phisherMsg.ID,
		PlayerID:  fooled.PlayerID,
		Verdict:   VerdictTrust,
	})
	if err != nil {
		t.Fatalf("SubmitJudgement: %v", err)
	}

	for _, e := range board {
		switch e.ID {
		case phisher.PlayerID:
			if e.Points != authorTrustPoints {
				t.Fatalf("phisher points = %d, want %d", e.Points, authorTrustPoints)
			}
		case fooled.PlayerID:
			if e.Points != 0 {
				t.Fatalf("fooled citizen points = %d, want 0", e.Points)
			}
		}
	}
}

func TestScoreboardIsPureQuery(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()
	view := judgingRound(t, svc)

	citizen := citizensOf(view)[0]
	msg := messageWithRole(t, view, RoleLeader)
	if _, _, err := svc.SubmitJudgement(ctx, JudgementInput{
		RoundID:   view.ID,
		MessageID: msg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   VerdictTrust,
	}); err != nil {
		t.Fatalf("SubmitJudgement: %v", err)
	}

	first, err := svc.Scoreboard(ctx)
	if err != nil {
		t.Fatalf("first Scoreboard: %v", err)
	}
	second, err := svc.Scoreboard(ctx)
	if err != nil {
		t.Fatalf("second Scoreboard: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("scoreboard size changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Points != second[i].Points {
			t.Fatalf("scoreboard drifted at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestStatisticsSummary(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	board, summary, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if summary.TotalPlayers != 4 || summary.CurrentRound != 0 {
		t.Fatalf("fresh summary = %+v", summary)
	}
	if len(board) != 4 {
		t.Fatalf("board size = %d, want 4", len(board))
	}

	view, err := svc.StartRound(ctx, "", "")
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	completeRound(t, svc, view)

	_, summary, err = svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics after round: %v", err)
	}
	if summary.CurrentRound != 1 {
		t.Fatalf("current round = %d, want 1", summary.CurrentRound)
	}
	if summary.PlayedAsPhisher != 1 || summary.PlayedAsLeader != 1 {
		t.Fatalf("role exposure = %+v, want one phisher and one leader", summary)
	}
}
