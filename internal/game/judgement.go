package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// JudgementInput is a citizen's verdict on one message of the current round.
type JudgementInput struct {
	RoundID   string  `json:"roundId"`
	MessageID string  `json:"messageId"`
	PlayerID  string  `json:"playerId"`
	Verdict   Verdict `json:"verdict"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// SubmitJudgement records or replaces the citizen's verdict for the message.
// Allowed only while the round is judging or in retro; at most one judgement
// exists per (message, citizen). Returns the hydrated round plus the
// recomputed scoreboard.
func (s *Service) SubmitJudgement(ctx context.Context, in JudgementInput) (*RoundView, []ScoreboardEntry, error) {
	if !ValidVerdict(in.Verdict) {
		return nil, nil, fmt.Errorf("%w: got %q", ErrInvalidVerdict, in.Verdict)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	round, err := s.store.GetRound(ctx, in.RoundID)
	if err != nil {
		return nil, nil, err
	}
	if round.Status != PhaseJudging && round.Status != PhaseRetro {
		return nil, nil, fmt.Errorf("%w: judgements accepted only while judging or in retro, round is %s",
			ErrRoundLocked, round.Status)
	}

	participant, err := s.store.ParticipantOf(ctx, in.RoundID, in.PlayerID)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, nil, fmt.Errorf("%w: player is not part of this round", ErrRoleNotPermitted)
		}
		return nil, nil, err
	}
	if participant.Role != RoleCitizen {
		return nil, nil, fmt.Errorf("%w: only citizens may judge", ErrRoleNotPermitted)
	}

	message, err := s.store.GetMessage(ctx, in.MessageID)
	if err != nil {
		return nil, nil, err
	}
	if message.RoundID != in.RoundID {
		return nil, nil, fmt.Errorf("%w: message belongs to another round", ErrMessageNotFound)
	}

	j := Judgement{
		RoundID:   in.RoundID,
		MessageID: in.MessageID,
		PlayerID:  in.PlayerID,
		Verdict:   in.Verdict,
		Reasoning: in.Reasoning,
		CreatedAt: s.now(),
	}

	existing, err := s.store.JudgementFor(ctx, in.MessageID, in.PlayerID)
	switch {
	case err == nil:
		j.ID = existing.ID
		if err := s.store.UpdateJudgement(ctx, j); err != nil {
			return nil, nil, err
		}
	case errors.Is(err, ErrMessageNotFound):
		j.ID = uuid.NewString()
		if err := s.store.InsertJudgement(ctx, j); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	view, err := s.hydrateRound(ctx, round)
	if err != nil {
		return nil, nil, err
	}
	board, err := s.Scoreboard(ctx)
	if err != nil {
		return nil, nil, err
	}
	return view, board, nil
}
