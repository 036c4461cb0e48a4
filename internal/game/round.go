package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const leaderResampleLimit = 5

var allowedTransitions = map[Phase][]Phase{
	PhaseDrafting:  {PhaseJudging},
	PhaseJudging:   {PhaseRetro, PhaseCompleted},
	PhaseRetro:     {PhaseCompleted},
	PhaseCompleted: {},
}

// StartRound creates the next round: picks a scenario and challenge card,
// assigns roles with fewest-prior-rounds fairness, and persists the round,
// its participants and the counter bumps as one atomic unit.
//
// scenarioID and cardID are optional; empty or unknown values fall back to
// least-recently-used scenario selection and a uniform-random card.
func (s *Service) StartRound(ctx context.Context, scenarioID, cardID string) (*RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	if len(players) < 3 {
		return nil, fmt.Errorf("%w: have %d", ErrInsufficientPlayers, len(players))
	}

	number := 1
	last, err := s.store.LatestRound(ctx)
	switch {
	case err == nil:
		if last.Status != PhaseCompleted {
			return nil, fmt.Errorf("%w: round %d is %s", ErrRoundInProgress, last.Number, last.Status)
		}
		number = last.Number + 1
	case errors.Is(err, ErrRoundNotFound):
		// first round
	default:
		return nil, err
	}

	scenario, err := s.pickScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	card := s.pickChallengeCard(cardID)

	phisher := s.pickFewest(players, func(p Player) int { return p.RoundsAsPhisher })
	leader := s.pickFewest(players, func(p Player) int { return p.RoundsAsLeader })
	for tries := 0; leader.ID == phisher.ID && tries < leaderResampleLimit; tries++ {
		leader = s.pickFewest(players, func(p Player) int { return p.RoundsAsLeader })
	}
	if leader.ID == phisher.ID {
		others := make([]Player, 0, len(players)-1)
		for _, p := range players {
			if p.ID != phisher.ID {
				others = append(others, p)
			}
		}
		leader = others[s.rnd.Intn(len(others))]
	}

	round := Round{
		ID:         uuid.NewString(),
		Number:     number,
		ScenarioID: scenario.ID,
		Status:     PhaseDrafting,
		PhisherID:  phisher.ID,
		LeaderID:   leader.ID,
		StartedAt:  s.now(),
	}
	if card != nil {
		round.ChallengeCardID = card.ID
	}

	participants := []Participant{
		{ID: uuid.NewString(), RoundID: round.ID, PlayerID: phisher.ID, Role: RolePhisher},
		{ID: uuid.NewString(), RoundID: round.ID, PlayerID: leader.ID, Role: RoleLeader},
	}
	for _, p := range players {
		if p.ID == phisher.ID || p.ID == leader.ID {
			continue
		}
		participants = append(participants, Participant{
			ID: uuid.NewString(), RoundID: round.ID, PlayerID: p.ID, Role: RoleCitizen,
		})
	}

	if err := s.store.CreateRound(ctx, round, participants); err != nil {
		return nil, err
	}
	return s.hydrateRound(ctx, round)
}

// TransitionPhase moves a round to target. Requesting the current phase is a
// no-op success. Entering judging requires both role messages; entering retro
// requires at least one judgement; entering completed stamps finished_at.
func (s *Service) TransitionPhase(ctx context.Context, roundID string, target Phase) (*RoundView, error) {
	if !ValidPhase(target) {
		return nil, fmt.Errorf("%w: unknown phase %q", ErrInvalidTransition, target)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status == target {
		return s.hydrateRound(ctx, round)
	}

	ok := false
	for _, next := range allowedTransitions[round.Status] {
		if next == target {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, round.Status, target)
	}

	switch target {
	case PhaseJudging:
		messages, err := s.store.MessagesByRound(ctx, roundID)
		if err != nil {
			return nil, err
		}
		var havePhisher, haveLeader bool
		for _, m := range messages {
			switch m.Role {
			case RolePhisher:
				havePhisher = true
			case RoleLeader:
				haveLeader = true
			}
		}
		if !havePhisher || !haveLeader {
			return nil, ErrIncompleteSubmissions
		}
	case PhaseRetro:
		judgements, err := s.store.JudgementsByRound(ctx, roundID)
		if err != nil {
			return nil, err
		}
		if len(judgements) == 0 {
			return nil, ErrNoJudgementsYet
		}
	}

	var finishedAt *time.Time
	if target == PhaseCompleted {
		t := s.now()
		finishedAt = &t
	}
	if err := s.store.SetRoundStatus(ctx, roundID, target, finishedAt); err != nil {
		return nil, err
	}
	updated, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return s.hydrateRound(ctx, updated)
}

func (s *Service) pickScenario(ctx context.Context, scenarioID string) (Scenario, error) {
	if scenarioID != "" {
		if sc, err := s.store.GetScenario(ctx, scenarioID); err == nil {
			return sc, nil
		} else if !errors.Is(err, ErrScenarioNotFound) {
			return Scenario{}, err
		}
	}
	// Least-recently-used by round count, ties broken uniformly at random.
	scenarios, err := s.store.ListScenarios(ctx)
	if err != nil {
		return Scenario{}, err
	}
	if len(scenarios) == 0 {
		return Scenario{}, fmt.Errorf("%w: catalog is empty", ErrScenarioNotFound)
	}
	usage, err := s.store.ScenarioUsage(ctx)
	if err != nil {
		return Scenario{}, err
	}
	min := -1
	var pool []Scenario
	for _, sc := range scenarios {
		n := usage[sc.ID]
		switch {
		case min < 0 || n < min:
			min = n
			pool = pool[:0]
			pool = append(pool, sc)
		case n == min:
			pool = append(pool, sc)
		}
	}
	return pool[s.rnd.Intn(len(pool))], nil
}

func (s *Service) pickChallengeCard(cardID string) *ChallengeCard {
	if cardID != "" {
		if card := s.challengeCardByID(cardID); card != nil {
			return card
		}
	}
	if len(s.cards) == 0 {
		return nil
	}
	card := s.cards[s.rnd.Intn(len(s.cards))]
	return &card
}

func (s *Service) pickFewest(players []Player, count func(Player) int) Player {
	min := -1
	var pool []Player
	for _, p := range players {
		n := count(p)
		switch {
		case min < 0 || n < min:
			min = n
			pool = pool[:0]
			pool = append(pool, p)
		case n == min:
			pool = append(pool, p)
		}
	}
	return pool[s.rnd.Intn(len(pool))]
}
