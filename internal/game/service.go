package game

import (
	"context"
	"errors"
	mathrand "math/rand"
	"sync"
	"time"
)

// Service is the round engine. All mutating operations serialize on a single
// mutex; reads go straight to the store.
type Service struct {
	store Store
	cards []ChallengeCard
	rnd   *mathrand.Rand
	now   func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithRand injects the randomness source used for tie-breaking and
// challenge-card selection. Tests pass a seeded source.
func WithRand(r *mathrand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// WithClock injects the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithChallengeCards overrides the built-in card catalog.
func WithChallengeCards(cards []ChallengeCard) Option {
	return func(s *Service) { s.cards = cards }
}

// New creates a Service over the given store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		cards: SeedChallengeCards(),
		rnd:   mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init seeds the scenario and template catalogs. Idempotent.
func (s *Service) Init(ctx context.Context) error {
	if err := s.store.SeedScenarios(ctx, SeedScenarios()); err != nil {
		return err
	}
	return s.store.SeedTemplates(ctx, SeedEmailTemplates())
}

// Scenarios lists the seeded scenarios ordered by name.
func (s *Service) Scenarios(ctx context.Context) ([]Scenario, error) {
	return s.store.ListScenarios(ctx)
}

// ChallengeCards lists the in-process card catalog.
func (s *Service) ChallengeCards() []ChallengeCard {
	out := make([]ChallengeCard, len(s.cards))
	copy(out, s.cards)
	return out
}

func (s *Service) challengeCardByID(id string) *ChallengeCard {
	for i := range s.cards {
		if s.cards[i].ID == id {
			card := s.cards[i]
			return &card
		}
	}
	return nil
}

// Templates lists email templates, optionally filtered by scenario and role.
func (s *Service) Templates(ctx context.Context, scenarioID string, role Role) ([]EmailTemplate, error) {
	return s.store.ListTemplates(ctx, scenarioID, role)
}

// CurrentRound returns the hydrated round with the highest number, or nil if
// no round has been played yet.
func (s *Service) CurrentRound(ctx context.Context) (*RoundView, error) {
	r, err := s.store.LatestRound(ctx)
	if errors.Is(err, ErrRoundNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.hydrateRound(ctx, r)
}

// GetRound returns the hydrated round by id.
func (s *Service) GetRound(ctx context.Context, id string) (*RoundView, error) {
	r, err := s.store.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.hydrateRound(ctx, r)
}

// RecentRounds lists up to limit round summaries, newest first. The limit is
// capped at 50 and defaults to 10.
func (s *Service) RecentRounds(ctx context.Context, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.store.ListRounds(ctx, limit)
}

func (s *Service) hydrateRound(ctx context.Context, r Round) (*RoundView, error) {
	view := &RoundView{Round: r}

	scenario, err := s.store.GetScenario(ctx, r.ScenarioID)
	if err == nil {
		view.Scenario = &scenario
	} else if !errors.Is(err, ErrScenarioNotFound) {
		return nil, err
	}
	if r.ChallengeCardID != "" {
		view.ChallengeCard = s.challengeCardByID(r.ChallengeCardID)
	}

	if view.Participants, err = s.store.ParticipantsByRound(ctx, r.ID); err != nil {
		return nil, err
	}
	if view.Messages, err = s.store.MessagesByRound(ctx, r.ID); err != nil {
		return nil, err
	}
	if view.Judgements, err = s.store.JudgementsByRound(ctx, r.ID); err != nil {
		return nil, err
	}
	return view, nil
}

// ResetAll clears all play state. Scenarios and templates survive.
func (s *Service) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Reset(ctx)
}
