package game

import (
	"context"
	"time"
)

// Store is the persistence boundary of the engine. Each method is a single
// atomic unit: implementations commit compound mutations (round creation with
// its participants and counter bumps, full reset) in one transaction or one
// lock hold, never partially.
//
// Stores signal missing rows with the matching sentinel (ErrRoundNotFound,
// ErrPlayerNotFound, ErrMessageNotFound, ErrScenarioNotFound).
type Store interface {
	// Players, ordered by creation time.
	ListPlayers(ctx context.Context) ([]Player, error)
	GetPlayer(ctx context.Context, id string) (Player, error)
	GetPlayerByStudentID(ctx context.Context, studentID string) (Player, error)
	// FindPlayerBySuffix returns the most recently created player whose
	// student id ends with the given digits.
	FindPlayerBySuffix(ctx context.Context, suffix string) (Player, error)
	InsertPlayer(ctx context.Context, p Player) error
	TouchLastLogin(ctx context.Context, playerID string, at time.Time) error

	// Scenarios and templates, read-only after seed.
	ListScenarios(ctx context.Context) ([]Scenario, error)
	GetScenario(ctx context.Context, id string) (Scenario, error)
	SeedScenarios(ctx context.Context, items []Scenario) error
	ListTemplates(ctx context.Context, scenarioID string, role Role) ([]EmailTemplate, error)
	SeedTemplates(ctx context.Context, items []EmailTemplate) error

	// Rounds.
	LatestRound(ctx context.Context) (Round, error)
	GetRound(ctx context.Context, id string) (Round, error)
	ListRounds(ctx context.Context, limit int) ([]Round, error)
	// ScenarioUsage maps scenario id to the number of rounds played on it.
	ScenarioUsage(ctx context.Context) (map[string]int, error)
	// CreateRound persists the round with all its participants and increments
	// each assigned player's role counter, atomically.
	CreateRound(ctx context.Context, r Round, participants []Participant) error
	SetRoundStatus(ctx context.Context, id string, status Phase, finishedAt *time.Time) error

	// Participants of a round, special roles first.
	ParticipantsByRound(ctx context.Context, roundID string) ([]Participant, error)
	ParticipantOf(ctx context.Context, roundID, playerID string) (Participant, error)

	// Messages.
	MessagesByRound(ctx context.Context, roundID string) ([]Message, error)
	MessageByRole(ctx context.Context, roundID string, role Role) (Message, error)
	GetMessage(ctx context.Context, id string) (Message, error)
	InsertMessage(ctx context.Context, m Message) error
	UpdateMessage(ctx context.Context, m Message) error
	AllMessages(ctx context.Context) ([]Message, error)

	// Judgements. Hydrated rows carry the judged message's role.
	JudgementsByRound(ctx context.Context, roundID string) ([]Judgement, error)
	JudgementsByPlayer(ctx context.Context, roundID, playerID string) ([]Judgement, error)
	JudgementFor(ctx context.Context, messageID, playerID string) (Judgement, error)
	InsertJudgement(ctx context.Context, j Judgement) error
	UpdateJudgement(ctx context.Context, j Judgement) error
	AllJudgements(ctx context.Context) ([]Judgement, error)

	// Reset clears players, rounds, participants, messages and judgements.
	// Scenarios and templates survive.
	Reset(ctx context.Context) error
}
