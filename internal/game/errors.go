package game

import "errors"

// Validation failures surfaced to callers. Call sites wrap these with %w and a
// human-readable detail; boundaries match with errors.Is.
var (
	ErrInsufficientPlayers   = errors.New("at least 3 players are required")
	ErrRoundInProgress       = errors.New("previous round is not completed")
	ErrRoundNotFound         = errors.New("round not found")
	ErrInvalidTransition     = errors.New("invalid phase transition")
	ErrIncompleteSubmissions = errors.New("both phisher and leader messages are required")
	ErrNoJudgementsYet       = errors.New("at least one judgement is required")
	ErrRoundLocked           = errors.New("round is no longer in drafting phase")
	ErrRoleNotPermitted      = errors.New("role not permitted for this operation")
	ErrInvalidRecipient      = errors.New("invalid recipient")
	ErrInvalidVerdict        = errors.New("verdict must be trust or suspect")
	ErrMessageNotFound       = errors.New("message not found")
	ErrPlayerNotFound        = errors.New("player not found")
	ErrScenarioNotFound      = errors.New("scenario not found")
)
