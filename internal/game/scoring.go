package game

import "context"

// Point weights. Authors earn being-believed points for every trust verdict on
// their message regardless of role; citizens earn a point for trusting genuine
// notices and for suspecting deceptive ones. The asymmetry is deliberate and
// matches the classroom rules.
const (
	authorTrustPoints    = 2
	citizenCorrectPoints = 1
)

// Scoreboard recomputes per-player point totals from the full message and
// judgement history. Pure query; entries come back in directory order.
func (s *Service) Scoreboard(ctx context.Context) ([]ScoreboardEntry, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.AllMessages(ctx)
	if err != nil {
		return nil, err
	}
	judgements, err := s.store.AllJudgements(ctx)
	if err != nil {
		return nil, err
	}

	authorOf := make(map[string]string, len(messages))
	roleOf := make(map[string]Role, len(messages))
	for _, m := range messages {
		authorOf[m.ID] = m.AuthorID
		roleOf[m.ID] = m.Role
	}

	points := make(map[string]int, len(players))
	for _, j := range judgements {
		role := roleOf[j.MessageID]
		if j.Verdict == VerdictTrust {
			points[authorOf[j.MessageID]] += authorTrustPoints
		}
		if (role == RoleLeader && j.Verdict == VerdictTrust) ||
			(role == RolePhisher && j.Verdict == VerdictSuspect) {
			points[j.PlayerID] += citizenCorrectPoints
		}
	}

	board := make([]ScoreboardEntry, 0, len(players))
	for _, p := range players {
		board = append(board, ScoreboardEntry{Player: p, Points: points[p.ID]})
	}
	return board, nil
}

// SessionSummary is the headline block of the statistics endpoint.
type SessionSummary struct {
	TotalPlayers    int `json:"totalPlayers"`
	PlayedAsPhisher int `json:"playedAsPhisher"`
	PlayedAsLeader  int `json:"playedAsLeader"`
	CurrentRound    int `json:"currentRound"`
}

// Statistics returns the scoreboard plus session-level counts.
func (s *Service) Statistics(ctx context.Context) ([]ScoreboardEntry, SessionSummary, error) {
	board, err := s.Scoreboard(ctx)
	if err != nil {
		return nil, SessionSummary{}, err
	}
	summary := SessionSummary{TotalPlayers: len(board)}
	for _, e := range board {
		if e.RoundsAsPhisher > 0 {
			summary.PlayedAsPhisher++
		}
		if e.RoundsAsLeader > 0 {
			summary.PlayedAsLeader++
		}
	}
	if last, err := s.store.LatestRound(ctx); err == nil {
		summary.CurrentRound = last.Number
	}
	return board, summary, nil
}
