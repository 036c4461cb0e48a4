package game

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore implements Store with in-process concurrency safety. It is the
// default store and the one the tests run against; the relational store in
// internal/store/sqldb mirrors its semantics.
type MemStore struct {
	mu         sync.RWMutex
	players    []Player
	scenarios  []Scenario
	templates  []EmailTemplate
	rounds     []Round
	parts      []Participant
	messages   []Message
	judgements []Judgement
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// --- players ---

func (s *MemStore) ListPlayers(ctx context.Context) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Player, len(s.players))
	copy(out, s.players)
	return out, nil
}

func (s *MemStore) GetPlayer(ctx context.Context, id string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.ID == id {
			return p, nil
		}
	}
	return Player{}, ErrPlayerNotFound
}

func (s *MemStore) GetPlayerByStudentID(ctx context.Context, studentID string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.StudentID == studentID {
			return p, nil
		}
	}
	return Player{}, ErrPlayerNotFound
}

func (s *MemStore) FindPlayerBySuffix(ctx context.Context, suffix string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Most recently created wins on suffix collisions.
	for i := len(s.players) - 1; i >= 0; i-- {
		if strings.HasSuffix(s.players[i].StudentID, suffix) {
			return s.players[i], nil
		}
	}
	return Player{}, ErrPlayerNotFound
}

func (s *MemStore) InsertPlayer(ctx context.Context, p Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = append(s.players, p)
	return nil
}

func (s *MemStore) TouchLastLogin(ctx context.Context, playerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.players {
		if s.players[i].ID == playerID {
			t := at
			s.players[i].LastLogin = &t
			return nil
		}
	}
	return ErrPlayerNotFound
}

// --- scenarios and templates ---

func (s *MemStore) ListScenarios(ctx context.Context) ([]Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Scenario, len(s.scenarios))
	copy(out, s.scenarios)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetScenario(ctx context.Context, id string) (Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.scenarios {
		if sc.ID == id {
			return sc, nil
		}
	}
	return Scenario{}, ErrScenarioNotFound
}

func (s *MemStore) SeedScenarios(ctx context.Context, items []Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.scenarios) > 0 {
		return nil
	}
	s.scenarios = append(s.scenarios, items...)
	return nil
}

func (s *MemStore) ListTemplates(ctx context.Context, scenarioID string, role Role) ([]EmailTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []EmailTemplate
	for _, t := range s.templates {
		if scenarioID != "" && t.ScenarioID != scenarioID {
			continue
		}
		if role != "" && t.Role != role {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *MemStore) SeedTemplates(ctx context.Context, items []EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		replaced := false
		for i := range s.templates {
			if s.templates[i].ID == item.ID {
				created := s.templates[i].CreatedAt
				s.templates[i] = item
				s.templates[i].CreatedAt = created
				replaced = true
				break
			}
		}
		if !replaced {
			s.templates = append(s.templates, item)
		}
	}
	return nil
}

// --- rounds ---

func (s *MemStore) LatestRound(ctx context.Context) (Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rounds) == 0 {
		return Round{}, ErrRoundNotFound
	}
	latest := s.rounds[0]
	for _, r := range s.rounds[1:] {
		if r.Number > latest.Number {
			latest = r
		}
	}
	return latest, nil
}

func (s *MemStore) GetRound(ctx context.Context, id string) (Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rounds {
		if r.ID == id {
			return r, nil
		}
	}
	return Round{}, ErrRoundNotFound
}

func (s *MemStore) ListRounds(ctx context.Context, limit int) ([]Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Round, len(s.rounds))
	copy(out, s.rounds)
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) ScenarioUsage(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	usage := make(map[string]int, len(s.scenarios))
	for _, r := range s.rounds {
		usage[r.ScenarioID]++
	}
	return usage, nil
}

func (s *MemStore) CreateRound(ctx context.Context, r Round, participants []Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, r)
	s.parts = append(s.parts, participants...)
	for _, part := range participants {
		for i := range s.players {
			if s.players[i].ID != part.PlayerID {
				continue
			}
			switch part.Role {
			case RolePhisher:
				s.players[i].RoundsAsPhisher++
			case RoleLeader:
				s.players[i].RoundsAsLeader++
			case RoleCitizen:
				s.players[i].RoundsAsCitizen++
			}
		}
	}
	return nil
}

func (s *MemStore) SetRoundStatus(ctx context.Context, id string, status Phase, finishedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rounds {
		if s.rounds[i].ID == id {
			s.rounds[i].Status = status
			if finishedAt != nil {
				t := *finishedAt
				s.rounds[i].FinishedAt = &t
			}
			return nil
		}
	}
	return ErrRoundNotFound
}

// --- participants ---

func roleRank(r Role) int {
	switch r {
	case RolePhisher:
		return 0
	case RoleLeader:
		return 1
	default:
		return 2
	}
}

func (s *MemStore) ParticipantsByRound(ctx context.Context, roundID string) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Participant
	for _, p := range s.parts {
		if p.RoundID == roundID {
			out = append(out, s.hydrateParticipant(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return roleRank(out[i].Role) < roleRank(out[j].Role)
	})
	return out, nil
}

func (s *MemStore) ParticipantOf(ctx context.Context, roundID, playerID string) (Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.parts {
		if p.RoundID == roundID && p.PlayerID == playerID {
			return s.hydrateParticipant(p), nil
		}
	}
	return Participant{}, ErrPlayerNotFound
}

func (s *MemStore) hydrateParticipant(p Participant) Participant {
	for _, pl := range s.players {
		if pl.ID == p.PlayerID {
			p.Name = pl.Name
			p.StudentID = pl.StudentID
			break
		}
	}
	return p
}

// --- messages ---

func cloneMessage(m Message) Message {
	out := m
	out.Distribution.Roles = append([]Role(nil), m.Distribution.Roles...)
	out.Distribution.PlayerIDs = append([]string(nil), m.Distribution.PlayerIDs...)
	out.Attachments = append([]Attachment(nil), m.Attachments...)
	return out
}

func (s *MemStore) hydrateMessage(m Message) Message {
	out := cloneMessage(m)
	for _, pl := range s.players {
		if pl.ID == m.AuthorID {
			out.AuthorName = pl.Name
			out.AuthorStudentID = pl.StudentID
			break
		}
	}
	return out
}

func (s *MemStore) MessagesByRound(ctx context.Context, roundID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Message
	for _, m := range s.messages {
		if m.RoundID == roundID {
			out = append(out, s.hydrateMessage(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) MessageByRole(ctx context.Context, roundID string, role Role) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.RoundID == roundID && m.Role == role {
			return s.hydrateMessage(m), nil
		}
	}
	return Message{}, ErrMessageNotFound
}

func (s *MemStore) GetMessage(ctx context.Context, id string) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return s.hydrateMessage(m), nil
		}
	}
	return Message{}, ErrMessageNotFound
}

func (s *MemStore) InsertMessage(ctx context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, cloneMessage(m))
	return nil
}

func (s *MemStore) UpdateMessage(ctx context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == m.ID {
			s.messages[i] = cloneMessage(m)
			return nil
		}
	}
	return ErrMessageNotFound
}

func (s *MemStore) AllMessages(ctx context.Context) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, s.hydrateMessage(m))
	}
	return out, nil
}

// --- judgements ---

func (s *MemStore) hydrateJudgement(j Judgement) Judgement {
	for _, pl := range s.players {
		if pl.ID == j.PlayerID {
			j.PlayerName = pl.Name
			j.PlayerStudentID = pl.StudentID
			break
		}
	}
	for _, m := range s.messages {
		if m.ID == j.MessageID {
			j.MessageRole = m.Role
			break
		}
	}
	return j
}

func (s *MemStore) JudgementsByRound(ctx context.Context, roundID string) ([]Judgement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Judgement
	for _, j := range s.judgements {
		if j.RoundID == roundID {
			out = append(out, s.hydrateJudgement(j))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) JudgementsByPlayer(ctx context.Context, roundID, playerID string) ([]Judgement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Judgement
	for _, j := range s.judgements {
		if j.RoundID == roundID && j.PlayerID == playerID {
			out = append(out, s.hydrateJudgement(j))
		}
	}
	return out, nil
}

func (s *MemStore) JudgementFor(ctx context.Context, messageID, playerID string) (Judgement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.judgements {
		if j.MessageID == messageID && j.PlayerID == playerID {
			return s.hydrateJudgement(j), nil
		}
	}
	return Judgement{}, ErrMessageNotFound
}

func (s *MemStore) InsertJudgement(ctx context.Context, j Judgement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.judgements = append(s.judgements, j)
	return nil
}

func (s *MemStore) UpdateJudgement(ctx context.Context, j Judgement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.judgements {
		if s.judgements[i].ID == j.ID {
			s.judgements[i] = j
			return nil
		}
	}
	return ErrMessageNotFound
}

func (s *MemStore) AllJudgements(ctx context.Context) ([]Judgement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Judgement, 0, len(s.judgements))
	for _, j := range s.judgements {
		out = append(out, s.hydrateJudgement(j))
	}
	return out, nil
}

// --- reset ---

func (s *MemStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = nil
	s.rounds = nil
	s.parts = nil
	s.messages = nil
	s.judgements = nil
	return nil
}
