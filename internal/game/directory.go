package game

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// AdminSentinel is the reserved student-id suffix that logs in as the session
// admin instead of a player.
const AdminSentinel = "0000"

// ImportEntry is one row of a bulk player import.
type ImportEntry struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
}

// ImportResult reports the outcome for one import entry.
type ImportResult struct {
	ID        string `json:"id,omitempty"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Inserted  bool   `json:"inserted"`
	Reason    string `json:"reason,omitempty"`
}

// ListPlayers returns the directory in creation order.
func (s *Service) ListPlayers(ctx context.Context) ([]Player, error) {
	return s.store.ListPlayers(ctx)
}

// BulkAddPlayers imports directory entries one by one, never failing the
// whole batch: entries with a missing id, the reserved admin suffix, or a
// duplicate student id are reported per item.
func (s *Service) BulkAddPlayers(ctx context.Context, entries []ImportEntry) ([]ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]ImportResult, 0, len(entries))
	for _, e := range entries {
		studentID := strings.TrimSpace(e.StudentID)
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = studentID
		}
		res := ImportResult{StudentID: studentID, Name: name}

		switch {
		case studentID == "":
			res.Reason = "student id is missing"
		case strings.HasSuffix(studentID, AdminSentinel):
			res.Reason = "student ids ending in " + AdminSentinel + " are reserved for the admin"
		default:
			if _, err := s.store.GetPlayerByStudentID(ctx, studentID); err == nil {
				res.Reason = "student id already exists"
				break
			} else if !errors.Is(err, ErrPlayerNotFound) {
				return nil, err
			}
			p := Player{
				ID:        uuid.NewString(),
				StudentID: studentID,
				Name:      name,
				CreatedAt: s.now(),
			}
			if err := s.store.InsertPlayer(ctx, p); err != nil {
				return nil, err
			}
			res.ID = p.ID
			res.Inserted = true
		}
		results = append(results, res)
	}
	return results, nil
}

// LoginResult is the outcome of a last-4-digits login.
type LoginResult struct {
	Admin      bool    `json:"admin"`
	Player     *Player `json:"player,omitempty"`
	Assignment Role    `json:"assignment,omitempty"`
}

// ResolveLogin matches the admin sentinel first, then the most recently
// created player whose student id ends with the given digits. A successful
// player login records the login time and reports the player's role in the
// current round (citizen when unassigned).
func (s *Service) ResolveLogin(ctx context.Context, last4 string) (LoginResult, error) {
	last4 = strings.TrimSpace(last4)
	if last4 == AdminSentinel {
		return LoginResult{Admin: true}, nil
	}

	player, err := s.store.FindPlayerBySuffix(ctx, last4)
	if err != nil {
		return LoginResult{}, err
	}
	now := s.now()
	if err := s.store.TouchLastLogin(ctx, player.ID, now); err != nil {
		return LoginResult{}, err
	}
	player.LastLogin = &now

	assignment := RoleCitizen
	if last, err := s.store.LatestRound(ctx); err == nil {
		if part, err := s.store.ParticipantOf(ctx, last.ID, player.ID); err == nil {
			assignment = part.Role
		}
	}
	return LoginResult{Player: &player, Assignment: assignment}, nil
}
