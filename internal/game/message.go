package game

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MessageDraft carries everything a phisher or leader submits for their slot.
type MessageDraft struct {
	RoundID      string       `json:"roundId"`
	AuthorID     string       `json:"authorId"`
	Subject      string       `json:"subject"`
	Body         string       `json:"body"`
	ContentHTML  string       `json:"contentHtml,omitempty"`
	FromAlias    string       `json:"fromAlias,omitempty"`
	ReplyTo      string       `json:"replyTo,omitempty"`
	Distribution Distribution `json:"distribution"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

// SubmitMessage fills or replaces the author's message slot for the round.
// The round must be in drafting phase and the author must hold the phisher or
// leader role. At most one message exists per (round, role): a resubmission
// keeps the message identity and refreshes content and timestamp.
func (s *Service) SubmitMessage(ctx context.Context, draft MessageDraft) (*RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, err := s.store.GetRound(ctx, draft.RoundID)
	if err != nil {
		return nil, err
	}
	if round.Status != PhaseDrafting {
		return nil, fmt.Errorf("%w: round is %s", ErrRoundLocked, round.Status)
	}

	participant, err := s.store.ParticipantOf(ctx, draft.RoundID, draft.AuthorID)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, fmt.Errorf("%w: author is not part of this round", ErrRoleNotPermitted)
		}
		return nil, err
	}
	if participant.Role != RolePhisher && participant.Role != RoleLeader {
		return nil, fmt.Errorf("%w: only the phisher or city leader may submit", ErrRoleNotPermitted)
	}

	dist, err := s.normalizeDistribution(ctx, round.ID, draft.Distribution)
	if err != nil {
		return nil, err
	}

	msg := Message{
		RoundID:      round.ID,
		AuthorID:     draft.AuthorID,
		Role:         participant.Role,
		Subject:      draft.Subject,
		Body:         draft.Body,
		ContentHTML:  draft.ContentHTML,
		FromAlias:    draft.FromAlias,
		ReplyTo:      draft.ReplyTo,
		Distribution: dist,
		Attachments:  draft.Attachments,
		CreatedAt:    s.now(),
	}

	existing, err := s.store.MessageByRole(ctx, round.ID, participant.Role)
	switch {
	case err == nil:
		msg.ID = existing.ID
		if err := s.store.UpdateMessage(ctx, msg); err != nil {
			return nil, err
		}
	case errors.Is(err, ErrMessageNotFound):
		msg.ID = uuid.NewString()
		if err := s.store.InsertMessage(ctx, msg); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.hydrateRound(ctx, round)
}

func (s *Service) normalizeDistribution(ctx context.Context, roundID string, d Distribution) (Distribution, error) {
	if d.Type == "" {
		d.Type = DistBroadcast
	}
	switch d.Type {
	case DistBroadcast:
		return Distribution{Type: DistBroadcast}, nil
	case DistGroups:
		if len(d.Roles) == 0 {
			return Distribution{}, fmt.Errorf("%w: group distribution needs at least one role", ErrInvalidRecipient)
		}
		return Distribution{Type: DistGroups, Roles: d.Roles}, nil
	case DistDirect:
		if len(d.PlayerIDs) == 0 {
			return Distribution{}, fmt.Errorf("%w: direct distribution needs at least one recipient", ErrInvalidRecipient)
		}
		participants, err := s.store.ParticipantsByRound(ctx, roundID)
		if err != nil {
			return Distribution{}, err
		}
		valid := make(map[string]bool, len(participants))
		for _, p := range participants {
			valid[p.PlayerID] = true
		}
		for _, id := range d.PlayerIDs {
			if !valid[id] {
				return Distribution{}, fmt.Errorf("%w: player %s is not in this round", ErrInvalidRecipient, id)
			}
		}
		return Distribution{Type: DistDirect, PlayerIDs: d.PlayerIDs}, nil
	default:
		return Distribution{}, fmt.Errorf("%w: unknown distribution type %q", ErrInvalidRecipient, d.Type)
	}
}

// CanReach reports whether a message's distribution descriptor covers the
// given participant. Broadcast (or an absent descriptor) reaches everyone;
// direct checks the player-id set; groups checks the role set. A read-time
// filter: one message row exists regardless of audience size.
func CanReach(m Message, p Participant) bool {
	switch m.Distribution.Type {
	case DistDirect:
		for _, id := range m.Distribution.PlayerIDs {
			if id == p.PlayerID {
				return true
			}
		}
		return false
	case DistGroups:
		for _, role := range m.Distribution.Roles {
			if role == p.Role {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// Mailbox returns the round's messages visible to the given player, newest
// first, each paired with the player's own judgement when one exists.
func (s *Service) Mailbox(ctx context.Context, roundID, playerID string) ([]MailboxEntry, error) {
	participant, err := s.store.ParticipantOf(ctx, roundID, playerID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.MessagesByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	judgements, err := s.store.JudgementsByPlayer(ctx, roundID, playerID)
	if err != nil {
		return nil, err
	}
	byMessage := make(map[string]Judgement, len(judgements))
	for _, j := range judgements {
		byMessage[j.MessageID] = j
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})

	entries := make([]MailboxEntry, 0, len(messages))
	for _, m := range messages {
		if !CanReach(m, participant) {
			continue
		}
		entry := MailboxEntry{Message: m}
		if j, ok := byMessage[m.ID]; ok {
			jc := j
			entry.Judgement = &jc
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
