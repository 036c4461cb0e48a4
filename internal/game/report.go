package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimelineEvent is one entry of a round's chronological record. IDs are
// derived from the underlying rows so repeated report builds stay stable.
type TimelineEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Summary   string         `json:"summary"`
	Details   map[string]any `json:"details"`
}

// RoundMetrics summarizes one round's outcomes. Rates are percentages rounded
// to one decimal, nil when the round produced no matching verdicts.
type RoundMetrics struct {
	TotalMessages     int      `json:"totalMessages"`
	TotalJudgements   int      `json:"totalJudgements"`
	LeaderTrustRate   *float64 `json:"leaderTrustRate"`
	PhisherCatchRate  *float64 `json:"phisherCatchRate"`
	ReasoningCoverage *float64 `json:"reasoningCoverage"`
}

// ScenarioConfig is the round's play configuration as exported for reports.
type ScenarioConfig struct {
	RoundNumber  int            `json:"round_number"`
	ScenarioID   string         `json:"scenario_id"`
	ScenarioName string         `json:"scenario_name"`
	Objectives   map[string]any `json:"objectives"`
	Challenge    *ChallengeCard `json:"challenge_card"`
	Participants []Participant  `json:"participants"`
	Messages     []Message      `json:"messages"`
}

// RoundReport bundles everything a teacher needs to debrief one round.
type RoundReport struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	Round          *RoundView      `json:"round"`
	Timeline       []TimelineEvent `json:"timeline"`
	Metrics        RoundMetrics    `json:"metrics"`
	ScenarioConfig ScenarioConfig  `json:"scenarioConfig"`
}

func roleLabel(r Role) string {
	switch r {
	case RolePhisher:
		return "info phisher"
	case RoleLeader:
		return "city leader"
	default:
		return "citizen"
	}
}

func messageLabel(r Role) string {
	if r == RoleLeader {
		return "official notice"
	}
	return "phishing mail"
}

// BuildRoundReport assembles the timeline, metrics and scenario config for a
// round. Pure query.
func (s *Service) BuildRoundReport(ctx context.Context, roundID string) (*RoundReport, error) {
	view, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	var timeline []TimelineEvent

	scenarioName := ""
	background := ""
	if view.Scenario != nil {
		scenarioName = view.Scenario.Name
		background = view.Scenario.Background
	}
	timeline = append(timeline, TimelineEvent{
		ID:        fmt.Sprintf("round-%s-start", view.ID),
		Type:      "round_started",
		Timestamp: view.StartedAt,
		Summary:   fmt.Sprintf("Round %d opened", view.Number),
		Details: map[string]any{
			"scenario":   scenarioName,
			"background": background,
		},
	})

	for _, p := range view.Participants {
		timeline = append(timeline, TimelineEvent{
			ID:        "participant-" + p.ID,
			Type:      "role_assigned",
			Timestamp: view.StartedAt,
			Summary:   fmt.Sprintf("%s assigned as %s", p.Name, roleLabel(p.Role)),
			Details: map[string]any{
				"player":     p.Name,
				"role":       p.Role,
				"student_id": p.StudentID,
			},
		})
	}

	for _, m := range view.Messages {
		timeline = append(timeline, TimelineEvent{
			ID:        "message-" + m.ID,
			Type:      "message_submitted",
			Timestamp: m.CreatedAt,
			Summary:   fmt.Sprintf("%s submitted the %s", m.AuthorName, messageLabel(m.Role)),
			Details: map[string]any{
				"role":             m.Role,
				"subject":          m.Subject,
				"distributionType": m.Distribution.Type,
				"recipients":       m.Distribution,
				"attachments":      len(m.Attachments),
			},
		})
	}

	for _, j := range view.Judgements {
		verdictLabel := "trustworthy"
		if j.Verdict == VerdictSuspect {
			verdictLabel = "suspicious"
		}
		timeline = append(timeline, TimelineEvent{
			ID:        "judgement-" + j.ID,
			Type:      "judgement_submitted",
			Timestamp: j.CreatedAt,
			Summary: fmt.Sprintf("%s judged the %s as %s",
				j.PlayerName, messageLabel(j.MessageRole), verdictLabel),
			Details: map[string]any{
				"player":      j.PlayerName,
				"verdict":     j.Verdict,
				"messageRole": j.MessageRole,
				"reasoning":   j.Reasoning,
			},
		})
	}

	if view.FinishedAt != nil {
		timeline = append(timeline, TimelineEvent{
			ID:        fmt.Sprintf("round-%s-end", view.ID),
			Type:      "round_completed",
			Timestamp: *view.FinishedAt,
			Summary:   fmt.Sprintf("Round %d finished", view.Number),
			Details:   map[string]any{"status": view.Status},
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})

	return &RoundReport{
		GeneratedAt:    s.now(),
		Round:          view,
		Timeline:       timeline,
		Metrics:        buildRoundMetrics(view),
		ScenarioConfig: buildScenarioConfig(view),
	}, nil
}

func buildRoundMetrics(view *RoundView) RoundMetrics {
	var leaderTotal, leaderTrust, phisherTotal, phisherCatch, reasoned int
	for _, j := range view.Judgements {
		switch j.MessageRole {
		case RoleLeader:
			leaderTotal++
			if j.Verdict == VerdictTrust {
				leaderTrust++
			}
		case RolePhisher:
			phisherTotal++
			if j.Verdict == VerdictSuspect {
				phisherCatch++
			}
		}
		if strings.TrimSpace(j.Reasoning) != "" {
			reasoned++
		}
	}
	return RoundMetrics{
		TotalMessages:     len(view.Messages),
		TotalJudgements:   len(view.Judgements),
		LeaderTrustRate:   percentRate(leaderTrust, leaderTotal),
		PhisherCatchRate:  percentRate(phisherCatch, phisherTotal),
		ReasoningCoverage: percentRate(reasoned, len(view.Judgements)),
	}
}

func buildScenarioConfig(view *RoundView) ScenarioConfig {
	cfg := ScenarioConfig{
		RoundNumber:  view.Number,
		ScenarioID:   view.ScenarioID,
		Challenge:    view.ChallengeCard,
		Participants: view.Participants,
		Messages:     view.Messages,
		Objectives:   map[string]any{},
	}
	if view.Scenario != nil {
		cfg.ScenarioName = view.Scenario.Name
		cfg.Objectives = map[string]any{
			"leader":     view.Scenario.CityLeaderTask,
			"phisher":    view.Scenario.PhisherTask,
			"risk_hints": view.Scenario.RiskHints,
		}
	}
	return cfg
}
