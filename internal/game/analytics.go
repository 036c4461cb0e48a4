package game

import (
	"context"
	"math"
	"strings"
	"time"
)

// ScenarioStat aggregates play history for one scenario.
type ScenarioStat struct {
	ScenarioID            string     `json:"scenarioId"`
	ScenarioName          string     `json:"scenarioName"`
	RoundsPlayed          int        `json:"roundsPlayed"`
	LastPlayedAt          *time.Time `json:"lastPlayedAt"`
	AvgJudgementsPerRound float64    `json:"avgJudgementsPerRound"`
	LeaderTrustRate       *float64   `json:"leaderTrustRate"`
	PhisherCatchRate      *float64   `json:"phisherCatchRate"`
}

// MessageStats describes the whole message corpus.
type MessageStats struct {
	TotalMessages         int                      `json:"totalMessages"`
	RichHTMLMessages      int                      `json:"richHtmlMessages"`
	AliasMessages         int                      `json:"aliasMessages"`
	AttachmentCount       int                      `json:"attachmentCount"`
	DistributionBreakdown map[DistributionType]int `json:"distributionBreakdown"`
}

// JudgementStats describes the whole judgement corpus. Rates are percentages
// rounded to one decimal, nil when no verdicts exist for the role.
type JudgementStats struct {
	TotalJudgements      int      `json:"totalJudgements"`
	TrustCount           int      `json:"trustCount"`
	SuspectCount         int      `json:"suspectCount"`
	ReasoningCount       int      `json:"reasoningCount"`
	LeaderTrustRate      *float64 `json:"leaderTrustRate"`
	PhisherDetectionRate *float64 `json:"phisherDetectionRate"`
}

// AdvancedAnalytics is the full analytics payload.
type AdvancedAnalytics struct {
	ScenarioStats  []ScenarioStat `json:"scenarioStats"`
	MessageStats   MessageStats   `json:"messageStats"`
	JudgementStats JudgementStats `json:"judgementStats"`
}

// percentRate rounds n/d to one decimal percent. nil means "no data", which
// callers must keep distinct from 0%.
func percentRate(n, d int) *float64 {
	if d == 0 {
		return nil
	}
	v := math.Round(float64(n)/float64(d)*1000) / 10
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Analytics scans the full round, message and judgement history. Pure query:
// two calls without intervening mutation return identical results.
func (s *Service) Analytics(ctx context.Context) (AdvancedAnalytics, error) {
	scenarios, err := s.store.ListScenarios(ctx)
	if err != nil {
		return AdvancedAnalytics{}, err
	}
	rounds, err := s.store.ListRounds(ctx, 0)
	if err != nil {
		return AdvancedAnalytics{}, err
	}
	messages, err := s.store.AllMessages(ctx)
	if err != nil {
		return AdvancedAnalytics{}, err
	}
	judgements, err := s.store.AllJudgements(ctx)
	if err != nil {
		return AdvancedAnalytics{}, err
	}

	type bucket struct {
		rounds       int
		lastPlayed   *time.Time
		judgements   int
		leaderTrust  int
		leaderTotal  int
		phisherCatch int
		phisherTotal int
	}
	buckets := make(map[string]*bucket, len(scenarios))
	for _, sc := range scenarios {
		buckets[sc.ID] = &bucket{}
	}

	scenarioOfRound := make(map[string]string, len(rounds))
	for _, r := range rounds {
		scenarioOfRound[r.ID] = r.ScenarioID
		b, ok := buckets[r.ScenarioID]
		if !ok {
			continue
		}
		b.rounds++
		at := r.StartedAt
		if r.FinishedAt != nil {
			at = *r.FinishedAt
		}
		if b.lastPlayed == nil || at.After(*b.lastPlayed) {
			t := at
			b.lastPlayed = &t
		}
	}

	roleOf := make(map[string]Role, len(messages))
	for _, m := range messages {
		roleOf[m.ID] = m.Role
	}

	stats := JudgementStats{TotalJudgements: len(judgements)}
	var leaderTrust, leaderTotal, phisherCatch, phisherTotal int
	for _, j := range judgements {
		if j.Verdict == VerdictTrust {
			stats.TrustCount++
		} else {
			stats.SuspectCount++
		}
		if strings.TrimSpace(j.Reasoning) != "" {
			stats.ReasoningCount++
		}
		role := roleOf[j.MessageID]
		switch role {
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
		if b, ok := buckets[scenarioOfRound[j.RoundID]]; ok {
			b.judgements++
			switch role {
			case RoleLeader:
				b.leaderTotal++
				if j.Verdict == VerdictTrust {
					b.leaderTrust++
				}
			case RolePhisher:
				b.phisherTotal++
				if j.Verdict == VerdictSuspect {
					b.phisherCatch++
				}
			}
		}
	}
	stats.LeaderTrustRate = percentRate(leaderTrust, leaderTotal)
	stats.PhisherDetectionRate = percentRate(phisherCatch, phisherTotal)

	msgStats := MessageStats{
		TotalMessages:         len(messages),
		DistributionBreakdown: map[DistributionType]int{DistBroadcast: 0, DistGroups: 0, DistDirect: 0},
	}
	for _, m := range messages {
		key := m.Distribution.Type
		if key == "" {
			key = DistBroadcast
		}
		msgStats.DistributionBreakdown[key]++
		if strings.TrimSpace(m.ContentHTML) != "" {
			msgStats.RichHTMLMessages++
		}
		if strings.TrimSpace(m.FromAlias) != "" {
			msgStats.AliasMessages++
		}
		msgStats.AttachmentCount += len(m.Attachments)
	}

	scenarioStats := make([]ScenarioStat, 0, len(scenarios))
	for _, sc := range scenarios {
		b := buckets[sc.ID]
		entry := ScenarioStat{
			ScenarioID:       sc.ID,
			ScenarioName:     sc.Name,
			RoundsPlayed:     b.rounds,
			LastPlayedAt:     b.lastPlayed,
			LeaderTrustRate:  percentRate(b.leaderTrust, b.leaderTotal),
			PhisherCatchRate: percentRate(b.phisherCatch, b.phisherTotal),
		}
		if b.rounds > 0 {
			entry.AvgJudgementsPerRound = round2(float64(b.judgements) / float64(b.rounds))
		}
		scenarioStats = append(scenarioStats, entry)
	}

	return AdvancedAnalytics{
		ScenarioStats:  scenarioStats,
		MessageStats:   msgStats,
		JudgementStats: stats,
	}, nil
}
