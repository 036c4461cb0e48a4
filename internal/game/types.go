package game

import "time"

// Role is the part a player takes within a single round.
type Role string

const (
	RolePhisher Role = "phisher"
	RoleLeader  Role = "leader"
	RoleCitizen Role = "citizen"
)

// Phase is the lifecycle state of a round.
type Phase string

const (
	PhaseDrafting  Phase = "drafting"
	PhaseJudging   Phase = "judging"
	PhaseRetro     Phase = "retro"
	PhaseCompleted Phase = "completed"
)

// Verdict is a citizen's classification of one message.
type Verdict string

const (
	VerdictTrust   Verdict = "trust"
	VerdictSuspect Verdict = "suspect"
)

// DistributionType selects how a message fans out to the round's participants.
type DistributionType string

const (
	DistBroadcast DistributionType = "broadcast"
	DistGroups    DistributionType = "groups"
	DistDirect    DistributionType = "direct"
)

// Distribution describes the audience of a message. Broadcast ignores both sets;
// groups uses Roles, direct uses PlayerIDs.
type Distribution struct {
	Type      DistributionType `json:"type"`
	Roles     []Role           `json:"roles,omitempty"`
	PlayerIDs []string         `json:"playerIds,omitempty"`
}

// Attachment is a named fake attachment on a message. No binary payload is carried.
type Attachment struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Player is a directory entry keyed by student id, with per-role participation counters.
type Player struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	Name            string     `json:"name"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	RoundsAsPhisher int        `json:"rounds_as_phisher"`
	RoundsAsLeader  int        `json:"rounds_as_leader"`
	RoundsAsCitizen int        `json:"rounds_as_citizen"`
}

// Scenario is a static round backdrop. Read-only after seed.
type Scenario struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Background     string `json:"background"`
	CityLeaderTask string `json:"city_leader_task"`
	PhisherTask    string `json:"phisher_task"`
	RiskHints      string `json:"risk_hints"`
}

// ChallengeCard is a static pressure modifier held in process memory; rounds keep
// only its id.
type ChallengeCard struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Difficulty        string   `json:"difficulty"`
	Summary           string   `json:"summary"`
	Pressure          string   `json:"pressure"`
	PhisherObjectives []string `json:"phisher_objectives"`
	LeaderObjectives  []string `json:"leader_objectives"`
	CitizenHints      []string `json:"citizen_hints"`
}

// EmailTemplate is seeded reference copy players can start a draft from.
type EmailTemplate struct {
	ID          string    `json:"id"`
	ScenarioID  string    `json:"scenario_id"`
	Role        Role      `json:"role"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	ContentHTML string    `json:"content_html"`
	Difficulty  string    `json:"difficulty,omitempty"`
	Keywords    string    `json:"keywords,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Round is the central aggregate. At most one round is non-completed at any time.
type Round struct {
	ID              string     `json:"id"`
	Number          int        `json:"round_number"`
	ScenarioID      string     `json:"scenario_id"`
	Status          Phase      `json:"status"`
	PhisherID       string     `json:"phisher_id"`
	LeaderID        string     `json:"leader_id"`
	ChallengeCardID string     `json:"challenge_card_id,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Participant binds one player to one round with exactly one role.
// Name and StudentID are hydrated from the player row on reads.
type Participant struct {
	ID        string `json:"id"`
	RoundID   string `json:"round_id"`
	PlayerID  string `json:"player_id"`
	Role      Role   `json:"role"`
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
}

// Message is the single slot a phisher or leader fills during drafting.
// At most one exists per (round, role); resubmission replaces content in place.
type Message struct {
	ID           string       `json:"id"`
	RoundID      string       `json:"round_id"`
	AuthorID     string       `json:"author_id"`
	Role         Role         `json:"role"`
	Subject      string       `json:"subject"`
	Body         string       `json:"body"`
	ContentHTML  string       `json:"content_html,omitempty"`
	FromAlias    string       `json:"from_alias,omitempty"`
	ReplyTo      string       `json:"reply_to,omitempty"`
	Distribution Distribution `json:"distribution"`
	Attachments  []Attachment `json:"attachments"`
	CreatedAt    time.Time    `json:"created_at"`

	AuthorName      string `json:"author_name,omitempty"`
	AuthorStudentID string `json:"author_student_id,omitempty"`
}

// Judgement is a citizen's verdict on one message. At most one exists per
// (message, citizen); resubmission updates in place.
type Judgement struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id"`
	MessageID string    `json:"message_id"`
	PlayerID  string    `json:"player_id"`
	Verdict   Verdict   `json:"verdict"`
	Reasoning string    `json:"reasoning,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	PlayerName      string `json:"player_name,omitempty"`
	PlayerStudentID string `json:"player_student_id,omitempty"`
	MessageRole     Role   `json:"message_role,omitempty"`
}

// RoundView is a fully hydrated round: the row plus its scenario, optional
// challenge card, participants, messages and judgements.
type RoundView struct {
	Round
	Scenario      *Scenario      `json:"scenario"`
	ChallengeCard *ChallengeCard `json:"challenge_card,omitempty"`
	Participants  []Participant  `json:"participants"`
	Messages      []Message      `json:"messages"`
	Judgements    []Judgement    `json:"judgements"`
}

// ScoreboardEntry is a player plus the point total derived from the full history.
type ScoreboardEntry struct {
	Player
	Points int `json:"points"`
}

// MailboxEntry is one message as seen by a particular participant, together
// with that participant's own judgement of it, if any.
type MailboxEntry struct {
	Message   Message    `json:"message"`
	Judgement *Judgement `json:"judgement,omitempty"`
}

// ValidPhase reports whether s names one of the four round phases.
func ValidPhase(s Phase) bool {
	switch s {
	case PhaseDrafting, PhaseJudging, PhaseRetro, PhaseCompleted:
		return true
	}
	return false
}

// ValidVerdict reports whether v is trust or suspect.
func ValidVerdict(v Verdict) bool {
	return v == VerdictTrust || v == VerdictSuspect
}
