package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"infobattle.org/internal/game"
)

const roundColumns = `id, round_number, scenario_id, status, phisher_id, leader_id,
	challenge_card_id, started_at, finished_at`

func scanRound(row interface{ Scan(...any) error }) (game.Round, error) {
	var (
		r                     game.Round
		phisher, leader, card sql.NullString
		started               string
		finished              sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Number, &r.ScenarioID, &r.Status,
		&phisher, &leader, &card, &started, &finished); err != nil {
		return game.Round{}, err
	}
	r.PhisherID = phisher.String
	r.LeaderID = leader.String
	r.ChallengeCardID = card.String
	r.StartedAt = parseTime(started)
	r.FinishedAt = timePtr(finished)
	return r, nil
}

func (s *Store) LatestRound(ctx context.Context) (game.Round, error) {
	r, err := scanRound(s.db.QueryRowContext(ctx,
		"SELECT "+roundColumns+" FROM rounds ORDER BY round_number DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Round{}, game.ErrRoundNotFound
	}
	return r, err
}

func (s *Store) GetRound(ctx context.Context, id string) (game.Round, error) {
	r, err := scanRound(s.db.QueryRowContext(ctx,
		s.q("SELECT "+roundColumns+" FROM rounds WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Round{}, game.ErrRoundNotFound
	}
	return r, err
}

func (s *Store) ListRounds(ctx context.Context, limit int) ([]game.Round, error) {
	query := "SELECT " + roundColumns + " FROM rounds ORDER BY round_number DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ScenarioUsage(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT scenario_id, COUNT(*) FROM rounds GROUP BY scenario_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		usage[id] = n
	}
	return usage, rows.Err()
}

func (s *Store) CreateRound(ctx context.Context, r game.Round, participants []game.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO rounds (id, round_number, scenario_id, status, phisher_id, leader_id, challenge_card_id, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.Number, r.ScenarioID, string(r.Status),
		nullString(r.PhisherID), nullString(r.LeaderID), nullString(r.ChallengeCardID),
		formatTime(r.StartedAt)); err != nil {
		return err
	}

	for _, p := range participants {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO round_participants (id, round_id, player_id, role)
			VALUES (?, ?, ?, ?)`),
			p.ID, p.RoundID, p.PlayerID, string(p.Role)); err != nil {
			return err
		}
		var column string
		switch p.Role {
		case game.RolePhisher:
			column = "rounds_as_phisher"
		case game.RoleLeader:
			column = "rounds_as_leader"
		default:
			column = "rounds_as_citizen"
		}
		if _, err := tx.ExecContext(ctx,
			s.q(fmt.Sprintf("UPDATE players SET %s = %s + 1 WHERE id = ?", column, column)),
			p.PlayerID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) SetRoundStatus(ctx context.Context, id string, status game.Phase, finishedAt *time.Time) error {
	var res sql.Result
	var err error
	if finishedAt != nil {
		res, err = s.db.ExecContext(ctx,
			s.q("UPDATE rounds SET status = ?, finished_at = ? WHERE id = ?"),
			string(status), formatTime(*finishedAt), id)
	} else {
		res, err = s.db.ExecContext(ctx,
			s.q("UPDATE rounds SET status = ? WHERE id = ?"), string(status), id)
	}
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.ErrRoundNotFound
	}
	return nil
}

func (s *Store) ParticipantsByRound(ctx context.Context, roundID string) ([]game.Participant, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT rp.id, rp.round_id, rp.player_id, rp.role, p.name, p.student_id
		FROM round_participants rp
		JOIN players p ON p.id = rp.player_id
		WHERE rp.round_id = ?
		ORDER BY CASE rp.role WHEN 'phisher' THEN 0 WHEN 'leader' THEN 1 ELSE 2 END, p.created_at ASC`),
		roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Participant
	for rows.Next() {
		var p game.Participant
		if err := rows.Scan(&p.ID, &p.RoundID, &p.PlayerID, &p.Role, &p.Name, &p.StudentID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ParticipantOf(ctx context.Context, roundID, playerID string) (game.Participant, error) {
	var p game.Participant
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT rp.id, rp.round_id, rp.player_id, rp.role, p.name, p.student_id
		FROM round_participants rp
		JOIN players p ON p.id = rp.player_id
		WHERE rp.round_id = ? AND rp.player_id = ?`),
		roundID, playerID).
		Scan(&p.ID, &p.RoundID, &p.PlayerID, &p.Role, &p.Name, &p.StudentID)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Participant{}, game.ErrPlayerNotFound
	}
	return p, err
}

func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, table := range []string{"judgements", "messages", "round_participants", "rounds", "players"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}
