package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"infobattle.org/internal/game"
)

const judgementSelect = `
	SELECT j.id, j.round_id, j.message_id, j.player_id, j.verdict, j.reasoning, j.created_at,
		p.name, p.student_id, m.role
	FROM judgements j
	JOIN players p ON p.id = j.player_id
	JOIN messages m ON m.id = j.message_id`

func scanJudgement(row interface{ Scan(...any) error }) (game.Judgement, error) {
	var (
		j         game.Judgement
		reasoning sql.NullString
		created   string
	)
	if err := row.Scan(&j.ID, &j.RoundID, &j.MessageID, &j.PlayerID, &j.Verdict,
		&reasoning, &created, &j.PlayerName, &j.PlayerStudentID, &j.MessageRole); err != nil {
		return game.Judgement{}, err
	}
	j.Reasoning = reasoning.String
	j.CreatedAt = parseTime(created)
	return j, nil
}

func (s *Store) collectJudgements(rows *sql.Rows) ([]game.Judgement, error) {
	defer rows.Close()
	var out []game.Judgement
	for rows.Next() {
		j, err := scanJudgement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) JudgementsByRound(ctx context.Context, roundID string) ([]game.Judgement, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(judgementSelect+" WHERE j.round_id = ? ORDER BY j.created_at ASC"), roundID)
	if err != nil {
		return nil, err
	}
	return s.collectJudgements(rows)
}

func (s *Store) JudgementsByPlayer(ctx context.Context, roundID, playerID string) ([]game.Judgement, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(judgementSelect+" WHERE j.round_id = ? AND j.player_id = ?"), roundID, playerID)
	if err != nil {
		return nil, err
	}
	return s.collectJudgements(rows)
}

func (s *Store) JudgementFor(ctx context.Context, messageID, playerID string) (game.Judgement, error) {
	j, err := scanJudgement(s.db.QueryRowContext(ctx,
		s.q(judgementSelect+" WHERE j.message_id = ? AND j.player_id = ?"), messageID, playerID))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Judgement{}, game.ErrMessageNotFound
	}
	return j, err
}

func (s *Store) InsertJudgement(ctx context.Context, j game.Judgement) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO judgements (id, round_id, message_id, player_id, verdict, reasoning, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		j.ID, j.RoundID, j.MessageID, j.PlayerID, string(j.Verdict),
		nullString(j.Reasoning), formatTime(j.CreatedAt))
	return err
}

func (s *Store) UpdateJudgement(ctx context.Context, j game.Judgement) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE judgements SET verdict = ?, reasoning = ?, created_at = ? WHERE id = ?`),
		string(j.Verdict), nullString(j.Reasoning), formatTime(j.CreatedAt), j.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.ErrMessageNotFound
	}
	return nil
}

func (s *Store) AllJudgements(ctx context.Context) ([]game.Judgement, error) {
	rows, err := s.db.QueryContext(ctx, judgementSelect+" ORDER BY j.created_at ASC")
	if err != nil {
		return nil, err
	}
	return s.collectJudgements(rows)
}
