package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"infobattle.org/internal/game"
)

const playerColumns = `id, student_id, name, created_at, last_login,
	rounds_as_phisher, rounds_as_leader, rounds_as_citizen`

func scanPlayer(row interface{ Scan(...any) error }) (game.Player, error) {
	var (
		p         game.Player
		created   string
		lastLogin sql.NullString
	)
	err := row.Scan(&p.ID, &p.StudentID, &p.Name, &created, &lastLogin,
		&p.RoundsAsPhisher, &p.RoundsAsLeader, &p.RoundsAsCitizen)
	if err != nil {
		return game.Player{}, err
	}
	p.CreatedAt = parseTime(created)
	p.LastLogin = timePtr(lastLogin)
	return p, nil
}

func (s *Store) ListPlayers(ctx context.Context) ([]game.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+playerColumns+" FROM players ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPlayer(ctx context.Context, id string) (game.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx,
		s.q("SELECT "+playerColumns+" FROM players WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Player{}, game.ErrPlayerNotFound
	}
	return p, err
}

func (s *Store) GetPlayerByStudentID(ctx context.Context, studentID string) (game.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx,
		s.q("SELECT "+playerColumns+" FROM players WHERE student_id = ?"), studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Player{}, game.ErrPlayerNotFound
	}
	return p, err
}

func (s *Store) FindPlayerBySuffix(ctx context.Context, suffix string) (game.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx, s.q(
		"SELECT "+playerColumns+" FROM players WHERE student_id LIKE ? ORDER BY created_at DESC LIMIT 1"),
		"%"+suffix))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Player{}, game.ErrPlayerNotFound
	}
	return p, err
}

func (s *Store) InsertPlayer(ctx context.Context, p game.Player) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO players (id, student_id, name, created_at, rounds_as_phisher, rounds_as_leader, rounds_as_citizen)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.StudentID, p.Name, formatTime(p.CreatedAt),
		p.RoundsAsPhisher, p.RoundsAsLeader, p.RoundsAsCitizen)
	return err
}

func (s *Store) TouchLastLogin(ctx context.Context, playerID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		s.q("UPDATE players SET last_login = ? WHERE id = ?"), formatTime(at), playerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.ErrPlayerNotFound
	}
	return nil
}
