package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"infobattle.org/internal/game"
)

func (s *Store) ListScenarios(ctx context.Context) ([]game.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, background, city_leader_task, phisher_task, risk_hints
		FROM scenarios ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Scenario
	for rows.Next() {
		var sc game.Scenario
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Background,
			&sc.CityLeaderTask, &sc.PhisherTask, &sc.RiskHints); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) GetScenario(ctx context.Context, id string) (game.Scenario, error) {
	var sc game.Scenario
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, name, background, city_leader_task, phisher_task, risk_hints
		FROM scenarios WHERE id = ?`), id).
		Scan(&sc.ID, &sc.Name, &sc.Background, &sc.CityLeaderTask, &sc.PhisherTask, &sc.RiskHints)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Scenario{}, game.ErrScenarioNotFound
	}
	return sc, err
}

func (s *Store) SeedScenarios(ctx context.Context, items []game.Scenario) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scenarios").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, sc := range items {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO scenarios (id, name, background, city_leader_task, phisher_task, risk_hints)
			VALUES (?, ?, ?, ?, ?, ?)`),
			sc.ID, sc.Name, sc.Background, sc.CityLeaderTask, sc.PhisherTask, sc.RiskHints); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListTemplates(ctx context.Context, scenarioID string, role game.Role) ([]game.EmailTemplate, error) {
	query := `SELECT id, scenario_id, role, title, subject, content_html, difficulty, keywords, created_at
		FROM email_templates WHERE 1=1`
	var args []any
	if scenarioID != "" {
		query += " AND scenario_id = ?"
		args = append(args, scenarioID)
	}
	if role != "" {
		query += " AND role = ?"
		args = append(args, string(role))
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.EmailTemplate
	for rows.Next() {
		var (
			t                    game.EmailTemplate
			difficulty, keywords sql.NullString
			created              string
		)
		if err := rows.Scan(&t.ID, &t.ScenarioID, &t.Role, &t.Title, &t.Subject,
			&t.ContentHTML, &difficulty, &keywords, &created); err != nil {
			return nil, err
		}
		t.Difficulty = difficulty.String
		t.Keywords = keywords.String
		t.CreatedAt = parseTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SeedTemplates(ctx context.Context, items []game.EmailTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	now := formatTime(time.Now().UTC())
	for _, t := range items {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO email_templates (id, scenario_id, role, title, subject, content_html, difficulty, keywords, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				scenario_id = excluded.scenario_id,
				role = excluded.role,
				title = excluded.title,
				subject = excluded.subject,
				content_html = excluded.content_html,
				difficulty = excluded.difficulty,
				keywords = excluded.keywords`),
			t.ID, t.ScenarioID, string(t.Role), t.Title, t.Subject, t.ContentHTML,
			nullString(t.Difficulty), nullString(t.Keywords), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}
