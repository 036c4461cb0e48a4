package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"infobattle.org/internal/game"
)

// recipientDescriptor is the stored JSON shape of a distribution descriptor.
type recipientDescriptor struct {
	Roles     []game.Role `json:"roles"`
	PlayerIDs []string    `json:"playerIds"`
}

// parseDistribution degrades malformed stored JSON to an empty descriptor
// instead of failing the read.
func parseDistribution(distType string, raw sql.NullString) game.Distribution {
	d := game.Distribution{Type: game.DistributionType(distType)}
	if d.Type == "" {
		d.Type = game.DistBroadcast
	}
	if !raw.Valid || raw.String == "" {
		return d
	}
	var desc recipientDescriptor
	if err := json.Unmarshal([]byte(raw.String), &desc); err != nil {
		return d
	}
	d.Roles = desc.Roles
	d.PlayerIDs = desc.PlayerIDs
	return d
}

func encodeDistribution(d game.Distribution) any {
	if d.Type == game.DistBroadcast || d.Type == "" {
		return nil
	}
	if len(d.Roles) == 0 && len(d.PlayerIDs) == 0 {
		return nil
	}
	desc := recipientDescriptor{Roles: d.Roles, PlayerIDs: d.PlayerIDs}
	if desc.Roles == nil {
		desc.Roles = []game.Role{}
	}
	if desc.PlayerIDs == nil {
		desc.PlayerIDs = []string{}
	}
	raw, err := json.Marshal(desc)
	if err != nil {
		return nil
	}
	return string(raw)
}

func parseAttachments(raw sql.NullString) []game.Attachment {
	if !raw.Valid || raw.String == "" {
		return []game.Attachment{}
	}
	var out []game.Attachment
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil || out == nil {
		return []game.Attachment{}
	}
	return out
}

func encodeAttachments(items []game.Attachment) any {
	if len(items) == 0 {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return string(raw)
}

const messageSelect = `
	SELECT m.id, m.round_id, m.author_id, m.role, m.subject, m.body,
		m.content_html, m.from_alias, m.reply_to,
		m.distribution_type, m.recipient_ids, m.attachments, m.created_at,
		p.name, p.student_id
	FROM messages m
	JOIN players p ON p.id = m.author_id`

func scanMessage(row interface{ Scan(...any) error }) (game.Message, error) {
	var (
		m                             game.Message
		contentHTML, fromAlias        sql.NullString
		replyTo, recipients, attached sql.NullString
		distType                      string
		created                       string
	)
	if err := row.Scan(&m.ID, &m.RoundID, &m.AuthorID, &m.Role, &m.Subject, &m.Body,
		&contentHTML, &fromAlias, &replyTo,
		&distType, &recipients, &attached, &created,
		&m.AuthorName, &m.AuthorStudentID); err != nil {
		return game.Message{}, err
	}
	m.ContentHTML = contentHTML.String
	m.FromAlias = fromAlias.String
	m.ReplyTo = replyTo.String
	m.Distribution = parseDistribution(distType, recipients)
	m.Attachments = parseAttachments(attached)
	m.CreatedAt = parseTime(created)
	return m, nil
}

func (s *Store) collectMessages(rows *sql.Rows) ([]game.Message, error) {
	defer rows.Close()
	var out []game.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MessagesByRound(ctx context.Context, roundID string) ([]game.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(messageSelect+" WHERE m.round_id = ? ORDER BY m.created_at ASC"), roundID)
	if err != nil {
		return nil, err
	}
	return s.collectMessages(rows)
}

func (s *Store) MessageByRole(ctx context.Context, roundID string, role game.Role) (game.Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx,
		s.q(messageSelect+" WHERE m.round_id = ? AND m.role = ?"), roundID, string(role)))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Message{}, game.ErrMessageNotFound
	}
	return m, err
}

func (s *Store) GetMessage(ctx context.Context, id string) (game.Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx,
		s.q(messageSelect+" WHERE m.id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Message{}, game.ErrMessageNotFound
	}
	return m, err
}

func (s *Store) InsertMessage(ctx context.Context, m game.Message) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO messages (id, round_id, author_id, role, subject, body, content_html,
			from_alias, reply_to, distribution_type, recipient_ids, attachments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.RoundID, m.AuthorID, string(m.Role), m.Subject, m.Body,
		nullString(m.ContentHTML), nullString(m.FromAlias), nullString(m.ReplyTo),
		string(m.Distribution.Type), encodeDistribution(m.Distribution),
		encodeAttachments(m.Attachments), formatTime(m.CreatedAt))
	return err
}

func (s *Store) UpdateMessage(ctx context.Context, m game.Message) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE messages SET subject = ?, body = ?, content_html = ?, from_alias = ?,
			reply_to = ?, distribution_type = ?, recipient_ids = ?, attachments = ?, created_at = ?
		WHERE id = ?`),
		m.Subject, m.Body, nullString(m.ContentHTML), nullString(m.FromAlias),
		nullString(m.ReplyTo), string(m.Distribution.Type), encodeDistribution(m.Distribution),
		encodeAttachments(m.Attachments), formatTime(m.CreatedAt), m.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.ErrMessageNotFound
	}
	return nil
}

func (s *Store) AllMessages(ctx context.Context) ([]game.Message, error) {
	rows, err := s.db.QueryContext(ctx, messageSelect+" ORDER BY m.created_at ASC")
	if err != nil {
		return nil, err
	}
	return s.collectMessages(rows)
}
