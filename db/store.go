package db

import (
	"database/sql"
	"encoding/json"
	"errors"

	"folio/models"
)

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow("SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?", username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetContent() (models.Content, error) {
	var c models.Content
	err := s.db.QueryRow("SELECT id, hero_headline, hero_subtitle, updated_at FROM content WHERE id = 1").
		Scan(&c.ID, &c.HeroHeadline, &c.HeroSubtitle, &c.UpdatedAt)
	return c, err
}

// UpdateContent replaces both hero fields and appends the audit entry in the
// same transaction, so a crash cannot separate the change from its record.
func (s *Store) UpdateContent(headline, subtitle, actor string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec("UPDATE content SET hero_headline = ?, hero_subtitle = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1",
		headline, subtitle)
	if err != nil {
		return err
	}
	if err := appendAudit(tx, actor, "update", "content", nil, map[string]any{"hero_headline": headline}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListSkills() ([]models.Skill, error) {
	rows, err := s.db.Query("SELECT id, label, percent, sort FROM skills ORDER BY sort ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := []models.Skill{}
	for rows.Next() {
		var sk models.Skill
		if err := rows.Scan(&sk.ID, &sk.Label, &sk.Percent, &sk.Sort); err != nil {
			return nil, err
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

func (s *Store) CreateSkill(sk models.Skill, actor string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec("INSERT INTO skills (label, percent, sort) VALUES (?, ?, ?)",
		sk.Label, sk.Percent, sk.Sort)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := appendAudit(tx, actor, "create", "skill", &id, map[string]any{"label": sk.Label, "percent": sk.Percent}); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// UpdateSkill replaces all three fields by id. An unknown id is a silent
// no-op; the audit entry is written regardless.
func (s *Store) UpdateSkill(sk models.Skill, actor string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec("UPDATE skills SET label = ?, percent = ?, sort = ? WHERE id = ?",
		sk.Label, sk.Percent, sk.Sort, sk.ID)
	if err != nil {
		return err
	}
	if err := appendAudit(tx, actor, "update", "skill", &sk.ID, map[string]any{"label": sk.Label, "percent": sk.Percent}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeleteSkill(id int64, actor string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM skills WHERE id = ?", id); err != nil {
		return err
	}
	if err := appendAudit(tx, actor, "delete", "skill", &id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListProjects() ([]models.Project, error) {
	rows, err := s.db.Query(`SELECT id, title, summary, stack, links, featured, sort, created_at, updated_at
		FROM projects ORDER BY featured DESC, sort ASC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		var links string
		if err := rows.Scan(&p.ID, &p.Title, &p.Summary, &p.Stack, &links, &p.Featured, &p.Sort, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Links = decodeLinks(links)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) CreateProject(p models.Project, actor string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec("INSERT INTO projects (title, summary, stack, links, featured, sort) VALUES (?, ?, ?, ?, ?, ?)",
		p.Title, p.Summary, p.Stack, encodeLinks(p.Links), boolToInt(p.Featured), p.Sort)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := appendAudit(tx, actor, "create", "project", &id, map[string]any{"title": p.Title}); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func (s *Store) UpdateProject(p models.Project, actor string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE projects SET title = ?, summary = ?, stack = ?, links = ?, featured = ?, sort = ?,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.Title, p.Summary, p.Stack, encodeLinks(p.Links), boolToInt(p.Featured), p.Sort, p.ID)
	if err != nil {
		return err
	}
	if err := appendAudit(tx, actor, "update", "project", &p.ID, map[string]any{"title": p.Title}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeleteProject(id int64, actor string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM projects WHERE id = ?", id); err != nil {
		return err
	}
	if err := appendAudit(tx, actor, "delete", "project", &id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordAuth audits login/logout, which mutate no entity rows and so need no
// surrounding transaction.
func (s *Store) RecordAuth(actor, action string) error {
	_, err := s.db.Exec("INSERT INTO audit_log (actor, action, entity) VALUES (?, ?, 'session')", actor, action)
	return err
}

func (s *Store) ListAudit(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT id, actor, action, entity, entity_id, metadata, created_at
		FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountAudit reports rows matching action and entity. Test support.
func (s *Store) CountAudit(action, entity string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE action = ? AND entity = ?", action, entity).Scan(&n)
	return n, err
}

func (s *Store) CreateSession(token, username, role string) error {
	_, err := s.db.Exec("INSERT INTO sessions (token, username, role) VALUES (?, ?, ?)", token, username, role)
	return err
}

func (s *Store) GetSession(token string) (username, role string, ok bool) {
	err := s.db.QueryRow("SELECT username, role FROM sessions WHERE token = ?", token).Scan(&username, &role)
	if err != nil {
		return "", "", false
	}
	return username, role, true
}

func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

func appendAudit(tx *sql.Tx, actor, action, entity string, entityID *int64, metadata map[string]any) error {
	meta := "{}"
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		meta = string(b)
	}
	_, err := tx.Exec("INSERT INTO audit_log (actor, action, entity, entity_id, metadata) VALUES (?, ?, ?, ?, ?)",
		actor, action, entity, entityID, meta)
	return err
}

func encodeLinks(links []models.Link) string {
	if links == nil {
		links = []models.Link{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeLinks never fails: malformed stored text degrades to an empty list.
func decodeLinks(raw string) []models.Link {
	var links []models.Link
	if err := json.Unmarshal([]byte(raw), &links); err != nil || links == nil {
		return []models.Link{}
	}
	return links
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
