package models

import "time"

type User struct {
	ID           int       `json:"-"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // "admin" is the only role in practice
	CreatedAt    time.Time `json:"created_at"`
}

// Content is the singleton hero row; its id is always 1 and never exposed.
type Content struct {
	ID           int       `json:"-"`
	HeroHeadline string    `json:"hero_headline"`
	HeroSubtitle string    `json:"hero_subtitle"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Skill struct {
	ID      int64   `json:"id"`
	Label   string  `json:"label"`
	Percent float64 `json:"percent"` // 0-100 inclusive
	Sort    int     `json:"sort"`
}

type Link struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

type Project struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Stack     string    `json:"stack"`
	Links     []Link    `json:"links"`
	Featured  bool      `json:"featured"`
	Sort      int       `json:"sort"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditEntry records who did what to which entity. Append-only.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"` // login, logout, create, update, delete
	Entity    string    `json:"entity"`
	EntityID  *int64    `json:"entity_id"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
