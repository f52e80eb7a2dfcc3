package db

import (
	"database/sql"
	"log"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is fixed at setup; changing it only affects newly hashed passwords.
const BcryptCost = 12

// DummyHash is compared against when a login names an unknown user, so that
// both outcomes cost one bcrypt verification.
var DummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("folio-dummy-password"), BcryptCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// Store wraps the sqlite handle. Handlers receive it explicitly rather than
// through a package global.
type Store struct {
	db *sql.DB
}

func Open(dataSourceName string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	createTables := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT DEFAULT 'admin',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS content (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		hero_headline TEXT NOT NULL,
		hero_subtitle TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS skills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		percent REAL NOT NULL CHECK (percent >= 0 AND percent <= 100),
		sort INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		stack TEXT NOT NULL DEFAULT '',
		links TEXT NOT NULL DEFAULT '[]',
		featured INTEGER NOT NULL DEFAULT 0,
		sort INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id INTEGER,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := conn.Exec(createTables); err != nil {
		conn.Close()
		return nil, err
	}

	// The content singleton must exist from first boot onward.
	_, err = conn.Exec(`INSERT OR IGNORE INTO content (id, hero_headline, hero_subtitle)
		VALUES (1, 'Hello, I build things.', 'Welcome to my portfolio.')`)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SeedAdmin inserts the admin user on first boot. Without a configured
// password there is nothing to hash, so it warns and leaves login impossible
// until one is supplied.
func (s *Store) SeedAdmin(username, password string) error {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		log.Printf("WARNING: no admin password configured; user %q not seeded, admin login disabled", username)
		return nil
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("INSERT INTO users (username, password_hash, role) VALUES (?, ?, 'admin')",
		username, hashedPassword)
	if err != nil {
		return err
	}
	log.Printf("Seeded admin user %q", username)
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
