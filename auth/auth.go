package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"

	"folio/db"

	"github.com/gorilla/sessions"
)

const SessionName = "folio-session"

// SessionUser is the payload held server-side for an authenticated session.
type SessionUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Sessions pairs the cookie codec with the server-side session rows. The
// cookie only carries an opaque token; logout deletes the row, so a replayed
// cookie is worthless afterwards.
type Sessions struct {
	cookies *sessions.CookieStore
	store   *db.Store
}

func NewSessions(secret string, secure bool, store *db.Store) *Sessions {
	// Derive two 32-byte keys from the session key
	// Auth key for signing (HMAC)
	authKey := sha256.Sum256([]byte(secret + "auth"))
	// Encryption key for content encryption (AES)
	encKey := sha256.Sum256([]byte(secret + "encryption"))

	cookies := sessions.NewCookieStore(authKey[:], encKey[:])
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Sessions{cookies: cookies, store: store}
}

// Establish creates the server-side session and sets the cookie.
func (s *Sessions) Establish(w http.ResponseWriter, r *http.Request, username, role string) error {
	token := generateRandomToken(32)
	if err := s.store.CreateSession(token, username, role); err != nil {
		return err
	}

	session, _ := s.cookies.Get(r, SessionName)
	session.Values["token"] = token
	return session.Save(r, w)
}

// Current resolves the request's session, or nil when there is none.
func (s *Sessions) Current(r *http.Request) *SessionUser {
	session, _ := s.cookies.Get(r, SessionName)
	token, ok := session.Values["token"].(string)
	if !ok || token == "" {
		return nil
	}
	username, role, ok := s.store.GetSession(token)
	if !ok {
		return nil
	}
	return &SessionUser{Username: username, Role: role}
}

// Destroy removes the server-side session and expires the cookie.
func (s *Sessions) Destroy(w http.ResponseWriter, r *http.Request) {
	session, _ := s.cookies.Get(r, SessionName)
	if token, ok := session.Values["token"].(string); ok {
		s.store.DeleteSession(token)
	}
	session.Options.MaxAge = -1
	session.Save(r, w)
}

func generateRandomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// If we can't generate random numbers, the system is in a critical state.
		// Panic is appropriate here as we cannot securely continue.
		panic(fmt.Sprintf("critical security error: failed to generate random token: %v", err))
	}
	return base64.URLEncoding.EncodeToString(b)
}
