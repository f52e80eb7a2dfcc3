package main

import (
	"fmt"
	"log"
	"net/http"
	"net/url"

	"folio/auth"
	"folio/config"
	"folio/db"
	"folio/handlers"
	"folio/i18n"

	"github.com/gorilla/csrf"
)

// CORSMiddleware echoes the single configured front-end origin and allows
// credentialed requests from it. With no origin configured the API is
// same-origin only.
func CORSMiddleware(allowedOrigin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigin != "" && origin == allowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-CSRF-Token")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// csrfTokenHeader surfaces the CSRF token to the static admin script, which
// has no template to receive it through.
func csrfTokenHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("X-CSRF-Token", csrf.Token(r))
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	cfg := config.AppConfig

	if err := i18n.Load("i18n"); err != nil {
		log.Fatalf("Error loading translations: %v", err)
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer store.Close()

	if err := store.SeedAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Error seeding admin user: %v", err)
	}

	secure := !cfg.DevMode
	sessions := auth.NewSessions(cfg.SessionKey, secure, store)
	api := handlers.NewAPI(store, sessions)

	mux := http.NewServeMux()

	// Admin page and its script
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	mux.HandleFunc("GET /admin", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "static/admin.html")
	})

	api.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.ListenIP, cfg.ListenPort)
	log.Printf("Server starting on %s (%s)", addr, cfg.AppName)

	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
	}
	if cfg.AllowedOrigin != "" {
		// TrustedOrigins wants host[:port], not a full origin URL
		if u, err := url.Parse(cfg.AllowedOrigin); err == nil && u.Host != "" {
			csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{u.Host}))
		}
	}
	csrfMiddleware := csrf.Protect([]byte(cfg.SessionKey), csrfOpts...)

	handler := CORSMiddleware(cfg.AllowedOrigin, csrfMiddleware(csrfTokenHeader(mux)))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
