package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"folio/auth"
	"folio/db"
	"folio/i18n"
	"folio/models"

	"github.com/dchest/captcha"
)

// API holds the handler dependencies. Everything is injected; there is no
// package-level store or session state.
type API struct {
	store    *db.Store
	sessions *auth.Sessions
	limiter  *rateLimiter
}

func NewAPI(store *db.Store, sessions *auth.Sessions) *API {
	return &API{
		store:    store,
		sessions: sessions,
		limiter:  newRateLimiter(),
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", a.Login)
	mux.HandleFunc("GET /api/me", a.Me)
	mux.HandleFunc("GET /api/public/content", a.PublicContent)
	mux.HandleFunc("GET /api/captcha", a.NewCaptcha)
	mux.Handle("GET /captcha/", captcha.Server(captcha.StdWidth, captcha.StdHeight))

	mux.Handle("POST /api/logout", a.requireAuth(a.Logout))
	mux.Handle("GET /api/admin/content", a.requireAuth(a.GetContent))
	mux.Handle("PUT /api/admin/content", a.requireAuth(a.UpdateContent))
	mux.Handle("GET /api/admin/skills", a.requireAuth(a.ListSkills))
	mux.Handle("POST /api/admin/skills", a.requireAuth(a.CreateSkill))
	mux.Handle("PUT /api/admin/skills/{id}", a.requireAuth(a.UpdateSkill))
	mux.Handle("DELETE /api/admin/skills/{id}", a.requireAuth(a.DeleteSkill))
	mux.Handle("GET /api/admin/projects", a.requireAuth(a.ListProjects))
	mux.Handle("POST /api/admin/projects", a.requireAuth(a.CreateProject))
	mux.Handle("PUT /api/admin/projects/{id}", a.requireAuth(a.UpdateProject))
	mux.Handle("DELETE /api/admin/projects/{id}", a.requireAuth(a.DeleteProject))
	mux.Handle("GET /api/admin/audit", a.requireAuth(a.ListAudit))
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, r *http.Request, status int, key string) {
	lang := i18n.DetectLanguage(r)
	sendJSON(w, status, map[string]string{"error": i18n.T(lang, key)})
}

// requireAuth rejects the request before any handler logic runs when there is
// no valid session.
func (a *API) requireAuth(next func(http.ResponseWriter, *http.Request, *auth.SessionUser)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := a.sessions.Current(r)
		if user == nil {
			sendError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, user)
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if !a.limiter.Allow(ip) {
		sendError(w, r, http.StatusTooManyRequests, "TooManyAttempts")
		return
	}

	var input struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		CaptchaID       string `json:"captcha_id"`
		CaptchaSolution string `json:"captcha_solution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	// After repeated failures a solved captcha is required on top of the
	// credentials.
	if a.limiter.NeedsCaptcha(ip) {
		if input.CaptchaID == "" || !captcha.VerifyString(input.CaptchaID, input.CaptchaSolution) {
			lang := i18n.DetectLanguage(r)
			sendJSON(w, http.StatusUnauthorized, map[string]any{
				"error":            i18n.T(lang, "CaptchaRequired"),
				"captcha_required": true,
			})
			return
		}
	}

	user, err := a.store.GetUserByUsername(input.Username)
	if err != nil {
		log.Printf("Error looking up user: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}

	// Timing attack mitigation: always check a password
	targetHash := db.DummyHash
	if user != nil {
		targetHash = user.PasswordHash
	}
	match := db.CheckPasswordHash(input.Password, targetHash)

	// Unknown user and wrong password are indistinguishable to the caller.
	if user == nil || !match {
		a.limiter.RecordFailure(ip)
		sendError(w, r, http.StatusUnauthorized, "InvalidCredentials")
		return
	}

	a.limiter.Reset(ip)

	if err := a.sessions.Establish(w, r, user.Username, user.Role); err != nil {
		log.Printf("Error establishing session: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	if err := a.store.RecordAuth(user.Username, "login"); err != nil {
		log.Printf("Error auditing login: %v", err)
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": auth.SessionUser{Username: user.Username, Role: user.Role},
	})
}

func (a *API) Logout(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	if err := a.store.RecordAuth(user.Username, "logout"); err != nil {
		log.Printf("Error auditing logout: %v", err)
	}
	a.sessions.Destroy(w, r)
	sendJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	// Never errors; an anonymous caller gets a null user.
	sendJSON(w, http.StatusOK, map[string]any{"user": a.sessions.Current(r)})
}

func (a *API) NewCaptcha(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"id": captcha.New()})
}

func (a *API) PublicContent(w http.ResponseWriter, r *http.Request) {
	content, err := a.store.GetContent()
	if err != nil {
		log.Printf("Error loading content: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	skills, err := a.store.ListSkills()
	if err != nil {
		log.Printf("Error listing skills: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	projects, err := a.store.ListProjects()
	if err != nil {
		log.Printf("Error listing projects: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"content":  content,
		"skills":   skills,
		"projects": projects,
	})
}

func (a *API) GetContent(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	content, err := a.store.GetContent()
	if err != nil {
		log.Printf("Error loading content: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, content)
}

func (a *API) UpdateContent(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	var input struct {
		HeroHeadline string `json:"hero_headline"`
		HeroSubtitle string `json:"hero_subtitle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	headline := strings.TrimSpace(input.HeroHeadline)
	subtitle := strings.TrimSpace(input.HeroSubtitle)
	if headline == "" {
		sendError(w, r, http.StatusBadRequest, "HeadlineRequired")
		return
	}
	if subtitle == "" {
		sendError(w, r, http.StatusBadRequest, "SubtitleRequired")
		return
	}

	if err := a.store.UpdateContent(headline, subtitle, user.Username); err != nil {
		log.Printf("Error updating content: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type skillInput struct {
	Label   string   `json:"label"`
	Percent *float64 `json:"percent"`
	Sort    int      `json:"sort"`
}

// validate trims the label and checks the percent range. Returns the i18n key
// of the violated rule, or "".
func (in *skillInput) validate() string {
	in.Label = strings.TrimSpace(in.Label)
	if in.Label == "" {
		return "LabelRequired"
	}
	if in.Percent == nil || *in.Percent < 0 || *in.Percent > 100 {
		return "PercentRange"
	}
	return ""
}

func (a *API) ListSkills(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	skills, err := a.store.ListSkills()
	if err != nil {
		log.Printf("Error listing skills: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"skills": skills})
}

func (a *API) CreateSkill(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	var input skillInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if key := input.validate(); key != "" {
		sendError(w, r, http.StatusBadRequest, key)
		return
	}

	id, err := a.store.CreateSkill(models.Skill{Label: input.Label, Percent: *input.Percent, Sort: input.Sort}, user.Username)
	if err != nil {
		log.Printf("Error creating skill: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (a *API) UpdateSkill(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	id, ok := pathID(r)
	if !ok {
		sendError(w, r, http.StatusBadRequest, "InvalidID")
		return
	}
	var input skillInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if key := input.validate(); key != "" {
		sendError(w, r, http.StatusBadRequest, key)
		return
	}

	err := a.store.UpdateSkill(models.Skill{ID: id, Label: input.Label, Percent: *input.Percent, Sort: input.Sort}, user.Username)
	if err != nil {
		log.Printf("Error updating skill: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) DeleteSkill(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	id, ok := pathID(r)
	if !ok {
		sendError(w, r, http.StatusBadRequest, "InvalidID")
		return
	}
	if err := a.store.DeleteSkill(id, user.Username); err != nil {
		log.Printf("Error deleting skill: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type projectInput struct {
	Title    string          `json:"title"`
	Summary  string          `json:"summary"`
	Stack    string          `json:"stack"`
	Links    json.RawMessage `json:"links"`
	Featured bool            `json:"featured"`
	Sort     int             `json:"sort"`
}

func (in *projectInput) validate() string {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	if in.Title == "" {
		return "TitleRequired"
	}
	if in.Summary == "" {
		return "SummaryRequired"
	}
	return ""
}

func (in *projectInput) toModel() models.Project {
	// Anything that is not a list of links degrades to an empty list.
	var links []models.Link
	if err := json.Unmarshal(in.Links, &links); err != nil || links == nil {
		links = []models.Link{}
	}
	return models.Project{
		Title:    in.Title,
		Summary:  in.Summary,
		Stack:    in.Stack,
		Links:    links,
		Featured: in.Featured,
		Sort:     in.Sort,
	}
}

func (a *API) ListProjects(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	projects, err := a.store.ListProjects()
	if err != nil {
		log.Printf("Error listing projects: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (a *API) CreateProject(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	var input projectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if key := input.validate(); key != "" {
		sendError(w, r, http.StatusBadRequest, key)
		return
	}

	id, err := a.store.CreateProject(input.toModel(), user.Username)
	if err != nil {
		log.Printf("Error creating project: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (a *API) UpdateProject(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	id, ok := pathID(r)
	if !ok {
		sendError(w, r, http.StatusBadRequest, "InvalidID")
		return
	}
	var input projectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if key := input.validate(); key != "" {
		sendError(w, r, http.StatusBadRequest, key)
		return
	}

	project := input.toModel()
	project.ID = id
	if err := a.store.UpdateProject(project, user.Username); err != nil {
		log.Printf("Error updating project: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) DeleteProject(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	id, ok := pathID(r)
	if !ok {
		sendError(w, r, http.StatusBadRequest, "InvalidID")
		return
	}
	if err := a.store.DeleteProject(id, user.Username); err != nil {
		log.Printf("Error deleting project: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) ListAudit(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) {
	entries, err := a.store.ListAudit(100)
	if err != nil {
		log.Printf("Error listing audit log: %v", err)
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
