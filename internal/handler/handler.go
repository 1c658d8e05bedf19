package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/trainer/internal/content"
	appI18n "github.com/pavelanni/trainer/internal/i18n"
	"github.com/pavelanni/trainer/internal/model"
	"github.com/pavelanni/trainer/internal/progress"
	"github.com/pavelanni/trainer/internal/session"
)

const sessionCookieName = "session"

// LLM is the model client surface the handlers need. Satisfied by
// *llm.Client; tests substitute a stub.
type LLM interface {
	GenerateQuestions(ctx context.Context, text string, n int) ([]model.QuizItem, string, error)
	Advise(ctx context.Context, docText, question string) (string, error)
}

// Extractor pulls per-page text out of a training document. Satisfied by
// content.PDFExtractor; tests substitute a stub so they need no real PDFs.
type Extractor interface {
	Pages(path string) ([]content.PageText, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	sessions *session.Manager
	llm      LLM
	extract  Extractor
	recorder *progress.Recorder
	config   model.Config
}

// New creates a new Handler.
func New(sessions *session.Manager, l LLM, ex Extractor, rec *progress.Recorder, cfg model.Config) (*Handler, error) {
	if cfg.QuestionsPerSession <= 0 {
		return nil, fmt.Errorf("questions per session must be positive, got %d", cfg.QuestionsPerSession)
	}
	if cfg.PassingScore > cfg.QuestionsPerSession {
		return nil, fmt.Errorf("passing score %d exceeds questions per session %d",
			cfg.PassingScore, cfg.QuestionsPerSession)
	}
	return &Handler{sessions: sessions, llm: l, extract: ex, recorder: rec, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Get("/modules", h.handleListModules)
		r.Post("/modules/select", h.handleSelectModule)
		r.Get("/modules/material", h.handleMaterial)
		r.Get("/modules/video", h.handleVideo)
		r.Get("/modules/trophy", h.handleTrophy)

		r.Post("/quiz/start", h.handleStartQuiz)
		r.Get("/quiz", h.handleQuizState)
		r.Post("/quiz/answer", h.handleAnswer)
		r.Post("/quiz/next", h.handleNext)
		r.Post("/quiz/retry", h.handleRetry)
		r.Post("/quiz/continue", h.handleContinue)

		r.Get("/chat", h.handleTranscript)
		r.Post("/chat", h.handleChat)
		r.Post("/chat/summary", h.handleSummary)
	})
}

// requireSession resolves the session cookie into a session state and puts
// it on the request context.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "session required")
			return
		}
		st, ok := h.sessions.Get(cookie.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), st)))
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "NameRequired"))
		return
	}

	modules, err := h.listModules()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, st := h.sessions.Create(name, h.config.PassingScore)
	if len(modules) > 0 {
		st.Module = modules[0].Name
	}
	h.setSessionCookie(w, token)

	writeJSON(w, http.StatusCreated, struct {
		SessionID string       `json:"session_id"`
		User      string       `json:"user"`
		Module    string       `json:"module"`
		Modules   []moduleView `json:"modules"`
	}{st.ID, st.UserName, st.Module, moduleViews(modules)})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	path := h.config.BasePath
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     path,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// moduleView is the client-facing shape of a module. Asset paths stay on
// the server; the client fetches assets via the module endpoints.
type moduleView struct {
	Name      string `json:"name"`
	HasVideo  bool   `json:"has_video"`
	HasTrophy bool   `json:"has_trophy"`
}

func moduleViews(modules []model.Module) []moduleView {
	views := make([]moduleView, 0, len(modules))
	for _, m := range modules {
		views = append(views, moduleView{Name: m.Name, HasVideo: m.HasVideo(), HasTrophy: m.HasTrophy()})
	}
	return views
}

func (h *Handler) listModules() ([]model.Module, error) {
	return content.ListModules(h.config.TrainingDir)
}

func (h *Handler) handleListModules(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	modules, err := h.listModules()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	st.Lock()
	active := st.Module
	st.Unlock()

	writeJSON(w, http.StatusOK, struct {
		Active  string       `json:"active"`
		Modules []moduleView `json:"modules"`
	}{active, moduleViews(modules)})
}

// handleSelectModule switches the session to another module. Quiz state,
// chat transcript and the cached document text all belong to the previous
// module and are dropped.
func (h *Handler) handleSelectModule(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	var req struct {
		Module string `json:"module"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	modules, err := h.listModules()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, ok := content.FindModule(modules, req.Module); !ok {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "NoTrainingMaterial"))
		return
	}

	st.Lock()
	st.Module = req.Module
	st.Quiz.Reset()
	st.ResetChat()
	st.ClearDocText()
	st.Unlock()

	writeJSON(w, http.StatusOK, struct {
		Module string `json:"module"`
	}{req.Module})
}

func (h *Handler) handleMaterial(w http.ResponseWriter, r *http.Request) {
	h.serveModuleAsset(w, r, func(m model.Module) string { return m.DocumentPath })
}

func (h *Handler) handleVideo(w http.ResponseWriter, r *http.Request) {
	h.serveModuleAsset(w, r, func(m model.Module) string { return m.VideoPath })
}

func (h *Handler) handleTrophy(w http.ResponseWriter, r *http.Request) {
	h.serveModuleAsset(w, r, func(m model.Module) string { return m.TrophyPath })
}

func (h *Handler) serveModuleAsset(w http.ResponseWriter, r *http.Request, pathOf func(model.Module) string) {
	st := session.FromContext(r.Context())
	st.Lock()
	name := st.Module
	st.Unlock()

	mod, ok := h.findModule(name)
	if !ok {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "NoTrainingMaterial"))
		return
	}
	path := pathOf(mod)
	if path == "" {
		writeError(w, http.StatusNotFound, "module has no such asset")
		return
	}
	http.ServeFile(w, r, path)
}

func (h *Handler) findModule(name string) (model.Module, bool) {
	modules, err := h.listModules()
	if err != nil {
		return model.Module{}, false
	}
	return content.FindModule(modules, name)
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{msg})
}
