package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pavelanni/trainer/internal/content"
	appI18n "github.com/pavelanni/trainer/internal/i18n"
	"github.com/pavelanni/trainer/internal/llm"
	"github.com/pavelanni/trainer/internal/model"
	"github.com/pavelanni/trainer/internal/quiz"
	"github.com/pavelanni/trainer/internal/session"
)

type questionView struct {
	Question string             `json:"question"`
	Type     model.QuestionType `json:"type"`
	Options  []string           `json:"options"`
	Page     *int               `json:"page,omitempty"`
}

type feedbackView struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

type missedView struct {
	Number        int    `json:"number"`
	Question      string `json:"question"`
	YourAnswer    string `json:"your_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

type completionView struct {
	Score   int          `json:"score"`
	Total   int          `json:"total"`
	Passed  bool         `json:"passed"`
	Message string       `json:"message"`
	Trophy  bool         `json:"trophy,omitempty"`
	Missed  []missedView `json:"missed,omitempty"`
	Warning string       `json:"warning,omitempty"`
}

// quizView is the full client-facing quiz state. The correct answer is never
// included while a question is open.
type quizView struct {
	Phase      quiz.Phase      `json:"phase"`
	Number     int             `json:"number,omitempty"`
	Total      int             `json:"total,omitempty"`
	Question   *questionView   `json:"question,omitempty"`
	Feedback   *feedbackView   `json:"feedback,omitempty"`
	Completion *completionView `json:"completion,omitempty"`
}

type startQuizResponse struct {
	Started bool      `json:"started"`
	Message string    `json:"message,omitempty"`
	Warning string    `json:"warning,omitempty"`
	Raw     string    `json:"raw,omitempty"`
	Quiz    *quizView `json:"quiz,omitempty"`
}

func (h *Handler) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.Lock()
	defer st.Unlock()

	if st.Quiz.Phase() != quiz.PhaseNotStarted {
		writeError(w, http.StatusConflict, "quiz already started")
		return
	}
	h.generateAndStart(w, r, st)
}

// handleRetry regenerates a fresh question set after a failed attempt. The
// progress-saved guard stays set so the failed attempt is not logged twice.
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.Lock()
	defer st.Unlock()

	if !st.Quiz.Complete || st.Quiz.Passed {
		writeError(w, http.StatusConflict, "retry is only available after a failed quiz")
		return
	}
	h.generateAndStart(w, r, st)
}

// generateAndStart extracts the current module's text, asks the model for a
// question set and starts the quiz. The caller holds the state lock.
func (h *Handler) generateAndStart(w http.ResponseWriter, r *http.Request, st *session.State) {
	mod, ok := h.findModule(st.Module)
	if !ok {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "NoTrainingMaterial"))
		return
	}

	text, err := h.docText(st, mod)
	if err != nil {
		slog.Error("document extraction failed", "module", mod.Name, "error", err)
		writeError(w, http.StatusInternalServerError,
			appI18n.Td(r.Context(), "ExtractionFailed", map[string]any{"Error": err.Error()}))
		return
	}

	ctx := llm.WithSessionID(r.Context(), st.ID)
	items, raw, err := h.llm.GenerateQuestions(ctx, text, h.config.QuestionsPerSession)
	var parseErr *llm.ParseError
	switch {
	case errors.As(err, &parseErr):
		slog.Warn("model returned invalid JSON", "module", mod.Name, "error", err)
		writeJSON(w, http.StatusOK, startQuizResponse{
			Warning: appI18n.T(r.Context(), "InvalidModelOutput"),
			Raw:     raw,
		})
		return
	case err != nil:
		slog.Error("question generation failed", "module", mod.Name, "error", err)
		writeError(w, http.StatusBadGateway, appI18n.T(r.Context(), "ModelCallFailed"))
		return
	}

	if err := st.Quiz.Start(items); err != nil {
		writeJSON(w, http.StatusOK, startQuizResponse{
			Warning: appI18n.T(r.Context(), "NoQuestionsGenerated"),
		})
		return
	}

	writeJSON(w, http.StatusOK, startQuizResponse{
		Started: true,
		Message: appI18n.Tp(r.Context(), "QuestionsGenerated", len(items)),
		Quiz:    h.quizView(r, st),
	})
}

// docText returns the extracted text of the module's document, using the
// session cache so chat and retry do not re-extract on every action.
func (h *Handler) docText(st *session.State, mod model.Module) (string, error) {
	if text, ok := st.DocText(mod.Name); ok {
		return text, nil
	}
	pages, err := h.extract.Pages(mod.DocumentPath)
	if err != nil {
		return "", err
	}
	text := content.JoinPages(pages)
	st.SetDocText(mod.Name, text)
	return text, nil
}

func (h *Handler) handleQuizState(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.Lock()
	defer st.Unlock()
	writeJSON(w, http.StatusOK, h.quizView(r, st))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	var req struct {
		Option string `json:"option"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st.Lock()
	defer st.Unlock()

	switch err := st.Quiz.SelectAnswer(req.Option); {
	case errors.Is(err, quiz.ErrNotAwaitingAnswer):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, quiz.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.quizView(r, st))
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.Lock()
	defer st.Unlock()

	if err := st.Quiz.Advance(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.quizView(r, st))
}

// handleContinue moves a passed session to the next module. The quiz is
// reset either way; on the last module the session stays put, reports all
// modules done and can retake it. Chat and the document cache only reset
// when the module actually changes.
func (h *Handler) handleContinue(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.Lock()
	defer st.Unlock()

	if !st.Quiz.Complete || !st.Quiz.Passed {
		writeError(w, http.StatusConflict, "continue is only available after a passed quiz")
		return
	}

	modules, err := h.listModules()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := struct {
		Module      string `json:"module"`
		AllComplete bool   `json:"all_complete"`
		Message     string `json:"message,omitempty"`
	}{Module: st.Module}

	st.Quiz.Reset()

	next, ok := content.NextModule(modules, st.Module)
	if !ok {
		resp.AllComplete = true
		resp.Message = appI18n.T(r.Context(), "AllModulesComplete")
		writeJSON(w, http.StatusOK, resp)
		return
	}

	st.Module = next
	st.ResetChat()
	st.ClearDocText()
	resp.Module = next
	writeJSON(w, http.StatusOK, resp)
}

// quizView builds the client-facing quiz state. On a completed quiz it also
// records progress; rendering the completion retries a previously failed
// save until one write succeeds. The caller holds the state lock.
func (h *Handler) quizView(r *http.Request, st *session.State) *quizView {
	q := st.Quiz
	view := &quizView{Phase: q.Phase()}

	if item, ok := q.CurrentItem(); ok {
		view.Number = q.Current + 1
		view.Total = len(q.Items)
		view.Question = &questionView{
			Question: item.Question,
			Type:     item.Type,
			Options:  item.Options,
			Page:     item.Page,
		}
		if q.FeedbackShown {
			fb := &feedbackView{Correct: q.LastCorrect}
			if q.LastCorrect {
				fb.Message = appI18n.T(r.Context(), "CorrectAnswer")
			} else {
				fb.Message = appI18n.Td(r.Context(), "IncorrectAnswer", map[string]any{"Answer": item.Answer})
			}
			view.Feedback = fb
		}
	}

	if q.Complete {
		view.Completion = h.completionView(r, st)
	}
	return view
}

func (h *Handler) completionView(r *http.Request, st *session.State) *completionView {
	q := st.Quiz
	view := &completionView{
		Score:   q.Total(),
		Total:   len(q.Items),
		Passed:  q.Passed,
		Warning: h.saveProgress(r, st),
	}
	if q.Passed {
		view.Message = appI18n.T(r.Context(), "QuizPassed")
		if mod, ok := h.findModule(st.Module); ok {
			view.Trophy = mod.HasTrophy()
		}
	} else {
		view.Message = appI18n.T(r.Context(), "QuizFailed")
	}
	for _, m := range q.MissedQuestions() {
		view.Missed = append(view.Missed, missedView{
			Number:        m.Index + 1,
			Question:      m.Item.Question,
			YourAnswer:    m.Answer,
			CorrectAnswer: m.Item.Answer,
		})
	}
	return view
}

// saveProgress appends one progress row for a completed quiz. The guard is
// only set on success, so a failed write is retried on the next render. It
// returns a localized warning when the write fails.
func (h *Handler) saveProgress(r *http.Request, st *session.State) string {
	if st.Quiz.ProgressSaved() {
		return ""
	}
	entry := model.ProgressEntry{
		Timestamp: time.Now(),
		Module:    st.Module,
		User:      st.UserName,
		Score:     st.Quiz.Total(),
		SessionID: st.ID,
	}
	if err := h.recorder.Append(entry); err != nil {
		slog.Error("failed to save progress", "module", st.Module, "user", st.UserName, "error", err)
		return appI18n.Td(r.Context(), "ProgressSaveFailed", map[string]any{"Error": err.Error()})
	}
	st.Quiz.MarkProgressSaved()
	return ""
}
