package handler

import (
	"log/slog"
	"net/http"
	"strings"

	appI18n "github.com/pavelanni/trainer/internal/i18n"
	"github.com/pavelanni/trainer/internal/llm"
	"github.com/pavelanni/trainer/internal/model"
	"github.com/pavelanni/trainer/internal/session"
)

// summaryPrompt is the canonical question for the one-shot summary action.
const summaryPrompt = "Generate a training summary based on the material."

type transcriptResponse struct {
	Transcript []model.ChatMessage `json:"transcript"`
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.Lock()
	defer st.Unlock()
	writeJSON(w, http.StatusOK, transcriptResponse{Transcript: st.Transcript})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	var req struct {
		Message string `json:"message"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	st.Lock()
	defer st.Unlock()
	h.advise(w, r, st, message)
}

// handleSummary asks the advisor for a training summary. The action is
// one-shot per session and the guard is consumed even when the model call
// fails; the failure lands in the transcript like any other chat error.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.Lock()
	defer st.Unlock()

	if st.SummaryDone {
		writeError(w, http.StatusConflict, appI18n.T(r.Context(), "SummaryAlreadyGenerated"))
		return
	}
	st.SummaryDone = true
	h.advise(w, r, st, summaryPrompt)
}

// advise runs one advisor round: the user message is appended first, then
// the assistant reply or a localized error entry, so the transcript always
// shows what was asked. The caller holds the state lock.
func (h *Handler) advise(w http.ResponseWriter, r *http.Request, st *session.State, message string) {
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

	st.AppendChat(model.RoleUser, message)

	ctx := llm.WithSessionID(r.Context(), st.ID)
	reply, err := h.llm.Advise(ctx, text, message)
	if err != nil {
		slog.Error("advisor call failed", "module", mod.Name, "error", err)
		reply = appI18n.Td(r.Context(), "ChatUnavailable", map[string]any{"Error": err.Error()})
	}
	st.AppendChat(model.RoleAssistant, reply)

	writeJSON(w, http.StatusOK, transcriptResponse{Transcript: st.Transcript})
}
