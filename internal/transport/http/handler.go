package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"railprep/internal/app"
	"railprep/internal/domain"
)

// Handler exposes the quiz engine over JSON endpoints. This is the read and
// write surface the browser UI consumes; all state lives behind the app
// layer and every mutating call returns the new canonical progress.
type Handler struct {
	service *app.Service
	bank    *app.QuestionBank
	store   *app.ProgressStore
}

func NewHandler(service *app.Service, bank *app.QuestionBank, store *app.ProgressStore) *Handler {
	return &Handler{service: service, bank: bank, store: store}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/subjects", h.handleSubjects)
	mux.HandleFunc("/questions", h.handleQuestions)
	mux.HandleFunc("/quiz/draw", h.handleDraw)
	mux.HandleFunc("/quiz/submit", h.handleSubmit)
	mux.HandleFunc("/quiz/session", h.handleSession)
	mux.HandleFunc("/progress", h.handleProgress)
	mux.HandleFunc("/stats/subject", h.handleSubjectProgress)
	mux.HandleFunc("/stats/difficulty", h.handleDifficultyStats)
	mux.HandleFunc("/stats/subjects", h.handleSubjectStats)
	mux.HandleFunc("/stats/corpus", h.handleCorpusStats)
	mux.HandleFunc("/maintenance/dedupe", h.handleDedupe)
	mux.HandleFunc("/maintenance/reset-subject", h.handleResetSubject)
	mux.HandleFunc("/maintenance/reset", h.handleResetAll)
	mux.HandleFunc("/ws", h.ServeWS)
}

func (h *Handler) handleSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Groups())
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		subject := r.URL.Query().Get("subject")
		if subject == "" {
			http.Error(w, "missing subject", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, h.bank.QuestionsBySubject(r.Context(), subject))
	case http.MethodPost:
		var q domain.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "invalid question payload", http.StatusBadRequest)
			return
		}
		created, ok := h.bank.AddQuestion(r.Context(), q)
		writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "question": created})
	case http.MethodPut:
		id := r.URL.Query().Get("id")
		var q domain.Question
		if id == "" || json.NewDecoder(r.Body).Decode(&q) != nil {
			http.Error(w, "missing id or invalid payload", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": h.bank.UpdateQuestion(r.Context(), id, q)})
	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": h.bank.DeleteQuestion(r.Context(), id)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type drawRequest struct {
	Subject    string            `json:"subject"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

func (h *Handler) handleDraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" {
		http.Error(w, "missing subject", http.StatusBadRequest)
		return
	}
	session, err := h.service.Draw(r.Context(), req.Subject, req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type submitRequest struct {
	Session domain.QuizSession `json:"session"`
	Answers []int              `json:"answers"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Session.ID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	result, err := h.service.Submit(r.Context(), req.Session, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	session, err := h.service.Session(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Progress(r.Context()))
}

func (h *Handler) handleSubjectProgress(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "missing subject", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.service.SubjectProgress(r.Context(), subject))
}

func (h *Handler) handleDifficultyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.DifficultyStats(r.Context(), r.URL.Query().Get("subject")))
}

func (h *Handler) handleSubjectStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.SubjectStats(r.Context()))
}

func (h *Handler) handleCorpusStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bank.Statistics(r.Context()))
}

func (h *Handler) handleDedupe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	progress, err := h.service.DeduplicateHistory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) handleResetSubject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "missing subject", http.StatusBadRequest)
		return
	}
	progress, err := h.service.ResetSubject(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	progress, err := h.service.ResetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoQuestions), errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDifficultyLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrAnswerCountMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
