package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
)

// APIHandler serves the REST API around the quiz.
type APIHandler struct {
	auth   *app.AuthService
	quiz   *app.QuizService
	live   *app.LiveService
	logger *slog.Logger
}

func NewAPIHandler(auth *app.AuthService, quiz *app.QuizService, live *app.LiveService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{auth: auth, quiz: quiz, live: live, logger: logger}
}

// Routes mounts every endpoint, plus ws on /ws when given.
func (h *APIHandler) Routes(ws *WSHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(h.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.Health)
	if ws != nil {
		r.Get("/ws", ws.ServeWS)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Get("/cards", h.Cards)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(h.auth))
			r.Get("/questions", h.Questions)
			r.Post("/assessments", h.SubmitAssessment)
			r.Get("/assessments/me", h.MyAssessments)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/users", h.Users)
				r.Get("/users/{id}/assessments", h.UserAssessments)
				r.Get("/analytics", h.Analytics)
				r.Get("/live/clients", h.LiveClients)
				r.Get("/live/sessions", h.LiveSessions)
				r.Get("/live/sessions/{id}", h.LiveSession)
				r.Delete("/live/sessions/{id}", h.ClearLiveSession)
			})
		})
	})
	return r
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type authResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	user, token, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *APIHandler) Cards(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.RiskCards())
}

func (h *APIHandler) Questions(w http.ResponseWriter, r *http.Request) {
	set, err := h.quiz.Questions(r.Context(), r.URL.Query().Get("role"), r.URL.Query().Get("card"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

func (h *APIHandler) SubmitAssessment(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var req app.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	assessment, err := h.quiz.Submit(r.Context(), identity.UserID, req)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, assessment)
}

func (h *APIHandler) MyAssessments(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	h.listAssessments(w, r, identity.UserID)
}

func (h *APIHandler) UserAssessments(w http.ResponseWriter, r *http.Request) {
	h.listAssessments(w, r, chi.URLParam(r, "id"))
}

func (h *APIHandler) listAssessments(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := h.quiz.Assessments(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *APIHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.quiz.Users(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *APIHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.quiz.Analytics(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandler) LiveClients(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.live.Clients())
}

func (h *APIHandler) LiveSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.live.Sessions())
}

func (h *APIHandler) LiveSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.live.Session(domain.ConnectionID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *APIHandler) ClearLiveSession(w http.ResponseWriter, r *http.Request) {
	if !h.live.Clear(domain.ConnectionID(chi.URLParam(r, "id"))) {
		h.respondDomainError(w, r, domain.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondDomainError maps domain errors to HTTP statuses.
func (h *APIHandler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound):
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrNotAdmin):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrQuestionSetNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not found", err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
		respondError(w, http.StatusInternalServerError, "internal error", "unexpected error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errorMsg, message string) {
	respondJSON(w, status, errorResponse{Error: errorMsg, Message: message})
}
