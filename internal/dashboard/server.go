// Package dashboard is the small web CRUD view over the user store:
// password login, user listing, per-user history, delete.
package dashboard

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Tanishk053/tanigpt/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	sessionCookie = "tanigpt_session"
	sessionTTL    = 12 * time.Hour
)

type Server struct {
	store    *store.Store
	password string
	logger   *slog.Logger
	tmpl     *template.Template

	mu       sync.Mutex
	sessions map[string]time.Time // token -> expiry
}

func NewServer(st *store.Store, password string, logger *slog.Logger) (*Server, error) {
	if password == "" {
		return nil, fmt.Errorf("dashboard: missing password")
	}
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse templates: %w", err)
	}
	return &Server{
		store:    st,
		password: password,
		logger:   logger,
		tmpl:     tmpl,
		sessions: map[string]time.Time{},
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/users/{number}", s.handleHistory)
		r.Post("/users/{number}/delete", s.handleDelete)
	})

	return r
}

func (s *Server) issueSession() *http.Cookie {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = time.Now().Add(sessionTTL)
	s.mu.Unlock()
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) sessionValid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.sessions, token)
		return false
	}
	return true
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || !s.sessionValid(cookie.Value) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("dashboard_render_error", "template", name, "error", err.Error())
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("password") != s.password {
		s.logger.Warn("dashboard_login_failed", "remote", r.RemoteAddr)
		http.Error(w, "Invalid password!", http.StatusForbidden)
		return
	}
	http.SetCookie(w, s.issueSession())
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		s.logger.Error("dashboard_list_error", "error", err.Error())
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	s.render(w, "dashboard.html", map[string]any{"Users": entries})
}

type historyLine struct {
	Role    string
	Content string
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	rec, err := s.store.Get(number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("dashboard_history_error", "user_number", number, "error", err.Error())
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	lines := make([]historyLine, 0, len(rec.ChatHistory))
	for _, msg := range rec.ChatHistory {
		if msg.Role == store.RoleSystem {
			continue
		}
		lines = append(lines, historyLine{Role: msg.Role, Content: msg.Content})
	}
	s.render(w, "history.html", map[string]any{"User": rec, "Lines": lines})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if err := s.store.Delete(r.Context(), number); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("dashboard_delete_error", "user_number", number, "error", err.Error())
		http.Error(w, "failed to delete user", http.StatusInternalServerError)
		return
	}
	s.logger.Info("dashboard_user_deleted", "user_number", number)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
