package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/repository"
	"commit-reflections/internal/usecase"
)

// Server exposes the operational surface: cron trigger endpoints, the push
// webhook, admin inspection routes, metrics and stored illustrations.
type Server struct {
	schedUC  usecase.SchedulerUseCase
	workUC   usecase.WorkerUseCase
	jobs     repository.ReflectionJobRepository
	repos    repository.TrackedRepoRepository
	pushes   repository.PushSignalRepository
	auth     *AuthManager
	cronKey  string
	hookKey  string
	adminKey string
	imageDir string
	log      *zerolog.Logger
	now      func() time.Time
}

func NewServer(
	schedUC usecase.SchedulerUseCase,
	workUC usecase.WorkerUseCase,
	jobs repository.ReflectionJobRepository,
	repos repository.TrackedRepoRepository,
	pushes repository.PushSignalRepository,
	auth *AuthManager,
	cronKey, hookKey, adminKey, imageDir string,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "APIServer").Logger()
	return &Server{
		schedUC:  schedUC,
		workUC:   workUC,
		jobs:     jobs,
		repos:    repos,
		pushes:   pushes,
		auth:     auth,
		cronKey:  cronKey,
		hookKey:  hookKey,
		adminKey: adminKey,
		imageDir: imageDir,
		log:      &srvLog,
		now:      time.Now,
	}
}

// Router assembles the chi router with the shared middleware chain.
func (s *Server) Router(logger *zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(logger),
		Recover(logger),
		RequestLog(logger),
		Timeout(5*time.Minute),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if s.imageDir != "" {
		fs := http.StripPrefix("/artifacts/", http.FileServer(http.Dir(s.imageDir)))
		r.Get("/artifacts/*", fs.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.bearerGuard(s.cronKey))
			r.Post("/cron/scheduler", s.handleCronScheduler)
			r.Post("/cron/worker", s.handleCronWorker)
		})

		r.Post("/hooks/push/{repoID}", s.handlePushHook)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionGuard)
			r.Get("/admin/jobs", s.handleAdminJobs)
			r.Get("/admin/stats", s.handleAdminStats)
		})
	})

	r.Post("/admin/login", s.handleAdminLogin)
	r.Post("/admin/logout", s.handleAdminLogout)

	return r
}

// bearerGuard protects machine endpoints with a shared static credential.
func (s *Server) bearerGuard(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				s.log.Error().Str("path", r.URL.Path).Msg("endpoint credential not configured")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			hdr := r.Header.Get("Authorization")
			parts := strings.SplitN(hdr, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(key)) != 1 {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) sessionGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCronScheduler(w http.ResponseWriter, r *http.Request) {
	report, err := s.schedUC.RunPass(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler pass failed")
		http.Error(w, "scheduler pass failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCronWorker(w http.ResponseWriter, r *http.Request) {
	report, err := s.workUC.RunPass(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("worker pass failed")
		http.Error(w, "worker pass failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handlePushHook records push activity for a tracked repo. The caller (a
// GitHub webhook relay) authenticates with the shared hook secret; the payload
// body is ignored, only the fact of a push matters.
func (s *Server) handlePushHook(w http.ResponseWriter, r *http.Request) {
	if s.hookKey == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Hook-Secret")), []byte(s.hookKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	repoID := chi.URLParam(r, "repoID")
	if _, err := uuid.Parse(repoID); err != nil {
		http.Error(w, "invalid repo id", http.StatusBadRequest)
		return
	}
	if _, err := s.repos.FindByID(r.Context(), repository.NoTX, repoID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "unknown repo", http.StatusNotFound)
			return
		}
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	if err := s.pushes.Record(r.Context(), repoID, s.now()); err != nil {
		s.log.Error().Err(err).Str("repo_id", repoID).Msg("record push signal failed")
		http.Error(w, "record failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.adminKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminJobs(w http.ResponseWriter, r *http.Request) {
	status := model.JobStatus(r.URL.Query().Get("status"))
	switch status {
	case "":
		status = model.JobStatusPending
	case model.JobStatusPending, model.JobStatusProcessing, model.JobStatusCompleted, model.JobStatusFailed:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	jobs, err := s.jobs.ListRecent(r.Context(), repository.NoTX, status, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list jobs failed")
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.jobs.CountByStatus(r.Context(), repository.NoTX)
	if err != nil {
		s.log.Error().Err(err).Msg("count jobs failed")
		http.Error(w, "stats failed", http.StatusInternalServerError)
		return
	}
	resp := struct {
		Jobs map[model.JobStatus]int `json:"jobs_by_status"`
	}{Jobs: counts}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
