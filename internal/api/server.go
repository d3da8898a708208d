package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-image-service/internal/config"
	"ai-image-service/internal/models"
	"ai-image-service/internal/ratelimit"
	"ai-image-service/internal/store"
	"ai-image-service/internal/telemetry"
)

// Server wires HTTP handlers for job submission and status queries.
type Server struct {
	cfg     config.Config
	store   *store.Store
	limiter *ratelimit.TokenBucket
}

// New constructs the API server.
func New(cfg config.Config, st *store.Store, limiter *ratelimit.TokenBucket) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		limiter: limiter,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "AI image generation service",
			"status":  "running",
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Post("/generate", s.handleSubmit)
	r.Get("/jobs/{id}", s.handleGetJob)
	return r
}

type submitRequest struct {
	UserID string `json:"user_id"`
	models.GenerationParams
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type statusResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	ArtifactRef string `json:"artifact_ref,omitempty"`
	Error       string `json:"error,omitempty"`
}

// handleSubmit validates the payload and defers the work to the queue.
// Submission succeeds whenever the store is reachable.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(r.Context(), req.UserID)
		if err != nil {
			http.Error(w, "rate limit error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			telemetry.RateLimitRejects.Inc()
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
	}

	jobID, err := s.store.Enqueue(r.Context(), req.UserID, req.GenerationParams)
	if err != nil {
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}
	telemetry.JobsEnqueued.Inc()

	writeJSON(w, http.StatusAccepted, submitResponse{JobID: jobID, Status: models.StatusQueued})
}

// handleGetJob returns the record projection, 404 for unknown or expired ids.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		JobID:       record.ID,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   record.UpdatedAt.Format(time.RFC3339Nano),
		ArtifactRef: record.ArtifactRef,
		Error:       record.Error,
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
