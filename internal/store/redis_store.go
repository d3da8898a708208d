package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ai-image-service/internal/models"
)

// ErrNotFound is returned for job ids that never existed or have expired.
var ErrNotFound = errors.New("job not found")

const (
	jobKeyPrefix = "job:"
	pendingKey   = "queue:pending"
)

// Store persists job records as expiring Redis hashes and keeps the FIFO
// pending list the worker consumes. Records are never deleted explicitly;
// they fall out via the TTL set at enqueue time.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a store around an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

// Enqueue writes a fresh queued record and pushes its id onto the pending
// list. Safe to call concurrently with the worker's PopNext.
func (s *Store) Enqueue(ctx context.Context, userID string, params models.GenerationParams) (string, error) {
	jobID := uuid.NewString()
	now := time.Now().UTC()

	rawParams, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, jobKey(jobID), map[string]any{
		"status":     models.StatusQueued,
		"user_id":    userID,
		"params":     rawParams,
		"created_at": now.Format(time.RFC3339Nano),
		"updated_at": now.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, jobKey(jobID), s.ttl)
	pipe.RPush(ctx, pendingKey, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}

	slog.Info("job enqueued", "job_id", jobID, "user_id", userID)
	return jobID, nil
}

// Get returns a snapshot of the record, or ErrNotFound once it has expired.
func (s *Store) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	fields, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	record := &models.JobRecord{
		ID:          jobID,
		UserID:      fields["user_id"],
		Status:      fields["status"],
		ArtifactRef: fields["artifact_ref"],
		Error:       fields["error"],
	}
	if raw := fields["params"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &record.Params); err != nil {
			return nil, fmt.Errorf("decode params for %s: %w", jobID, err)
		}
	}
	record.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	record.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])
	return record, nil
}

// UpdateField merges one optional field into a status update.
type UpdateField func(map[string]any)

// WithArtifactRef records the artifact reference of a completed job.
func WithArtifactRef(ref string) UpdateField {
	return func(fields map[string]any) { fields["artifact_ref"] = ref }
}

// WithError records the failure message of a failed job.
func WithError(msg string) UpdateField {
	return func(fields map[string]any) { fields["error"] = msg }
}

// Update merges the given fields and refreshes updated_at. An update against
// an expired record is dropped silently; a job whose record lapsed mid-flight
// must not crash the worker. HSET on the live key preserves the TTL.
func (s *Store) Update(ctx context.Context, jobID, status string, opts ...UpdateField) error {
	exists, err := s.client.Exists(ctx, jobKey(jobID)).Result()
	if err != nil {
		return fmt.Errorf("check job %s: %w", jobID, err)
	}
	if exists == 0 {
		slog.Warn("update dropped, record expired", "job_id", jobID, "status", status)
		return nil
	}

	fields := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, opt := range opts {
		opt(fields)
	}
	if err := s.client.HSet(ctx, jobKey(jobID), fields).Err(); err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	return nil
}

// PopNext blocks for up to timeout waiting for the next pending job id.
// It returns ("", nil) on timeout so the caller can poll for shutdown.
func (s *Store) PopNext(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.client.BLPop(ctx, timeout, pendingKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// res[0] is the list key, res[1] the popped id.
	return res[1], nil
}

// QueueDepth reports the pending list length for telemetry.
func (s *Store) QueueDepth(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, pendingKey).Result()
}
