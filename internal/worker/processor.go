package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ai-image-service/internal/artifact"
	"ai-image-service/internal/config"
	"ai-image-service/internal/generate"
	"ai-image-service/internal/models"
	"ai-image-service/internal/notify"
	"ai-image-service/internal/store"
	"ai-image-service/internal/telemetry"
)

// Processor is the single consumer of the pending queue. Exactly one
// instance runs per process; the generation collaborator is never invoked
// concurrently with itself.
type Processor struct {
	cfg       config.Config
	store     *store.Store
	generator generate.Generator
	artifacts artifact.Store
	events    *notify.Dispatcher
}

// New constructs the worker.
func New(cfg config.Config, st *store.Store, gen generate.Generator, art artifact.Store, events *notify.Dispatcher) *Processor {
	return &Processor{
		cfg:       cfg,
		store:     st,
		generator: gen,
		artifacts: art,
		events:    events,
	}
}

// Run drives the consume loop until context cancellation. The loop never
// exits on a job or transport error; a pop failure backs off briefly and
// everything else is recorded against the job and skipped.
func (p *Processor) Run(ctx context.Context) error {
	slog.Info("queue worker started", "pop_timeout", p.cfg.PopTimeout)

	for {
		select {
		case <-ctx.Done():
			slog.Info("queue worker stopped")
			return ctx.Err()
		default:
		}

		if depth, err := p.store.QueueDepth(ctx); err == nil {
			telemetry.QueueDepthGauge.Set(float64(depth))
		}

		jobID, err := p.store.PopNext(ctx, p.cfg.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("queue worker stopped")
				return ctx.Err()
			}
			slog.Error("pop next job", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(p.cfg.WorkerErrorBackoff):
			}
			continue
		}
		if jobID == "" {
			// Timed out with an empty queue; this is the cancellation checkpoint.
			continue
		}

		// In-flight work runs to completion even if shutdown starts mid-job.
		p.process(context.WithoutCancel(ctx), jobID)
	}
}

func (p *Processor) process(ctx context.Context, jobID string) {
	record, err := p.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("pending job has no record, skipping", "job_id", jobID)
		} else {
			slog.Error("load job record", "job_id", jobID, "error", err)
		}
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.fail(ctx, record, fmt.Sprintf("panic: %v", r))
		}
	}()

	telemetry.InProgressGauge.Inc()
	defer telemetry.InProgressGauge.Dec()

	slog.Info("processing job", "job_id", jobID, "user_id", record.UserID)
	_ = p.store.Update(ctx, jobID, models.StatusProcessing)

	onProgress := func(percent int, message string) {
		p.events.Dispatch(ctx, models.ProgressEvent{
			JobID:     jobID,
			UserID:    record.UserID,
			Percent:   percent,
			Message:   message,
			Timestamp: time.Now(),
		})
	}

	result, err := p.generator.Generate(ctx, record.Params, onProgress)
	if err != nil {
		p.fail(ctx, record, err.Error())
		return
	}

	ref, err := p.artifacts.Save(ctx, jobID, result.ImagePNG)
	if err != nil {
		p.fail(ctx, record, fmt.Sprintf("store artifact: %v", err))
		return
	}

	if err := p.store.Update(ctx, jobID, models.StatusCompleted, store.WithArtifactRef(ref)); err != nil {
		slog.Error("record completion", "job_id", jobID, "error", err)
	}
	p.events.Dispatch(ctx, models.CompletedEvent{
		JobID:       jobID,
		UserID:      record.UserID,
		ArtifactRef: ref,
		Timestamp:   time.Now(),
	})
	telemetry.JobsCompleted.Inc()
	slog.Info("job completed", "job_id", jobID, "artifact", ref)
}

// fail marks the job terminally failed and notifies every channel. There is
// no retry at this layer; the submitter re-issues a new job if it wants one.
func (p *Processor) fail(ctx context.Context, record *models.JobRecord, msg string) {
	if err := p.store.Update(ctx, record.ID, models.StatusFailed, store.WithError(msg)); err != nil {
		slog.Error("record failure", "job_id", record.ID, "error", err)
	}
	p.events.Dispatch(ctx, models.FailedEvent{
		JobID:     record.ID,
		UserID:    record.UserID,
		Err:       msg,
		Timestamp: time.Now(),
	})
	telemetry.JobsFailed.Inc()
	slog.Error("job failed", "job_id", record.ID, "error", msg)
}
