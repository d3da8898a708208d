package models

import (
	"errors"
	"fmt"
	"time"
)

// Job lifecycle states persisted in the store.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// JobRecord is the persisted view of one generation request.
// Exactly one of ArtifactRef/Error is set once the job reaches a terminal state.
type JobRecord struct {
	ID          string           `json:"job_id"`
	UserID      string           `json:"user_id"`
	Params      GenerationParams `json:"params"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	ArtifactRef string           `json:"artifact_ref,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Terminal reports whether the record has reached a final state.
func (r *JobRecord) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// GenerationParams are the opaque inputs handed to the generation collaborator.
type GenerationParams struct {
	Prompt        string  `json:"prompt"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	GuidanceScale float64 `json:"guidance_scale"`
	Steps         int     `json:"num_inference_steps"`
	Seed          *int64  `json:"seed,omitempty"`
}

// ApplyDefaults fills unset dimensions, guidance, and step count.
func (p *GenerationParams) ApplyDefaults() {
	if p.Width == 0 {
		p.Width = 512
	}
	if p.Height == 0 {
		p.Height = 512
	}
	if p.GuidanceScale == 0 {
		p.GuidanceScale = 7.5
	}
	if p.Steps == 0 {
		p.Steps = 50
	}
}

// Validate checks the parameter bounds accepted by the service.
func (p GenerationParams) Validate() error {
	if p.Prompt == "" {
		return errors.New("prompt is required")
	}
	if len(p.Prompt) > 1000 {
		return errors.New("prompt exceeds 1000 characters")
	}
	if p.Width < 256 || p.Width > 1024 {
		return fmt.Errorf("width %d out of range [256,1024]", p.Width)
	}
	if p.Height < 256 || p.Height > 1024 {
		return fmt.Errorf("height %d out of range [256,1024]", p.Height)
	}
	if p.GuidanceScale < 1.0 || p.GuidanceScale > 20.0 {
		return fmt.Errorf("guidance_scale %.1f out of range [1,20]", p.GuidanceScale)
	}
	if p.Steps < 10 || p.Steps > 100 {
		return fmt.Errorf("num_inference_steps %d out of range [10,100]", p.Steps)
	}
	if p.Seed != nil && *p.Seed < 0 {
		return errors.New("seed must be non-negative")
	}
	return nil
}

// GenerationResult is what the collaborator returns on success.
type GenerationResult struct {
	ImagePNG []byte
	Metadata map[string]any
}
