package models

import (
	"fmt"
	"time"
)

// Event is one lifecycle notification fanned out to every configured channel.
// Topic is the real-time pub/sub suffix, DetailType tags entries on the
// durable bus, Detail is the JSON-serializable body.
type Event interface {
	Topic() string
	DetailType() string
	Detail() map[string]any
}

// ProgressEvent reports generation progress for a job.
type ProgressEvent struct {
	JobID     string
	UserID    string
	Percent   int
	Message   string
	Timestamp time.Time
}

func (e ProgressEvent) Topic() string {
	return fmt.Sprintf("ai/progress/%s/%s", e.UserID, e.JobID)
}

func (e ProgressEvent) DetailType() string { return "AI Generation Progress" }

func (e ProgressEvent) Detail() map[string]any {
	return map[string]any{
		"jobId":     e.JobID,
		"userId":    e.UserID,
		"progress":  e.Percent,
		"message":   e.Message,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
	}
}

// CompletedEvent signals a finished job. Artifact bytes are never carried;
// consumers fetch the artifact through the status API.
type CompletedEvent struct {
	JobID       string
	UserID      string
	ArtifactRef string
	Timestamp   time.Time
}

func (e CompletedEvent) Topic() string {
	return fmt.Sprintf("ai/completed/%s/%s", e.UserID, e.JobID)
}

func (e CompletedEvent) DetailType() string { return "AI Generation Completed" }

func (e CompletedEvent) Detail() map[string]any {
	detail := map[string]any{
		"jobId":     e.JobID,
		"userId":    e.UserID,
		"status":    StatusCompleted,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.ArtifactRef != "" {
		detail["artifactRef"] = e.ArtifactRef
	}
	return detail
}

// FailedEvent signals a terminally failed job.
type FailedEvent struct {
	JobID     string
	UserID    string
	Err       string
	Timestamp time.Time
}

func (e FailedEvent) Topic() string {
	return fmt.Sprintf("ai/error/%s/%s", e.UserID, e.JobID)
}

func (e FailedEvent) DetailType() string { return "AI Generation Failed" }

func (e FailedEvent) Detail() map[string]any {
	return map[string]any{
		"jobId":     e.JobID,
		"userId":    e.UserID,
		"error":     e.Err,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Instance event types emitted by the host monitor.
const (
	InstanceStarted         = "started"
	InstanceHeartbeat       = "heartbeat"
	InstanceStateChange     = "state_change"
	InstanceSpotInterrupt   = "spot_interruption"
	InstanceServiceReady    = "service_ready"
	InstanceServiceStopping = "service_stopping"
)

// InstanceEvent reports execution-host health and termination warnings.
type InstanceEvent struct {
	Type       string
	InstanceID string
	Data       map[string]any
	Timestamp  time.Time
}

func (e InstanceEvent) Topic() string {
	return fmt.Sprintf("instances/%s/%s", e.InstanceID, e.Type)
}

func (e InstanceEvent) DetailType() string { return "AI Instance Event" }

func (e InstanceEvent) Detail() map[string]any {
	return map[string]any{
		"event_type":  e.Type,
		"instance_id": e.InstanceID,
		"timestamp":   e.Timestamp.UTC().Format(time.RFC3339),
		"data":        e.Data,
	}
}

// Service health states observed by the host monitor.
const (
	ServiceHealthy     = "healthy"
	ServiceUnhealthy   = "unhealthy"
	ServiceUnavailable = "unavailable"
)

// HostState is one composed snapshot of host metadata plus self health.
// The monitor owns the last-known snapshot exclusively.
type HostState struct {
	InstanceID    string `json:"instance_id"`
	InstanceType  string `json:"instance_type"`
	PublicIP      string `json:"public_ip,omitempty"`
	PrivateIP     string `json:"private_ip,omitempty"`
	ServiceStatus string `json:"service_status"`
}

// Equal compares snapshots structurally to detect a transition.
func (s HostState) Equal(other HostState) bool {
	return s == other
}

// Detail renders the snapshot for a state_change event payload.
func (s HostState) Detail() map[string]any {
	detail := map[string]any{
		"instance_id":    s.InstanceID,
		"instance_type":  s.InstanceType,
		"service_status": s.ServiceStatus,
	}
	if s.PublicIP != "" {
		detail["public_ip"] = s.PublicIP
	}
	if s.PrivateIP != "" {
		detail["private_ip"] = s.PrivateIP
	}
	return detail
}
