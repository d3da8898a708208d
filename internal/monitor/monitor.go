// Package monitor tracks the execution host: metadata, self health, and
// impending spot reclamation. It reports through the same dispatcher the
// worker uses, on instances/{id}/{eventType} topics.
package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ai-image-service/internal/config"
	"ai-image-service/internal/models"
	"ai-image-service/internal/notify"
	"ai-image-service/internal/telemetry"
)

const (
	metadataTimeout = 2 * time.Second
	healthTimeout   = 5 * time.Second
)

// Monitor polls host metadata and self health on a fixed interval. It owns
// the last-known HostState exclusively.
type Monitor struct {
	cfg      config.Config
	events   *notify.Dispatcher
	metadata *http.Client
	health   *http.Client
	last     *models.HostState
}

// New constructs a monitor publishing through the given dispatcher.
func New(cfg config.Config, events *notify.Dispatcher) *Monitor {
	return &Monitor{
		cfg:      cfg,
		events:   events,
		metadata: &http.Client{Timeout: metadataTimeout},
		health:   &http.Client{Timeout: healthTimeout},
	}
}

// Run executes the polling loop until context cancellation. Any error in a
// cycle is logged and the loop sleeps the longer backoff before retrying;
// the loop itself never terminates except on shutdown.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("instance monitor started", "instance_id", m.cfg.InstanceID, "interval", m.cfg.MonitorInterval)
	m.emit(ctx, models.InstanceStarted, map[string]any{
		"instance_id":    m.cfg.InstanceID,
		"instance_type":  m.cfg.InstanceType,
		"service_status": "initializing",
	})

	for {
		wait := m.cfg.MonitorInterval
		if err := m.cycle(ctx); err != nil {
			slog.Error("monitor cycle", "error", err)
			wait = m.cfg.MonitorErrorBackoff
		}

		select {
		case <-ctx.Done():
			// Shutdown path: announce before the loop winds down.
			m.emit(context.WithoutCancel(ctx), models.InstanceServiceStopping, map[string]any{
				"instance_id": m.cfg.InstanceID,
			})
			slog.Info("instance monitor stopped")
			return
		case <-time.After(wait):
		}
	}
}

func (m *Monitor) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	state := m.hostState(ctx)
	if m.last == nil || !state.Equal(*m.last) {
		m.emit(ctx, models.InstanceStateChange, state.Detail())
		m.last = &state
	}

	m.emit(ctx, models.InstanceHeartbeat, map[string]any{
		"instance_id":    m.cfg.InstanceID,
		"service_status": state.ServiceStatus,
	})
	telemetry.MonitorHeartbeats.Inc()

	m.checkInterruption(ctx)
	return nil
}

// hostState composes the current snapshot from the metadata endpoint and a
// self health probe. Each probe degrades to its fallback on failure.
func (m *Monitor) hostState(ctx context.Context) models.HostState {
	return models.HostState{
		InstanceID:    m.probe(ctx, "/instance-id", m.cfg.InstanceID),
		InstanceType:  m.probe(ctx, "/instance-type", m.cfg.InstanceType),
		PublicIP:      m.probe(ctx, "/public-ipv4", ""),
		PrivateIP:     m.probe(ctx, "/local-ipv4", ""),
		ServiceStatus: m.serviceStatus(ctx),
	}
}

func (m *Monitor) probe(ctx context.Context, path, fallback string) string {
	body, status, err := get(ctx, m.metadata, m.cfg.MetadataEndpoint+path)
	if err != nil || status != http.StatusOK {
		return fallback
	}
	return strings.TrimSpace(body)
}

func (m *Monitor) serviceStatus(ctx context.Context) string {
	_, status, err := get(ctx, m.health, m.cfg.HealthURL)
	switch {
	case err != nil:
		return models.ServiceUnavailable
	case status == http.StatusOK:
		return models.ServiceHealthy
	default:
		return models.ServiceUnhealthy
	}
}

// checkInterruption probes the interruption-notice endpoint. A 2xx response
// means the host is about to be reclaimed; the warning is emitted on every
// cycle the notice persists, so a missed delivery gets another chance.
// Anything else is the normal case.
func (m *Monitor) checkInterruption(ctx context.Context) {
	body, status, err := get(ctx, m.metadata, m.cfg.MetadataEndpoint+"/spot/instance-action")
	if err != nil || status < http.StatusOK || status >= http.StatusMultipleChoices {
		return
	}

	action := strings.TrimSpace(body)
	slog.Warn("spot interruption notice", "instance_id", m.cfg.InstanceID, "action", action)
	telemetry.SpotInterruptions.Inc()
	m.emit(ctx, models.InstanceSpotInterrupt, map[string]any{
		"instance_id": m.cfg.InstanceID,
		"action":      action,
		"notice_time": time.Now().UTC().Format(time.RFC3339),
	})
}

// ServiceReady announces that the HTTP surface is up, with the public IP if
// the metadata service knows one.
func (m *Monitor) ServiceReady(ctx context.Context) {
	m.emit(ctx, models.InstanceServiceReady, map[string]any{
		"instance_id":    m.cfg.InstanceID,
		"instance_type":  m.cfg.InstanceType,
		"service_status": "ready",
		"public_ip":      m.probe(ctx, "/public-ipv4", ""),
	})
}

func (m *Monitor) emit(ctx context.Context, eventType string, data map[string]any) {
	m.events.Dispatch(ctx, models.InstanceEvent{
		Type:       eventType,
		InstanceID: m.cfg.InstanceID,
		Data:       data,
		Timestamp:  time.Now(),
	})
}

func get(ctx context.Context, client *http.Client, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}
