package models

import "testing"

func TestApplyDefaults(t *testing.T) {
	p := GenerationParams{Prompt: "a cat"}
	p.ApplyDefaults()

	if p.Width != 512 || p.Height != 512 {
		t.Fatalf("expected 512x512 defaults, got %dx%d", p.Width, p.Height)
	}
	if p.GuidanceScale != 7.5 {
		t.Fatalf("expected guidance 7.5, got %v", p.GuidanceScale)
	}
	if p.Steps != 50 {
		t.Fatalf("expected 50 steps, got %d", p.Steps)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateBounds(t *testing.T) {
	negative := int64(-1)
	cases := []struct {
		name   string
		mutate func(*GenerationParams)
	}{
		{"empty prompt", func(p *GenerationParams) { p.Prompt = "" }},
		{"width low", func(p *GenerationParams) { p.Width = 128 }},
		{"width high", func(p *GenerationParams) { p.Width = 2048 }},
		{"height low", func(p *GenerationParams) { p.Height = 128 }},
		{"guidance low", func(p *GenerationParams) { p.GuidanceScale = 0.5 }},
		{"guidance high", func(p *GenerationParams) { p.GuidanceScale = 25 }},
		{"steps low", func(p *GenerationParams) { p.Steps = 5 }},
		{"steps high", func(p *GenerationParams) { p.Steps = 500 }},
		{"negative seed", func(p *GenerationParams) { p.Seed = &negative }},
	}
	for _, tc := range cases {
		p := GenerationParams{Prompt: "ok"}
		p.ApplyDefaults()
		tc.mutate(&p)
		if err := p.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestEventTopics(t *testing.T) {
	progress := ProgressEvent{JobID: "j1", UserID: "u1", Percent: 10}
	if progress.Topic() != "ai/progress/u1/j1" {
		t.Fatalf("unexpected progress topic %s", progress.Topic())
	}
	completed := CompletedEvent{JobID: "j1", UserID: "u1"}
	if completed.Topic() != "ai/completed/u1/j1" {
		t.Fatalf("unexpected completed topic %s", completed.Topic())
	}
	failed := FailedEvent{JobID: "j1", UserID: "u1"}
	if failed.Topic() != "ai/error/u1/j1" {
		t.Fatalf("unexpected failed topic %s", failed.Topic())
	}
	instance := InstanceEvent{Type: InstanceHeartbeat, InstanceID: "i-1"}
	if instance.Topic() != "instances/i-1/heartbeat" {
		t.Fatalf("unexpected instance topic %s", instance.Topic())
	}
}

func TestHostStateEquality(t *testing.T) {
	a := HostState{InstanceID: "i-1", InstanceType: "g5.xlarge", ServiceStatus: ServiceHealthy}
	b := a
	if !a.Equal(b) {
		t.Fatal("identical snapshots must compare equal")
	}
	b.ServiceStatus = ServiceUnhealthy
	if a.Equal(b) {
		t.Fatal("differing snapshots must not compare equal")
	}
}
