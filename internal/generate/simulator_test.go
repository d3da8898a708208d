package generate

import (
	"bytes"
	"context"
	"image"
	_ "image/png"
	"testing"

	"ai-image-service/internal/models"
)

func simParams(seed int64) models.GenerationParams {
	p := models.GenerationParams{Prompt: "cat", Seed: &seed}
	p.ApplyDefaults()
	p.Steps = 10
	return p
}

func TestSimulatorProgressEndsAtHundred(t *testing.T) {
	sim := NewSimulator()

	var percents []int
	_, err := sim.Generate(context.Background(), simParams(42), func(percent int, _ string) {
		percents = append(percents, percent)
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(percents) == 0 {
		t.Fatal("expected progress callbacks")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress decreased: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Fatalf("expected final percent 100, got %d", percents[len(percents)-1])
	}
}

func TestSimulatorIsDeterministic(t *testing.T) {
	sim := NewSimulator()

	first, err := sim.Generate(context.Background(), simParams(42), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := sim.Generate(context.Background(), simParams(42), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.Equal(first.ImagePNG, second.ImagePNG) {
		t.Fatal("same seed must produce identical bytes")
	}

	other, _ := sim.Generate(context.Background(), simParams(43), nil)
	if bytes.Equal(first.ImagePNG, other.ImagePNG) {
		t.Fatal("different seeds should produce different images")
	}
}

func TestSimulatorHonorsDimensions(t *testing.T) {
	sim := NewSimulator()
	params := simParams(7)
	params.Width = 320
	params.Height = 256

	result, err := sim.Generate(context.Background(), params, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(result.ImagePNG))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 256 {
		t.Fatalf("expected 320x256, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestSimulatorStopsOnCancel(t *testing.T) {
	sim := NewSimulator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Generate(ctx, simParams(1), nil)
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
