package generate

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"

	"ai-image-service/internal/models"
)

// Simulator synthesizes a deterministic placeholder image locally so the
// service runs end to end without a model host. The same prompt and seed
// always produce the same bytes.
type Simulator struct {
	// StepDelay slows each synthetic inference step for demo realism.
	StepDelay time.Duration
}

// NewSimulator returns a simulator with no artificial step delay.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Generate renders a seed-derived noise field scaled to the requested
// dimensions, reporting progress after every synthetic step up to 100.
func (s *Simulator) Generate(ctx context.Context, params models.GenerationParams, onProgress ProgressFunc) (models.GenerationResult, error) {
	seed := deriveSeed(params)
	rng := rand.New(rand.NewSource(seed))

	// Paint a coarse grid and let the resampler smooth it; good enough for
	// a recognizable per-seed output.
	base := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			base.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	steps := params.Steps
	if steps <= 0 {
		steps = 50
	}
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return models.GenerationResult{}, ctx.Err()
		default:
		}
		if s.StepDelay > 0 {
			time.Sleep(s.StepDelay)
		}
		if onProgress != nil {
			onProgress(i*100/steps, fmt.Sprintf("step %d/%d", i, steps))
		}
	}

	img := imaging.Resize(base, params.Width, params.Height, imaging.Lanczos)
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return models.GenerationResult{}, fmt.Errorf("encode image: %w", err)
	}

	return models.GenerationResult{
		ImagePNG: buf.Bytes(),
		Metadata: map[string]any{
			"seed":   seed,
			"width":  params.Width,
			"height": params.Height,
			"steps":  steps,
		},
	}, nil
}

func deriveSeed(params models.GenerationParams) int64 {
	if params.Seed != nil {
		return *params.Seed
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(params.Prompt))
	return int64(h.Sum64())
}
