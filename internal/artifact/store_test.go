package artifact

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLocalStoreWritesArtifactAndPreview(t *testing.T) {
	dir := t.TempDir()
	st := NewLocal(dir)

	ref, err := st.Save(context.Background(), "job-1", testPNG(t))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref != filepath.Join(dir, "job-1.png") {
		t.Fatalf("unexpected ref %s", ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("artifact not decodable: %v", err)
	}
	if img.Bounds().Dx() != 512 {
		t.Fatalf("expected width 512, got %d", img.Bounds().Dx())
	}

	thumbPath := filepath.Join(dir, "thumbs", "job-1.jpg")
	thumbData, err := os.ReadFile(thumbPath)
	if err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	thumb, _, err := image.Decode(bytes.NewReader(thumbData))
	if err != nil {
		t.Fatalf("preview not decodable: %v", err)
	}
	if thumb.Bounds().Dx() != previewWidth {
		t.Fatalf("expected preview width %d, got %d", previewWidth, thumb.Bounds().Dx())
	}
}

func TestLocalStoreSurvivesUndecodableArtifact(t *testing.T) {
	dir := t.TempDir()
	st := NewLocal(dir)

	// Not a real image; the artifact is still written, the preview skipped.
	ref, err := st.Save(context.Background(), "job-2", []byte("opaque bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(ref); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "thumbs", "job-2.jpg")); !os.IsNotExist(err) {
		t.Fatal("expected no preview for undecodable artifact")
	}
}
