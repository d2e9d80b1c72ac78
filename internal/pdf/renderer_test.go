package pdf

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestRenderFromImageProducesPDF(t *testing.T) {
	r := &Renderer{AssetDir: t.TempDir()}

	out, err := r.RenderFromImage(testPNG(t), "Ada Lovelace", "3", "KQ-1-ABCDEF01")
	if err != nil {
		t.Fatalf("RenderFromImage failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("Expected PDF output")
	}
}

func TestRenderFromImageRejectsUnknownFormat(t *testing.T) {
	r := &Renderer{AssetDir: t.TempDir()}

	if _, err := r.RenderFromImage([]byte("not an image"), "Ada", "3", ""); err == nil {
		t.Error("Expected error for unsupported image format")
	}
}

func TestRenderFromTemplate(t *testing.T) {
	dir := t.TempDir()
	r := &Renderer{AssetDir: dir}

	data := CertificateData{
		StudentName:       "Ada Lovelace",
		GradeLevel:        "3",
		CertificateNumber: "KQ-1-ABCDEF01",
		IssuedAt:          time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	// No asset yet.
	if _, err := r.RenderFromTemplate(data); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}

	path := filepath.Join(dir, "GRADE-3-CERTIFICATE.png")
	if err := os.WriteFile(path, testPNG(t), 0o644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	out, err := r.RenderFromTemplate(data)
	if err != nil {
		t.Fatalf("RenderFromTemplate failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("Expected PDF output")
	}
}

func TestRenderGenerated(t *testing.T) {
	r := &Renderer{AssetDir: t.TempDir()}

	out, err := r.RenderGenerated(CertificateData{
		StudentName:       "Ada Lovelace",
		GradeLevel:        "3",
		Achievement:       "Completed all Grade 3 quests",
		IssuedBy:          "Ms. Hopper",
		CertificateNumber: "KQ-1-ABCDEF01",
		IssuedAt:          time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RenderGenerated failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("Expected PDF output")
	}
}

func TestSniffImageType(t *testing.T) {
	if got := sniffImageType(testPNG(t)); got != "PNG" {
		t.Errorf("Expected PNG, got %q", got)
	}
	jpegHeader := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...)
	if got := sniffImageType(jpegHeader); got != "JPG" {
		t.Errorf("Expected JPG, got %q", got)
	}
	if got := sniffImageType([]byte("plain text")); got != "" {
		t.Errorf("Expected empty type, got %q", got)
	}
}

func TestDownloadFileName(t *testing.T) {
	name := DownloadFileName("3", "Ada Mary", "Lovelace")
	if !strings.HasPrefix(name, "Certificate_Grade3_Ada_Mary_Lovelace_") {
		t.Errorf("Unexpected filename: %s", name)
	}
	if !strings.HasSuffix(name, ".pdf") {
		t.Errorf("Expected .pdf suffix: %s", name)
	}
}
