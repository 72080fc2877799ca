package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/piwi3910/StickerPack/internal/model"
)

// smallLayout is a 10 DPI page of roughly A4 size, so rasters stay tiny.
func smallLayout() model.Layout {
	return model.Layout{
		DPI:               10,
		NormalizedSidePx:  18,
		SpacingPx:         1,
		MarginPx:          4,
		PageWidthPx:       83,
		PageHeightPx:      117,
		PrintableWidthPx:  75,
		PrintableHeightPx: 109,
	}
}

func testPage(l model.Layout, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.PageWidthPx, l.PageHeightPx))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 0xff
	}
	return img
}

var (
	mediaBoxRe = regexp.MustCompile(`/MediaBox \[0 0 ([\d.]+) ([\d.]+)\]`)
	white      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func pageCount(pdf string) int {
	return strings.Count(pdf, "/Type /Page") - strings.Count(pdf, "/Type /Pages")
}

// ─── Document Tests ─────────────────────────────────────────

func TestDocument_PageCountAndSize(t *testing.T) {
	l := smallLayout()
	doc := NewDocument(l, WithRunID("run-1"))
	for i := 0; i < 3; i++ {
		if err := doc.AddPage(testPage(l, white)); err != nil {
			t.Fatalf("AddPage %d failed: %v", i, err)
		}
	}
	if doc.Pages() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.Pages())
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "%PDF-") {
		t.Fatal("output is not a PDF")
	}
	if n := pageCount(out); n != 3 {
		t.Errorf("expected 3 PDF pages, got %d", n)
	}

	// 83 px at 10 DPI is 8.3 in, 597.6 pt; 117 px is 842.4 pt.
	m := mediaBoxRe.FindStringSubmatch(out)
	if m == nil {
		t.Fatal("no MediaBox found")
	}
	w, _ := strconv.ParseFloat(m[1], 64)
	h, _ := strconv.ParseFloat(m[2], 64)
	if math.Abs(w-597.6) > 0.05 || math.Abs(h-842.4) > 0.05 {
		t.Errorf("expected 597.6x842.4 pt page, got %.2fx%.2f", w, h)
	}

	if !strings.Contains(out, "/Width 83") || !strings.Contains(out, "/Height 117") {
		t.Error("page raster should be embedded at full resolution")
	}
	if !strings.Contains(out, "run:run-1") {
		t.Error("run ID should be stored in the keywords")
	}
}

func TestDocument_PNGPages(t *testing.T) {
	l := smallLayout()
	doc := NewDocument(l, WithPageFormat(model.PageFormatPNG))
	if err := doc.AddPage(testPage(l, color.RGBA{R: 200, A: 255})); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "/FlateDecode") {
		t.Error("PNG pages should be stored losslessly")
	}
	if strings.Contains(buf.String(), "/DCTDecode") {
		t.Error("PNG pages must not be JPEG encoded")
	}
}

func TestDocument_ResolvedLayoutKeepsConfiguredPageSize(t *testing.T) {
	cfg := model.DefaultLayoutConfig()
	cfg.PrintDPI = 20
	l, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	// 165 px at 20 DPI is only 209.55 mm; the page must still be A4.
	if math.Abs(l.PxToMM(l.PageWidthPx)-210) < 0.1 {
		t.Fatalf("test layout should not round to A4, got %d px", l.PageWidthPx)
	}

	doc := NewDocument(l)
	if err := doc.AddPage(testPage(l, white)); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	m := mediaBoxRe.FindStringSubmatch(buf.String())
	if m == nil {
		t.Fatal("no MediaBox found")
	}
	w, _ := strconv.ParseFloat(m[1], 64)
	h, _ := strconv.ParseFloat(m[2], 64)
	if math.Abs(w-595.28) > 0.01 || math.Abs(h-841.89) > 0.01 {
		t.Errorf("expected A4 page of 595.28x841.89 pt, got %.2fx%.2f", w, h)
	}
}

func TestDocument_GeneratesRunID(t *testing.T) {
	a := NewDocument(smallLayout())
	b := NewDocument(smallLayout())
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("expected distinct run IDs, got %q and %q", a.RunID(), b.RunID())
	}
}

func TestDocument_WriteFileWithoutPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	err := NewDocument(smallLayout()).WriteFile(path)
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created for an empty document")
	}
}

func TestDocument_WriteFileUnwritablePath(t *testing.T) {
	l := smallLayout()
	doc := NewDocument(l)
	if err := doc.AddPage(testPage(l, white)); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	err := doc.WriteFile(filepath.Join(t.TempDir(), "missing", "out.pdf"))
	if err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

// ─── ExportPDF Tests ────────────────────────────────────────

func TestExportPDF_CreatesFile(t *testing.T) {
	l := smallLayout()
	path := filepath.Join(t.TempDir(), "stickers.pdf")

	pages := []image.Image{testPage(l, white), testPage(l, color.RGBA{G: 180, A: 255})}
	if err := ExportPDF(path, pages, l, WithJPEGQuality(80)); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if n := pageCount(string(data)); n != 2 {
		t.Errorf("expected 2 pages, got %d", n)
	}
}

func TestExportPDF_NoPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := ExportPDF(path, nil, smallLayout()); !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created")
	}
}
