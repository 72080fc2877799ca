package export

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/StickerPack/internal/model"
	"github.com/piwi3910/StickerPack/internal/render"
)

// cutLayout is a 10 x 10 mm page at 10 px per mm.
func cutLayout() model.Layout {
	return model.Layout{
		DPI:               254,
		NormalizedSidePx:  40,
		SpacingPx:         10,
		PageWidthPx:       100,
		PageHeightPx:      100,
		PrintableWidthPx:  100,
		PrintableHeightPx: 100,
	}
}

func cutFixture() (model.PackResult, model.Catalog) {
	catalog := model.Catalog{}
	catalog.Add(model.StickerItem{ID: 0, TargetWidth: 40, TargetHeight: 20})
	catalog.Add(model.StickerItem{ID: 1, TargetWidth: 20, TargetHeight: 40})
	catalog.Add(model.StickerItem{ID: 2, TargetWidth: 40, TargetHeight: 40})

	result := model.PackResult{
		BinWidth:  100,
		BinHeight: 100,
		Bins: [][]model.Placement{
			{
				{BinIndex: 0, X: 0, Y: 0, Width: 50, Height: 30, RefID: 0},
				{BinIndex: 0, X: 50, Y: 0, Width: 30, Height: 50, RefID: 1},
			},
			{
				{BinIndex: 1, X: 0, Y: 0, Width: 50, Height: 50, RefID: 2},
			},
		},
	}
	return result, catalog
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

func TestCutRects(t *testing.T) {
	result, catalog := cutFixture()
	pages, err := CutRects(result, catalog, cutLayout())
	if err != nil {
		t.Fatalf("CutRects failed: %v", err)
	}
	if len(pages) != 2 || len(pages[0]) != 2 || len(pages[1]) != 1 {
		t.Fatalf("unexpected page structure: %+v", pages)
	}

	// Pasted at (5, 5) px, 40 x 20 px: 0.5 mm from the left, 0.5 mm from the
	// top of a 10 mm page.
	r := pages[0][0]
	if !near(r.X, 0.5) || !near(r.Y, 7.5) || !near(r.Width, 4) || !near(r.Height, 2) {
		t.Errorf("unexpected outline %+v", r)
	}
}

func TestCutRectsMatchPastePoint(t *testing.T) {
	result, catalog := cutFixture()
	l := cutLayout()
	l.MarginPx = 7
	pages, err := CutRects(result, catalog, l)
	if err != nil {
		t.Fatal(err)
	}
	at := render.PastePoint(result.Bins[0][1], l)
	if !near(pages[0][1].X, l.PxToMM(at.X)) {
		t.Errorf("outline x %.3f does not match paste point %.3f", pages[0][1].X, l.PxToMM(at.X))
	}
}

func TestCutRectsUnknownSticker(t *testing.T) {
	result, _ := cutFixture()
	_, err := CutRects(result, model.Catalog{}, cutLayout())
	if !errors.Is(err, render.ErrUnknownSticker) {
		t.Fatalf("expected ErrUnknownSticker, got %v", err)
	}
}

func TestExportCutLines(t *testing.T) {
	result, catalog := cutFixture()
	path := filepath.Join(t.TempDir(), "cut.dxf")

	if err := ExportCutLines(path, result, catalog, cutLayout()); err != nil {
		t.Fatalf("ExportCutLines failed: %v", err)
	}

	dwg, err := dxf.Open(path)
	if err != nil {
		t.Fatalf("cannot reopen DXF: %v", err)
	}

	lines := lineEntities(dwg.Entities())
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines for 3 stickers, got %d", len(lines))
	}

	first := lines[0]
	if !near(first.Start[0], 0.5) || !near(first.Start[1], 7.5) || !near(first.End[0], 4.5) {
		t.Errorf("unexpected first edge %v -> %v", first.Start, first.End)
	}
}

func lineEntities(ents entity.Entities) []*entity.Line {
	var lines []*entity.Line
	for _, ent := range ents {
		if l, ok := ent.(*entity.Line); ok {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestDrawOutlineClosesRectangle(t *testing.T) {
	d := dxf.NewDrawing()
	if err := drawOutline(d, CutRect{RefID: 1, X: 1, Y: 2, Width: 3, Height: 4}); err != nil {
		t.Fatalf("drawOutline failed: %v", err)
	}

	lines := lineEntities(d.Entities())
	if len(lines) != 4 {
		t.Fatalf("expected 4 edges, got %d", len(lines))
	}
	for i, l := range lines {
		next := lines[(i+1)%len(lines)]
		if !near(l.End[0], next.Start[0]) || !near(l.End[1], next.Start[1]) {
			t.Errorf("edge %d ends at %v, next starts at %v", i, l.End, next.Start)
		}
	}
	if !near(lines[1].End[0], 4) || !near(lines[1].End[1], 6) {
		t.Errorf("expected far corner at (4, 6), got %v", lines[1].End)
	}
}

func TestExportCutLinesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cut.dxf")
	if err := ExportCutLines(path, model.PackResult{}, model.Catalog{}, cutLayout()); !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}

func TestCutLayerName(t *testing.T) {
	if got := CutLayerName(0); got != "PAGE_1" {
		t.Errorf("expected PAGE_1, got %s", got)
	}
}
