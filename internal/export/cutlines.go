package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/StickerPack/internal/model"
	"github.com/piwi3910/StickerPack/internal/render"
)

// CutRect is the outline of one printed sticker in page millimetres, with
// the origin at the bottom-left page corner.
type CutRect struct {
	RefID         int
	X, Y          float64 // Bottom-left corner
	Width, Height float64
}

// CutLayerName returns the DXF layer name used for page i (0-based).
func CutLayerName(i int) string {
	return fmt.Sprintf("PAGE_%d", i+1)
}

// CutRects returns the sticker outlines of every page of result. Each
// outline covers the drawn sticker only, not its spacing.
func CutRects(result model.PackResult, catalog model.Catalog, l model.Layout) ([][]CutRect, error) {
	_, pageH := l.PageSizeMM()
	pages := make([][]CutRect, 0, len(result.Bins))
	for _, bin := range result.Bins {
		rects := make([]CutRect, 0, len(bin))
		for _, p := range bin {
			item, ok := catalog.Get(p.RefID)
			if !ok {
				return nil, fmt.Errorf("%w: id %d", render.ErrUnknownSticker, p.RefID)
			}
			at := render.PastePoint(p, l)
			h := l.PxToMM(item.TargetHeight)
			rects = append(rects, CutRect{
				RefID:  p.RefID,
				X:      l.PxToMM(at.X),
				Y:      pageH - l.PxToMM(at.Y) - h,
				Width:  l.PxToMM(item.TargetWidth),
				Height: h,
			})
		}
		pages = append(pages, rects)
	}
	return pages, nil
}

// ExportCutLines writes a DXF with one layer per page and a closed outline
// of four LINE entities per sticker.
func ExportCutLines(path string, result model.PackResult, catalog model.Catalog, l model.Layout) error {
	if len(result.Bins) == 0 {
		return ErrNoPages
	}
	pages, err := CutRects(result, catalog, l)
	if err != nil {
		return err
	}

	d := dxf.NewDrawing()
	for i, rects := range pages {
		if _, err := d.AddLayer(CutLayerName(i), dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("failed to add layer for page %d: %w", i+1, err)
		}
		for _, r := range rects {
			if err := drawOutline(d, r); err != nil {
				return fmt.Errorf("failed to draw sticker %d on page %d: %w", r.RefID, i+1, err)
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write DXF %s: %w", path, err)
	}
	return nil
}

func drawOutline(d *drawing.Drawing, r CutRect) error {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	edges := [4][4]float64{
		{x0, y0, x1, y0},
		{x1, y0, x1, y1},
		{x1, y1, x0, y1},
		{x0, y1, x0, y0},
	}
	for _, e := range edges {
		if _, err := d.Line(e[0], e[1], 0, e[2], e[3], 0); err != nil {
			return err
		}
	}
	return nil
}
