// Package render composes packed stickers into full-resolution page rasters.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/piwi3910/StickerPack/internal/model"
)

// ErrUnknownSticker is returned when a placement refers to an ID missing from
// the catalog.
var ErrUnknownSticker = errors.New("unknown sticker")

// Compositor draws the placements of one bin onto a page canvas.
type Compositor struct {
	layout     model.Layout
	background color.Color
	filter     imaging.ResampleFilter
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithBackground sets the canvas fill. Any transparency left after pasting
// is flattened onto white.
func WithBackground(c color.Color) Option {
	return func(cp *Compositor) {
		cp.background = c
	}
}

// WithFilter sets the resampling filter used to scale stickers.
func WithFilter(f imaging.ResampleFilter) Option {
	return func(cp *Compositor) {
		cp.filter = f
	}
}

// NewCompositor creates a compositor for pages of the given layout.
func NewCompositor(layout model.Layout, opts ...Option) *Compositor {
	c := &Compositor{
		layout:     layout,
		background: color.White,
		filter:     imaging.Lanczos,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PastePoint returns the canvas position of the top-left corner of the
// sticker drawn for p: the placement offset shifted by the page margin and
// half the spacing.
func PastePoint(p model.Placement, l model.Layout) image.Point {
	return image.Point{
		X: l.MarginPx + p.X + l.SpacingPx/2,
		Y: l.MarginPx + p.Y + l.SpacingPx/2,
	}
}

// ComposePage renders one page. Each sticker is resampled to its target size
// at the moment it is pasted, so only one scaled sticker is alive at a time.
// The returned canvas is fully opaque.
func (c *Compositor) ComposePage(placements []model.Placement, catalog model.Catalog) (*image.RGBA, error) {
	l := c.layout
	canvas := image.NewRGBA(image.Rect(0, 0, l.PageWidthPx, l.PageHeightPx))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)

	for _, p := range placements {
		item, ok := catalog.Get(p.RefID)
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownSticker, p.RefID)
		}
		if item.Image == nil || item.TargetWidth <= 0 || item.TargetHeight <= 0 {
			return nil, fmt.Errorf("sticker %d (%s) has no image to paste", item.ID, item.Source)
		}

		scaled := imaging.Resize(item.Image, item.TargetWidth, item.TargetHeight, c.filter)
		at := PastePoint(p, l)
		r := image.Rectangle{Min: at, Max: at.Add(scaled.Bounds().Size())}
		draw.Draw(canvas, r, scaled, scaled.Bounds().Min, draw.Over)
	}

	flattenOnWhite(canvas)
	return canvas, nil
}

// flattenOnWhite composites every non-opaque pixel over white in place.
// image.RGBA stores premultiplied colour, so white shows through as the
// missing alpha.
func flattenOnWhite(img *image.RGBA) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		a := pix[i+3]
		if a == 0xff {
			continue
		}
		fill := 0xff - a
		pix[i] += fill
		pix[i+1] += fill
		pix[i+2] += fill
		pix[i+3] = 0xff
	}
}
