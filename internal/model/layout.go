package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when a layout configuration cannot produce a
// usable page.
var ErrInvalidConfig = errors.New("invalid layout configuration")

const (
	cmPerInch = 2.54
	mmPerInch = 25.4
)

// LayoutConfig describes the print layout in physical units.
type LayoutConfig struct {
	PrintDPI             int     `json:"print_dpi"`               // Target print resolution
	StickerLongestSideCM float64 `json:"sticker_longest_side_cm"` // Longer side of every sticker
	SpacingCM            float64 `json:"spacing_cm"`              // Gap between neighbouring stickers
	MarginCM             float64 `json:"margin_cm"`               // Blank border on every page edge
	PageWidthMM          float64 `json:"page_width_mm"`
	PageHeightMM         float64 `json:"page_height_mm"`
}

// DefaultLayoutConfig returns the production layout: A4 at 1200 DPI with
// 4.5cm stickers and 1.5mm spacing.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		PrintDPI:             1200,
		StickerLongestSideCM: 4.5,
		SpacingCM:            0.15,
		MarginCM:             0,
		PageWidthMM:          210,
		PageHeightMM:         297,
	}
}

// Validate checks that the configuration describes a printable page.
func (c LayoutConfig) Validate() error {
	switch {
	case c.PrintDPI <= 0:
		return fmt.Errorf("%w: print_dpi must be positive, got %d", ErrInvalidConfig, c.PrintDPI)
	case c.StickerLongestSideCM <= 0:
		return fmt.Errorf("%w: sticker_longest_side_cm must be positive, got %g", ErrInvalidConfig, c.StickerLongestSideCM)
	case c.SpacingCM < 0:
		return fmt.Errorf("%w: spacing_cm must not be negative, got %g", ErrInvalidConfig, c.SpacingCM)
	case c.MarginCM < 0:
		return fmt.Errorf("%w: margin_cm must not be negative, got %g", ErrInvalidConfig, c.MarginCM)
	case c.PageWidthMM <= 0 || c.PageHeightMM <= 0:
		return fmt.Errorf("%w: page size must be positive, got %gx%g mm", ErrInvalidConfig, c.PageWidthMM, c.PageHeightMM)
	}
	marginMM := c.MarginCM * 10
	if 2*marginMM >= c.PageWidthMM || 2*marginMM >= c.PageHeightMM {
		return fmt.Errorf("%w: margin %.1f mm leaves no printable area", ErrInvalidConfig, marginMM)
	}
	return nil
}

// Resolve validates the configuration and converts it to pixel quantities.
func (c LayoutConfig) Resolve() (Layout, error) {
	if err := c.Validate(); err != nil {
		return Layout{}, err
	}
	dpi := float64(c.PrintDPI)
	l := Layout{
		DPI:              c.PrintDPI,
		NormalizedSidePx: cmToPx(c.StickerLongestSideCM, dpi),
		SpacingPx:        cmToPx(c.SpacingCM, dpi),
		MarginPx:         cmToPx(c.MarginCM, dpi),
		PageWidthPx:      mmToPx(c.PageWidthMM, dpi),
		PageHeightPx:     mmToPx(c.PageHeightMM, dpi),
		PageWidthMM:      c.PageWidthMM,
		PageHeightMM:     c.PageHeightMM,
	}
	l.PrintableWidthPx = l.PageWidthPx - 2*l.MarginPx
	l.PrintableHeightPx = l.PageHeightPx - 2*l.MarginPx
	if l.NormalizedSidePx <= 0 || l.PrintableWidthPx <= 0 || l.PrintableHeightPx <= 0 {
		return Layout{}, fmt.Errorf("%w: %d DPI is too low for the configured sizes", ErrInvalidConfig, c.PrintDPI)
	}
	return l, nil
}

func cmToPx(cm, dpi float64) int {
	return int(math.Round(cm / cmPerInch * dpi))
}

func mmToPx(mm, dpi float64) int {
	return int(math.Round(mm / mmPerInch * dpi))
}

// Layout holds every pixel quantity derived from a LayoutConfig. It is
// computed once per run and never modified.
type Layout struct {
	DPI               int `json:"dpi"`
	NormalizedSidePx  int `json:"normalized_side_px"`
	SpacingPx         int `json:"spacing_px"`
	MarginPx          int `json:"margin_px"`
	PageWidthPx       int `json:"page_width_px"`
	PageHeightPx      int `json:"page_height_px"`
	PrintableWidthPx  int `json:"printable_width_px"`
	PrintableHeightPx int `json:"printable_height_px"`

	// Configured physical page size. Zero for layouts built by hand, in
	// which case the size follows from the raster.
	PageWidthMM  float64 `json:"page_width_mm,omitempty"`
	PageHeightMM float64 `json:"page_height_mm,omitempty"`
}

// FitsFootprint reports whether a packing rectangle of w x h pixels fits the
// printable area of a page.
func (l Layout) FitsFootprint(w, h int) bool {
	return w > 0 && h > 0 && w <= l.PrintableWidthPx && h <= l.PrintableHeightPx
}

// PxToMM converts a pixel distance at the layout resolution to millimetres.
func (l Layout) PxToMM(px int) float64 {
	return float64(px) / float64(l.DPI) * mmPerInch
}

// PageSizeMM returns the physical page size. A resolved layout reports the
// configured size exactly; the page raster is stretched by at most half a
// pixel to cover it.
func (l Layout) PageSizeMM() (float64, float64) {
	if l.PageWidthMM > 0 && l.PageHeightMM > 0 {
		return l.PageWidthMM, l.PageHeightMM
	}
	return l.PxToMM(l.PageWidthPx), l.PxToMM(l.PageHeightPx)
}
