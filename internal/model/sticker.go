package model

import (
	"image"
	"sort"
)

// StickerItem is one foreground cut-out after background removal and cropping.
type StickerItem struct {
	ID           int         `json:"id"`
	Source       string      `json:"source"`        // Input file name
	Copy         int         `json:"copy"`          // 1-based copy number of Source
	Image        image.Image `json:"-"`             // Cropped image at its original pixel size
	TargetWidth  int         `json:"target_width"`  // Normalized render width (px)
	TargetHeight int         `json:"target_height"` // Normalized render height (px)
}

// Footprint returns the packer-facing rectangle for the item, inflated by the
// layout spacing so that half the spacing is reserved on every side.
func (s StickerItem) Footprint(l Layout) PackingRect {
	return PackingRect{
		Width:  s.TargetWidth + l.SpacingPx,
		Height: s.TargetHeight + l.SpacingPx,
		RefID:  s.ID,
	}
}

// Catalog maps sticker IDs to their items.
type Catalog map[int]StickerItem

// Add stores an item under its ID.
func (c Catalog) Add(item StickerItem) {
	c[item.ID] = item
}

// Get returns the item with the given ID.
func (c Catalog) Get(id int) (StickerItem, bool) {
	item, ok := c[id]
	return item, ok
}

// Len returns the number of items.
func (c Catalog) Len() int {
	return len(c)
}

// IDs returns all item IDs in ascending order.
func (c Catalog) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Footprints returns the packing rectangles of all items in ID order.
func (c Catalog) Footprints(l Layout) []PackingRect {
	ids := c.IDs()
	rects := make([]PackingRect, 0, len(ids))
	for _, id := range ids {
		rects = append(rects, c[id].Footprint(l))
	}
	return rects
}

// PackingRect is a rectangle handed to the packer.
type PackingRect struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	RefID  int `json:"ref_id"`
}

// Area returns the rectangle area in square pixels.
func (r PackingRect) Area() int {
	return r.Width * r.Height
}

// Placement assigns one packing rectangle to a bin at an offset inside the
// printable area of that bin.
type Placement struct {
	BinIndex int `json:"bin"`
	X        int `json:"x"`
	Y        int `json:"y"`
	Width    int `json:"width"`
	Height   int `json:"height"`
	RefID    int `json:"ref_id"`
}

// Overlaps reports whether two placements in the same bin share any area.
// Placements that merely touch do not overlap.
func (p Placement) Overlaps(o Placement) bool {
	if p.BinIndex != o.BinIndex {
		return false
	}
	return p.X < o.X+o.Width && o.X < p.X+p.Width &&
		p.Y < o.Y+o.Height && o.Y < p.Y+p.Height
}

// PackResult is the full packing solution.
type PackResult struct {
	BinWidth  int           `json:"bin_width"`
	BinHeight int           `json:"bin_height"`
	Bins      [][]Placement `json:"bins"`
	Unplaced  []PackingRect `json:"unplaced"`
}

// PlacementCount returns the number of placed rectangles across all bins.
func (r PackResult) PlacementCount() int {
	total := 0
	for _, b := range r.Bins {
		total += len(b)
	}
	return total
}

// UsedArea returns the area covered by placements in bin i.
func (r PackResult) UsedArea(i int) int {
	var total int
	for _, p := range r.Bins[i] {
		total += p.Width * p.Height
	}
	return total
}

// Efficiency returns the usage percentage over all bins.
func (r PackResult) Efficiency() float64 {
	binArea := float64(r.BinWidth) * float64(r.BinHeight)
	if len(r.Bins) == 0 || binArea == 0 {
		return 0
	}
	var used float64
	for i := range r.Bins {
		used += float64(r.UsedArea(i))
	}
	return used / (binArea * float64(len(r.Bins))) * 100.0
}
