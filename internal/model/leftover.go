package model

import "sort"

// Leftover is an empty strip of a page's printable area, in printable-area
// pixels, that could still hold more stickers.
type Leftover struct {
	Page   int `json:"page"` // 0-based bin index
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the strip area in square pixels.
func (l Leftover) Area() int {
	return l.Width * l.Height
}

// DetectLeftovers finds the strip right of and the strip below everything
// placed in bin page. Strips narrower than minW or lower than minH are
// dropped. An empty bin is one leftover covering the whole bin.
func DetectLeftovers(r PackResult, page, minW, minH int) []Leftover {
	binW, binH := r.BinWidth, r.BinHeight
	if page < 0 || page >= len(r.Bins) {
		return nil
	}
	bin := r.Bins[page]
	if len(bin) == 0 {
		return []Leftover{{Page: page, Width: binW, Height: binH}}
	}

	var maxRight, maxBottom int
	for _, p := range bin {
		maxRight = max(maxRight, p.X+p.Width)
		maxBottom = max(maxBottom, p.Y+p.Height)
	}

	var leftovers []Leftover

	// Right strip: full height right of all placements
	if w := binW - maxRight; w >= minW && binH >= minH && w > 0 {
		leftovers = append(leftovers, Leftover{Page: page, X: maxRight, Y: 0, Width: w, Height: binH})
	}

	// Bottom strip: below all placements, up to the right strip
	if h := binH - maxBottom; h >= minH && maxRight >= minW && h > 0 {
		leftovers = append(leftovers, Leftover{Page: page, X: 0, Y: maxBottom, Width: maxRight, Height: h})
	}

	sort.Slice(leftovers, func(i, j int) bool {
		return leftovers[i].Area() > leftovers[j].Area()
	})
	return leftovers
}

// DetectAllLeftovers finds leftovers across all pages of a result.
func DetectAllLeftovers(r PackResult, minW, minH int) []Leftover {
	var all []Leftover
	for i := range r.Bins {
		all = append(all, DetectLeftovers(r, i, minW, minH)...)
	}
	return all
}

// TotalLeftoverArea returns the total area of all leftovers in square pixels.
func TotalLeftoverArea(leftovers []Leftover) int {
	var total int
	for _, l := range leftovers {
		total += l.Area()
	}
	return total
}
