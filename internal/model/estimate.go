package model

import "math"

// PageEstimate holds an area-based estimate of how many pages a set of
// stickers needs.
type PageEstimate struct {
	TotalFootprintArea int     `json:"total_footprint_area"` // Sum of inflated rectangle areas (px²)
	PrintableArea      int     `json:"printable_area"`       // Printable area of one page (px²)
	PagesExact         float64 `json:"pages_exact"`          // Fractional number of pages
	PagesMin           int     `json:"pages_min"`            // Lower bound: ceiling of PagesExact
}

// EstimatePages computes a lower bound on the page count for the given
// packing rectangles. The packer can never beat it; the gap between the
// estimate and the real page count is the packing waste.
func EstimatePages(rects []PackingRect, l Layout) PageEstimate {
	var total int
	for _, r := range rects {
		total += r.Area()
	}

	printable := l.PrintableWidthPx * l.PrintableHeightPx
	if printable <= 0 {
		return PageEstimate{TotalFootprintArea: total}
	}

	exact := float64(total) / float64(printable)
	return PageEstimate{
		TotalFootprintArea: total,
		PrintableArea:      printable,
		PagesExact:         exact,
		PagesMin:           int(math.Ceil(exact)),
	}
}
