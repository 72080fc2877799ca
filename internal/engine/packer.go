package engine

import (
	"sort"

	"github.com/piwi3910/StickerPack/internal/model"
)

// Packer runs the offline 2D bin-packing algorithm over fixed-size bins.
// Rectangles are never rotated.
type Packer struct {
	binWidth  int
	binHeight int
	heuristic model.Heuristic
}

// PackerOption configures a Packer.
type PackerOption func(*Packer)

// WithHeuristic selects the free-region heuristic. Unknown values and
// HeuristicAuto fall back to best area fit; use PackBest to compare.
func WithHeuristic(h model.Heuristic) PackerOption {
	return func(p *Packer) {
		p.heuristic = h
	}
}

// NewPacker creates a packer for bins of the given size.
func NewPacker(binWidth, binHeight int, opts ...PackerOption) *Packer {
	p := &Packer{
		binWidth:  binWidth,
		binHeight: binHeight,
		heuristic: model.HeuristicBestAreaFit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Heuristic returns the heuristic the packer uses.
func (p *Packer) Heuristic() model.Heuristic {
	return p.heuristic
}

// Pack assigns every rectangle to a bin and an offset inside it, opening as
// many bins as needed. Rectangles are taken largest first (area, then
// height, then input order) and go into the first open bin with a fitting
// free region. Rectangles that cannot fit an empty bin are returned in
// Unplaced. The result depends only on the input order and the heuristic.
func (p *Packer) Pack(rects []model.PackingRect) model.PackResult {
	result := model.PackResult{BinWidth: p.binWidth, BinHeight: p.binHeight}

	ordered := make([]model.PackingRect, len(rects))
	copy(ordered, rects)
	sort.SliceStable(ordered, func(i, j int) bool {
		ai, aj := ordered[i].Area(), ordered[j].Area()
		if ai != aj {
			return ai > aj
		}
		return ordered[i].Height > ordered[j].Height
	})

	var bins []*maxRectsBin
	for _, r := range ordered {
		if r.Width <= 0 || r.Height <= 0 || r.Width > p.binWidth || r.Height > p.binHeight {
			result.Unplaced = append(result.Unplaced, r)
			continue
		}

		placed := false
		for i, bin := range bins {
			if x, y, ok := bin.insert(r.Width, r.Height); ok {
				result.Bins[i] = append(result.Bins[i], placementFor(r, i, x, y))
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		bin := newMaxRectsBin(p.binWidth, p.binHeight, p.heuristic)
		x, y, _ := bin.insert(r.Width, r.Height)
		bins = append(bins, bin)
		idx := len(bins) - 1
		result.Bins = append(result.Bins, []model.Placement{placementFor(r, idx, x, y)})
	}

	return result
}

func placementFor(r model.PackingRect, bin, x, y int) model.Placement {
	return model.Placement{
		BinIndex: bin,
		X:        x,
		Y:        y,
		Width:    r.Width,
		Height:   r.Height,
		RefID:    r.RefID,
	}
}

type rect struct {
	x, y, w, h int
}

// scoreFunc rates placing a w x h rectangle into a free rectangle. Lower is
// better; the second value breaks ties.
type scoreFunc func(free rect, w, h int) (int, int)

func scoreBestAreaFit(free rect, w, h int) (int, int) {
	return free.w*free.h - w*h, min(free.w-w, free.h-h)
}

func scoreBestShortSideFit(free rect, w, h int) (int, int) {
	dw, dh := free.w-w, free.h-h
	return min(dw, dh), max(dw, dh)
}

func scoreBottomLeft(free rect, w, h int) (int, int) {
	return free.y + h, free.x
}

func scoreFor(h model.Heuristic) scoreFunc {
	switch h {
	case model.HeuristicBestShortSideFit:
		return scoreBestShortSideFit
	case model.HeuristicBottomLeft:
		return scoreBottomLeft
	default:
		return scoreBestAreaFit
	}
}

// maxRectsBin tracks the maximal free rectangles of one bin.
type maxRectsBin struct {
	freeRects []rect
	score     scoreFunc
}

func newMaxRectsBin(width, height int, h model.Heuristic) *maxRectsBin {
	return &maxRectsBin{
		freeRects: []rect{{0, 0, width, height}},
		score:     scoreFor(h),
	}
}

// insert places a w x h rectangle at the top-left corner of the best scoring
// free rectangle. Equal scores are resolved by position (top first, then
// left) so the outcome never depends on free-list order.
func (b *maxRectsBin) insert(w, h int) (int, int, bool) {
	bestIdx := -1
	var best1, best2 int
	for i, r := range b.freeRects {
		if w > r.w || h > r.h {
			continue
		}
		s1, s2 := b.score(r, w, h)
		if bestIdx < 0 || better(s1, s2, r, best1, best2, b.freeRects[bestIdx]) {
			bestIdx = i
			best1, best2 = s1, s2
		}
	}
	if bestIdx < 0 {
		return 0, 0, false
	}

	chosen := b.freeRects[bestIdx]
	b.splitAroundPlacement(rect{x: chosen.x, y: chosen.y, w: w, h: h})
	return chosen.x, chosen.y, true
}

func better(s1, s2 int, r rect, best1, best2 int, bestRect rect) bool {
	if s1 != best1 {
		return s1 < best1
	}
	if s2 != best2 {
		return s2 < best2
	}
	if r.y != bestRect.y {
		return r.y < bestRect.y
	}
	return r.x < bestRect.x
}

// splitAroundPlacement removes all free rects that overlap with the placed rect
// and generates maximal sub-rects from each overlap. Then prunes contained rects.
func (b *maxRectsBin) splitAroundPlacement(placed rect) {
	var newRects []rect

	for _, r := range b.freeRects {
		if !rectsOverlap(r, placed) {
			newRects = append(newRects, r)
			continue
		}

		// Left strip (full height of original rect)
		if placed.x > r.x {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: placed.x - r.x, h: r.h})
		}
		// Right strip (full height of original rect)
		if placed.x+placed.w < r.x+r.w {
			newRects = append(newRects, rect{
				x: placed.x + placed.w, y: r.y,
				w: (r.x + r.w) - (placed.x + placed.w), h: r.h,
			})
		}
		// Top strip (full width of original rect)
		if placed.y > r.y {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: r.w, h: placed.y - r.y})
		}
		// Bottom strip (full width of original rect)
		if placed.y+placed.h < r.y+r.h {
			newRects = append(newRects, rect{
				x: r.x, y: placed.y + placed.h,
				w: r.w, h: (r.y + r.h) - (placed.y + placed.h),
			})
		}
	}

	b.freeRects = pruneContained(newRects)
}

// rectsOverlap returns true if two rectangles overlap (not just touch).
func rectsOverlap(a, b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// pruneContained removes any rect that is fully contained within another.
// Of two identical rects the first one is kept.
func pruneContained(rects []rect) []rect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !containsRect(b, a) {
				continue
			}
			if a != b || j < i {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x && outer.y <= inner.y &&
		outer.x+outer.w >= inner.x+inner.w &&
		outer.y+outer.h >= inner.y+inner.h
}
