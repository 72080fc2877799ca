package engine

import "github.com/piwi3910/StickerPack/internal/model"

// HeuristicResult holds the packing result and computed statistics for a
// single heuristic.
type HeuristicResult struct {
	Heuristic     model.Heuristic
	Result        model.PackResult
	PagesUsed     int
	WastePercent  float64
	UnplacedCount int
}

// CompareHeuristics packs the same rectangles with every heuristic and
// returns the results in model.Heuristics order.
func CompareHeuristics(rects []model.PackingRect, binWidth, binHeight int) []HeuristicResult {
	results := make([]HeuristicResult, 0, len(model.Heuristics))

	for _, h := range model.Heuristics {
		result := NewPacker(binWidth, binHeight, WithHeuristic(h)).Pack(rects)
		results = append(results, HeuristicResult{
			Heuristic:     h,
			Result:        result,
			PagesUsed:     len(result.Bins),
			WastePercent:  100.0 - result.Efficiency(),
			UnplacedCount: len(result.Unplaced),
		})
	}

	return results
}

// PackBest compares all heuristics and returns the one using the fewest
// pages. On equal page counts the result whose last page is emptiest wins,
// since its earlier pages are fuller; remaining ties keep comparison order.
func PackBest(rects []model.PackingRect, binWidth, binHeight int) HeuristicResult {
	results := CompareHeuristics(rects, binWidth, binHeight)
	best := results[0]
	for _, r := range results[1:] {
		if r.PagesUsed < best.PagesUsed {
			best = r
			continue
		}
		if r.PagesUsed == best.PagesUsed && r.PagesUsed > 0 &&
			lastPageArea(r.Result) < lastPageArea(best.Result) {
			best = r
		}
	}
	return best
}

// Pack runs the packer with the given heuristic; HeuristicAuto compares all
// of them through PackBest.
func Pack(rects []model.PackingRect, binWidth, binHeight int, h model.Heuristic) HeuristicResult {
	if h == model.HeuristicAuto {
		return PackBest(rects, binWidth, binHeight)
	}
	result := NewPacker(binWidth, binHeight, WithHeuristic(h)).Pack(rects)
	return HeuristicResult{
		Heuristic:     h,
		Result:        result,
		PagesUsed:     len(result.Bins),
		WastePercent:  100.0 - result.Efficiency(),
		UnplacedCount: len(result.Unplaced),
	}
}

func lastPageArea(r model.PackResult) int {
	if len(r.Bins) == 0 {
		return 0
	}
	return r.UsedArea(len(r.Bins) - 1)
}
