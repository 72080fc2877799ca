package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/StickerPack/internal/model"
	"github.com/piwi3910/StickerPack/internal/render"
)

// ReportVersion is the format version written into every layout report.
const ReportVersion = "1.0.0"

// LayoutReport records where every sticker of a run was printed.
type LayoutReport struct {
	Version    string           `json:"version"`
	CreatedAt  string           `json:"created_at"`
	RunID      string           `json:"run_id"`
	Config     model.AppConfig  `json:"config"`
	Layout     model.Layout     `json:"layout"`
	Heuristic  model.Heuristic  `json:"heuristic"`
	Efficiency float64          `json:"efficiency_percent"`
	Pages      []PageReport     `json:"pages"`
	Skipped    []SkippedInput   `json:"skipped,omitempty"`
	Unplaced   []int            `json:"unplaced,omitempty"`
	Leftovers  []model.Leftover `json:"leftovers,omitempty"` // Free strips on the last page
}

// PageReport lists the stickers printed on one page.
type PageReport struct {
	Page     int              `json:"page"` // 1-based
	Stickers []PrintedSticker `json:"stickers"`
}

// PrintedSticker is the drawn rectangle of one sticker in page pixels.
type PrintedSticker struct {
	ID     int    `json:"id"`
	Source string `json:"source"`
	Copy   int    `json:"copy"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SkippedInput names an input file that produced no sticker.
type SkippedInput struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// NewLayoutReport builds a report from a packing result.
func NewLayoutReport(runID string, cfg model.AppConfig, l model.Layout, h model.Heuristic, result model.PackResult, catalog model.Catalog) (LayoutReport, error) {
	report := LayoutReport{
		Version:    ReportVersion,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		RunID:      runID,
		Config:     cfg,
		Layout:     l,
		Heuristic:  h,
		Efficiency: result.Efficiency(),
		Pages:      make([]PageReport, 0, len(result.Bins)),
	}

	for i, bin := range result.Bins {
		page := PageReport{Page: i + 1, Stickers: make([]PrintedSticker, 0, len(bin))}
		for _, p := range bin {
			item, ok := catalog.Get(p.RefID)
			if !ok {
				return LayoutReport{}, fmt.Errorf("%w: id %d", render.ErrUnknownSticker, p.RefID)
			}
			at := render.PastePoint(p, l)
			page.Stickers = append(page.Stickers, PrintedSticker{
				ID:     item.ID,
				Source: item.Source,
				Copy:   item.Copy,
				X:      at.X,
				Y:      at.Y,
				Width:  item.TargetWidth,
				Height: item.TargetHeight,
			})
		}
		report.Pages = append(report.Pages, page)
	}

	for _, r := range result.Unplaced {
		report.Unplaced = append(report.Unplaced, r.RefID)
	}
	return report, nil
}

// SaveLayoutReport writes the report to path as JSON, creating parent
// directories.
func SaveLayoutReport(path string, report LayoutReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal layout report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write layout report: %w", err)
	}
	return nil
}

// LoadLayoutReport reads a report written by SaveLayoutReport.
func LoadLayoutReport(path string) (LayoutReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LayoutReport{}, fmt.Errorf("failed to read layout report: %w", err)
	}
	var report LayoutReport
	if err := json.Unmarshal(data, &report); err != nil {
		return LayoutReport{}, fmt.Errorf("failed to parse layout report: %w", err)
	}
	if report.Version == "" {
		return LayoutReport{}, fmt.Errorf("invalid layout report: missing version field")
	}
	return report, nil
}
