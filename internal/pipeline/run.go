// Package pipeline runs a full batch: ingest the input directory, pack the
// stickers onto pages, compose each page and write the print document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/piwi3910/StickerPack/internal/engine"
	"github.com/piwi3910/StickerPack/internal/export"
	"github.com/piwi3910/StickerPack/internal/importer"
	"github.com/piwi3910/StickerPack/internal/logging"
	"github.com/piwi3910/StickerPack/internal/model"
	"github.com/piwi3910/StickerPack/internal/project"
	"github.com/piwi3910/StickerPack/internal/render"
	"github.com/piwi3910/StickerPack/internal/segment"
)

// ErrNoStickers is returned when no input produced a printable sticker. No
// output file is written in that case.
var ErrNoStickers = errors.New("no stickers to print")

// Options describes one run.
type Options struct {
	InputDir     string
	OutputPath   string // PDF
	ManifestPath string // Optional CSV or XLSX copy manifest
	CutLinesPath string // Optional DXF
	ReportPath   string // Optional JSON layout report
	RunID        string // Generated when empty

	Config  model.AppConfig
	Remover segment.Remover    // Built from Config.Remover when nil
	Logger  logrus.FieldLogger // Defaults to the process logger
}

// Report summarizes a run.
type Report struct {
	RunID        string                 `json:"run_id"`
	Inputs       int                    `json:"inputs"`
	Accepted     int                    `json:"accepted"` // Sticker items, copies included
	Skipped      []importer.IngestError `json:"skipped,omitempty"`
	Dropped      []int                  `json:"dropped,omitempty"` // IDs the packer could not place
	Warnings     []string               `json:"warnings,omitempty"`
	Estimate     model.PageEstimate     `json:"estimate"`
	Heuristic    model.Heuristic        `json:"heuristic"`
	Pages        int                    `json:"pages"`
	Efficiency   float64                `json:"efficiency_percent"`
	Leftovers    []model.Leftover       `json:"leftovers,omitempty"` // Free strips on the last page
	OutputPath   string                 `json:"output_path,omitempty"`
	CutLinesPath string                 `json:"cut_lines_path,omitempty"`
	ReportPath   string                 `json:"report_path,omitempty"`
}

// Run executes the batch described by opts. It returns ErrNoStickers, with
// a filled report, when there is nothing to print.
func Run(ctx context.Context, opts Options) (Report, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Component("pipeline")
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := Report{RunID: runID}

	if err := opts.Config.Validate(); err != nil {
		return report, err
	}
	layout, err := opts.Config.Layout.Resolve()
	if err != nil {
		return report, err
	}
	log.WithFields(logrus.Fields{
		"run":        runID,
		"dpi":        layout.DPI,
		"sticker_px": layout.NormalizedSidePx,
		"spacing_px": layout.SpacingPx,
		"margin_px":  layout.MarginPx,
		"page_px":    fmt.Sprintf("%dx%d", layout.PageWidthPx, layout.PageHeightPx),
	}).Info("Resolved layout")

	sources, err := collectSources(opts, log, &report)
	if err != nil {
		return report, err
	}
	report.Inputs = len(sources)

	remover := opts.Remover
	if remover == nil {
		if remover, err = segment.New(opts.Config.Remover); err != nil {
			return report, err
		}
	}

	ingested, err := importer.NewIngestor(layout, remover, log).Ingest(ctx, sources)
	report.Skipped = ingested.Skipped
	if err != nil {
		return report, err
	}
	report.Accepted = ingested.Catalog.Len()
	log.WithFields(logrus.Fields{
		"inputs":   report.Inputs,
		"stickers": report.Accepted,
		"skipped":  len(report.Skipped),
	}).Info("Ingested inputs")

	if err := emit(ctx, opts, runID, layout, ingested.Catalog, log, &report); err != nil {
		return report, err
	}
	return report, nil
}

// collectSources lists the input directory and applies the copy manifest.
func collectSources(opts Options, log logrus.FieldLogger, report *Report) ([]importer.Source, error) {
	files, err := importer.ListImages(opts.InputDir)
	if err != nil {
		return nil, err
	}

	var manifest importer.Manifest
	if opts.ManifestPath != "" {
		imported := importer.ImportManifest(opts.ManifestPath)
		for _, msg := range imported.Errors {
			log.WithField("manifest", opts.ManifestPath).Warn(msg)
		}
		if len(imported.Entries) == 0 && len(imported.Errors) > 0 {
			return nil, fmt.Errorf("failed to import manifest %s: %s", opts.ManifestPath, strings.Join(imported.Errors, "; "))
		}
		report.Warnings = append(report.Warnings, imported.Warnings...)
		manifest = imported.Manifest()
	}

	sources, warnings := importer.Sources(files, manifest)
	for _, w := range warnings {
		log.Warn(w)
	}
	report.Warnings = append(report.Warnings, warnings...)
	return sources, nil
}

// emit packs the catalog, writes one page per bin and the optional side
// outputs.
func emit(ctx context.Context, opts Options, runID string, layout model.Layout, catalog model.Catalog, log logrus.FieldLogger, report *Report) error {
	if catalog.Len() == 0 {
		log.Info("No stickers to print, nothing written")
		return ErrNoStickers
	}

	rects := catalog.Footprints(layout)
	report.Estimate = model.EstimatePages(rects, layout)
	log.WithFields(logrus.Fields{
		"stickers":  len(rects),
		"pages_min": report.Estimate.PagesMin,
	}).Debug("Estimated page count")

	packed := engine.Pack(rects, layout.PrintableWidthPx, layout.PrintableHeightPx, opts.Config.Output.Heuristic)
	result := packed.Result
	report.Heuristic = packed.Heuristic
	for _, r := range result.Unplaced {
		item, _ := catalog.Get(r.RefID)
		log.WithFields(logrus.Fields{
			"file": item.Source,
			"id":   r.RefID,
		}).Warn("Dropping sticker the packer could not place")
		report.Dropped = append(report.Dropped, r.RefID)
		report.Skipped = append(report.Skipped, importer.IngestError{File: item.Source, Reason: importer.ReasonUnplaced})
	}
	if result.PlacementCount() == 0 {
		log.Info("No stickers to print, nothing written")
		return ErrNoStickers
	}

	log.WithFields(logrus.Fields{
		"heuristic":  packed.Heuristic,
		"pages":      len(result.Bins),
		"efficiency": fmt.Sprintf("%.1f%%", result.Efficiency()),
	}).Info("Packed stickers")

	if err := writePages(ctx, opts, runID, layout, result, catalog, log); err != nil {
		return err
	}
	report.Pages = len(result.Bins)
	report.Efficiency = result.Efficiency()
	report.OutputPath = opts.OutputPath

	minW, minH := smallestFootprint(rects)
	report.Leftovers = model.DetectLeftovers(result, len(result.Bins)-1, minW, minH)
	if len(report.Leftovers) > 0 {
		log.WithFields(logrus.Fields{
			"strips":  len(report.Leftovers),
			"area_px": model.TotalLeftoverArea(report.Leftovers),
		}).Info("Last page has room for more stickers")
	}

	if opts.CutLinesPath != "" {
		if err := export.ExportCutLines(opts.CutLinesPath, result, catalog, layout); err != nil {
			return err
		}
		report.CutLinesPath = opts.CutLinesPath
		log.WithField("path", opts.CutLinesPath).Info("Wrote cut lines")
	}

	if opts.ReportPath != "" {
		lr, err := project.NewLayoutReport(runID, opts.Config, layout, packed.Heuristic, result, catalog)
		if err != nil {
			return err
		}
		lr.Leftovers = report.Leftovers
		for _, s := range report.Skipped {
			lr.Skipped = append(lr.Skipped, project.SkippedInput{File: s.File, Reason: string(s.Reason)})
		}
		if err := project.SaveLayoutReport(opts.ReportPath, lr); err != nil {
			return err
		}
		report.ReportPath = opts.ReportPath
		log.WithField("path", opts.ReportPath).Info("Wrote layout report")
	}
	return nil
}

// smallestFootprint returns the size of the smallest rectangle by area.
func smallestFootprint(rects []model.PackingRect) (int, int) {
	if len(rects) == 0 {
		return 0, 0
	}
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Area() < best.Area() {
			best = r
		}
	}
	return best.Width, best.Height
}

// writePages composes the bins in order and writes the PDF. Only one page
// raster exists at a time.
func writePages(ctx context.Context, opts Options, runID string, layout model.Layout, result model.PackResult, catalog model.Catalog, log logrus.FieldLogger) error {
	out := opts.Config.Output
	doc := export.NewDocument(layout,
		export.WithPageFormat(out.PageFormat),
		export.WithJPEGQuality(out.JPEGQuality),
		export.WithRunID(runID),
		export.WithTitle(strings.TrimSuffix(filepath.Base(opts.OutputPath), filepath.Ext(opts.OutputPath))),
	)

	tagged := out.PageTags
	if tagged && !export.TagFits(layout) {
		log.WithField("margin_mm", fmt.Sprintf("%.1f", layout.PxToMM(layout.MarginPx))).
			Warnf("Page tags need a margin of at least %.0f mm, skipping them", export.MinTagMarginMM)
		tagged = false
	}
	tags := export.CollectPageTags(runID, result)
	compositor := render.NewCompositor(layout)

	for i, bin := range result.Bins {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := compositor.ComposePage(bin, catalog)
		if err != nil {
			return fmt.Errorf("failed to compose page %d: %w", i+1, err)
		}
		if tagged {
			err = doc.AddTaggedPage(page, tags[i])
		} else {
			err = doc.AddPage(page)
		}
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"page":     i + 1,
			"stickers": len(bin),
		}).Debug("Composed page")
	}

	if err := doc.WriteFile(opts.OutputPath); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"path":  opts.OutputPath,
		"pages": doc.Pages(),
	}).Info("Wrote print document")
	return nil
}
