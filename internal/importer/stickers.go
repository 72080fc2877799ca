package importer

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/piwi3910/StickerPack/internal/engine"
	"github.com/piwi3910/StickerPack/internal/model"
	"github.com/piwi3910/StickerPack/internal/segment"
)

// imageExtensions lists the input formats, all lower case.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// ListImages returns the image files directly inside dir, sorted by file
// name so that runs over the same directory are reproducible.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})
	return files, nil
}

// Source is one input image and the number of copies to print.
type Source struct {
	Path   string
	Copies int
}

// Sources pairs files with their manifest copy counts. Files missing from a
// non-nil manifest get one copy; files with zero copies are left out. The
// returned warnings name manifest entries that match no file.
func Sources(files []string, m Manifest) ([]Source, []string) {
	sources := make([]Source, 0, len(files))
	matched := make(map[string]bool, len(m))
	for _, f := range files {
		copies := 1
		if n, ok := m.Copies(f); ok {
			copies = n
			matched[manifestKey(f)] = true
		}
		if copies <= 0 {
			continue
		}
		sources = append(sources, Source{Path: f, Copies: copies})
	}

	var warnings []string
	for name := range m {
		if !matched[name] {
			warnings = append(warnings, fmt.Sprintf("manifest entry %q matches no input image", name))
		}
	}
	sort.Strings(warnings)
	return sources, warnings
}

// Reason classifies why an input was skipped.
type Reason string

const (
	ReasonUnreadable Reason = "unreadable" // File could not be read
	ReasonBackground Reason = "background" // Background removal or decoding failed
	ReasonEmpty      Reason = "empty"      // No foreground pixels
	ReasonOversize   Reason = "oversize"   // Footprint larger than the printable area
	ReasonUnplaced   Reason = "unplaced"   // Packer could not place it
)

// IngestError records one skipped input. It is a value, not a failure of
// the run.
type IngestError struct {
	File   string `json:"file"`
	Reason Reason `json:"reason"`
	Err    error  `json:"-"`
}

func (e IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

func (e IngestError) Unwrap() error {
	return e.Err
}

// IngestReport is the outcome of ingesting a batch.
type IngestReport struct {
	Catalog model.Catalog
	Files   int           // Inputs that produced at least one item
	Skipped []IngestError // Inputs dropped with a warning
}

// Ingestor crops and normalizes input images into sticker items.
type Ingestor struct {
	layout  model.Layout
	remover segment.Remover
	log     logrus.FieldLogger
	nextID  int
}

// NewIngestor creates an ingestor. IDs are assigned from zero in ingestion
// order.
func NewIngestor(layout model.Layout, remover segment.Remover, log logrus.FieldLogger) *Ingestor {
	return &Ingestor{layout: layout, remover: remover, log: log}
}

// Ingest processes the sources one by one. Per-file problems are logged and
// collected in the report; only context cancellation stops the batch.
func (in *Ingestor) Ingest(ctx context.Context, sources []Source) (IngestReport, error) {
	report := IngestReport{Catalog: model.Catalog{}}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		items, ierr := in.ingestOne(ctx, src)
		if ierr != nil {
			in.log.WithFields(logrus.Fields{
				"file":   ierr.File,
				"reason": ierr.Reason,
			}).WithError(ierr.Err).Warn("Skipping input")
			report.Skipped = append(report.Skipped, *ierr)
			continue
		}

		for _, item := range items {
			report.Catalog.Add(item)
		}
		report.Files++
		in.log.WithFields(logrus.Fields{
			"file":   filepath.Base(src.Path),
			"width":  items[0].TargetWidth,
			"height": items[0].TargetHeight,
			"copies": len(items),
		}).Debug("Ingested sticker")
	}

	return report, nil
}

func (in *Ingestor) ingestOne(ctx context.Context, src Source) ([]model.StickerItem, *IngestError) {
	name := filepath.Base(src.Path)

	cropped, ierr := in.loadCropped(ctx, src.Path)
	if ierr != nil {
		return nil, ierr
	}

	b := cropped.Bounds()
	tw, th, err := engine.Normalize(b.Dx(), b.Dy(), in.layout.NormalizedSidePx)
	if err != nil {
		return nil, &IngestError{File: name, Reason: ReasonEmpty, Err: err}
	}

	fw, fh := tw+in.layout.SpacingPx, th+in.layout.SpacingPx
	if !in.layout.FitsFootprint(fw, fh) {
		return nil, &IngestError{
			File:   name,
			Reason: ReasonOversize,
			Err: fmt.Errorf("footprint %dx%d px exceeds printable area %dx%d px",
				fw, fh, in.layout.PrintableWidthPx, in.layout.PrintableHeightPx),
		}
	}

	copies := max(src.Copies, 1)
	items := make([]model.StickerItem, 0, copies)
	for c := 1; c <= copies; c++ {
		items = append(items, model.StickerItem{
			ID:           in.nextID,
			Source:       name,
			Copy:         c,
			Image:        cropped,
			TargetWidth:  tw,
			TargetHeight: th,
		})
		in.nextID++
	}
	return items, nil
}

// loadCropped reads, segments and crops one file. Only the cropped copy
// outlives this call.
func (in *Ingestor) loadCropped(ctx context.Context, path string) (*image.NRGBA, *IngestError) {
	name := filepath.Base(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IngestError{File: name, Reason: ReasonUnreadable, Err: err}
	}

	img, err := in.remover.RemoveBackground(ctx, raw)
	if err != nil {
		return nil, &IngestError{File: name, Reason: ReasonBackground, Err: err}
	}

	nrgba := toNRGBA(img)
	bbox := AlphaBounds(nrgba)
	if bbox.Empty() {
		return nil, &IngestError{File: name, Reason: ReasonEmpty, Err: fmt.Errorf("no foreground pixels")}
	}
	return imaging.Crop(nrgba, bbox), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return imaging.Clone(img)
}

// AlphaBounds returns the smallest rectangle containing every pixel with a
// non-zero alpha value, or an empty rectangle if there is none.
func AlphaBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
