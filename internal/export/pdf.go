// Package export writes composed pages and packing results to print files:
// the multi-page PDF, optional QR page tags and DXF cut lines.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/piwi3910/StickerPack/internal/model"
)

// ErrNoPages is returned when a document is written before any page was added.
var ErrNoPages = errors.New("no pages to export")

// Document accumulates page rasters into a PDF. Each page is encoded as soon
// as it is added, so the caller can drop the raster right away.
type Document struct {
	layout  model.Layout
	pdf     *fpdf.Fpdf
	format  model.PageFormat
	quality int
	runID   string
	title   string
	pages   int
}

// DocOption configures a Document.
type DocOption func(*Document)

// WithPageFormat selects how page rasters are embedded.
func WithPageFormat(f model.PageFormat) DocOption {
	return func(d *Document) {
		d.format = f
	}
}

// WithJPEGQuality sets the JPEG quality (1-100). Ignored for PNG pages.
func WithJPEGQuality(q int) DocOption {
	return func(d *Document) {
		d.quality = q
	}
}

// WithRunID sets the run identifier stored in the document keywords and
// page tags. A random one is generated otherwise.
func WithRunID(id string) DocOption {
	return func(d *Document) {
		d.runID = id
	}
}

// WithTitle sets the document title.
func WithTitle(title string) DocOption {
	return func(d *Document) {
		d.title = title
	}
}

// NewDocument creates an empty document whose pages measure exactly the
// page raster at the layout resolution.
func NewDocument(layout model.Layout, opts ...DocOption) *Document {
	d := &Document{
		layout:  layout,
		format:  model.PageFormatJPEG,
		quality: 95,
		title:   "Sticker sheets",
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runID == "" {
		d.runID = uuid.NewString()
	}
	if d.quality < 1 || d.quality > 100 {
		d.quality = 95
	}

	wMM, hMM := layout.PageSizeMM()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: wMM, Ht: hMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(d.title, true)
	pdf.SetCreator("stickerpack", false)
	pdf.SetSubject(fmt.Sprintf("%d DPI, %.1f x %.1f mm", layout.DPI, wMM, hMM), false)
	pdf.SetKeywords("run:"+d.runID, false)
	d.pdf = pdf
	return d
}

// RunID returns the run identifier of the document.
func (d *Document) RunID() string {
	return d.runID
}

// Pages returns the number of pages added so far.
func (d *Document) Pages() int {
	return d.pages
}

// AddPage encodes img and appends it as a full-bleed page.
func (d *Document) AddPage(img image.Image) error {
	if err := d.addRaster(img); err != nil {
		return err
	}
	d.pages++
	return nil
}

func (d *Document) addRaster(img image.Image) error {
	var buf bytes.Buffer
	imageType := "JPG"
	switch d.format {
	case model.PageFormatPNG:
		imageType = "PNG"
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", d.pages+1, err)
		}
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(d.quality)); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", d.pages+1, err)
		}
	}

	wMM, hMM := d.layout.PageSizeMM()
	name := fmt.Sprintf("page%d", d.pages+1)
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}

	d.pdf.AddPage()
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.ImageOptions(name, 0, 0, wMM, hMM, false, opts, 0, "")
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("failed to add page %d: %w", d.pages+1, err)
	}
	return nil
}

// Write renders the PDF to w.
func (d *Document) Write(w io.Writer) error {
	if d.pages == 0 {
		return ErrNoPages
	}
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// WriteFile renders the PDF to path. No file is created for an empty
// document.
func (d *Document) WriteFile(path string) error {
	if d.pages == 0 {
		return ErrNoPages
	}
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF %s: %w", path, err)
	}
	return nil
}

// ExportPDF writes pages, in order, to a single PDF at path.
func ExportPDF(path string, pages []image.Image, layout model.Layout, opts ...DocOption) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	doc := NewDocument(layout, opts...)
	for _, page := range pages {
		if err := doc.AddPage(page); err != nil {
			return err
		}
	}
	return doc.WriteFile(path)
}
