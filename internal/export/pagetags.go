package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/StickerPack/internal/model"
)

// ErrNoTagRoom is returned when the page margin is too narrow for a tag.
var ErrNoTagRoom = errors.New("page margin too small for a page tag")

// PageTag is the data encoded into the QR code of one page.
type PageTag struct {
	Run      string `json:"run"`
	Page     int    `json:"page"`  // 1-based
	Pages    int    `json:"pages"` // Total pages in the run
	Stickers []int  `json:"stickers"`
}

// Page tag geometry in mm.
const (
	MinTagMarginMM = 8.0
	tagPaddingMM   = 1.0
	tagMaxSizeMM   = 20.0
)

// TagFits reports whether the layout margin can hold a page tag.
func TagFits(l model.Layout) bool {
	return l.PxToMM(l.MarginPx) >= MinTagMarginMM
}

// tagSizeMM returns the edge length of the QR code for a layout.
func tagSizeMM(l model.Layout) float64 {
	return min(l.PxToMM(l.MarginPx)-2*tagPaddingMM, tagMaxSizeMM)
}

// TagPlacement returns the position and edge length of the tag, in mm from
// the top-left page corner. The tag sits in the bottom margin at the right
// edge, clear of the printable area.
func TagPlacement(l model.Layout) (x, y, size float64) {
	wMM, hMM := l.PageSizeMM()
	size = tagSizeMM(l)
	return wMM - tagPaddingMM - size, hMM - l.PxToMM(l.MarginPx) + tagPaddingMM, size
}

// AddTaggedPage adds img like AddPage and draws a QR code for tag into the
// bottom-right margin.
func (d *Document) AddTaggedPage(img image.Image, tag PageTag) error {
	if !TagFits(d.layout) {
		return ErrNoTagRoom
	}
	if tag.Run == "" {
		tag.Run = d.runID
	}
	if tag.Page == 0 {
		tag.Page = d.pages + 1
	}

	qrPNG, err := encodeTag(tag)
	if err != nil {
		return err
	}

	if err := d.addRaster(img); err != nil {
		return err
	}

	x, y, size := TagPlacement(d.layout)
	name := fmt.Sprintf("tag%d", d.pages+1)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(qrPNG))
	d.pdf.ImageOptions(name, x, y, size, size, false, opts, 0, "")
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("failed to draw tag on page %d: %w", d.pages+1, err)
	}

	d.pages++
	return nil
}

func encodeTag(tag PageTag) ([]byte, error) {
	data, err := json.Marshal(tag)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page tag: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return qrPNG, nil
}

// CollectPageTags builds the tag of every page of a packing result.
func CollectPageTags(runID string, result model.PackResult) []PageTag {
	tags := make([]PageTag, 0, len(result.Bins))
	for i, bin := range result.Bins {
		ids := make([]int, 0, len(bin))
		for _, p := range bin {
			ids = append(ids, p.RefID)
		}
		tags = append(tags, PageTag{
			Run:      runID,
			Page:     i + 1,
			Pages:    len(result.Bins),
			Stickers: ids,
		})
	}
	return tags
}
