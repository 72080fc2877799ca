package model

import "fmt"

// Heuristic selects how the packer chooses a free region inside a page.
type Heuristic string

const (
	HeuristicBestAreaFit      Heuristic = "best-area-fit"       // Smallest leftover area (default)
	HeuristicBestShortSideFit Heuristic = "best-short-side-fit" // Smallest leftover on the shorter side
	HeuristicBottomLeft       Heuristic = "bottom-left"         // Topmost, then leftmost position
	HeuristicAuto             Heuristic = "auto"                // Try all, keep the fewest pages
)

// Heuristics lists every concrete heuristic in comparison order.
var Heuristics = []Heuristic{HeuristicBestAreaFit, HeuristicBestShortSideFit, HeuristicBottomLeft}

// PageFormat is the raster encoding used for pages inside the PDF.
type PageFormat string

const (
	PageFormatJPEG PageFormat = "jpeg"
	PageFormatPNG  PageFormat = "png"
)

// RemoverMode selects the background removal collaborator.
type RemoverMode string

const (
	RemoverNone    RemoverMode = "none"    // Inputs already carry an alpha mask
	RemoverCommand RemoverMode = "command" // Pipe each image through an external tool
)

// OutputConfig controls how the print document is written.
type OutputConfig struct {
	PageFormat  PageFormat `json:"page_format"`
	JPEGQuality int        `json:"jpeg_quality"` // 1-100, used with PageFormatJPEG
	PageTags    bool       `json:"page_tags"`    // Draw a QR page tag into the bottom margin
	Heuristic   Heuristic  `json:"heuristic"`
}

// RemoverConfig configures the background removal collaborator.
type RemoverConfig struct {
	Mode    RemoverMode `json:"mode"`
	Command []string    `json:"command"` // argv; raw image on stdin, PNG with alpha on stdout
}

// AppConfig holds everything a run needs besides its input and output paths.
type AppConfig struct {
	Layout   LayoutConfig  `json:"layout"`
	Output   OutputConfig  `json:"output"`
	Remover  RemoverConfig `json:"remover"`
	LogLevel string        `json:"log_level"` // "debug", "info", "warn", "error"
}

// DefaultAppConfig returns an AppConfig populated with the production defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Layout: DefaultLayoutConfig(),
		Output: OutputConfig{
			PageFormat:  PageFormatJPEG,
			JPEGQuality: 95,
			PageTags:    false,
			Heuristic:   HeuristicBestAreaFit,
		},
		Remover: RemoverConfig{
			Mode:    RemoverNone,
			Command: []string{"rembg", "i", "-", "-"},
		},
		LogLevel: "info",
	}
}

// Validate checks the non-layout settings; the layout is validated when it
// is resolved.
func (c AppConfig) Validate() error {
	switch c.Output.PageFormat {
	case PageFormatJPEG, PageFormatPNG:
	default:
		return fmt.Errorf("%w: unknown page_format %q", ErrInvalidConfig, c.Output.PageFormat)
	}
	if c.Output.PageFormat == PageFormatJPEG && (c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100) {
		return fmt.Errorf("%w: jpeg_quality must be within 1-100, got %d", ErrInvalidConfig, c.Output.JPEGQuality)
	}
	switch c.Output.Heuristic {
	case HeuristicBestAreaFit, HeuristicBestShortSideFit, HeuristicBottomLeft, HeuristicAuto:
	default:
		return fmt.Errorf("%w: unknown heuristic %q", ErrInvalidConfig, c.Output.Heuristic)
	}
	switch c.Remover.Mode {
	case RemoverNone:
	case RemoverCommand:
		if len(c.Remover.Command) == 0 {
			return fmt.Errorf("%w: remover mode %q needs a command", ErrInvalidConfig, c.Remover.Mode)
		}
	default:
		return fmt.Errorf("%w: unknown remover mode %q", ErrInvalidConfig, c.Remover.Mode)
	}
	return c.Layout.Validate()
}
