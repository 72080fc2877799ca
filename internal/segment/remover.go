// Package segment is the boundary to background removal. The packing core
// only needs one capability from it: turn raw image bytes into an image whose
// alpha channel marks the foreground.
package segment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"

	// Input decoders beyond PNG and JPEG.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"

	"github.com/piwi3910/StickerPack/internal/model"
)

// Remover removes the background from an image.
type Remover interface {
	RemoveBackground(ctx context.Context, raw []byte) (image.Image, error)
}

// New returns the remover selected by cfg.
func New(cfg model.RemoverConfig) (Remover, error) {
	switch cfg.Mode {
	case model.RemoverNone, "":
		return Passthrough{}, nil
	case model.RemoverCommand:
		if len(cfg.Command) == 0 {
			return nil, errors.New("command remover needs a command")
		}
		return &Command{Argv: cfg.Command}, nil
	default:
		return nil, fmt.Errorf("unknown remover mode %q", cfg.Mode)
	}
}

// Passthrough decodes images whose background was already removed. Images
// without an alpha channel are treated as fully opaque.
type Passthrough struct{}

// RemoveBackground decodes raw as-is.
func (Passthrough) RemoveBackground(_ context.Context, raw []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// maxStderr bounds how much of the tool's stderr ends up in error messages.
const maxStderr = 512

// Command pipes the raw image into an external tool (for example
// "rembg i - -") and decodes the image it writes to stdout.
type Command struct {
	Argv []string
}

// RemoveBackground runs the tool once for raw. There are no retries.
func (c *Command) RemoveBackground(ctx context.Context, raw []byte) (image.Image, error) {
	if len(c.Argv) == 0 {
		return nil, errors.New("command remover needs a command")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Stdin = bytes.NewReader(raw)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr] + "..."
		}
		if msg != "" {
			return nil, fmt.Errorf("background removal with %s failed: %w: %s", c.Argv[0], err, msg)
		}
		return nil, fmt.Errorf("background removal with %s failed: %w", c.Argv[0], err)
	}

	img, err := imaging.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode output of %s: %w", c.Argv[0], err)
	}
	return img, nil
}
