package engine

import (
	"errors"
	"fmt"
)

// ErrDegenerateSize is returned when an image or target side has no area.
var ErrDegenerateSize = errors.New("degenerate size")

// Normalize scales a w x h box so that its longer side becomes side pixels,
// keeping the aspect ratio. The shorter side is rounded to the nearest pixel
// (halves round up) and is never less than one pixel.
//
// Square boxes take the height branch: the height is set to side and the
// width is scaled, which for a square gives the same result.
func Normalize(w, h, side int) (int, int, error) {
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrDegenerateSize, w, h)
	}
	if side <= 0 {
		return 0, 0, fmt.Errorf("%w: target side %d", ErrDegenerateSize, side)
	}
	if w > h {
		return side, scaleSide(h, w, side), nil
	}
	return scaleSide(w, h, side), side, nil
}

// scaleSide returns round(short * side / long) with halves rounded up.
func scaleSide(short, long, side int) int {
	v := (2*short*side + long) / (2 * long)
	if v < 1 {
		return 1
	}
	return v
}
