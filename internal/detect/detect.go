// Package detect implements the slide transition detection algorithms.
//
// Both detectors walk a frame source forward exactly once, because the
// per-frame state (previous grayscale frame, adaptive background model,
// running average window) makes every result depend on the frame before
// it. They return the detected transitions in order, terminated by a
// marker event that records the stream end position and carries no
// screenshot.
package detect

import (
	"context"
	"image"

	"github.com/slidescan/slidescan/internal/frames"
)

// Transition is one detected slide transition. Screenshot is the path of
// the captured slide image, or empty if the capture failed or this is the
// terminal end-of-stream marker.
type Transition struct {
	FrameIndex  int
	TimestampMS float64
	Screenshot  string
}

// Detector scans a frame source for slide transitions.
type Detector interface {
	Detect(ctx context.Context, src frames.Source) ([]Transition, error)
}

// Subtractor models the adaptive background subtraction step of the
// advanced detector. Apply feeds one frame into the background model and
// returns how many pixels differ from the learned background.
type Subtractor interface {
	Apply(frame *image.RGBA) (int, error)
	Close() error
}

// SubtractorFactory builds a Subtractor whose background model learns
// over the given number of frames.
type SubtractorFactory func(history int) (Subtractor, error)
