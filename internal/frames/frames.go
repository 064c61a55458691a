// Package frames defines the decoded frame stream abstraction shared by
// the detectors and the capture code.
package frames

import (
	"errors"
	"image"
)

// ErrEndOfStream is returned by ReadNext once a source is drained.
var ErrEndOfStream = errors.New("end of stream")

// Frame is one decoded video frame. Index counts from zero and
// TimestampMS is the frame's presentation time in milliseconds.
type Frame struct {
	Index       int
	TimestampMS float64
	Pixels      *image.RGBA
}

// Source yields decoded frames in presentation order. The pixel buffer of
// a returned frame is owned by the caller and stays valid after further
// reads.
type Source interface {
	// ReadNext returns the next frame, or ErrEndOfStream once drained.
	ReadNext() (*Frame, error)

	// Seek repositions the stream so the next read returns the frame
	// covering the given timestamp in milliseconds.
	Seek(timestampMS float64) error

	FPS() float64
	FrameCount() int
	Width() int
	Height() int
	Close() error
}
