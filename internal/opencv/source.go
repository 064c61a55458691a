// Package opencv adapts gocv video decoding and background subtraction
// to the interfaces the detectors consume. It is the only package that
// touches gocv, so everything above it stays testable without OpenCV.
package opencv

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/frames"
)

// Source decodes frames from a video file through OpenCV. A Source owns
// one decoder handle; only one read or seek may be in flight at a time.
type Source struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	width   int
	height  int
	fps     float64
	count   int
}

// Open opens the video at path for sequential decoding.
func Open(path string) (*Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.NewDecodeError(fmt.Sprintf("opening %s", path), err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.NewDecodeError(fmt.Sprintf("opening %s", path), nil)
	}
	return &Source{
		capture: capture,
		mat:     gocv.NewMat(),
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		fps:     capture.Get(gocv.VideoCaptureFPS),
		count:   int(capture.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// ReadNext decodes the next frame. Index and timestamp are read from the
// decoder position before decoding, so they describe the returned frame
// rather than the one after it.
func (s *Source) ReadNext() (*frames.Frame, error) {
	index := int(s.capture.Get(gocv.VideoCapturePosFrames))
	timestamp := s.capture.Get(gocv.VideoCapturePosMsec)

	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, frames.ErrEndOfStream
	}

	pixels, err := matToRGBA(&s.mat)
	if err != nil {
		return nil, errors.NewDecodeError(fmt.Sprintf("converting frame %d", index), err)
	}
	return &frames.Frame{Index: index, TimestampMS: timestamp, Pixels: pixels}, nil
}

// Seek repositions the decoder so the next read returns the frame
// covering the given timestamp.
func (s *Source) Seek(timestampMS float64) error {
	s.capture.Set(gocv.VideoCapturePosMsec, timestampMS)
	return nil
}

func (s *Source) FPS() float64    { return s.fps }
func (s *Source) FrameCount() int { return s.count }
func (s *Source) Width() int      { return s.width }
func (s *Source) Height() int     { return s.height }

// Close releases the decoder handle and its scratch buffer.
func (s *Source) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

// matToRGBA converts a decoded BGR mat into an RGBA image the rest of
// the pipeline can work on without cgo.
func matToRGBA(mat *gocv.Mat) (*image.RGBA, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba, nil
}
