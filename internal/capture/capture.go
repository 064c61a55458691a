// Package capture writes slide screenshots to disk.
package capture

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/frames"
	"github.com/slidescan/slidescan/internal/reporter"
)

// Request names one screenshot to grab.
type Request struct {
	TimestampMS float64
	Path        string
}

// SlidePath returns the screenshot path for slide number n inside dir.
// Numbering starts at 1.
func SlidePath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("slide%05d.png", n))
}

// SaveImage writes img to path as a PNG at maximum compression. The file
// goes through a temporary name in the same directory, so readers never
// observe a partially written screenshot and an aborted write leaves
// nothing behind.
func SaveImage(img image.Image, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewScreenshotError(fmt.Sprintf("creating temporary file in %s", dir), err)
	}
	tmpPath := tmp.Name()

	if err := imaging.Encode(tmp, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewScreenshotError(fmt.Sprintf("encoding %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewScreenshotError(fmt.Sprintf("flushing %s", path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewScreenshotError(fmt.Sprintf("renaming into %s", path), err)
	}
	return nil
}

// Grab seeks to the given timestamp and writes the decoded frame to path.
func Grab(src frames.Source, timestampMS float64, path string) error {
	if err := src.Seek(timestampMS); err != nil {
		return errors.NewScreenshotError(fmt.Sprintf("seeking to %.0f ms", timestampMS), err)
	}
	frame, err := src.ReadNext()
	if err != nil {
		return errors.NewScreenshotError(fmt.Sprintf("decoding frame at %.0f ms", timestampMS), err)
	}
	return SaveImage(frame.Pixels, path)
}

// Run grabs every requested screenshot in order. Each capture is
// independent: the returned slice has one entry per request, nil on
// success. Cancellation marks the remaining requests cancelled without
// touching already written files.
func Run(ctx context.Context, src frames.Source, requests []Request, rep reporter.Reporter) []error {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	errs := make([]error, len(requests))
	if len(requests) == 0 {
		return errs
	}

	rep.CaptureStarted(len(requests))
	for i, req := range requests {
		if ctx.Err() != nil {
			for j := i; j < len(requests); j++ {
				errs[j] = errors.NewCancelledError()
			}
			break
		}
		if err := Grab(src, req.TimestampMS, req.Path); err != nil {
			errs[i] = err
			rep.Warning(fmt.Sprintf("screenshot %d/%d failed: %v", i+1, len(requests), err))
			continue
		}
		rep.ScreenshotCaptured(reporter.CaptureResult{
			Number:      i + 1,
			Total:       len(requests),
			TimestampMS: req.TimestampMS,
			Path:        req.Path,
		})
	}
	return errs
}
