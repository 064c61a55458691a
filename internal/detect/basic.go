package detect

import (
	"context"
	"fmt"

	"github.com/slidescan/slidescan/internal/capture"
	"github.com/slidescan/slidescan/internal/config"
	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/frames"
	"github.com/slidescan/slidescan/internal/mask"
	"github.com/slidescan/slidescan/internal/reporter"
)

// BasicDetector diffs consecutive grayscale frames and fires a transition
// when the fraction of significantly changed pixels exceeds the trigger.
// The first frame is compared against an all-black frame, so a video that
// opens on a bright slide begins with a transition at frame zero.
type BasicDetector struct {
	settings  config.BasicSettings
	masks     []mask.Spec
	outputDir string
	rep       reporter.Reporter
}

// NewBasicDetector returns a detector that writes slide screenshots into
// outputDir as it scans. An empty outputDir disables screenshots.
func NewBasicDetector(settings config.BasicSettings, masks []mask.Spec, outputDir string, rep reporter.Reporter) *BasicDetector {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &BasicDetector{
		settings:  settings,
		masks:     masks,
		outputDir: outputDir,
		rep:       rep,
	}
}

// Detect scans the source front to back. Screenshots are written inline
// the moment a transition fires, from the unmasked color frame.
func (d *BasicDetector) Detect(ctx context.Context, src frames.Source) ([]Transition, error) {
	width, height := src.Width(), src.Height()
	fps := src.FPS()
	totalFrames := src.FrameCount()

	rects := mask.Resolve(d.masks, width, height, d.rep)
	usable := make([]mask.Rect, 0, len(rects))
	for _, r := range rects {
		if !r.Within(width, height) {
			d.rep.Warning(fmt.Sprintf("mask %s does not fit the %dx%d frame, ignoring it", r, width, height))
			continue
		}
		usable = append(usable, r)
	}

	d.rep.DetectionStarted(totalFrames)

	prev := make([]uint8, width*height)
	frameArea := float64(width * height)

	var events []Transition
	lastIndex := 0
	lastTS := 0.0
	read := false

	for {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}
		frame, err := src.ReadNext()
		if err != nil {
			if err == frames.ErrEndOfStream {
				break
			}
			return nil, errors.NewDecodeError(fmt.Sprintf("reading frame %d", lastIndex), err)
		}

		gray := grayscale(frame.Pixels)
		for _, r := range usable {
			zeroGray(gray, width, r)
		}

		changed := countChanged(gray, prev, d.settings.ThresholdCutoff)
		if frameArea > 0 && float64(changed)/frameArea > d.settings.Trigger {
			path := ""
			if d.outputDir != "" {
				path = capture.SlidePath(d.outputDir, len(events)+1)
				if err := capture.SaveImage(frame.Pixels, path); err != nil {
					d.rep.Warning(fmt.Sprintf("saving slide %d failed: %v", len(events)+1, err))
					path = ""
				}
			}
			events = append(events, Transition{
				FrameIndex:  frame.Index,
				TimestampMS: frame.TimestampMS,
				Screenshot:  path,
			})
			d.rep.TransitionFound(reporter.TransitionInfo{
				Number:      len(events),
				FrameIndex:  frame.Index,
				TimestampMS: frame.TimestampMS,
			})
		}

		prev = gray
		lastIndex = frame.Index
		lastTS = frame.TimestampMS
		read = true
		reportProgress(d.rep, frame.Index, totalFrames)
	}

	events = append(events, terminalEvent(read, lastIndex, lastTS, fps))
	return events, nil
}

// terminalEvent builds the end-of-stream marker: one frame past the last
// one read, at the timestamp where the next frame would have started. An
// empty stream terminates at zero.
func terminalEvent(read bool, lastIndex int, lastTS, fps float64) Transition {
	if !read {
		return Transition{}
	}
	end := lastTS
	if fps > 0 {
		end += 1000 / fps
	}
	return Transition{FrameIndex: lastIndex + 1, TimestampMS: end}
}

// reportProgress emits per-frame scan progress. Reporters are expected to
// throttle their own output.
func reportProgress(rep reporter.Reporter, frameIndex, totalFrames int) {
	progress := reporter.ScanProgress{FrameIndex: frameIndex + 1, TotalFrames: totalFrames}
	if totalFrames > 0 {
		progress.Percent = float32(frameIndex+1) / float32(totalFrames) * 100
	}
	rep.DetectionProgress(progress)
}
