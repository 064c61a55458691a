package detect

import (
	"context"
	"fmt"
	"math"

	"github.com/slidescan/slidescan/internal/capture"
	"github.com/slidescan/slidescan/internal/config"
	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/frames"
	"github.com/slidescan/slidescan/internal/mask"
	"github.com/slidescan/slidescan/internal/reporter"
)

// AdvancedDetector feeds masked frames into an adaptive background model
// and fires when the changed pixel count jumps well clear of its recent
// average. It enforces a minimum slide length and grabs screenshots in a
// deferred second pass, slightly after each transition, so animated
// transitions have settled.
type AdvancedDetector struct {
	settings  config.AdvancedSettings
	masks     []mask.Spec
	outputDir string
	factory   SubtractorFactory
	rep       reporter.Reporter
}

// NewAdvancedDetector returns a detector that obtains its background
// model from factory and writes slide screenshots into outputDir. An
// empty outputDir disables screenshots.
func NewAdvancedDetector(settings config.AdvancedSettings, masks []mask.Spec, outputDir string, factory SubtractorFactory, rep reporter.Reporter) *AdvancedDetector {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &AdvancedDetector{
		settings:  settings,
		masks:     masks,
		outputDir: outputDir,
		factory:   factory,
		rep:       rep,
	}
}

// Detect scans the source front to back, then seeks back for the
// screenshot pass. All parameters are validated together up front; a
// validation failure is fatal and reports every violation at once.
func (d *AdvancedDetector) Detect(ctx context.Context, src frames.Source) ([]Transition, error) {
	width, height := src.Width(), src.Height()
	fps := src.FPS()
	totalFrames := src.FrameCount()

	rects := mask.Resolve(d.masks, width, height, d.rep)
	if err := d.validate(rects, width, height, fps, totalFrames); err != nil {
		return nil, err
	}

	// Frames inside the averaging window feed both the running average
	// and the background model history.
	averagingFrames := int(d.settings.AveragingTimeSecs * fps)
	if averagingFrames < 1 {
		averagingFrames = 1
	}
	minSlideFrames := int(math.Round(d.settings.MinimumSlideLengthSecs * fps))

	// Inside this span after a trigger no new slide can fire, so the
	// scan skips the background model entirely. It resumes one averaging
	// window early to rebuild the model and the average before the next
	// trigger check.
	ignoreFrames := d.settings.MinimumSlideLengthSecs*fps - float64(averagingFrames)

	unmaskedArea := width*height - mask.TotalArea(rects)
	minPixelChangeAv := (d.settings.MinimumTotalChange / d.settings.TriggerRatio) * float64(unmaskedArea)

	sub, err := d.factory(averagingFrames)
	if err != nil {
		return nil, errors.NewOperationFailedError("creating background subtractor", err)
	}
	defer sub.Close()

	average := NewRunningAverage(averagingFrames)

	d.rep.DetectionStarted(totalFrames)

	var pending []Transition
	previousTrigger := 0
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
		idx := frame.Index

		if float64(idx) > float64(previousTrigger)+ignoreFrames || idx == 0 {
			for _, r := range rects {
				zeroRGBA(frame.Pixels, r)
			}
			changed, err := sub.Apply(frame.Pixels)
			if err != nil {
				return nil, errors.NewOperationFailedError(fmt.Sprintf("background subtraction on frame %d", idx), err)
			}

			if idx-previousTrigger > minSlideFrames || idx == 0 {
				baseline := average.Mean()
				if baseline < minPixelChangeAv {
					baseline = minPixelChangeAv
				}
				if float64(changed) > d.settings.TriggerRatio*baseline || idx == 0 {
					path := ""
					if d.outputDir != "" {
						path = capture.SlidePath(d.outputDir, len(pending)+1)
					}
					pending = append(pending, Transition{
						FrameIndex:  idx,
						TimestampMS: frame.TimestampMS,
						Screenshot:  path,
					})
					d.rep.TransitionFound(reporter.TransitionInfo{
						Number:      len(pending),
						FrameIndex:  idx,
						TimestampMS: frame.TimestampMS,
					})
					previousTrigger = idx
					average.Reset()
				}
			}

			// The trigger frame itself stays out of the freshly reset
			// window.
			if previousTrigger != idx {
				average.Update(idx, changed)
			}
		}

		lastIndex = idx
		lastTS = frame.TimestampMS
		read = true
		reportProgress(d.rep, idx, totalFrames)
	}

	if err := d.captureScreenshots(ctx, src, pending); err != nil {
		return nil, err
	}

	events := append(pending, terminalEvent(read, lastIndex, lastTS, fps))
	return events, nil
}

// captureScreenshots seeks back through the drained source and writes one
// slide image per transition, delayed by the configured offset. A failed
// capture clears that transition's screenshot path and the scan carries
// on.
func (d *AdvancedDetector) captureScreenshots(ctx context.Context, src frames.Source, pending []Transition) error {
	if len(pending) == 0 || d.outputDir == "" {
		return nil
	}
	requests := make([]capture.Request, len(pending))
	for i, event := range pending {
		requests[i] = capture.Request{
			TimestampMS: event.TimestampMS + d.settings.ScreenshotDelayMS,
			Path:        event.Screenshot,
		}
	}
	errs := capture.Run(ctx, src, requests, d.rep)
	for i, err := range errs {
		if err != nil {
			pending[i].Screenshot = ""
		}
	}
	if ctx.Err() != nil {
		return errors.NewCancelledError()
	}
	return nil
}

func (d *AdvancedDetector) validate(rects []mask.Rect, width, height int, fps float64, totalFrames int) error {
	var violations []errors.Violation
	add := func(parameter, format string, args ...interface{}) {
		violations = append(violations, errors.Violation{
			Parameter: parameter,
			Message:   fmt.Sprintf(format, args...),
		})
	}

	for _, r := range rects {
		if !r.Within(width, height) {
			add("masks", "mask %s extends outside the %dx%d frame", r, width, height)
		}
	}
	s := d.settings
	if s.TriggerRatio < config.MinTriggerRatio || s.TriggerRatio > config.MaxTriggerRatio {
		add("trigger_ratio", "expected a value between %v and %v, got %v", config.MinTriggerRatio, config.MaxTriggerRatio, s.TriggerRatio)
	}
	if s.MinimumTotalChange < config.MinTotalChange || s.MinimumTotalChange > config.MaxTotalChange {
		add("minimum_total_change", "expected a value between 0.0 and 1.0, got %v", s.MinimumTotalChange)
	}
	if s.MinimumSlideLengthSecs <= 0 {
		add("minimum_slide_length", "must be positive, got %v", s.MinimumSlideLengthSecs)
	} else if s.MinimumSlideLengthSecs*fps > float64(totalFrames) {
		add("minimum_slide_length", "the video is shorter than the minimum slide length of %v s", s.MinimumSlideLengthSecs)
	}
	if s.AveragingTimeSecs <= 0 {
		add("motion_capture_averaging_time", "must be positive, got %v", s.AveragingTimeSecs)
	} else if s.AveragingTimeSecs > s.MinimumSlideLengthSecs {
		add("motion_capture_averaging_time", "cannot be longer than minimum_slide_length")
	}
	if s.ScreenshotDelayMS < 0 {
		add("msec_to_delay_screenshot", "cannot be negative, got %v", s.ScreenshotDelayMS)
	}

	if len(violations) == 0 {
		return nil
	}

	issues := make([]reporter.ValidationIssue, len(violations))
	for i, v := range violations {
		issues[i] = reporter.ValidationIssue{Parameter: v.Parameter, Detail: v.Message}
	}
	d.rep.ValidationFailed(reporter.ValidationSummary{Issues: issues})
	return errors.NewValidationError(violations)
}
