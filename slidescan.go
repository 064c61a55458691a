// Package slidescan detects slide transitions in presentation videos.
//
// Slidescan scans a screen capture or lecture recording, finds the frames
// where the displayed slide changes, writes one screenshot per slide, and
// derives WebVTT chapters plus heavily compressed preview renditions for
// embedding in a web player.
//
// Basic usage:
//
//	scanner, err := slidescan.New(
//	    slidescan.WithAlgorithm(slidescan.AlgorithmAdvanced),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := scanner.Scan(ctx, "lecture.mp4", "output/", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("found %d slides in %s\n", result.SlideCount, result.Elapsed)
package slidescan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/slidescan/slidescan/internal/capture"
	"github.com/slidescan/slidescan/internal/chapters"
	"github.com/slidescan/slidescan/internal/config"
	"github.com/slidescan/slidescan/internal/detect"
	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/ffprobe"
	"github.com/slidescan/slidescan/internal/frames"
	"github.com/slidescan/slidescan/internal/mask"
	"github.com/slidescan/slidescan/internal/opencv"
	"github.com/slidescan/slidescan/internal/preview"
	"github.com/slidescan/slidescan/internal/reporter"
	"github.com/slidescan/slidescan/internal/util"
)

// Re-exported engine types.
type (
	// Algorithm selects the transition detection strategy.
	Algorithm = config.Algorithm
	// Mask describes a region excluded from change detection.
	Mask = mask.Spec
	// Transition is one detected slide change. The last entry of a scan
	// is always the end-of-stream marker.
	Transition = detect.Transition
	// Chapter is one slide's span of the video.
	Chapter = chapters.Chapter
	// Reporter receives progress and diagnostics during a scan.
	Reporter = reporter.Reporter
	// FrameSource supplies decoded video frames to the detectors.
	FrameSource = frames.Source
	// Subtractor is the adaptive background model consumed by the
	// advanced detector.
	Subtractor = detect.Subtractor
	// SubtractorFactory builds a Subtractor with the given history.
	SubtractorFactory = detect.SubtractorFactory
)

const (
	AlgorithmBasic    = config.AlgorithmBasic
	AlgorithmAdvanced = config.AlgorithmAdvanced
)

// ParseAlgorithm converts an algorithm string to an Algorithm value.
// Valid values are "basic" and "advanced" (case-insensitive); the empty
// string selects the advanced algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	return config.ParseAlgorithm(s)
}

// SourceOpener opens a frame source for an input path.
type SourceOpener func(path string) (FrameSource, error)

// Scanner is the main entry point for slide detection.
type Scanner struct {
	settings      config.Settings
	settingsFile  string
	maskJSON      []byte
	overlay       config.Overlay
	noPreview     bool
	noScreenshots bool
	openSource    SourceOpener
	newSubtractor SubtractorFactory
}

// Result contains the outcome of a single scan.
type Result struct {
	Transitions   []Transition
	SlideCount    int
	Chapters      []Chapter
	WebVTT        string
	PreviewMP4    string
	PreviewWebM   string
	ThumbnailPath string
	Elapsed       time.Duration
}

// Option configures the scanner.
type Option func(*Scanner)

// New creates a Scanner with the given options. Settings merge in three
// layers: built-in defaults, then the settings file, then explicit
// options, later layers winning per key.
func New(opts ...Option) (*Scanner, error) {
	s := &Scanner{
		openSource: func(path string) (FrameSource, error) {
			return opencv.Open(path)
		},
		newSubtractor: opencv.NewKNNSubtractor,
	}
	for _, opt := range opts {
		opt(s)
	}

	settings := config.Defaults()
	if s.settingsFile != "" {
		overlay, err := config.LoadFile(s.settingsFile)
		if err != nil {
			return nil, err
		}
		settings = settings.Apply(overlay)
	}
	if s.maskJSON != nil {
		specs, err := mask.ParseJSON(s.maskJSON)
		if err != nil {
			return nil, err
		}
		s.overlay.Masks = specs
	}
	s.settings = settings.Apply(s.overlay)

	return s, nil
}

// WithAlgorithm selects the detection algorithm.
func WithAlgorithm(a Algorithm) Option {
	return func(s *Scanner) {
		s.overlay.Algorithm = &a
	}
}

// WithSettingsFile loads masks and algorithm settings from a YAML file.
func WithSettingsFile(path string) Option {
	return func(s *Scanner) {
		s.settingsFile = path
	}
}

// WithMasks replaces the mask list. Masks never merge across layers; the
// last layer to set them wins wholesale.
func WithMasks(masks []Mask) Option {
	return func(s *Scanner) {
		s.overlay.Masks = append([]Mask(nil), masks...)
	}
}

// WithMaskJSON replaces the mask list with descriptors parsed from a JSON
// object or array. Takes precedence over WithMasks.
func WithMaskJSON(data []byte) Option {
	return func(s *Scanner) {
		s.maskJSON = append([]byte(nil), data...)
	}
}

// WithThresholdCutoff sets the basic algorithm's per-pixel difference
// cutoff (0-255).
func WithThresholdCutoff(cutoff int) Option {
	return func(s *Scanner) {
		s.overlay.ThresholdCutoff = &cutoff
	}
}

// WithTrigger sets the basic algorithm's changed-fraction trigger (0-1).
func WithTrigger(trigger float64) Option {
	return func(s *Scanner) {
		s.overlay.Trigger = &trigger
	}
}

// WithTriggerRatio sets how far above the running average the changed
// pixel count must jump to fire a transition (2-10).
func WithTriggerRatio(ratio float64) Option {
	return func(s *Scanner) {
		s.overlay.TriggerRatio = &ratio
	}
}

// WithMinimumTotalChange sets the fraction of the unmasked frame that
// must change for a transition regardless of the running average (0-1).
func WithMinimumTotalChange(change float64) Option {
	return func(s *Scanner) {
		s.overlay.MinimumTotalChange = &change
	}
}

// WithMinimumSlideLength sets the minimum seconds between transitions.
func WithMinimumSlideLength(seconds float64) Option {
	return func(s *Scanner) {
		s.overlay.MinimumSlideLengthSecs = &seconds
	}
}

// WithAveragingTime sets the seconds of motion history behind the running
// average and the background model.
func WithAveragingTime(seconds float64) Option {
	return func(s *Scanner) {
		s.overlay.AveragingTimeSecs = &seconds
	}
}

// WithScreenshotDelay sets how many milliseconds after a transition the
// slide screenshot is grabbed.
func WithScreenshotDelay(ms float64) Option {
	return func(s *Scanner) {
		s.overlay.ScreenshotDelayMS = &ms
	}
}

// WithoutPreview disables the preview renditions.
func WithoutPreview() Option {
	return func(s *Scanner) {
		s.noPreview = true
	}
}

// WithoutScreenshots disables slide screenshots and the thumbnail.
func WithoutScreenshots() Option {
	return func(s *Scanner) {
		s.noScreenshots = true
	}
}

// WithSourceOpener replaces the video decoder, mainly for tests.
func WithSourceOpener(open SourceOpener) Option {
	return func(s *Scanner) {
		s.openSource = open
	}
}

// WithSubtractorFactory replaces the background model used by the
// advanced detector, mainly for tests.
func WithSubtractorFactory(factory SubtractorFactory) Option {
	return func(s *Scanner) {
		s.newSubtractor = factory
	}
}

// Settings returns the merged settings the scanner will run with.
func (s *Scanner) Settings() config.Settings {
	return s.settings
}

// Scan detects slide transitions in the input video and writes slide
// screenshots, chapters.vtt, thumbnail.png and the preview renditions
// into outputDir. Preview encoding runs concurrently with detection and
// its failure is reported as a warning, never as a scan error. A nil
// reporter discards all progress.
func (s *Scanner) Scan(ctx context.Context, input, outputDir string, rep Reporter) (*Result, error) {
	start := time.Now()
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	if err := util.EnsureDirectory(outputDir); err != nil {
		return nil, errors.NewIOError("failed to create output directory", err)
	}

	src, err := s.openSource(input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// The probe is best-effort: detection runs off the decoder, the probe
	// only feeds the banner and the preview encoder.
	info, probeErr := ffprobe.Probe(input)
	if probeErr != nil {
		rep.Warning(fmt.Sprintf("ffprobe failed, continuing without media info: %v", probeErr))
	}
	rep.ScanStarted(s.scanInfo(input, outputDir, src, info))

	// Preview encoding owns its own read handle on the input and runs
	// alongside the detection pass.
	previewCtx, cancelPreview := context.WithCancel(ctx)
	defer cancelPreview()

	var wg sync.WaitGroup
	var previewResult *preview.Result
	var previewErr error
	if !s.noPreview {
		wg.Add(1)
		go func() {
			defer wg.Done()
			previewResult, previewErr = preview.Generate(previewCtx, input, outputDir, info, rep)
		}()
	}

	events, err := s.newDetector(outputDir, rep).Detect(ctx, src)
	if err != nil {
		cancelPreview()
		wg.Wait()
		return nil, err
	}
	wg.Wait()

	result := &Result{
		Transitions: events,
		SlideCount:  chapters.Count(events),
		Chapters:    chapters.Build(events),
	}
	result.WebVTT = chapters.WebVTT(result.Chapters)

	if previewErr != nil {
		rep.Warning(fmt.Sprintf("preview encoding failed: %v", previewErr))
	} else if previewResult != nil {
		result.PreviewMP4 = previewResult.MP4Path
		result.PreviewWebM = previewResult.WebMPath
	}

	vttPath := filepath.Join(outputDir, "chapters.vtt")
	if err := os.WriteFile(vttPath, []byte(result.WebVTT), 0o644); err != nil {
		rep.Warning(fmt.Sprintf("writing chapters.vtt failed: %v", err))
	}

	// The first slide's screenshot doubles as the video thumbnail.
	if result.SlideCount > 0 && events[0].Screenshot != "" {
		thumbPath := filepath.Join(outputDir, "thumbnail.png")
		if err := capture.Thumbnail(events[0].Screenshot, thumbPath); err != nil {
			rep.Warning(fmt.Sprintf("thumbnail generation failed: %v", err))
		} else {
			result.ThumbnailPath = thumbPath
		}
	}

	result.Elapsed = time.Since(start)
	rep.ScanComplete(reporter.ScanSummary{
		InputFile:   input,
		OutputDir:   outputDir,
		Transitions: result.SlideCount,
		Chapters:    len(result.Chapters),
		Screenshots: countScreenshots(events),
		PreviewMP4:  result.PreviewMP4,
		PreviewWebM: result.PreviewWebM,
		TotalTime:   result.Elapsed,
	})
	return result, nil
}

func (s *Scanner) newDetector(outputDir string, rep Reporter) detect.Detector {
	dir := outputDir
	if s.noScreenshots {
		dir = ""
	}
	if s.settings.Algorithm == config.AlgorithmBasic {
		return detect.NewBasicDetector(s.settings.Basic, s.settings.Masks, dir, rep)
	}
	return detect.NewAdvancedDetector(s.settings.Advanced, s.settings.Masks, dir, s.newSubtractor, rep)
}

func (s *Scanner) scanInfo(input, outputDir string, src FrameSource, info *ffprobe.MediaInfo) reporter.ScanInfo {
	scanInfo := reporter.ScanInfo{
		InputFile:        input,
		OutputDir:        outputDir,
		Algorithm:        s.settings.Algorithm.String(),
		Resolution:       fmt.Sprintf("%dx%d", src.Width(), src.Height()),
		FPS:              src.FPS(),
		TotalFrames:      src.FrameCount(),
		AudioDescription: "unknown",
	}
	if info != nil {
		scanInfo.Duration = util.FormatDuration(info.DurationSecs)
		scanInfo.AudioDescription = info.AudioDescription()
	} else if src.FPS() > 0 {
		scanInfo.Duration = util.FormatDuration(float64(src.FrameCount()) / src.FPS())
	}
	return scanInfo
}

// countScreenshots counts events that kept a screenshot on disk. The
// terminal marker never carries one.
func countScreenshots(events []Transition) int {
	count := 0
	for _, event := range events {
		if event.Screenshot != "" {
			count++
		}
	}
	return count
}
