package detect

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/slidescan/slidescan/internal/config"
	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/frames"
	"github.com/slidescan/slidescan/internal/mask"
	"github.com/slidescan/slidescan/internal/reporter"
)

// fakeSubtractor returns scripted change counts in call order, so tests
// can steer the trigger logic without a real background model.
type fakeSubtractor struct {
	counts  []int
	calls   int
	closed  bool
	inspect func(*image.RGBA)
}

func (f *fakeSubtractor) Apply(frame *image.RGBA) (int, error) {
	if f.inspect != nil {
		f.inspect(frame)
	}
	v := 0
	if f.calls < len(f.counts) {
		v = f.counts[f.calls]
	}
	f.calls++
	return v, nil
}

func (f *fakeSubtractor) Close() error {
	f.closed = true
	return nil
}

// rampFrames builds n solid 4x4 frames where frame i has red channel
// i*10, so screenshots identify which frame they came from.
func rampFrames(n int) []*image.RGBA {
	out := make([]*image.RGBA, n)
	for i := range out {
		out[i] = solidRGBA(4, 4, color.RGBA{uint8(i * 10), 0, 0, 255})
	}
	return out
}

func redAt(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	return int(r >> 8)
}

func TestAdvancedTriggerAndWindowSemantics(t *testing.T) {
	// 14 frames at 1 fps. Minimum slide length 4 s, averaging window 2 s,
	// so the scan skips frames 1-2 after each trigger, refills the window
	// over two frames, and may fire again from the fifth frame on.
	settings := config.AdvancedSettings{
		TriggerRatio:           2,
		MinimumTotalChange:     0,
		MinimumSlideLengthSecs: 4,
		AveragingTimeSecs:      2,
		ScreenshotDelayMS:      0,
	}

	var sub *fakeSubtractor
	var history int
	factory := func(h int) (Subtractor, error) {
		history = h
		sub = &fakeSubtractor{counts: []int{999, 10, 10, 100, 10, 10, 15, 30}}
		return sub, nil
	}

	dir := t.TempDir()
	rec := &reporter.Recorder{}
	d := NewAdvancedDetector(settings, nil, dir, factory, rec)

	events, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(14), 1))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if history != 2 {
		t.Errorf("subtractor history = %d, want the averaging window of 2", history)
	}

	wantIndexes := []int{0, 5, 11, 14}
	wantTimestamps := []float64{0, 5000, 11000, 14000}
	if len(events) != len(wantIndexes) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(wantIndexes))
	}
	for i := range events {
		if events[i].FrameIndex != wantIndexes[i] || events[i].TimestampMS != wantTimestamps[i] {
			t.Errorf("event %d = {%d %v}, want {%d %v}",
				i, events[i].FrameIndex, events[i].TimestampMS, wantIndexes[i], wantTimestamps[i])
		}
	}

	// Frames 1-2, 6-7 and 12-13 sit in the skip region, so the model saw
	// exactly 8 frames: 0, 3-5, 8-11.
	if sub.calls != 8 {
		t.Errorf("subtractor saw %d frames, want 8", sub.calls)
	}
	if !sub.closed {
		t.Error("subtractor was not closed")
	}

	// Screenshots come from the deferred pass at a zero delay, so each
	// one shows its own trigger frame.
	for i, wantRed := range []int{0, 50, 110} {
		if events[i].Screenshot == "" {
			t.Fatalf("event %d has no screenshot", i)
		}
		if got := redAt(t, events[i].Screenshot); got != wantRed {
			t.Errorf("slide %d red = %d, want %d", i+1, got, wantRed)
		}
	}
	if events[3].Screenshot != "" {
		t.Errorf("terminal event carries screenshot %q", events[3].Screenshot)
	}

	if got := rec.Count("transition_found"); got != 3 {
		t.Errorf("got %d transition_found events, want 3", got)
	}
	if got := rec.Count("screenshot_captured"); got != 3 {
		t.Errorf("got %d screenshot_captured events, want 3", got)
	}
}

func TestAdvancedBaselineFloorIsStrict(t *testing.T) {
	// minPixelChangeAv = (0.5 / 2) * 16 = 4, so with an empty window the
	// trigger threshold is 8. A count of exactly 8 must not fire.
	settings := config.AdvancedSettings{
		TriggerRatio:           2,
		MinimumTotalChange:     0.5,
		MinimumSlideLengthSecs: 4,
		AveragingTimeSecs:      2,
		ScreenshotDelayMS:      0,
	}
	factory := func(h int) (Subtractor, error) {
		return &fakeSubtractor{counts: []int{999, 0, 0, 8, 9}}, nil
	}

	d := NewAdvancedDetector(settings, nil, t.TempDir(), factory, nil)
	events, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(8), 1))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	wantIndexes := []int{0, 6, 8}
	if len(events) != len(wantIndexes) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(wantIndexes))
	}
	for i, want := range wantIndexes {
		if events[i].FrameIndex != want {
			t.Errorf("event %d at frame %d, want %d", i, events[i].FrameIndex, want)
		}
	}
}

func TestAdvancedAppliesMasksBeforeSubtraction(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           2,
		MinimumTotalChange:     0,
		MinimumSlideLengthSecs: 1,
		AveragingTimeSecs:      1,
		ScreenshotDelayMS:      0,
	}
	masks := []mask.Spec{{X1: mask.Pixels(0), Y1: mask.Pixels(0), X2: mask.Pixels(2), Y2: mask.Pixels(2)}}

	maskedOK := true
	unmaskedOK := true
	factory := func(h int) (Subtractor, error) {
		return &fakeSubtractor{inspect: func(frame *image.RGBA) {
			if got := frame.RGBAAt(1, 1); got != (color.RGBA{0, 0, 0, 255}) {
				maskedOK = false
			}
			if got := frame.RGBAAt(3, 3); got.R == 0 && got.G == 0 && got.B == 0 {
				unmaskedOK = false
			}
		}}, nil
	}

	images := []*image.RGBA{
		solidRGBA(4, 4, color.RGBA{90, 90, 90, 255}),
		solidRGBA(4, 4, color.RGBA{90, 90, 90, 255}),
		solidRGBA(4, 4, color.RGBA{90, 90, 90, 255}),
	}
	d := NewAdvancedDetector(settings, masks, t.TempDir(), factory, nil)
	if _, err := d.Detect(context.Background(), frames.NewMemorySource(images, 1)); err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if !maskedOK {
		t.Error("masked region was not blacked out before subtraction")
	}
	if !unmaskedOK {
		t.Error("unmasked region was unexpectedly blacked out")
	}
}

func TestAdvancedValidationAggregatesViolations(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           1,   // below the valid range
		MinimumTotalChange:     1.5, // above the valid range
		MinimumSlideLengthSecs: 20,
		AveragingTimeSecs:      30, // longer than the minimum slide length
		ScreenshotDelayMS:      0,
	}
	masks := []mask.Spec{{X1: mask.Pixels(0), Y1: mask.Pixels(0), X2: mask.Pixels(1000), Y2: mask.Pixels(1000)}}

	factoryCalled := false
	factory := func(h int) (Subtractor, error) {
		factoryCalled = true
		return &fakeSubtractor{}, nil
	}

	rec := &reporter.Recorder{}
	d := NewAdvancedDetector(settings, masks, t.TempDir(), factory, rec)
	events, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(100), 1))

	if events != nil {
		t.Errorf("expected no events, got %v", events)
	}
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var verr *errors.ValidationError
	if !errors.AsValidation(err, &verr) {
		t.Fatal("could not unwrap ValidationError")
	}
	if len(verr.Violations) != 4 {
		t.Errorf("got %d violations, want 4: %v", len(verr.Violations), verr)
	}

	wantParameters := []string{"masks", "trigger_ratio", "minimum_total_change", "motion_capture_averaging_time"}
	for i, want := range wantParameters {
		if verr.Violations[i].Parameter != want {
			t.Errorf("violation %d parameter = %q, want %q", i, verr.Violations[i].Parameter, want)
		}
	}

	if factoryCalled {
		t.Error("subtractor factory ran despite failed validation")
	}
	if got := rec.Count("validation_failed"); got != 4 {
		t.Errorf("got %d validation_failed issue events, want 4", got)
	}
}

func TestAdvancedVideoShorterThanMinimumSlide(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           5,
		MinimumTotalChange:     0.06,
		MinimumSlideLengthSecs: 20,
		AveragingTimeSecs:      10,
		ScreenshotDelayMS:      1000,
	}
	factory := func(h int) (Subtractor, error) { return &fakeSubtractor{}, nil }

	d := NewAdvancedDetector(settings, nil, t.TempDir(), factory, nil)
	_, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(10), 1))

	var verr *errors.ValidationError
	if !errors.AsValidation(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Violations) != 1 || !strings.Contains(verr.Violations[0].Message, "shorter") {
		t.Errorf("violations = %v, want one about the video being too short", verr.Violations)
	}
}

func TestAdvancedNegativeDelayRejected(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           5,
		MinimumTotalChange:     0.06,
		MinimumSlideLengthSecs: 2,
		AveragingTimeSecs:      1,
		ScreenshotDelayMS:      -1,
	}
	factory := func(h int) (Subtractor, error) { return &fakeSubtractor{}, nil }

	d := NewAdvancedDetector(settings, nil, t.TempDir(), factory, nil)
	_, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(10), 1))

	var verr *errors.ValidationError
	if !errors.AsValidation(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0].Parameter != "msec_to_delay_screenshot" {
		t.Errorf("violations = %v, want one for msec_to_delay_screenshot", verr.Violations)
	}
}

func TestAdvancedScreenshotDelay(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           2,
		MinimumTotalChange:     0,
		MinimumSlideLengthSecs: 2,
		AveragingTimeSecs:      1,
		ScreenshotDelayMS:      1000,
	}
	factory := func(h int) (Subtractor, error) {
		return &fakeSubtractor{}, nil
	}

	d := NewAdvancedDetector(settings, nil, t.TempDir(), factory, nil)
	events, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(6), 1))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	// Only the frame-zero trigger fires; its screenshot is grabbed 1000 ms
	// later, which at 1 fps is frame 1.
	if len(events) != 2 {
		t.Fatalf("got %d events, want trigger + terminal", len(events))
	}
	if got := redAt(t, events[0].Screenshot); got != 10 {
		t.Errorf("delayed screenshot red = %d, want 10 (frame 1)", got)
	}
}

func TestAdvancedCaptureFailureLeavesSlotEmpty(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           2,
		MinimumTotalChange:     0,
		MinimumSlideLengthSecs: 2,
		AveragingTimeSecs:      1,
		ScreenshotDelayMS:      60000, // far past the end of the stream
	}
	factory := func(h int) (Subtractor, error) { return &fakeSubtractor{}, nil }

	rec := &reporter.Recorder{}
	d := NewAdvancedDetector(settings, nil, t.TempDir(), factory, rec)
	events, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(6), 1))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want trigger + terminal", len(events))
	}
	if events[0].Screenshot != "" {
		t.Errorf("failed capture should leave the slot empty, got %q", events[0].Screenshot)
	}
	if events[0].FrameIndex != 0 {
		t.Errorf("transition lost: frame = %d, want 0", events[0].FrameIndex)
	}
	if got := rec.Count("warning"); got != 1 {
		t.Errorf("got %d warnings, want 1", got)
	}
}

func TestAdvancedDeterministic(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           2,
		MinimumTotalChange:     0,
		MinimumSlideLengthSecs: 4,
		AveragingTimeSecs:      2,
		ScreenshotDelayMS:      0,
	}
	factory := func(h int) (Subtractor, error) {
		return &fakeSubtractor{counts: []int{999, 10, 10, 100, 10, 10, 15, 30}}, nil
	}

	d := NewAdvancedDetector(settings, nil, t.TempDir(), factory, nil)
	first, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(14), 1))
	if err != nil {
		t.Fatalf("first Detect error: %v", err)
	}
	second, err := d.Detect(context.Background(), frames.NewMemorySource(rampFrames(14), 1))
	if err != nil {
		t.Fatalf("second Detect error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("event %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestAdvancedCancellation(t *testing.T) {
	settings := config.AdvancedSettings{
		TriggerRatio:           2,
		MinimumTotalChange:     0,
		MinimumSlideLengthSecs: 2,
		AveragingTimeSecs:      1,
		ScreenshotDelayMS:      0,
	}
	factory := func(h int) (Subtractor, error) { return &fakeSubtractor{}, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewAdvancedDetector(settings, nil, t.TempDir(), factory, nil)
	_, err := d.Detect(ctx, frames.NewMemorySource(rampFrames(6), 1))
	if !errors.IsCancelled(err) {
		t.Errorf("expected cancelled error, got %v", err)
	}
}
