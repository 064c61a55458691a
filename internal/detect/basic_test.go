package detect

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/slidescan/slidescan/internal/config"
	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/frames"
	"github.com/slidescan/slidescan/internal/mask"
	"github.com/slidescan/slidescan/internal/reporter"
)

var (
	darkGray   = color.RGBA{20, 20, 20, 255}    // luma 20
	brightGray = color.RGBA{200, 200, 200, 255} // luma 200
)

func repeatFrames(img *image.RGBA, n int) []*image.RGBA {
	out := make([]*image.RGBA, n)
	for i := range out {
		out[i] = img
	}
	return out
}

func basicSettings() config.BasicSettings {
	return config.BasicSettings{
		ThresholdCutoff: config.DefaultThresholdCutoff,
		Trigger:         config.DefaultTrigger,
	}
}

func TestBasicStaticVideoYieldsOnlyTerminal(t *testing.T) {
	images := repeatFrames(solidRGBA(8, 8, darkGray), 5)
	src := frames.NewMemorySource(images, 10)
	rec := &reporter.Recorder{}

	d := NewBasicDetector(basicSettings(), nil, t.TempDir(), rec)
	events, err := d.Detect(context.Background(), src)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want only the terminal marker", len(events))
	}
	terminal := events[0]
	if terminal.FrameIndex != 5 || terminal.TimestampMS != 500 {
		t.Errorf("terminal = {%d %v}, want {5 500}", terminal.FrameIndex, terminal.TimestampMS)
	}
	if terminal.Screenshot != "" {
		t.Errorf("terminal carries screenshot %q", terminal.Screenshot)
	}
	if got := rec.Count("detection_progress"); got != 5 {
		t.Errorf("got %d progress events, want 5", got)
	}
}

func TestBasicDetectsCut(t *testing.T) {
	images := append(
		repeatFrames(solidRGBA(8, 8, darkGray), 50),
		repeatFrames(solidRGBA(8, 8, brightGray), 50)...,
	)
	src := frames.NewMemorySource(images, 10)
	dir := t.TempDir()
	rec := &reporter.Recorder{}

	d := NewBasicDetector(basicSettings(), nil, dir, rec)
	events, err := d.Detect(context.Background(), src)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want transition + terminal", len(events))
	}
	cut := events[0]
	if cut.FrameIndex != 50 || cut.TimestampMS != 5000 {
		t.Errorf("transition = {%d %v}, want {50 5000}", cut.FrameIndex, cut.TimestampMS)
	}
	terminal := events[1]
	if terminal.FrameIndex != 100 || terminal.TimestampMS != 10000 {
		t.Errorf("terminal = {%d %v}, want {100 10000}", terminal.FrameIndex, terminal.TimestampMS)
	}

	// The screenshot is the unmasked color frame at the cut.
	f, err := os.Open(filepath.Join(dir, "slide00001.png"))
	if err != nil {
		t.Fatalf("opening screenshot: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding screenshot: %v", err)
	}
	r, _, _, _ := img.At(4, 4).RGBA()
	if r>>8 != 200 {
		t.Errorf("screenshot pixel R = %d, want 200", r>>8)
	}

	if got := rec.Count("transition_found"); got != 1 {
		t.Errorf("got %d transition_found events, want 1", got)
	}
}

func TestBasicBrightFirstFrameTriggersAtZero(t *testing.T) {
	images := repeatFrames(solidRGBA(8, 8, brightGray), 3)
	src := frames.NewMemorySource(images, 10)

	d := NewBasicDetector(basicSettings(), nil, t.TempDir(), nil)
	events, err := d.Detect(context.Background(), src)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	// Frame 0 diffs against an all-black previous frame.
	if len(events) != 2 {
		t.Fatalf("got %d events, want transition + terminal", len(events))
	}
	if events[0].FrameIndex != 0 || events[0].TimestampMS != 0 {
		t.Errorf("transition = {%d %v}, want {0 0}", events[0].FrameIndex, events[0].TimestampMS)
	}
}

func TestBasicMaskSuppressesRegion(t *testing.T) {
	// Only the top-left 8x8 block flickers; the rest stays dark.
	still := solidRGBA(16, 16, darkGray)
	flicker := solidRGBA(16, 16, darkGray)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			flicker.SetRGBA(x, y, brightGray)
		}
	}
	images := []*image.RGBA{still, flicker, still, flicker, still}

	t.Run("unmasked triggers", func(t *testing.T) {
		d := NewBasicDetector(basicSettings(), nil, t.TempDir(), nil)
		events, err := d.Detect(context.Background(), frames.NewMemorySource(images, 10))
		if err != nil {
			t.Fatalf("Detect error: %v", err)
		}
		if len(events) < 2 {
			t.Fatalf("expected at least one transition, got %d events", len(events))
		}
	})

	t.Run("masked stays quiet", func(t *testing.T) {
		masks := []mask.Spec{{Location: "top-left", SizeX: mask.Pixels(8), SizeY: mask.Pixels(8)}}
		d := NewBasicDetector(basicSettings(), masks, t.TempDir(), nil)
		events, err := d.Detect(context.Background(), frames.NewMemorySource(images, 10))
		if err != nil {
			t.Fatalf("Detect error: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("got %d events, want only the terminal marker", len(events))
		}
	})
}

func TestBasicOversizedMaskWarnsOnce(t *testing.T) {
	images := repeatFrames(solidRGBA(8, 8, darkGray), 20)
	rec := &reporter.Recorder{}
	masks := []mask.Spec{{X1: mask.Pixels(0), Y1: mask.Pixels(0), X2: mask.Pixels(100), Y2: mask.Pixels(100)}}

	d := NewBasicDetector(basicSettings(), masks, t.TempDir(), rec)
	if _, err := d.Detect(context.Background(), frames.NewMemorySource(images, 10)); err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	// One warning for the whole scan, not one per frame.
	if got := rec.Count("warning"); got != 1 {
		t.Errorf("got %d warnings, want 1", got)
	}
}

func TestBasicZeroFrameVideo(t *testing.T) {
	d := NewBasicDetector(basicSettings(), nil, t.TempDir(), nil)
	events, err := d.Detect(context.Background(), frames.NewMemorySource(nil, 10))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0] != (Transition{}) {
		t.Errorf("terminal = %+v, want zero value", events[0])
	}
}

func TestBasicCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewBasicDetector(basicSettings(), nil, t.TempDir(), nil)
	_, err := d.Detect(ctx, frames.NewMemorySource(repeatFrames(solidRGBA(4, 4, darkGray), 10), 10))
	if !errors.IsCancelled(err) {
		t.Errorf("expected cancelled error, got %v", err)
	}
}

func TestBasicScreenshotNumbering(t *testing.T) {
	images := append(
		repeatFrames(solidRGBA(8, 8, darkGray), 3),
		solidRGBA(8, 8, brightGray),
		solidRGBA(8, 8, darkGray),
		solidRGBA(8, 8, brightGray),
	)
	dir := t.TempDir()

	d := NewBasicDetector(basicSettings(), nil, dir, nil)
	events, err := d.Detect(context.Background(), frames.NewMemorySource(images, 10))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	// dark->bright, bright->dark, dark->bright: three transitions.
	if len(events) != 4 {
		t.Fatalf("got %d events, want 3 transitions + terminal", len(events))
	}
	for i := 0; i < 3; i++ {
		want := filepath.Join(dir, []string{"slide00001.png", "slide00002.png", "slide00003.png"}[i])
		if events[i].Screenshot != want {
			t.Errorf("event %d screenshot = %q, want %q", i, events[i].Screenshot, want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("screenshot %d missing: %v", i+1, err)
		}
	}
}

func TestBasicDeterministic(t *testing.T) {
	images := append(
		repeatFrames(solidRGBA(8, 8, darkGray), 30),
		repeatFrames(solidRGBA(8, 8, brightGray), 30)...,
	)
	d := NewBasicDetector(basicSettings(), nil, t.TempDir(), nil)

	first, err := d.Detect(context.Background(), frames.NewMemorySource(images, 10))
	if err != nil {
		t.Fatalf("first Detect error: %v", err)
	}
	second, err := d.Detect(context.Background(), frames.NewMemorySource(images, 10))
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
