package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONReporterEmitsNDJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf)

	r.DetectionStarted(500)
	r.TransitionFound(TransitionInfo{Number: 1, FrameIndex: 0, TimestampMS: 0})
	r.Warning("mask skipped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	wantTypes := []string{"detection_started", "transition_found", "warning"}
	for i, line := range lines {
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if event["type"] != wantTypes[i] {
			t.Errorf("line %d type = %v, want %v", i, event["type"], wantTypes[i])
		}
		if _, ok := event["timestamp"]; !ok {
			t.Errorf("line %d missing timestamp", i)
		}
	}
}

func TestJSONReporterProgressBucketing(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf)

	r.DetectionStarted(1000)
	// Repeated updates inside the same percent bucket collapse to one event
	r.DetectionProgress(ScanProgress{FrameIndex: 10, TotalFrames: 1000, Percent: 1})
	r.DetectionProgress(ScanProgress{FrameIndex: 11, TotalFrames: 1000, Percent: 1})
	r.DetectionProgress(ScanProgress{FrameIndex: 20, TotalFrames: 1000, Percent: 2})

	progressLines := 0
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"detection_progress"`) {
			progressLines++
		}
	}
	if progressLines != 2 {
		t.Errorf("got %d progress events, want 2", progressLines)
	}
}

func TestCompositeReporterFansOut(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	c := NewCompositeReporter(a, b)

	c.Warning("something")
	c.TransitionFound(TransitionInfo{Number: 1, FrameIndex: 42, TimestampMS: 1400})

	for name, rec := range map[string]*Recorder{"first": a, "second": b} {
		if got := rec.Count("warning"); got != 1 {
			t.Errorf("%s recorder warning count = %d, want 1", name, got)
		}
		if got := rec.Count("transition_found"); got != 1 {
			t.Errorf("%s recorder transition count = %d, want 1", name, got)
		}
	}
}

func TestRecorderMessages(t *testing.T) {
	rec := NewRecorder()
	rec.MaskDropped("invalid location \"sideways\"")
	rec.MaskDropped("inverted rectangle")

	msgs := rec.Messages("mask_dropped")
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if !strings.Contains(msgs[0], "sideways") {
		t.Errorf("first message = %q, want it to mention the bad location", msgs[0])
	}
}
