package reporter

import (
	"fmt"
	"sync"
)

// Event is one recorded reporter call.
type Event struct {
	Type    string
	Message string
}

// Recorder captures every reporter event in memory so tests can assert on
// emitted diagnostics without global state. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(eventType, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: eventType, Message: message})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of the given type were recorded.
func (r *Recorder) Count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// Messages returns the messages of every event of the given type, in order.
func (r *Recorder) Messages(eventType string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e.Message)
		}
	}
	return out
}

func (r *Recorder) ScanStarted(info ScanInfo) {
	r.record("scan_started", info.InputFile)
}

func (r *Recorder) MaskDropped(reason string) {
	r.record("mask_dropped", reason)
}

func (r *Recorder) MasksResolved(summary MaskSummary) {
	r.record("masks_resolved", fmt.Sprintf("resolved=%d dropped=%d", summary.Resolved, summary.Dropped))
}

func (r *Recorder) ValidationFailed(summary ValidationSummary) {
	for _, issue := range summary.Issues {
		r.record("validation_failed", issue.Parameter+": "+issue.Detail)
	}
}

func (r *Recorder) DetectionStarted(totalFrames int) {
	r.record("detection_started", fmt.Sprintf("%d", totalFrames))
}

func (r *Recorder) DetectionProgress(progress ScanProgress) {
	r.record("detection_progress", fmt.Sprintf("%.0f%%", progress.Percent))
}

func (r *Recorder) TransitionFound(event TransitionInfo) {
	r.record("transition_found", fmt.Sprintf("slide=%d frame=%d", event.Number, event.FrameIndex))
}

func (r *Recorder) CaptureStarted(count int) {
	r.record("capture_started", fmt.Sprintf("%d", count))
}

func (r *Recorder) ScreenshotCaptured(result CaptureResult) {
	r.record("screenshot_captured", result.Path)
}

func (r *Recorder) StageProgress(update StageProgress) {
	r.record("stage_progress", update.Stage+": "+update.Message)
}

func (r *Recorder) ScanComplete(summary ScanSummary) {
	r.record("scan_complete", fmt.Sprintf("transitions=%d", summary.Transitions))
}

func (r *Recorder) Warning(message string) {
	r.record("warning", message)
}

func (r *Recorder) Error(err ReporterError) {
	r.record("error", err.Title+": "+err.Message)
}

func (r *Recorder) OperationComplete(message string) {
	r.record("operation_complete", message)
}

func (r *Recorder) Verbose(message string) {
	r.record("verbose", message)
}
