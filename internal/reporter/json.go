package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events for machine consumers.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{
		writer:             os.Stdout,
		lastProgressBucket: -1,
	}
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) ScanStarted(info ScanInfo) {
	r.write(map[string]interface{}{
		"type":              "scan_started",
		"input_file":        info.InputFile,
		"output_dir":        info.OutputDir,
		"algorithm":         info.Algorithm,
		"duration":          info.Duration,
		"resolution":        info.Resolution,
		"fps":               info.FPS,
		"total_frames":      info.TotalFrames,
		"audio_description": info.AudioDescription,
		"timestamp":         r.timestamp(),
	})
}

func (r *JSONReporter) MaskDropped(reason string) {
	r.write(map[string]interface{}{
		"type":      "mask_dropped",
		"reason":    reason,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) MasksResolved(summary MaskSummary) {
	r.write(map[string]interface{}{
		"type":      "masks_resolved",
		"resolved":  summary.Resolved,
		"dropped":   summary.Dropped,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) ValidationFailed(summary ValidationSummary) {
	issues := make([]map[string]interface{}, len(summary.Issues))
	for i, issue := range summary.Issues {
		issues[i] = map[string]interface{}{
			"parameter": issue.Parameter,
			"detail":    issue.Detail,
		}
	}

	r.write(map[string]interface{}{
		"type":       "validation_failed",
		"violations": issues,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) DetectionStarted(totalFrames int) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":         "detection_started",
		"total_frames": totalFrames,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) DetectionProgress(progress ScanProgress) {
	const progressBucketSize = 1
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":          "detection_progress",
		"stage":         "detection",
		"current_frame": progress.FrameIndex,
		"total_frames":  progress.TotalFrames,
		"percent":       progress.Percent,
		"timestamp":     r.timestamp(),
	})
}

func (r *JSONReporter) TransitionFound(event TransitionInfo) {
	r.write(map[string]interface{}{
		"type":         "transition_found",
		"slide":        event.Number,
		"frame_index":  event.FrameIndex,
		"timestamp_ms": event.TimestampMS,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) CaptureStarted(count int) {
	r.write(map[string]interface{}{
		"type":      "capture_started",
		"count":     count,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) ScreenshotCaptured(result CaptureResult) {
	r.write(map[string]interface{}{
		"type":         "screenshot_captured",
		"slide":        result.Number,
		"total":        result.Total,
		"timestamp_ms": result.TimestampMS,
		"path":         result.Path,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) StageProgress(update StageProgress) {
	r.write(map[string]interface{}{
		"type":      "stage_progress",
		"stage":     update.Stage,
		"percent":   update.Percent,
		"message":   update.Message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) ScanComplete(summary ScanSummary) {
	r.write(map[string]interface{}{
		"type":             "scan_complete",
		"input_file":       summary.InputFile,
		"output_dir":       summary.OutputDir,
		"transitions":      summary.Transitions,
		"chapters":         summary.Chapters,
		"screenshots":      summary.Screenshots,
		"preview_mp4":      summary.PreviewMP4,
		"preview_webm":     summary.PreviewWebM,
		"duration_seconds": int64(summary.TotalTime.Seconds()),
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]interface{}{
		"type":      "verbose",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
