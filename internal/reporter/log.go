package reporter

import (
	"github.com/slidescan/slidescan/internal/logging"
)

// LogReporter mirrors reporter events into the run log file. Progress
// updates go to the debug level so the file stays readable at the default
// level.
type LogReporter struct {
	log *logging.Logger
}

// NewLogReporter creates a reporter writing to the given logger. A nil
// logger is accepted and turns every event into a no-op.
func NewLogReporter(log *logging.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) ScanStarted(info ScanInfo) {
	r.log.Info("scan started: input=%s output=%s algorithm=%s %s %.3f fps %d frames",
		info.InputFile, info.OutputDir, info.Algorithm, info.Resolution, info.FPS, info.TotalFrames)
}

func (r *LogReporter) MaskDropped(reason string) {
	r.log.Warn("mask dropped: %s", reason)
}

func (r *LogReporter) MasksResolved(summary MaskSummary) {
	r.log.Info("masks resolved: %d kept, %d dropped", summary.Resolved, summary.Dropped)
}

func (r *LogReporter) ValidationFailed(summary ValidationSummary) {
	r.log.Error("parameter validation failed with %d violations", len(summary.Issues))
	for _, issue := range summary.Issues {
		r.log.Error("  %s: %s", issue.Parameter, issue.Detail)
	}
}

func (r *LogReporter) DetectionStarted(totalFrames int) {
	r.log.Info("detection started: %d frames", totalFrames)
}

func (r *LogReporter) DetectionProgress(progress ScanProgress) {
	r.log.Debug("detection progress: %.0f%% (frame %d/%d)",
		progress.Percent, progress.FrameIndex, progress.TotalFrames)
}

func (r *LogReporter) TransitionFound(event TransitionInfo) {
	r.log.Info("slide %d at frame %d (%.0f ms)", event.Number, event.FrameIndex, event.TimestampMS)
}

func (r *LogReporter) CaptureStarted(count int) {
	r.log.Info("capturing %d screenshots", count)
}

func (r *LogReporter) ScreenshotCaptured(result CaptureResult) {
	r.log.Info("screenshot %d/%d saved: %s", result.Number, result.Total, result.Path)
}

func (r *LogReporter) StageProgress(update StageProgress) {
	r.log.Debug("%s: %s (%.0f%%)", update.Stage, update.Message, update.Percent)
}

func (r *LogReporter) ScanComplete(summary ScanSummary) {
	r.log.Info("scan complete: %d transitions, %d chapters, %d screenshots in %s",
		summary.Transitions, summary.Chapters, summary.Screenshots, summary.TotalTime)
}

func (r *LogReporter) Warning(message string) {
	r.log.Warn("%s", message)
}

func (r *LogReporter) Error(err ReporterError) {
	if err.Context != "" {
		r.log.Error("%s: %s (%s)", err.Title, err.Message, err.Context)
		return
	}
	r.log.Error("%s: %s", err.Title, err.Message)
}

func (r *LogReporter) OperationComplete(message string) {
	r.log.Info("%s", message)
}

func (r *LogReporter) Verbose(message string) {
	r.log.Debug("%s", message)
}
