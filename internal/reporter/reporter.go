package reporter

// Reporter defines the interface for progress reporting. Every engine
// component takes one explicitly; there is no process-wide logger.
type Reporter interface {
	ScanStarted(info ScanInfo)
	MaskDropped(reason string)
	MasksResolved(summary MaskSummary)
	ValidationFailed(summary ValidationSummary)
	DetectionStarted(totalFrames int)
	DetectionProgress(progress ScanProgress)
	TransitionFound(event TransitionInfo)
	CaptureStarted(count int)
	ScreenshotCaptured(result CaptureResult)
	StageProgress(update StageProgress)
	ScanComplete(summary ScanSummary)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) ScanStarted(ScanInfo)               {}
func (NullReporter) MaskDropped(string)                 {}
func (NullReporter) MasksResolved(MaskSummary)          {}
func (NullReporter) ValidationFailed(ValidationSummary) {}
func (NullReporter) DetectionStarted(int)               {}
func (NullReporter) DetectionProgress(ScanProgress)     {}
func (NullReporter) TransitionFound(TransitionInfo)     {}
func (NullReporter) CaptureStarted(int)                 {}
func (NullReporter) ScreenshotCaptured(CaptureResult)   {}
func (NullReporter) StageProgress(StageProgress)        {}
func (NullReporter) ScanComplete(ScanSummary)           {}
func (NullReporter) Warning(string)                     {}
func (NullReporter) Error(ReporterError)                {}
func (NullReporter) OperationComplete(string)           {}
func (NullReporter) Verbose(string)                     {}
