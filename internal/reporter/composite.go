package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) ScanStarted(info ScanInfo) {
	for _, r := range c.reporters {
		r.ScanStarted(info)
	}
}

func (c *CompositeReporter) MaskDropped(reason string) {
	for _, r := range c.reporters {
		r.MaskDropped(reason)
	}
}

func (c *CompositeReporter) MasksResolved(summary MaskSummary) {
	for _, r := range c.reporters {
		r.MasksResolved(summary)
	}
}

func (c *CompositeReporter) ValidationFailed(summary ValidationSummary) {
	for _, r := range c.reporters {
		r.ValidationFailed(summary)
	}
}

func (c *CompositeReporter) DetectionStarted(totalFrames int) {
	for _, r := range c.reporters {
		r.DetectionStarted(totalFrames)
	}
}

func (c *CompositeReporter) DetectionProgress(progress ScanProgress) {
	for _, r := range c.reporters {
		r.DetectionProgress(progress)
	}
}

func (c *CompositeReporter) TransitionFound(event TransitionInfo) {
	for _, r := range c.reporters {
		r.TransitionFound(event)
	}
}

func (c *CompositeReporter) CaptureStarted(count int) {
	for _, r := range c.reporters {
		r.CaptureStarted(count)
	}
}

func (c *CompositeReporter) ScreenshotCaptured(result CaptureResult) {
	for _, r := range c.reporters {
		r.ScreenshotCaptured(result)
	}
}

func (c *CompositeReporter) StageProgress(update StageProgress) {
	for _, r := range c.reporters {
		r.StageProgress(update)
	}
}

func (c *CompositeReporter) ScanComplete(summary ScanSummary) {
	for _, r := range c.reporters {
		r.ScanComplete(summary)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
