// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// ScanInfo describes the input video and run configuration before scanning.
type ScanInfo struct {
	InputFile        string
	OutputDir        string
	Algorithm        string
	Duration         string
	Resolution       string
	FPS              float64
	TotalFrames      int
	AudioDescription string
}

// MaskSummary contains mask resolution results.
type MaskSummary struct {
	Resolved int
	Dropped  int
}

// ScanProgress contains forward-scan progress information.
type ScanProgress struct {
	FrameIndex  int
	TotalFrames int
	Percent     float32
}

// TransitionInfo describes a detected slide transition.
type TransitionInfo struct {
	Number      int
	FrameIndex  int
	TimestampMS float64
}

// ValidationIssue represents a single violated parameter constraint.
type ValidationIssue struct {
	Parameter string
	Detail    string
}

// ValidationSummary contains the aggregate validation failure.
type ValidationSummary struct {
	Issues []ValidationIssue
}

// CaptureResult describes one screenshot written during the capture pass.
type CaptureResult struct {
	Number      int
	Total       int
	TimestampMS float64
	Path        string
}

// StageProgress represents a generic stage update.
type StageProgress struct {
	Stage   string
	Percent float32
	Message string
}

// ScanSummary contains final scan results.
type ScanSummary struct {
	InputFile   string
	OutputDir   string
	Transitions int
	Chapters    int
	Screenshots int
	PreviewMP4  string
	PreviewWebM string
	TotalTime   time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}
