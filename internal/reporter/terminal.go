package reporter

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/slidescan/slidescan/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	progress   *progressbar.ProgressBar
	maxPercent float32
	lastStage  string
	verbose    bool
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
}

// NewTerminalReporter creates a new terminal reporter.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) ScanStarted(info ScanInfo) {
	fmt.Println()
	_, _ = r.cyan.Println("VIDEO")
	const w = 11
	r.printLabel(w, "File:", info.InputFile)
	r.printLabel(w, "Output:", info.OutputDir)
	r.printLabel(w, "Duration:", info.Duration)
	r.printLabel(w, "Resolution:", info.Resolution)
	r.printLabel(w, "Rate:", fmt.Sprintf("%.3f fps, %d frames", info.FPS, info.TotalFrames))
	if info.AudioDescription != "" {
		r.printLabel(w, "Audio:", info.AudioDescription)
	}
	r.printLabel(w, "Algorithm:", info.Algorithm)
}

func (r *TerminalReporter) MaskDropped(reason string) {
	fmt.Printf("  %s mask dropped: %s\n", r.yellow.Sprint("!"), reason)
}

func (r *TerminalReporter) MasksResolved(summary MaskSummary) {
	if summary.Resolved == 0 && summary.Dropped == 0 {
		return
	}
	fmt.Println()
	_, _ = r.cyan.Println("MASKS")
	detail := fmt.Sprintf("%d resolved", summary.Resolved)
	if summary.Dropped > 0 {
		detail += fmt.Sprintf(", %s", r.yellow.Sprintf("%d dropped", summary.Dropped))
	}
	fmt.Printf("  %s\n", detail)
}

func (r *TerminalReporter) ValidationFailed(summary ValidationSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("VALIDATION")
	fmt.Printf("  %s\n", r.red.Sprint("Parameter validation failed"))

	// Find the longest parameter name for alignment
	maxLen := 0
	for _, issue := range summary.Issues {
		if len(issue.Parameter) > maxLen {
			maxLen = len(issue.Parameter)
		}
	}

	for _, issue := range summary.Issues {
		paddedName := fmt.Sprintf("%-*s", maxLen, issue.Parameter)
		fmt.Printf("  - %s: %s (%s)\n", paddedName, r.red.Sprint("✗"), issue.Detail)
	}
}

func (r *TerminalReporter) DetectionStarted(totalFrames int) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Scanning [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) DetectionProgress(progress ScanProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := progress.Percent
	if clamped > 100 {
		clamped = 100
	}
	if clamped < 0 {
		clamped = 0
	}

	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	desc := fmt.Sprintf("frame %d/%d", progress.FrameIndex, progress.TotalFrames)
	r.progress.Describe(desc)
}

func (r *TerminalReporter) TransitionFound(event TransitionInfo) {
	r.mu.Lock()
	hasBar := r.progress != nil
	r.mu.Unlock()
	if hasBar {
		// One line above the live bar keeps the log readable
		fmt.Fprintln(os.Stderr)
	}
	fmt.Printf("  %s slide %d at frame %d (%s)\n",
		r.green.Sprint("+"),
		event.Number,
		event.FrameIndex,
		util.FormatVTTTimestamp(event.TimestampMS))
}

func (r *TerminalReporter) CaptureStarted(count int) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("SCREENSHOTS")
	fmt.Printf("  Capturing %d slides\n", count)
}

func (r *TerminalReporter) ScreenshotCaptured(result CaptureResult) {
	fmt.Printf("  %s %d/%d %s\n",
		r.green.Sprint("✓"),
		result.Number,
		result.Total,
		util.GetFilename(result.Path))
}

func (r *TerminalReporter) StageProgress(update StageProgress) {
	r.mu.Lock()
	if r.lastStage != update.Stage {
		r.mu.Unlock()
		fmt.Println()
		_, _ = r.cyan.Println(strings.ToUpper(update.Stage))
		r.mu.Lock()
		r.lastStage = update.Stage
	}
	r.mu.Unlock()
	fmt.Printf("  %s %s\n", r.magenta.Sprint("›"), update.Message)
}

func (r *TerminalReporter) ScanComplete(summary ScanSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("RESULTS")
	const w = 12
	r.printLabel(w, "Slides:", fmt.Sprintf("%d", summary.Transitions))
	r.printLabel(w, "Chapters:", fmt.Sprintf("%d", summary.Chapters))
	r.printLabel(w, "Screenshots:", fmt.Sprintf("%d", summary.Screenshots))
	if summary.PreviewMP4 != "" || summary.PreviewWebM != "" {
		r.printLabel(w, "Previews:", previewNames(summary))
	}
	fmt.Printf("  %s %s\n", r.bold.Sprint("Time:"),
		util.FormatDuration(summary.TotalTime.Seconds()))
	fmt.Printf("  %s %s\n", r.bold.Sprint("Saved to"), r.green.Sprint(summary.OutputDir))
}

func previewNames(summary ScanSummary) string {
	var names []string
	if summary.PreviewMP4 != "" {
		names = append(names, util.GetFilename(summary.PreviewMP4))
	}
	if summary.PreviewWebM != "" {
		names = append(names, util.GetFilename(summary.PreviewWebM))
	}
	return strings.Join(names, ", ")
}

func (r *TerminalReporter) Warning(message string) {
	fmt.Println()
	_, _ = r.yellow.Printf("WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	r.finishProgress()
	fmt.Println()
	fmt.Printf("%s %s\n", r.green.Add(color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	fmt.Printf("  %s\n", color.New(color.Faint).Sprint(message))
}
