// Package main provides the CLI entry point for slidescan.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/slidescan/slidescan"
	"github.com/slidescan/slidescan/internal/config"
	"github.com/slidescan/slidescan/internal/logging"
	"github.com/slidescan/slidescan/internal/reporter"
	"github.com/slidescan/slidescan/internal/util"
	"github.com/spf13/cobra"
)

const (
	appName    = "slidescan"
	appVersion = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Detect slide transitions in presentation videos",
	Long: "Slidescan scans a presentation or screen-capture video for slide\n" +
		"transitions and writes per-slide screenshots, WebVTT chapters, a\n" +
		"thumbnail, compressed preview renditions and a machine-readable\n" +
		"run summary into the output directory.",
	SilenceUsage: true,
}

// scanArgs holds the parsed flags for the scan command.
type scanArgs struct {
	inputPath       string
	outputDir       string
	algorithm       string
	settingsFile    string
	maskJSON        string
	triggerRatio    float64
	minTotalChange  float64
	minSlideLength  float64
	averagingTime   float64
	screenshotDelay float64
	thresholdCutoff int
	trigger         float64
	noPreview       bool
	noScreenshots   bool
	jsonOutput      bool
	verbose         bool
	noLog           bool
	logDir          string
}

var sa scanArgs

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a video for slide transitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s version %s\n", appName, appVersion)
	},
}

func init() {
	flags := scanCmd.Flags()
	flags.StringVarP(&sa.inputPath, "input", "i", "", "input video file")
	flags.StringVarP(&sa.outputDir, "output", "o", "", "output directory")
	flags.StringVar(&sa.algorithm, "algorithm", "", "detection algorithm (basic, advanced)")
	flags.StringVar(&sa.settingsFile, "settings", "", "YAML settings file with masks and algorithm settings")
	flags.StringVar(&sa.maskJSON, "masks", "", "mask descriptors as a JSON object or array")
	flags.Float64Var(&sa.triggerRatio, "trigger-ratio", config.DefaultTriggerRatio, "advanced: factor above the running average that fires a transition (2-10)")
	flags.Float64Var(&sa.minTotalChange, "min-total-change", config.DefaultMinimumTotalChange, "advanced: fraction of the unmasked frame that must change (0-1)")
	flags.Float64Var(&sa.minSlideLength, "min-slide-length", config.DefaultMinimumSlideLengthSecs, "advanced: minimum seconds between transitions")
	flags.Float64Var(&sa.averagingTime, "averaging-time", config.DefaultAveragingTimeSecs, "advanced: seconds of motion history behind the running average")
	flags.Float64Var(&sa.screenshotDelay, "screenshot-delay", config.DefaultScreenshotDelayMS, "advanced: milliseconds after a transition to grab the screenshot")
	flags.IntVar(&sa.thresholdCutoff, "threshold-cutoff", config.DefaultThresholdCutoff, "basic: per-pixel grayscale difference cutoff (0-255)")
	flags.Float64Var(&sa.trigger, "trigger", config.DefaultTrigger, "basic: changed-pixel fraction that fires a transition (0-1)")
	flags.BoolVar(&sa.noPreview, "no-preview", false, "skip the preview renditions")
	flags.BoolVar(&sa.noScreenshots, "no-screenshots", false, "skip slide screenshots and the thumbnail")
	flags.BoolVar(&sa.jsonOutput, "json", false, "emit NDJSON events on stdout instead of terminal output")
	flags.BoolVarP(&sa.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVar(&sa.noLog, "no-log", false, "disable the run log file")
	flags.StringVarP(&sa.logDir, "log-dir", "l", "", "log directory (defaults to OUTPUT/logs)")
	_ = scanCmd.MarkFlagRequired("input")
	_ = scanCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(scanCmd, versionCmd)
}

func runScan(cmd *cobra.Command) error {
	inputPath, err := filepath.Abs(sa.inputPath)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	if !util.FileExists(inputPath) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if !util.IsVideoFile(inputPath) {
		return fmt.Errorf("input is not a video file: %s", inputPath)
	}

	outputDir, err := filepath.Abs(sa.outputDir)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := util.EnsureDirectory(outputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := util.EnsureDirectoryWritable(outputDir); err != nil {
		return fmt.Errorf("output directory check failed: %w", err)
	}

	logDir := sa.logDir
	if logDir == "" {
		logDir = filepath.Join(outputDir, "logs")
	}
	logger, err := logging.Setup(logDir, sa.verbose, sa.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer func() { _ = logger.Close() }()

	scanner, err := buildScanner(cmd)
	if err != nil {
		return err
	}

	settings := scanner.Settings()
	logger.Info("input: %s", inputPath)
	logger.Info("output directory: %s", outputDir)
	logger.Info("algorithm: %s", settings.Algorithm)
	for key, value := range settings.AlgorithmValues() {
		logger.Debug("setting %s = %v", key, value)
	}
	logger.Info("masks configured: %d", len(settings.Masks))

	var rep reporter.Reporter
	if sa.jsonOutput {
		rep = reporter.NewJSONReporter()
	} else {
		rep = reporter.NewTerminalReporter(sa.verbose)
	}
	if logger != nil {
		rep = reporter.NewCompositeReporter(rep, reporter.NewLogReporter(logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := scanner.Scan(ctx, inputPath, outputDir, rep)
	if err != nil {
		logger.Error("scan failed: %v", err)
		return err
	}

	if err := writeSummary(outputDir, settings, result); err != nil {
		rep.Warning(fmt.Sprintf("writing slides.json failed: %v", err))
	}
	logger.Info("scan finished: %d slides in %s", result.SlideCount, result.Elapsed.Round(time.Millisecond))
	return nil
}

// buildScanner converts the parsed flags into scanner options, passing
// scalar settings through only when the user actually set the flag so
// they do not clobber values from the settings file.
func buildScanner(cmd *cobra.Command) (*slidescan.Scanner, error) {
	var opts []slidescan.Option

	if sa.settingsFile != "" {
		opts = append(opts, slidescan.WithSettingsFile(sa.settingsFile))
	}
	if sa.algorithm != "" {
		algorithm, err := slidescan.ParseAlgorithm(sa.algorithm)
		if err != nil {
			return nil, err
		}
		opts = append(opts, slidescan.WithAlgorithm(algorithm))
	}
	if sa.maskJSON != "" {
		opts = append(opts, slidescan.WithMaskJSON([]byte(sa.maskJSON)))
	}

	changed := cmd.Flags().Changed
	if changed("trigger-ratio") {
		opts = append(opts, slidescan.WithTriggerRatio(sa.triggerRatio))
	}
	if changed("min-total-change") {
		opts = append(opts, slidescan.WithMinimumTotalChange(sa.minTotalChange))
	}
	if changed("min-slide-length") {
		opts = append(opts, slidescan.WithMinimumSlideLength(sa.minSlideLength))
	}
	if changed("averaging-time") {
		opts = append(opts, slidescan.WithAveragingTime(sa.averagingTime))
	}
	if changed("screenshot-delay") {
		opts = append(opts, slidescan.WithScreenshotDelay(sa.screenshotDelay))
	}
	if changed("threshold-cutoff") {
		opts = append(opts, slidescan.WithThresholdCutoff(sa.thresholdCutoff))
	}
	if changed("trigger") {
		opts = append(opts, slidescan.WithTrigger(sa.trigger))
	}

	if sa.noPreview {
		opts = append(opts, slidescan.WithoutPreview())
	}
	if sa.noScreenshots {
		opts = append(opts, slidescan.WithoutScreenshots())
	}

	return slidescan.New(opts...)
}
