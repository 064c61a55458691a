package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/slidescan/slidescan"
	"github.com/slidescan/slidescan/internal/config"
	"github.com/slidescan/slidescan/internal/util"
)

// SummaryFileName is the machine-readable run summary written into the
// output directory.
const SummaryFileName = "slides.json"

// runSummary is the serialized form of a completed scan. File references
// are relative to the output directory so the directory can be moved or
// served as a unit.
type runSummary struct {
	Algorithm   string                 `json:"algorithm"`
	Settings    map[string]interface{} `json:"settings"`
	NrSlides    int                    `json:"nrslides"`
	Transitions []summaryTransition    `json:"transitions"`
	Chapters    []summaryChapter       `json:"chapters"`
	Previews    summaryPreviews        `json:"previews"`
	Thumbnail   string                 `json:"thumbnail,omitempty"`
}

// summaryTransition is one detected transition. The trailing terminal
// marker is included so consumers know where the last slide ends; it
// carries no screenshot.
type summaryTransition struct {
	Frame       int     `json:"frame"`
	TimestampMS float64 `json:"timestamp_ms"`
	Screenshot  string  `json:"screenshot,omitempty"`
}

type summaryChapter struct {
	Slide      int     `json:"slide"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	StartMS    float64 `json:"start_ms"`
	EndMS      float64 `json:"end_ms"`
	Screenshot string  `json:"screenshot,omitempty"`
}

type summaryPreviews struct {
	MP4  string `json:"mp4,omitempty"`
	WebM string `json:"webm,omitempty"`
}

func buildSummary(outputDir string, settings config.Settings, result *slidescan.Result) *runSummary {
	summary := &runSummary{
		Algorithm:   settings.Algorithm.String(),
		Settings:    settings.AlgorithmValues(),
		NrSlides:    result.SlideCount,
		Transitions: make([]summaryTransition, 0, len(result.Transitions)),
		Chapters:    make([]summaryChapter, 0, len(result.Chapters)),
		Previews: summaryPreviews{
			MP4:  relPath(outputDir, result.PreviewMP4),
			WebM: relPath(outputDir, result.PreviewWebM),
		},
		Thumbnail: relPath(outputDir, result.ThumbnailPath),
	}

	for _, event := range result.Transitions {
		summary.Transitions = append(summary.Transitions, summaryTransition{
			Frame:       event.FrameIndex,
			TimestampMS: event.TimestampMS,
			Screenshot:  relPath(outputDir, event.Screenshot),
		})
	}
	for _, chapter := range result.Chapters {
		summary.Chapters = append(summary.Chapters, summaryChapter{
			Slide:      chapter.Slide,
			Start:      util.FormatVTTTimestamp(chapter.StartMS),
			End:        util.FormatVTTTimestamp(chapter.EndMS),
			StartMS:    chapter.StartMS,
			EndMS:      chapter.EndMS,
			Screenshot: relPath(outputDir, chapter.Screenshot),
		})
	}
	return summary
}

// relPath rewrites path relative to the output directory, keeping the
// original when it does not resolve (different volume, empty path).
func relPath(outputDir, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(outputDir, path)
	if err != nil {
		return path
	}
	return rel
}

func writeSummary(outputDir string, settings config.Settings, result *slidescan.Result) error {
	summary := buildSummary(outputDir, settings, result)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, SummaryFileName), append(data, '\n'), 0644)
}
