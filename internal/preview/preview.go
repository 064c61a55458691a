// Package preview produces heavily compressed MP4 and WebM renditions of
// the input video, sized for embedding next to the slide index in a web
// player. Each rendition is encoded in two passes with ffmpeg.
package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/ffprobe"
	"github.com/slidescan/slidescan/internal/reporter"
	"github.com/slidescan/slidescan/internal/util"
)

// Result holds the paths of the encoded renditions.
type Result struct {
	MP4Path  string
	WebMPath string
}

// Generate encodes both preview renditions into outputDir. The media
// info supplies the duration used to convert encode position into a
// percentage and decides whether an audio track is muxed. Progress is
// delivered through the reporter's "preview" stage, with the four passes
// mapped onto one 0-100 range.
func Generate(ctx context.Context, inputPath, outputDir string, info *ffprobe.MediaInfo, rep reporter.Reporter) (*Result, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	// The passes run with outputDir as working directory, so the input
	// path has to survive that change.
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, errors.NewPreviewError(fmt.Sprintf("cannot resolve input path %s", inputPath), err)
	}

	var durationSecs float64
	var withAudio bool
	if info != nil {
		durationSecs = info.DurationSecs
		withAudio = info.HasAudio
	}

	threads := util.EncodingThreads()
	specs := formatSpecs()
	totalPasses := len(specs) * 2
	defer removePassLogs(outputDir)

	completed := 0
	for _, spec := range specs {
		for pass := 1; pass <= 2; pass++ {
			args := buildPassArgs(absInput, threads, spec, pass, withAudio)
			message := fmt.Sprintf("%s pass %d/2", spec.name, pass)
			done := completed

			err := runPass(ctx, args, outputDir, durationSecs, func(p passProgress) {
				overall := (float32(done)*100 + p.Percent) / float32(totalPasses)
				rep.StageProgress(reporter.StageProgress{
					Stage:   "preview",
					Percent: overall,
					Message: message,
				})
			})
			if err != nil {
				if errors.IsCancelled(err) {
					return nil, err
				}
				return nil, errors.NewPreviewError(fmt.Sprintf("%s failed", message), err)
			}
			completed++
		}
		outPath := filepath.Join(outputDir, spec.output)
		if size, err := util.GetFileSize(outPath); err == nil {
			rep.Verbose(fmt.Sprintf("%s preview encoded (%s)", spec.name, util.FormatBytes(size)))
		} else {
			rep.Verbose(fmt.Sprintf("%s preview encoded", spec.name))
		}
	}

	rep.StageProgress(reporter.StageProgress{Stage: "preview", Percent: 100, Message: "done"})
	return &Result{
		MP4Path:  filepath.Join(outputDir, MP4FileName),
		WebMPath: filepath.Join(outputDir, WebMFileName),
	}, nil
}

// removePassLogs deletes the ffmpeg2pass-* analysis files the two-pass
// encodes leave in the working directory.
func removePassLogs(dir string) {
	matches, err := filepath.Glob(filepath.Join(dir, "ffmpeg2pass-*"))
	if err != nil {
		return
	}
	for _, match := range matches {
		_ = os.Remove(match)
	}
}
