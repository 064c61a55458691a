package preview

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/util"
)

// passProgress carries the state parsed from one ffmpeg stats line.
type passProgress struct {
	Percent     float32
	Speed       float32
	ElapsedSecs float64
}

var timeRegex = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.?\d*)`)

// runPass executes a single ffmpeg pass, streaming progress parsed from
// stderr. workDir becomes the process working directory so the two-pass
// log files stay inside the output directory.
func runPass(ctx context.Context, args []string, workDir string, durationSecs float64, callback func(passProgress)) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Dir = workDir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.NewPreviewError("failed to get ffmpeg stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return errors.NewCommandStartError("ffmpeg", err)
	}

	var stderrBuilder strings.Builder
	parseProgress(stderr, &stderrBuilder, durationSecs, callback)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelledError()
		}
		return errors.WrapExecError("ffmpeg", err, stderrBuilder.String())
	}
	return nil
}

// parseProgress reads ffmpeg stderr byte-wise and emits progress updates.
// Stats lines are terminated with \r, so a plain line scanner would sit
// on them until the encode finishes.
func parseProgress(stderr io.Reader, stderrBuilder *strings.Builder, durationSecs float64, callback func(passProgress)) {
	reader := bufio.NewReader(stderr)
	var lineBuf strings.Builder

	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		stderrBuilder.WriteByte(b)

		if b == '\r' || b == '\n' {
			line := lineBuf.String()
			lineBuf.Reset()

			if callback != nil && strings.Contains(line, "time=") {
				callback(parseProgressLine(line, durationSecs))
			}
		} else {
			lineBuf.WriteByte(b)
		}
	}
}

// parseProgressLine extracts elapsed time and speed from an ffmpeg stats
// line and converts them to a completion percentage against the known
// input duration.
func parseProgressLine(line string, durationSecs float64) passProgress {
	var elapsedSecs float64
	if matches := timeRegex.FindStringSubmatch(line); len(matches) >= 2 {
		if secs, ok := util.ParseFFmpegTime(matches[1]); ok {
			elapsedSecs = secs
		}
	}

	var speed float32
	if idx := strings.Index(line, "speed="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+6:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t\r\n"); spaceIdx > 0 {
			remaining = remaining[:spaceIdx]
		}
		remaining = strings.TrimSuffix(remaining, "x")
		if s, err := strconv.ParseFloat(remaining, 32); err == nil {
			speed = float32(s)
		}
	}

	var percent float32
	if durationSecs > 0 {
		percent = float32((elapsedSecs / durationSecs) * 100)
		if percent > 100 {
			percent = 100
		}
	}

	return passProgress{
		Percent:     percent,
		Speed:       speed,
		ElapsedSecs: elapsedSecs,
	}
}
