package preview

import (
	"os"
	"strconv"
)

// Output filenames for the two preview renditions.
const (
	MP4FileName  = "preview.mp4"
	WebMFileName = "preview.webm"
)

// formatSpec describes one preview output format. Video settings are
// shared by both passes; audio settings apply to the second pass only.
type formatSpec struct {
	name   string
	output string
	video  []string
	audio  []string
}

// formatSpecs lists the renditions in encode order. Bitrates are sized
// for mostly static slide content.
func formatSpecs() []formatSpec {
	return []formatSpec{
		{
			name:   "mp4",
			output: MP4FileName,
			video: []string{
				"-vcodec", "libx264",
				"-preset", "medium",
				"-b:v", "96k",
				"-qmax", "42",
				"-maxrate", "250k",
			},
			audio: []string{
				"-strict", "-2",
				"-acodec", "aac",
				"-ac", "1",
				"-b:a", "64k",
			},
		},
		{
			name:   "webm",
			output: WebMFileName,
			video: []string{
				"-vcodec", "libvpx",
				"-quality", "good",
				"-b:v", "96k",
				"-crf", "10",
				"-qmin", "0",
				"-qmax", "42",
				"-maxrate", "250k",
				"-bufsize", "1000k",
			},
			audio: []string{
				"-acodec", "libopus",
				"-ac", "1",
				"-b:a", "64k",
			},
		},
	}
}

// buildPassArgs assembles the ffmpeg argument list for one pass of one
// rendition. The first pass always analyzes without audio and discards
// its output; the second pass writes the rendition, muxing a mono audio
// track unless the input has none. The input path must be absolute
// because the command runs with the output directory as its working
// directory so the two-pass log files land there.
func buildPassArgs(input string, threads int, spec formatSpec, pass int, withAudio bool) []string {
	args := []string{
		"-loglevel", "error",
		"-stats",
		"-y",
		"-i", input,
		"-threads", strconv.Itoa(threads),
	}
	args = append(args, spec.video...)

	if pass == 1 || !withAudio {
		args = append(args, "-an")
	} else {
		args = append(args, spec.audio...)
	}

	args = append(args, "-pass", strconv.Itoa(pass), "-f", spec.name)
	if pass == 1 {
		args = append(args, os.DevNull)
	} else {
		args = append(args, spec.output)
	}
	return args
}
