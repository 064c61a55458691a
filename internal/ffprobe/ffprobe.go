// Package ffprobe extracts media information from video files using the
// ffprobe command-line tool.
package ffprobe

import (
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/util"
)

// MediaInfo describes the properties of an input video that matter to a
// scan: geometry and timing for the banner, duration for preview encoding
// progress, and audio presence for the preview's audio tracks.
type MediaInfo struct {
	DurationSecs  float64
	Width         int
	Height        int
	FPS           float64
	TotalFrames   int
	HasAudio      bool
	AudioCodec    string
	AudioChannels int
}

// Resolution returns the video geometry as "WIDTHxHEIGHT".
func (m *MediaInfo) Resolution() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// AudioDescription returns a short human-readable summary of the audio
// track, e.g. "aac stereo", or "none" when the file has no audio.
func (m *MediaInfo) AudioDescription() string {
	if !m.HasAudio {
		return "none"
	}
	layout := fmt.Sprintf("%dch", m.AudioChannels)
	switch m.AudioChannels {
	case 1:
		layout = "mono"
	case 2:
		layout = "stereo"
	}
	if m.AudioCodec == "" {
		return layout
	}
	return fmt.Sprintf("%s %s", m.AudioCodec, layout)
}

// ffprobeOutput represents the JSON structure returned by ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Channels     int    `json:"channels"`
	NbFrames     string `json:"nb_frames"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// runFFprobe executes ffprobe on the given file and returns the raw JSON.
func runFFprobe(path string) ([]byte, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		return nil, errors.WrapExecError("ffprobe", err, stderr)
	}
	return output, nil
}

// Probe runs ffprobe on the input file and extracts its media properties.
func Probe(path string) (*MediaInfo, error) {
	output, err := runFFprobe(path)
	if err != nil {
		return nil, err
	}
	return parseMediaInfo(output, path)
}

// parseMediaInfo builds a MediaInfo from raw ffprobe JSON. Split from
// Probe so it can be exercised against captured fixtures.
func parseMediaInfo(data []byte, path string) (*MediaInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.NewJSONParseError("failed to parse ffprobe output", err)
	}

	if len(probe.Streams) == 0 {
		return nil, errors.NewNoStreamsFoundError(path)
	}

	info := &MediaInfo{}

	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && d > 0 {
			info.DurationSecs = d
		}
	}

	var video *ffprobeStream
	for i := range probe.Streams {
		stream := &probe.Streams[i]
		switch stream.CodecType {
		case "video":
			if video == nil {
				video = stream
			}
		case "audio":
			if !info.HasAudio {
				info.HasAudio = true
				info.AudioCodec = stream.CodecName
				info.AudioChannels = stream.Channels
			}
		}
	}

	if video == nil {
		return nil, errors.NewVideoInfoError(fmt.Sprintf("no video stream found in %s", path))
	}
	if video.Width <= 0 || video.Height <= 0 {
		return nil, errors.NewVideoInfoError(fmt.Sprintf("invalid video dimensions %dx%d in %s",
			video.Width, video.Height, path))
	}
	info.Width = video.Width
	info.Height = video.Height

	if fps, ok := util.ParseFrameRate(video.RFrameRate); ok {
		info.FPS = fps
	} else if fps, ok := util.ParseFrameRate(video.AvgFrameRate); ok {
		info.FPS = fps
	}

	if video.NbFrames != "" {
		if n, err := strconv.Atoi(video.NbFrames); err == nil && n > 0 {
			info.TotalFrames = n
		}
	}
	if info.TotalFrames == 0 && info.DurationSecs > 0 && info.FPS > 0 {
		info.TotalFrames = int(math.Round(info.DurationSecs * info.FPS))
	}

	return info, nil
}
