package preview

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildPassArgs(t *testing.T) {
	specs := formatSpecs()
	mp4, webm := specs[0], specs[1]

	tests := []struct {
		name      string
		spec      formatSpec
		pass      int
		withAudio bool
		want      string
	}{
		{
			name:      "mp4 first pass discards output without audio",
			spec:      mp4,
			pass:      1,
			withAudio: true,
			want: "-loglevel error -stats -y -i /videos/talk.mp4 -threads 2 " +
				"-vcodec libx264 -preset medium -b:v 96k -qmax 42 -maxrate 250k " +
				"-an -pass 1 -f mp4 " + os.DevNull,
		},
		{
			name:      "mp4 second pass muxes mono aac",
			spec:      mp4,
			pass:      2,
			withAudio: true,
			want: "-loglevel error -stats -y -i /videos/talk.mp4 -threads 2 " +
				"-vcodec libx264 -preset medium -b:v 96k -qmax 42 -maxrate 250k " +
				"-strict -2 -acodec aac -ac 1 -b:a 64k -pass 2 -f mp4 preview.mp4",
		},
		{
			name:      "mp4 second pass stays silent for silent input",
			spec:      mp4,
			pass:      2,
			withAudio: false,
			want: "-loglevel error -stats -y -i /videos/talk.mp4 -threads 2 " +
				"-vcodec libx264 -preset medium -b:v 96k -qmax 42 -maxrate 250k " +
				"-an -pass 2 -f mp4 preview.mp4",
		},
		{
			name:      "webm first pass",
			spec:      webm,
			pass:      1,
			withAudio: true,
			want: "-loglevel error -stats -y -i /videos/talk.mp4 -threads 2 " +
				"-vcodec libvpx -quality good -b:v 96k -crf 10 -qmin 0 -qmax 42 -maxrate 250k -bufsize 1000k " +
				"-an -pass 1 -f webm " + os.DevNull,
		},
		{
			name:      "webm second pass muxes mono opus",
			spec:      webm,
			pass:      2,
			withAudio: true,
			want: "-loglevel error -stats -y -i /videos/talk.mp4 -threads 2 " +
				"-vcodec libvpx -quality good -b:v 96k -crf 10 -qmin 0 -qmax 42 -maxrate 250k -bufsize 1000k " +
				"-acodec libopus -ac 1 -b:a 64k -pass 2 -f webm preview.webm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(buildPassArgs("/videos/talk.mp4", 2, tt.spec, tt.pass, tt.withAudio), " ")
			if got != tt.want {
				t.Errorf("args = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSpecOutputs(t *testing.T) {
	specs := formatSpecs()
	if len(specs) != 2 {
		t.Fatalf("len(formatSpecs()) = %d, want 2", len(specs))
	}
	if specs[0].output != "preview.mp4" {
		t.Errorf("mp4 output = %q, want preview.mp4", specs[0].output)
	}
	if specs[1].output != "preview.webm" {
		t.Errorf("webm output = %q, want preview.webm", specs[1].output)
	}
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		durationSecs float64
		wantPercent  float32
		wantSpeed    float32
		wantElapsed  float64
	}{
		{
			name:         "quarter done",
			line:         "frame=  240 fps= 60 q=28.0 size=     512KiB time=00:00:10.00 bitrate= 419.4kbits/s speed=2.5x",
			durationSecs: 40,
			wantPercent:  25,
			wantSpeed:    2.5,
			wantElapsed:  10,
		},
		{
			name:         "clamped past the end",
			line:         "frame= 9999 fps= 30 q=-1.0 size=    1024KiB time=00:01:30.00 bitrate= 93.2kbits/s speed=1x",
			durationSecs: 60,
			wantPercent:  100,
			wantSpeed:    1,
			wantElapsed:  90,
		},
		{
			name:         "unknown duration yields zero percent",
			line:         "frame=   30 fps= 30 q=28.0 size=      64KiB time=00:00:01.00 bitrate= 524.3kbits/s speed=1.02x",
			durationSecs: 0,
			wantPercent:  0,
			wantSpeed:    1.02,
			wantElapsed:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseProgressLine(tt.line, tt.durationSecs)
			if got.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", got.Percent, tt.wantPercent)
			}
			if got.Speed != tt.wantSpeed {
				t.Errorf("Speed = %v, want %v", got.Speed, tt.wantSpeed)
			}
			if got.ElapsedSecs != tt.wantElapsed {
				t.Errorf("ElapsedSecs = %v, want %v", got.ElapsedSecs, tt.wantElapsed)
			}
		})
	}
}

func TestParseProgressStream(t *testing.T) {
	// Stats lines end in \r while diagnostics end in \n; both must be
	// split and only the stats lines reported.
	input := "Press [q] to stop\n" +
		"frame=   30 fps= 30 q=28.0 size=      64KiB time=00:00:01.00 bitrate= 524.3kbits/s speed=1x\r" +
		"frame=   60 fps= 30 q=28.0 size=     128KiB time=00:00:02.00 bitrate= 524.3kbits/s speed=1x\r" +
		"[libx264 @ 0x55] frame I:4\n"

	var updates []passProgress
	var captured strings.Builder
	parseProgress(strings.NewReader(input), &captured, 4, func(p passProgress) {
		updates = append(updates, p)
	})

	if len(updates) != 2 {
		t.Fatalf("got %d progress updates, want 2", len(updates))
	}
	if updates[0].Percent != 25 {
		t.Errorf("updates[0].Percent = %v, want 25", updates[0].Percent)
	}
	if updates[1].Percent != 50 {
		t.Errorf("updates[1].Percent = %v, want 50", updates[1].Percent)
	}
	if captured.String() != input {
		t.Errorf("captured stderr = %q, want the full stream", captured.String())
	}
}

func TestRemovePassLogs(t *testing.T) {
	dir := t.TempDir()
	logs := []string{"ffmpeg2pass-0.log", "ffmpeg2pass-0.log.mbtree"}
	for _, name := range logs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	keeper := filepath.Join(dir, "preview.mp4")
	if err := os.WriteFile(keeper, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	removePassLogs(dir)

	for _, name := range logs {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s still present after cleanup", name)
		}
	}
	if _, err := os.Stat(keeper); err != nil {
		t.Errorf("preview.mp4 removed by cleanup: %v", err)
	}
}
