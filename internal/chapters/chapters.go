// Package chapters turns an ordered transition list into chapter spans
// and their WebVTT rendering.
package chapters

import (
	"fmt"
	"strings"

	"github.com/slidescan/slidescan/internal/detect"
	"github.com/slidescan/slidescan/internal/util"
)

// Chapter is one slide's span in the video. EndMS is exclusive: it is
// the start of the next slide, or the stream end for the last chapter.
type Chapter struct {
	Slide      int
	StartMS    float64
	EndMS      float64
	Screenshot string
}

// Build converts an ordered transition list into chapters. Each event
// opens a chapter that the next event closes, so the final terminal
// marker only closes the last one. Fewer than two events yield no
// chapters; that is not an error.
func Build(events []detect.Transition) []Chapter {
	if len(events) < 2 {
		return nil
	}
	spans := make([]Chapter, 0, len(events)-1)
	for i := 0; i < len(events)-1; i++ {
		spans = append(spans, Chapter{
			Slide:      i + 1,
			StartMS:    events[i].TimestampMS,
			EndMS:      events[i+1].TimestampMS,
			Screenshot: events[i].Screenshot,
		})
	}
	return spans
}

// Count returns the number of slides in an event list: every event
// except the terminal marker.
func Count(events []detect.Transition) int {
	if len(events) < 2 {
		return 0
	}
	return len(events) - 1
}

// WebVTT renders chapters as a WebVTT chapter track with cues labeled
// "Slide N".
func WebVTT(spans []Chapter) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for _, span := range spans {
		fmt.Fprintf(&b, "\n%s --> %s\nSlide %d\n",
			util.FormatVTTTimestamp(span.StartMS), util.FormatVTTTimestamp(span.EndMS), span.Slide)
	}
	return b.String()
}
