package frames

import (
	"image"
	"image/draw"
	"math"
)

// MemorySource serves pre-rendered frames at a fixed rate. It implements
// Source for synthetic pipelines and tests; ReadNext hands out copies so
// callers may scribble on the pixels freely.
type MemorySource struct {
	frames []*image.RGBA
	fps    float64
	width  int
	height int
	pos    int
}

// NewMemorySource builds a source over the given frames.
func NewMemorySource(images []*image.RGBA, fps float64) *MemorySource {
	s := &MemorySource{frames: images, fps: fps}
	if len(images) > 0 {
		bounds := images[0].Bounds()
		s.width = bounds.Dx()
		s.height = bounds.Dy()
	}
	return s
}

func (s *MemorySource) ReadNext() (*Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, ErrEndOfStream
	}
	frame := &Frame{
		Index:       s.pos,
		TimestampMS: float64(s.pos) * 1000 / s.fps,
		Pixels:      cloneRGBA(s.frames[s.pos]),
	}
	s.pos++
	return frame, nil
}

func (s *MemorySource) Seek(timestampMS float64) error {
	if timestampMS < 0 || math.IsNaN(timestampMS) {
		s.pos = 0
		return nil
	}
	idx := int(math.Floor(timestampMS * s.fps / 1000))
	if idx > len(s.frames) {
		idx = len(s.frames)
	}
	s.pos = idx
	return nil
}

func (s *MemorySource) FPS() float64    { return s.fps }
func (s *MemorySource) FrameCount() int { return len(s.frames) }
func (s *MemorySource) Width() int      { return s.width }
func (s *MemorySource) Height() int     { return s.height }
func (s *MemorySource) Close() error    { return nil }

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
