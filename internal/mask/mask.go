// Package mask resolves declarative mask descriptors into pixel rectangles.
//
// A descriptor either names absolute corners (x1, y1, x2, y2) or anchors a
// sized region to a frame corner (location plus size_x/size_y). Dimensions
// are plain pixel counts or percentage strings like "30%" that scale with
// the frame.
package mask

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slidescan/slidescan/internal/errors"
	"github.com/slidescan/slidescan/internal/reporter"
)

// Dim is a single mask dimension: an absolute pixel count or a percentage
// of the frame axis it applies to.
type Dim struct {
	value   float64
	percent bool
	set     bool
}

// Pixels returns an absolute dimension.
func Pixels(n int) Dim {
	return Dim{value: float64(n), set: true}
}

// Percent returns a dimension relative to the frame axis.
func Percent(p float64) Dim {
	return Dim{value: p, percent: true, set: true}
}

// IsZero reports whether the dimension was never assigned.
func (d Dim) IsZero() bool {
	return !d.set
}

// Resolve converts the dimension into pixels along an axis of the given
// length. Percentages round to the nearest pixel.
func (d Dim) Resolve(axis int) int {
	if !d.set {
		return 0
	}
	if d.percent {
		return int(math.Round(float64(axis) * d.value / 100))
	}
	return int(math.Round(d.value))
}

// String renders the dimension the way a settings file would spell it.
func (d Dim) String() string {
	if !d.set {
		return "0"
	}
	if d.percent {
		return strconv.FormatFloat(d.value, 'g', -1, 64) + "%"
	}
	return strconv.FormatFloat(d.value, 'g', -1, 64)
}

func (d *Dim) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Dim{}
		return nil
	}
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return fmt.Errorf("invalid mask dimension %q", s)
	}
	*d = Dim{value: v, percent: pct, set: true}
	return nil
}

// UnmarshalJSON accepts a bare number or a string, optionally "%"-suffixed.
func (d *Dim) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Dim{value: n, set: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid mask dimension %s", string(data))
	}
	return d.parse(s)
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (d *Dim) UnmarshalYAML(node *yaml.Node) error {
	var n float64
	if err := node.Decode(&n); err == nil {
		*d = Dim{value: n, set: true}
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid mask dimension %q", node.Value)
	}
	return d.parse(s)
}

// Spec is one mask descriptor as found in settings files or job payloads.
// Location, when present, takes precedence over the corner coordinates.
type Spec struct {
	X1       Dim    `json:"x1" yaml:"x1"`
	Y1       Dim    `json:"y1" yaml:"y1"`
	X2       Dim    `json:"x2" yaml:"x2"`
	Y2       Dim    `json:"y2" yaml:"y2"`
	Location string `json:"location" yaml:"location"`
	SizeX    Dim    `json:"size_x" yaml:"size_x"`
	SizeY    Dim    `json:"size_y" yaml:"size_y"`
}

// Rect is a resolved mask rectangle in pixels. The intervals are
// half-open: X2 and Y2 are exclusive.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Width returns the horizontal extent in pixels.
func (r Rect) Width() int {
	return r.X2 - r.X1
}

// Height returns the vertical extent in pixels.
func (r Rect) Height() int {
	return r.Y2 - r.Y1
}

// Area returns the covered pixel count.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// Within reports whether the rectangle fits inside a width x height frame.
func (r Rect) Within(width, height int) bool {
	return r.X1 >= 0 && r.Y1 >= 0 && r.X2 <= width && r.Y2 <= height
}

// String returns a compact human-readable form for diagnostics.
func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// TotalArea sums the areas of all rectangles. Overlapping masks count
// each region once per rectangle.
func TotalArea(rects []Rect) int {
	total := 0
	for _, r := range rects {
		total += r.Area()
	}
	return total
}

// ParseJSON reads mask descriptors from a JSON document holding either a
// single descriptor object or an array of them.
func ParseJSON(data []byte) ([]Spec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var specs []Spec
		if err := json.Unmarshal(trimmed, &specs); err != nil {
			return nil, errors.NewJSONParseError("parsing mask list", err)
		}
		return specs, nil
	}
	var spec Spec
	if err := json.Unmarshal(trimmed, &spec); err != nil {
		return nil, errors.NewJSONParseError("parsing mask", err)
	}
	return []Spec{spec}, nil
}

// Resolve converts descriptors into pixel rectangles for a width x height
// frame. A descriptor that cannot be resolved is reported and skipped;
// the remaining masks still apply.
func Resolve(specs []Spec, width, height int, rep reporter.Reporter) []Rect {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	rects := make([]Rect, 0, len(specs))
	dropped := 0
	for i, spec := range specs {
		rect, err := resolveOne(spec, width, height)
		if err != nil {
			dropped++
			rep.MaskDropped(fmt.Sprintf("mask %d: %v", i+1, err))
			continue
		}
		rects = append(rects, rect)
	}
	rep.MasksResolved(reporter.MaskSummary{Resolved: len(rects), Dropped: dropped})
	return rects
}

func resolveOne(spec Spec, width, height int) (Rect, error) {
	var r Rect
	switch {
	case spec.Location != "":
		vert, horiz, found := strings.Cut(spec.Location, "-")
		if !found {
			return Rect{}, fmt.Errorf("invalid location %q", spec.Location)
		}
		sizeX := spec.SizeX.Resolve(width)
		sizeY := spec.SizeY.Resolve(height)
		switch vert {
		case "top":
			r.Y1, r.Y2 = 0, sizeY
		case "bottom":
			r.Y1, r.Y2 = height-sizeY, height
		default:
			return Rect{}, fmt.Errorf("invalid location %q", spec.Location)
		}
		switch horiz {
		case "left":
			r.X1, r.X2 = 0, sizeX
		case "right":
			r.X1, r.X2 = width-sizeX, width
		default:
			return Rect{}, fmt.Errorf("invalid location %q", spec.Location)
		}
	case spec.X1.IsZero() && spec.Y1.IsZero() && spec.X2.IsZero() && spec.Y2.IsZero():
		return Rect{}, fmt.Errorf("missing location")
	default:
		r = Rect{
			X1: spec.X1.Resolve(width),
			Y1: spec.Y1.Resolve(height),
			X2: spec.X2.Resolve(width),
			Y2: spec.Y2.Resolve(height),
		}
	}
	if r.X1 < 0 || r.Y1 < 0 {
		return Rect{}, fmt.Errorf("negative corner in %s", r)
	}
	if r.X2 < r.X1 || r.Y2 < r.Y1 {
		return Rect{}, fmt.Errorf("inverted rectangle %s", r)
	}
	return r, nil
}
