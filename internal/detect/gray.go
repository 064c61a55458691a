package detect

import (
	"image"

	"github.com/slidescan/slidescan/internal/mask"
)

// grayscale converts an RGBA frame to 8-bit luma using the BT.601
// weights, rounded to the nearest integer.
func grayscale(src *image.RGBA) []uint8 {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]uint8, w*h)
	i := 0
	for y := 0; y < h; y++ {
		off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		row := src.Pix[off : off+w*4]
		for x := 0; x < len(row); x += 4 {
			r := uint32(row[x])
			g := uint32(row[x+1])
			b := uint32(row[x+2])
			out[i] = uint8((299*r + 587*g + 114*b + 500) / 1000)
			i++
		}
	}
	return out
}

// zeroGray blacks out the masked rectangle in a w-wide luma buffer. The
// rectangle must lie within the buffer.
func zeroGray(gray []uint8, width int, r mask.Rect) {
	for y := r.Y1; y < r.Y2; y++ {
		row := gray[y*width+r.X1 : y*width+r.X2]
		for i := range row {
			row[i] = 0
		}
	}
}

// zeroRGBA blacks out the color channels of the masked rectangle, leaving
// alpha untouched. The rectangle must lie within the image bounds.
func zeroRGBA(img *image.RGBA, r mask.Rect) {
	bounds := img.Bounds()
	for y := r.Y1; y < r.Y2; y++ {
		off := img.PixOffset(bounds.Min.X+r.X1, bounds.Min.Y+y)
		row := img.Pix[off : off+r.Width()*4]
		for x := 0; x < len(row); x += 4 {
			row[x], row[x+1], row[x+2] = 0, 0, 0
		}
	}
}

// countChanged counts pixels whose absolute luma difference between cur
// and prev strictly exceeds cutoff.
func countChanged(cur, prev []uint8, cutoff int) int {
	count := 0
	for i := range cur {
		diff := int(cur[i]) - int(prev[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > cutoff {
			count++
		}
	}
	return count
}
