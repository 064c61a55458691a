package capture

import (
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/slidescan/slidescan/internal/errors"
)

// Thumbnail dimensions, chosen to match a 16:9 preview tile.
const (
	ThumbnailWidth  = 320
	ThumbnailHeight = 180
)

// Thumbnail downscales the slide image at srcPath into a preview tile at
// dstPath, preserving aspect ratio.
func Thumbnail(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return errors.NewScreenshotError(fmt.Sprintf("opening %s", srcPath), err)
	}
	thumb := imaging.Fit(img, ThumbnailWidth, ThumbnailHeight, imaging.Lanczos)
	return SaveImage(thumb, dstPath)
}
