package opencv

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/slidescan/slidescan/internal/detect"
)

// knnDistThreshold is the squared distance at which a pixel stops
// matching the background model, kept at the OpenCV default.
const knnDistThreshold = 400.0

// KNNSubtractor wraps the OpenCV KNN background subtractor behind the
// detect.Subtractor interface.
type KNNSubtractor struct {
	model      gocv.BackgroundSubtractorKNN
	foreground gocv.Mat
}

// NewKNNSubtractor builds a subtractor whose background model learns
// over history frames, with shadow detection off. Its signature matches
// detect.SubtractorFactory.
func NewKNNSubtractor(history int) (detect.Subtractor, error) {
	return &KNNSubtractor{
		model:      gocv.NewBackgroundSubtractorKNNWithParams(history, knnDistThreshold, false),
		foreground: gocv.NewMat(),
	}, nil
}

// Apply feeds one frame into the model and returns how many pixels it
// marks as foreground.
func (k *KNNSubtractor) Apply(frame *image.RGBA) (int, error) {
	rgba, err := gocv.ImageToMatRGBA(frame)
	if err != nil {
		return 0, err
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	k.model.Apply(bgr, &k.foreground)
	return gocv.CountNonZero(k.foreground), nil
}

// Close releases the model and its scratch buffer.
func (k *KNNSubtractor) Close() error {
	k.foreground.Close()
	return k.model.Close()
}
