package detect

// RunningAverage maintains a windowed mean of per-frame change counts
// over the last N frames. Slots are addressed by frame index modulo the
// window size, which is safe because the window is reset on every trigger
// and otherwise filled sequentially. The sum is carried in int64 and the
// mean is a single division.
type RunningAverage struct {
	slots []int64
	sum   int64
}

// NewRunningAverage returns a window over size frames. Size must be at
// least 1.
func NewRunningAverage(size int) *RunningAverage {
	return &RunningAverage{slots: make([]int64, size)}
}

// Update replaces the slot for frameIndex with value.
func (a *RunningAverage) Update(frameIndex, value int) {
	slot := frameIndex % len(a.slots)
	a.sum -= a.slots[slot]
	a.slots[slot] = int64(value)
	a.sum += int64(value)
}

// Mean returns the current window average. Unfilled slots count as zero.
func (a *RunningAverage) Mean() float64 {
	return float64(a.sum) / float64(len(a.slots))
}

// Reset zeroes the window.
func (a *RunningAverage) Reset() {
	for i := range a.slots {
		a.slots[i] = 0
	}
	a.sum = 0
}

// Size returns the window length in frames.
func (a *RunningAverage) Size() int {
	return len(a.slots)
}
