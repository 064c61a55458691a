// Package config provides configuration types and defaults for slidescan.
package config

import (
	"fmt"
	"strings"

	"github.com/slidescan/slidescan/internal/mask"
)

// Default constants
const (
	// DefaultThresholdCutoff is the per-pixel gray difference (0-255) the
	// basic algorithm counts as a significant change.
	DefaultThresholdCutoff int = 115

	// DefaultTrigger is the fraction of changed pixels that fires a basic
	// transition.
	DefaultTrigger float64 = 0.01

	// DefaultTriggerRatio is the multiple of the running change average a
	// frame must exceed to fire an advanced transition.
	DefaultTriggerRatio float64 = 5

	// DefaultMinimumTotalChange is the fraction of unmasked pixels that must
	// change before the advanced algorithm considers a trigger (0.0-1.0).
	DefaultMinimumTotalChange float64 = 0.06

	// DefaultMinimumSlideLengthSecs is the shortest slide the advanced
	// algorithm will report.
	DefaultMinimumSlideLengthSecs float64 = 20

	// DefaultAveragingTimeSecs is the window over which the advanced
	// algorithm averages per-frame change counts.
	DefaultAveragingTimeSecs float64 = 10

	// DefaultScreenshotDelayMS is how long after a transition the advanced
	// algorithm waits before grabbing the slide image, to let animated
	// transitions settle.
	DefaultScreenshotDelayMS float64 = 1000

	// MinTriggerRatio is the lowest accepted trigger ratio.
	MinTriggerRatio float64 = 2

	// MaxTriggerRatio is the highest accepted trigger ratio.
	MaxTriggerRatio float64 = 10

	// MinTotalChange is the lowest accepted minimum total change.
	MinTotalChange float64 = 0

	// MaxTotalChange is the highest accepted minimum total change.
	MaxTotalChange float64 = 1
)

// Algorithm selects the transition detection strategy.
type Algorithm string

const (
	AlgorithmBasic    Algorithm = "basic"
	AlgorithmAdvanced Algorithm = "advanced"
)

// ParseAlgorithm parses a string into an Algorithm. The empty string
// selects the advanced algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "basic":
		return AlgorithmBasic, nil
	case "advanced", "":
		return AlgorithmAdvanced, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: basic, advanced", ErrInvalidAlgorithm, s)
	}
}

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// BasicSettings holds the parameters of the basic algorithm.
type BasicSettings struct {
	ThresholdCutoff int
	Trigger         float64
}

// AdvancedSettings holds the parameters of the advanced algorithm.
type AdvancedSettings struct {
	TriggerRatio           float64
	MinimumTotalChange     float64
	MinimumSlideLengthSecs float64
	AveragingTimeSecs      float64
	ScreenshotDelayMS      float64
}

// Settings is the full merged configuration for one scan. Values are
// layered with Apply; a Settings value is never mutated in place.
type Settings struct {
	Algorithm Algorithm
	Masks     []mask.Spec
	Basic     BasicSettings
	Advanced  AdvancedSettings
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Algorithm: AlgorithmAdvanced,
		Basic: BasicSettings{
			ThresholdCutoff: DefaultThresholdCutoff,
			Trigger:         DefaultTrigger,
		},
		Advanced: AdvancedSettings{
			TriggerRatio:           DefaultTriggerRatio,
			MinimumTotalChange:     DefaultMinimumTotalChange,
			MinimumSlideLengthSecs: DefaultMinimumSlideLengthSecs,
			AveragingTimeSecs:      DefaultAveragingTimeSecs,
			ScreenshotDelayMS:      DefaultScreenshotDelayMS,
		},
	}
}

// Overlay carries the partial settings of one layer, typically a settings
// file or caller overrides. Nil fields leave the layer below untouched; a
// non-nil Masks slice replaces the mask list wholesale.
type Overlay struct {
	Algorithm              *Algorithm
	Masks                  []mask.Spec
	ThresholdCutoff        *int
	Trigger                *float64
	TriggerRatio           *float64
	MinimumTotalChange     *float64
	MinimumSlideLengthSecs *float64
	AveragingTimeSecs      *float64
	ScreenshotDelayMS      *float64
}

// Apply returns a copy of s with every set field of o layered on top.
// The receiver is not modified, so layers can be stacked:
// Defaults().Apply(fromFile).Apply(fromCaller).
func (s Settings) Apply(o Overlay) Settings {
	if o.Algorithm != nil {
		s.Algorithm = *o.Algorithm
	}
	if o.Masks != nil {
		s.Masks = append([]mask.Spec(nil), o.Masks...)
	}
	if o.ThresholdCutoff != nil {
		s.Basic.ThresholdCutoff = *o.ThresholdCutoff
	}
	if o.Trigger != nil {
		s.Basic.Trigger = *o.Trigger
	}
	if o.TriggerRatio != nil {
		s.Advanced.TriggerRatio = *o.TriggerRatio
	}
	if o.MinimumTotalChange != nil {
		s.Advanced.MinimumTotalChange = *o.MinimumTotalChange
	}
	if o.MinimumSlideLengthSecs != nil {
		s.Advanced.MinimumSlideLengthSecs = *o.MinimumSlideLengthSecs
	}
	if o.AveragingTimeSecs != nil {
		s.Advanced.AveragingTimeSecs = *o.AveragingTimeSecs
	}
	if o.ScreenshotDelayMS != nil {
		s.Advanced.ScreenshotDelayMS = *o.ScreenshotDelayMS
	}
	return s
}

// AlgorithmValues returns the merged parameters of the active algorithm
// keyed by their settings-file names, for inclusion in scan metadata.
func (s Settings) AlgorithmValues() map[string]interface{} {
	if s.Algorithm == AlgorithmBasic {
		return map[string]interface{}{
			"threshold_cutoff": s.Basic.ThresholdCutoff,
			"trigger":          s.Basic.Trigger,
		}
	}
	return map[string]interface{}{
		"trigger_ratio":                 s.Advanced.TriggerRatio,
		"minimum_total_change":          s.Advanced.MinimumTotalChange,
		"minimum_slide_length":          s.Advanced.MinimumSlideLengthSecs,
		"motion_capture_averaging_time": s.Advanced.AveragingTimeSecs,
		"msec_to_delay_screenshot":      s.Advanced.ScreenshotDelayMS,
	}
}
