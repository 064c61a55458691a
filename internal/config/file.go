package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/slidescan/slidescan/internal/mask"
)

// fileConfig mirrors the settings file layout: a list of mask descriptors
// plus a list of algorithm parameter sets, of which only the first entry
// is consulted.
type fileConfig struct {
	Masks  []mask.Spec  `yaml:"masks"`
	Slides []slideEntry `yaml:"slides"`
}

type slideEntry struct {
	Algorithm              *string  `yaml:"algorithm"`
	ThresholdCutoff        *int     `yaml:"threshold_cutoff"`
	Trigger                *float64 `yaml:"trigger"`
	TriggerRatio           *float64 `yaml:"trigger_ratio"`
	MinimumTotalChange     *float64 `yaml:"minimum_total_change"`
	MinimumSlideLengthSecs *float64 `yaml:"minimum_slide_length"`
	AveragingTimeSecs      *float64 `yaml:"motion_capture_averaging_time"`
	ScreenshotDelayMS      *float64 `yaml:"msec_to_delay_screenshot"`
}

// LoadFile reads a YAML settings file into an Overlay. Keys absent from
// the file stay nil so lower layers keep their values.
func LoadFile(path string) (Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overlay{}, fmt.Errorf("%w: %v", ErrSettingsRead, err)
	}
	return parseSettings(data)
}

func parseSettings(data []byte) (Overlay, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Overlay{}, fmt.Errorf("%w: %v", ErrSettingsParse, err)
	}

	overlay := Overlay{Masks: fc.Masks}
	if len(fc.Slides) == 0 {
		return overlay, nil
	}

	entry := fc.Slides[0]
	if entry.Algorithm != nil {
		algorithm, err := ParseAlgorithm(*entry.Algorithm)
		if err != nil {
			return Overlay{}, err
		}
		overlay.Algorithm = &algorithm
	}
	overlay.ThresholdCutoff = entry.ThresholdCutoff
	overlay.Trigger = entry.Trigger
	overlay.TriggerRatio = entry.TriggerRatio
	overlay.MinimumTotalChange = entry.MinimumTotalChange
	overlay.MinimumSlideLengthSecs = entry.MinimumSlideLengthSecs
	overlay.AveragingTimeSecs = entry.AveragingTimeSecs
	overlay.ScreenshotDelayMS = entry.ScreenshotDelayMS
	return overlay, nil
}
