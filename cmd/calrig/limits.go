package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kwahlman/calrig/gasmixer"
)

// Rig limits YAML: full scale ratings for the two mass flow controllers.
//
//	n2:
//	  full_scale_slpm: 10
//	o2_source:
//	  full_scale_slpm: 2.5
type rigLimits struct {
	N2       mfcLimits `yaml:"n2"`
	O2Source mfcLimits `yaml:"o2_source"`
}

type mfcLimits struct {
	FullScaleSLPM float64 `yaml:"full_scale_slpm"`
}

// loadChannels reads MFC limits from a YAML file, falling back to the rig's
// stock hardware when no path is given.
func loadChannels(path string) (gasmixer.Channels, error) {
	channels := gasmixer.DefaultChannels()
	if path == "" {
		return channels, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return gasmixer.Channels{}, fmt.Errorf("read rig limits: %w", err)
	}

	var limits rigLimits
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return gasmixer.Channels{}, fmt.Errorf("parse rig limits: %w", err)
	}

	if limits.N2.FullScaleSLPM > 0 {
		channels.N2.FullScaleSLPM = limits.N2.FullScaleSLPM
	}
	if limits.O2Source.FullScaleSLPM > 0 {
		channels.O2Source.FullScaleSLPM = limits.O2Source.FullScaleSLPM
	}

	return channels, nil
}
