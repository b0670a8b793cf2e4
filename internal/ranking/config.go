package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// DefaultLimit is the number of results Rank returns by default.
const DefaultLimit = 5

// ModeWeights is the linear weighting of one scoring mode.
type ModeWeights struct {
	Transit     float64 `json:"transit"`      // Weight per TRANSIT_ACCESS edge
	Culture     float64 `json:"culture"`      // Weight per WALKABLE_TO edge
	RequireBoth bool    `json:"require_both"` // Score 0 unless both counts are positive
}

// Weights holds the weighting of every mode and the result cap.
type Weights struct {
	Modes map[Mode]ModeWeights `json:"modes"`
	Limit int                  `json:"limit"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the reference weighting of all six modes.
func DefaultWeights() *Weights {
	return &Weights{
		Modes: map[Mode]ModeWeights{
			ModeTransit:   {Transit: 2, Culture: 1},
			ModeCulture:   {Transit: 1, Culture: 2},
			ModeBalanced:  {Transit: 1, Culture: 1},
			ModeHub:       {Transit: 3, Culture: 1},
			ModeCorridor:  {Transit: 1, Culture: 3},
			ModeConnected: {Transit: 1, Culture: 1, RequireBoth: true},
		},
		Limit: DefaultLimit,
	}
}

// Clone returns a deep copy of w.
func (w *Weights) Clone() *Weights {
	out := &Weights{Modes: make(map[Mode]ModeWeights, len(w.Modes)), Limit: w.Limit}
	for m, mw := range w.Modes {
		out.Modes[m] = mw
	}
	return out
}

// LoadCalibration loads mode weights from a JSON calibration file.
// An empty path yields the defaults. If the file can't be read or parsed,
// the defaults are returned together with the error.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration applies the non-zero values of override on top of base.
// Modes outside the known set are ignored. A RequireBoth flag can be turned
// on by an override but not off.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}

	result := base.Clone()
	if override == nil {
		return result
	}

	if override.Limit > 0 {
		result.Limit = override.Limit
	}

	for mode, ow := range override.Modes {
		if !mode.Valid() {
			slog.Warn("ignoring calibration for unknown ranking mode", "mode", mode)
			continue
		}
		mw := result.Modes[mode]
		if ow.Transit != 0 {
			mw.Transit = ow.Transit
		}
		if ow.Culture != 0 {
			mw.Culture = ow.Culture
		}
		if ow.RequireBoth {
			mw.RequireBoth = true
		}
		result.Modes[mode] = mw
	}

	return result
}

// logCalibrationOverrides logs which weights differ from the defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Limit != defaults.Limit {
		overrides = append(overrides, fmt.Sprintf("limit: %d -> %d", defaults.Limit, loaded.Limit))
	}

	modes := make([]string, 0, len(loaded.Modes))
	for m := range loaded.Modes {
		modes = append(modes, string(m))
	}
	sort.Strings(modes)

	for _, name := range modes {
		m := Mode(name)
		d, l := defaults.Modes[m], loaded.Modes[m]
		if d.Transit != l.Transit {
			overrides = append(overrides, fmt.Sprintf("%s.transit: %.2f -> %.2f", m, d.Transit, l.Transit))
		}
		if d.Culture != l.Culture {
			overrides = append(overrides, fmt.Sprintf("%s.culture: %.2f -> %.2f", m, d.Culture, l.Culture))
		}
		if d.RequireBoth != l.RequireBoth {
			overrides = append(overrides, fmt.Sprintf("%s.require_both: %t -> %t", m, d.RequireBoth, l.RequireBoth))
		}
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
