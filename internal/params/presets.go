package params

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named full parameter vector.
type Preset struct {
	Name   string
	Values [Count]float32
}

// Factory lists the built-in presets in menu order.
var Factory = []Preset{
	{"Preset 1", [Count]float32{0, 0, 0, 2, 0, 0.100, 0.000, 0.000, 0.010, 1.119, 0.302, 0.800, 7226.376, 0.613, 0.582, 0.364, 0.314, 0.362, 0.340, 0.575}},
	{"Preset 2", [Count]float32{0, 0, 0, 0, 0, 0.685, 0.685, 0.840, 0.661, 1.119, 0.302, 0.800, 7226.376, 0.613, 0.582, 0.364, 0.314, 0.362, 0.340, 0.575}},
	{"Copied Preset", [Count]float32{0, 0, 0, 0, 0, 0.000, 0.378, 0.520, 0.504, 0.557, 0.302, 0.322, 7226.376, 1.641, 1.361, 0.364, 0.314, 0.362, 0.340, 0.575}},
}

// Defaults are the control initial values: everything at zero except the
// FM frequency base, which rests at the bottom of its range.
func Defaults() [Count]float32 {
	var v [Count]float32
	v[FMFreq] = 0.01
	return v
}

// LookupPreset finds a factory preset by case-insensitive name.
func LookupPreset(name string) (Preset, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Factory {
		if strings.ToLower(p.Name) == want {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}
