// Package filter implements the declarative adjustment pipeline: a pure
// mapping between slider values and an ordered list of compositable image
// filters, plus the raster application of that list.
package filter

import (
	"math"

	"github.com/Skryldev/photo-editor/utils"
)

// Kind tags a filter variant.  The set is closed; reverse lookup during
// extraction is a direct tag match, never runtime type identity.
type Kind string

const (
	Brightness  Kind = "brightness"
	Contrast    Kind = "contrast"
	Saturation  Kind = "saturation"
	Vibrance    Kind = "vibrance"
	Blur        Kind = "blur"
	HueRotation Kind = "hue"
	Noise       Kind = "noise"
	Pixelate    Kind = "pixelate"
)

// Order is the fixed declared order filters are constructed and applied in.
var Order = [8]Kind{
	Brightness, Contrast, Saturation, Vibrance,
	Blur, HueRotation, Noise, Pixelate,
}

// Filter is one constructed adjustment: a tag plus its native-space parameter.
// Brightness/Contrast/Saturation/Vibrance/Blur carry [-1,1] or [0,1] scales,
// HueRotation carries radians, Noise and Pixelate carry their slider value
// unchanged.
type Filter struct {
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value"`
}

// Range returns the inclusive slider bounds for a kind.
func Range(k Kind) (min, max int) {
	switch k {
	case Blur:
		return 0, 100
	case HueRotation:
		return -180, 180
	case Noise:
		return 0, 1000
	case Pixelate:
		return 1, 50
	default: // brightness, contrast, saturation, vibrance
		return -100, 100
	}
}

// Defaults returns the per-kind default slider values: zero everywhere except
// pixelate, whose identity block size is 1.
func Defaults() map[Kind]int {
	return map[Kind]int{
		Brightness:  0,
		Contrast:    0,
		Saturation:  0,
		Vibrance:    0,
		Blur:        0,
		HueRotation: 0,
		Noise:       0,
		Pixelate:    1,
	}
}

// transform maps a slider value into the kind's native parameter space.
func transform(k Kind, slider int) float64 {
	switch k {
	case Brightness, Contrast, Saturation, Vibrance, Blur:
		return float64(slider) / 100
	case HueRotation:
		return float64(slider) * math.Pi / 180
	default: // noise, pixelate: identity
		return float64(slider)
	}
}

// inverse maps a native parameter back to its slider value, rounding to the
// nearest integer.
func inverse(k Kind, native float64) int {
	switch k {
	case Brightness, Contrast, Saturation, Vibrance, Blur:
		return int(math.Round(native * 100))
	case HueRotation:
		return int(math.Round(native * 180 / math.Pi))
	default:
		return int(math.Round(native))
	}
}

// Compute builds the full ordered filter list from a slider-value map.
// All eight filters are constructed every time, identity values included:
// a filter at its default produces no visible effect but keeps ordering
// stable and keeps Extract trivial.  Missing keys fall back to defaults;
// out-of-range values are clamped.
func Compute(values map[Kind]int) []Filter {
	defaults := Defaults()
	out := make([]Filter, 0, len(Order))
	for _, k := range Order {
		v, ok := values[k]
		if !ok {
			v = defaults[k]
		}
		lo, hi := Range(k)
		v = utils.Clamp(v, lo, hi)
		out = append(out, Filter{Kind: k, Value: transform(k, v)})
	}
	return out
}

// Extract reconstructs the slider-value map from a constructed filter list.
// An empty or nil list yields Defaults().  For any map m,
// Extract(Compute(m)) == m up to integer rounding and range clamping.
func Extract(fs []Filter) map[Kind]int {
	values := Defaults()
	for _, f := range fs {
		if _, known := values[f.Kind]; !known {
			continue
		}
		lo, hi := Range(f.Kind)
		values[f.Kind] = utils.Clamp(inverse(f.Kind, f.Value), lo, hi)
	}
	return values
}
