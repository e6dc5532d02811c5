package imaging

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// HSVBound is an inclusive per-channel limit in the scaled HSV layout:
// H in 0-179 (degrees/2), S and V in 0-255.
type HSVBound struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// HSVRange is an inclusive box in scaled HSV space.
type HSVRange struct {
	Lower HSVBound `json:"lower"`
	Upper HSVBound `json:"upper"`
}

// Contains reports whether the scaled HSV pixel p lies inside the range.
func (r HSVRange) Contains(p []byte) bool {
	return p[0] >= r.Lower.H && p[0] <= r.Upper.H &&
		p[1] >= r.Lower.S && p[1] <= r.Upper.S &&
		p[2] >= r.Lower.V && p[2] <= r.Upper.V
}

// ColorPreset names a set of HSV ranges whose union selects one color.
// Red needs two ranges because its hue wraps around 0.
type ColorPreset struct {
	Name   string     `json:"name"`
	Ranges []HSVRange `json:"ranges"`
}

var presets = map[string]ColorPreset{
	"red": {
		Name: "red",
		Ranges: []HSVRange{
			{Lower: HSVBound{0, 130, 80}, Upper: HSVBound{10, 255, 255}},
			{Lower: HSVBound{165, 130, 80}, Upper: HSVBound{180, 255, 255}},
		},
	},
	"blue": {
		Name: "blue",
		Ranges: []HSVRange{
			{Lower: HSVBound{104, 110, 80}, Upper: HSVBound{124, 255, 255}},
		},
	},
}

// Preset looks up a built-in color preset by case-insensitive name.
func Preset(name string) (ColorPreset, error) {
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		return ColorPreset{}, fmt.Errorf("%w: unknown color preset %q (known: %s)",
			raster.ErrInvalidParameter, name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames lists the built-in presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// InRange builds a mask from a scaled HSV buffer. A pixel is foreground (0xFF)
// when it lies inside any of the given ranges.
func InRange(hsv *raster.Buffer, ranges ...HSVRange) (*raster.Buffer, error) {
	if err := requireRGB("in range", hsv); err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("in range: %w: no ranges given", raster.ErrInvalidParameter)
	}

	mask, err := raster.New(raster.KindGray, hsv.Width, hsv.Height, 255)
	if err != nil {
		return nil, err
	}
	for y := 0; y < hsv.Height; y++ {
		row := mask.Row(y)
		for x := 0; x < hsv.Width; x++ {
			p := hsv.Pix(x, y)
			for _, r := range ranges {
				if r.Contains(p) {
					row[x] = raster.MaskForeground
					break
				}
			}
		}
	}
	return mask, nil
}

// SegmentColor produces a cleaned mask of the pixels matching preset.
//
// Pipeline:
//  1. RGB -> scaled HSV
//  2. Union of InRange over the preset's ranges
//  3. Open (removes specks) then Close (fills pinholes) with the given kernel
//
// The border fills of the four rank passes leak up to 4*(kernel/2) pixels in
// from each edge, so that band is cleared at the end. A kernel of 1 is the
// identity and clears nothing.
func SegmentColor(rgb *raster.Buffer, preset ColorPreset, kernel int) (*raster.Buffer, error) {
	hsv, err := ConvertToHSV(rgb)
	if err != nil {
		return nil, err
	}
	mask, err := InRange(hsv, preset.Ranges...)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", preset.Name, err)
	}
	opened, err := Open(mask, kernel)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", preset.Name, err)
	}
	closed, err := Close(opened, kernel)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", preset.Name, err)
	}
	return ClearBorder(closed, 4*(kernel/2))
}

// Threshold turns any image into a mask. Pixels whose luminance rank is at or
// above level become foreground. With invert set, dark pixels become
// foreground instead, which suits dark shapes drawn on a light background.
func Threshold(img image.Image, level uint8, invert bool) (*raster.Buffer, error) {
	src := img
	if invert {
		src = effect.Invert(img)
	}
	gray := segment.Threshold(src, level)

	bounds := gray.Bounds()
	mask, err := raster.New(raster.KindGray, bounds.Dx(), bounds.Dy(), 255)
	if err != nil {
		return nil, err
	}
	for y := 0; y < mask.Height; y++ {
		copy(mask.Row(y), gray.Pix[y*gray.Stride:y*gray.Stride+mask.Width])
	}
	return mask, nil
}
