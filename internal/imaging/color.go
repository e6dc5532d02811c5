package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL space with integer components.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// HSV is a color in HSV space.
//
// Hue is in degrees [0, 360); saturation and value are in [0, 1].
// A hue of 0 is reported for achromatic colors, where hue is undefined.
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Scaled returns the 8-bit layout used by HSV buffers and color presets:
// H/2 (0-179), S*255 and V*255.
func (c HSV) Scaled() [3]uint8 {
	return [3]uint8{
		uint8(c.H / 2),
		uint8(math.Round(c.S * 255)),
		uint8(math.Round(c.V * 255)),
	}
}

// HSVFromScaled is the inverse of HSV.Scaled, up to quantization.
func HSVFromScaled(h, s, v uint8) HSV {
	return HSV{H: float64(h) * 2, S: float64(s) / 255, V: float64(v) / 255}
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex       string   `json:"hex"`        // "#RRGGBB"
	RGB       RGBColor `json:"rgb"`        // 8-bit components
	Alpha     uint8    `json:"alpha"`      // 0 transparent, 255 opaque
	HSL       HSLColor `json:"hsl"`        // Integer HSL
	HSV       HSV      `json:"hsv"`        // Exact HSV
	HSVScaled [3]uint8 `json:"hsv_scaled"` // HSV in the layout InRange compares against
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The source image to sample from.
//   - x, y: 0-based pixel coordinates, origin at the top-left.
//
// Returns:
//   - *ColorResult: The color at (x, y), including its HSV value in both the
//     exact and the scaled 8-bit form, which is what segmentation thresholds
//     are written in.
//   - error: Non-nil if the coordinates are outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, a := img.At(x, y).RGBA()
	r8, g8, b8, a8 := uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)

	h, s, l := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}.Hsl()
	hsv := RGBToHSV(r8, g8, b8)

	return &ColorResult{
		Hex:       fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB:       RGBColor{R: r8, G: g8, B: b8},
		Alpha:     a8,
		HSL:       HSLColor{H: int(math.Round(h)) % 360, S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
		HSV:       hsv,
		HSVScaled: hsv.Scaled(),
	}, nil
}

// LabeledPoint is a pixel coordinate with an optional label.
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledColorResult combines a color sample with its location and label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// MultiColorResult contains color samples in input order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti samples several points in one call. Any out-of-bounds
// point fails the whole call and no partial result is returned.
func SampleColorsMulti(img image.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		c, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{Label: p.Label, X: p.X, Y: p.Y, Color: *c})
	}

	return &MultiColorResult{Samples: results}, nil
}

// RGBToHSV converts 8-bit RGB to HSV.
//
// The conversion follows the standard algorithm:
//  1. Normalize RGB to the 0-1 range
//  2. V = max(r, g, b), diff = max - min
//  3. S = diff / V, or 0 when V is 0
//  4. H = 0 when diff is 0; otherwise the 60° sector formula for whichever
//     channel is largest, shifted into [0, 360)
//
// The function is total: no input divides by zero, and gray inputs
// (r == g == b) always give H = 0 and S = 0.
func RGBToHSV(r, g, b uint8) HSV {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	diff := max - min

	var s float64
	if max != 0 {
		s = diff / max
	}
	if diff == 0 {
		return HSV{H: 0, S: s, V: max}
	}

	var h float64
	switch max {
	case rf:
		h = 60 * ((gf - bf) / diff)
	case gf:
		h = 60 * (2 + (bf-rf)/diff)
	default:
		h = 60 * (4 + (rf-gf)/diff)
	}
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}

	return HSV{H: h, S: s, V: max}
}

// HSVToRGB converts an HSV color back to 8-bit RGB.
func HSVToRGB(c HSV) (r, g, b uint8) {
	return colorful.Hsv(c.H, c.S, c.V).Clamped().RGB255()
}

// ConvertToHSV converts an 8-bit RGB buffer into an HSV buffer using the
// scaled layout (see HSV.Scaled). The input is not modified.
//
// Rows are converted in parallel; each pixel is independent.
func ConvertToHSV(rgb *raster.Buffer) (*raster.Buffer, error) {
	if err := requireRGB("convert to hsv", rgb); err != nil {
		return nil, err
	}

	out := rgb.Clone()
	parallel.Line(rgb.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < rgb.Width; x++ {
				p := rgb.Pix(x, y)
				scaled := RGBToHSV(p[0], p[1], p[2]).Scaled()
				copy(out.Pix(x, y), scaled[:])
			}
		}
	})
	return out, nil
}

// ConvertToRGB converts a scaled HSV buffer back to RGB.
func ConvertToRGB(hsv *raster.Buffer) (*raster.Buffer, error) {
	if err := requireRGB("convert to rgb", hsv); err != nil {
		return nil, err
	}

	out := hsv.Clone()
	parallel.Line(hsv.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < hsv.Width; x++ {
				p := hsv.Pix(x, y)
				r, g, b := HSVToRGB(HSVFromScaled(p[0], p[1], p[2]))
				q := out.Pix(x, y)
				q[0], q[1], q[2] = r, g, b
			}
		}
	})
	return out, nil
}

func requireRGB(op string, b *raster.Buffer) error {
	if err := raster.Require8Bit(op, b); err != nil {
		return err
	}
	if b.Kind != raster.KindRGB {
		return fmt.Errorf("%s: %w: needs an rgb buffer, got %s", op, raster.ErrInvalidParameter, b.Kind)
	}
	return nil
}
