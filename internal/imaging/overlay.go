package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// OverlayCircle is a circle to draw on top of an image.
type OverlayCircle struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	Radius float64 `json:"radius"`
}

// OverlayOptions controls how shapes are drawn.
type OverlayOptions struct {
	// Color is a hex color like "#00FF00" or "#00FF0080". Invalid or empty
	// values fall back to opaque green.
	Color string

	// Thickness is the stroke width in pixels. Values < 1 are treated as 1.
	Thickness int

	// Labels draws each shape's index next to it.
	Labels bool
}

// OverlayResult contains the annotated image.
type OverlayResult struct {
	RenderResult
	Polylines int `json:"polylines"`
	Circles   int `json:"circles"`
}

var defaultOverlayColor = color.RGBA{0, 255, 0, 255}

// ShapeOverlay draws closed polylines and circles over a copy of img and
// returns it as a base64 PNG. img is not modified.
//
// Polylines are closed: the last point is joined back to the first. A polyline
// of one point draws a single dot.
func ShapeOverlay(img image.Image, polylines [][]image.Point, circles []OverlayCircle, opts OverlayOptions) (*OverlayResult, error) {
	stroke, err := parseHexColor(opts.Color)
	if err != nil {
		stroke = defaultOverlayColor
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	// Clone returns an NRGBA with bounds starting at (0,0).
	canvas := imaging.Clone(img)
	offset := img.Bounds().Min

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}

	for i, pts := range polylines {
		if len(pts) == 0 {
			continue
		}
		for j := range pts {
			a := pts[j].Sub(offset)
			b := pts[(j+1)%len(pts)].Sub(offset)
			drawLine(canvas, a, b, thickness, stroke)
		}
		if opts.Labels {
			p := pts[0].Sub(offset)
			drawLabel(canvas, p.X+2, p.Y+2, strconv.Itoa(i), labelColor, bgColor)
		}
	}

	for i, c := range circles {
		if c.Radius < 0 || math.IsNaN(c.Radius) {
			return nil, fmt.Errorf("circle %d: invalid radius %v", i, c.Radius)
		}
		drawCircle(canvas, c.CX-float64(offset.X), c.CY-float64(offset.Y), c.Radius, thickness, stroke)
		if opts.Labels {
			drawLabel(canvas, int(c.CX)-offset.X, int(c.CY)-offset.Y, strconv.Itoa(len(polylines)+i), labelColor, bgColor)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		RenderResult: RenderResult{
			Width:       canvas.Bounds().Dx(),
			Height:      canvas.Bounds().Dy(),
			ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
			MimeType:    "image/png",
		},
		Polylines: len(polylines),
		Circles:   len(circles),
	}, nil
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
// The "#" is optional.
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var a uint8 = 255
	switch len(hex) {
	case 6:
	case 8:
		v, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, err
		}
		a = uint8(v)
		hex = hex[:6]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// blend paints c over the pixel at (x, y), honoring c's alpha. Points outside
// the canvas are ignored.
func blend(img *image.NRGBA, x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(img.Bounds())) {
		return
	}
	if c.A == 255 {
		img.SetNRGBA(x, y, color.NRGBA{c.R, c.G, c.B, 255})
		return
	}
	dst := img.NRGBAAt(x, y)
	a := uint32(c.A)
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	img.SetNRGBA(x, y, color.NRGBA{mix(c.R, dst.R), mix(c.G, dst.G), mix(c.B, dst.B), dst.A})
}

// dot paints a thickness x thickness square centered on (x, y).
func dot(img *image.NRGBA, x, y, thickness int, c color.RGBA) {
	lo := -(thickness - 1) / 2
	for dy := lo; dy < lo+thickness; dy++ {
		for dx := lo; dx < lo+thickness; dx++ {
			blend(img, x+dx, y+dy, c)
		}
	}
}

// drawLine draws a segment from a to b with Bresenham's algorithm.
func drawLine(img *image.NRGBA, a, b image.Point, thickness int, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		dot(img, x, y, thickness, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawCircle draws a circle outline by stepping around the circumference
// roughly one pixel at a time.
func drawCircle(img *image.NRGBA, cx, cy, radius float64, thickness int, c color.RGBA) {
	steps := int(math.Ceil(2*math.Pi*radius)) + 1
	if steps < 8 {
		steps = 8
	}
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := int(math.Round(cx + radius*math.Cos(theta)))
		y := int(math.Round(cy + radius*math.Sin(theta)))
		dot(img, x, y, thickness, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel digit font.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			blend(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					blend(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
