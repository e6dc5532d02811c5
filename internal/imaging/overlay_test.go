package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func decodeOverlay(t *testing.T, r *OverlayResult) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func isColor(c color.Color, r, g, b uint8) bool {
	cr, cg, cb, _ := c.RGBA()
	return uint8(cr>>8) == r && uint8(cg>>8) == g && uint8(cb>>8) == b
}

func TestShapeOverlay_Polyline(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{0, 0, 0, 255})
	square := []image.Point{{10, 10}, {30, 10}, {30, 30}, {10, 30}}

	result, err := ShapeOverlay(img, [][]image.Point{square}, nil, OverlayOptions{Color: "#FF0000"})
	if err != nil {
		t.Fatalf("ShapeOverlay failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.Polylines != 1 || result.Circles != 0 {
		t.Errorf("counts: got %d polylines, %d circles", result.Polylines, result.Circles)
	}

	out := decodeOverlay(t, result)
	edges := []image.Point{{10, 10}, {20, 10}, {30, 20}, {20, 30}, {10, 20}}
	for _, p := range edges {
		if !isColor(out.At(p.X, p.Y), 255, 0, 0) {
			t.Errorf("edge pixel %v not drawn", p)
		}
	}
	if !isColor(out.At(20, 20), 0, 0, 0) {
		t.Error("interior pixel should be untouched")
	}
}

func TestShapeOverlay_Circle(t *testing.T) {
	img := createInMemoryImage(60, 60, color.RGBA{0, 0, 0, 255})

	result, err := ShapeOverlay(img, nil, []OverlayCircle{{CX: 30, CY: 30, Radius: 10}}, OverlayOptions{})
	if err != nil {
		t.Fatalf("ShapeOverlay failed: %v", err)
	}

	out := decodeOverlay(t, result)
	for _, p := range []image.Point{{40, 30}, {20, 30}, {30, 40}, {30, 20}} {
		if !isColor(out.At(p.X, p.Y), 0, 255, 0) {
			t.Errorf("circle pixel %v not drawn in default green", p)
		}
	}
	if !isColor(out.At(30, 30), 0, 0, 0) {
		t.Error("center should be untouched")
	}
}

func TestShapeOverlay_DoesNotModifyInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	line := []image.Point{{0, 0}, {19, 19}}

	if _, err := ShapeOverlay(img, [][]image.Point{line}, nil, OverlayOptions{Thickness: 3}); err != nil {
		t.Fatalf("ShapeOverlay failed: %v", err)
	}
	for _, v := range img.Pix {
		if v != 0 {
			t.Fatal("input image was modified")
		}
	}
}

func TestShapeOverlay_OutOfBoundsShapes(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	poly := []image.Point{{-20, -20}, {40, 5}}

	// Shapes partially outside the canvas are clipped, not rejected.
	if _, err := ShapeOverlay(img, [][]image.Point{poly, {}}, []OverlayCircle{{CX: 5, CY: 5, Radius: 50}}, OverlayOptions{Labels: true}); err != nil {
		t.Fatalf("ShapeOverlay failed: %v", err)
	}
}

func TestShapeOverlay_InvalidRadius(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	if _, err := ShapeOverlay(img, nil, []OverlayCircle{{CX: 5, CY: 5, Radius: -1}}, OverlayOptions{}); err == nil {
		t.Error("expected error for negative radius")
	}
}

func TestShapeOverlay_TranslucentColor(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	dotShape := []image.Point{{5, 5}}

	result, err := ShapeOverlay(img, [][]image.Point{dotShape}, nil, OverlayOptions{Color: "#FFFFFF80"})
	if err != nil {
		t.Fatalf("ShapeOverlay failed: %v", err)
	}
	r, _, _, _ := decodeOverlay(t, result).At(5, 5).RGBA()
	if got := r >> 8; got < 120 || got > 135 {
		t.Errorf("blended red = %d, want about 128", got)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		wantR   uint8
		wantG   uint8
		wantB   uint8
		wantA   uint8
		wantErr bool
	}{
		{"#FF0000", 255, 0, 0, 255, false},
		{"#00FF00", 0, 255, 0, 255, false},
		{"#0000FF", 0, 0, 255, 255, false},
		{"#FFFFFF", 255, 255, 255, 255, false},
		{"#000000", 0, 0, 0, 255, false},
		{"FF0000", 255, 0, 0, 255, false},    // without #
		{"#FF000080", 255, 0, 0, 128, false}, // with alpha
		{"FF000080", 255, 0, 0, 128, false},  // without # with alpha
		{"", 0, 0, 0, 0, true},               // empty
		{"#FFF", 0, 0, 0, 0, true},           // invalid length
		{"#GGGGGG", 0, 0, 0, 0, true},        // invalid hex
		{"#FF0000ZZ", 0, 0, 0, 0, true},      // invalid alpha
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := parseHexColor(tt.hex)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if c.R != tt.wantR || c.G != tt.wantG || c.B != tt.wantB || c.A != tt.wantA {
				t.Errorf("got (%d,%d,%d,%d), want (%d,%d,%d,%d)",
					c.R, c.G, c.B, c.A, tt.wantR, tt.wantG, tt.wantB, tt.wantA)
			}
		})
	}
}

func TestDrawLabel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	fg := color.RGBA{255, 255, 255, 255}
	bg := color.RGBA{0, 0, 0, 255}
	drawLabel(img, 10, 10, "50,50", fg, bg)

	hasWhite := false
	hasBlack := false
	for y := 9; y < 20; y++ {
		for x := 9; x < 40; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r > 200<<8 {
				hasWhite = true
			}
			if r < 50<<8 {
				hasBlack = true
			}
		}
	}

	if !hasWhite {
		t.Error("label should have white pixels (text)")
	}
	if !hasBlack {
		t.Error("label should have dark pixels (background)")
	}
}

func TestDrawLabel_BoundsCheck(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))

	fg := color.RGBA{255, 255, 255, 255}
	bg := color.RGBA{0, 0, 0, 180}

	// Labels running past the edges must not panic.
	drawLabel(img, 15, 15, "100,100", fg, bg)
	drawLabel(img, 0, 0, "0,0", fg, bg)
	drawLabel(img, -5, -5, "test", fg, bg)
	drawLabel(img, 10, 10, "", fg, bg)
}
