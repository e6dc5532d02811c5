package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

func fillRect(buf *raster.Buffer, x0, y0, x1, y1 int, c [3]uint8) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			copy(buf.Pix(x, y), c[:])
		}
	}
}

func TestPreset(t *testing.T) {
	red, err := Preset("RED")
	require.NoError(t, err)
	assert.Equal(t, "red", red.Name)
	assert.Len(t, red.Ranges, 2)

	blue, err := Preset("blue")
	require.NoError(t, err)
	assert.Len(t, blue.Ranges, 1)

	_, err = Preset("chartreuse")
	assert.True(t, errors.Is(err, raster.ErrInvalidParameter))

	assert.Equal(t, []string{"blue", "red"}, PresetNames())
}

func TestPreset_MatchesSaturatedColors(t *testing.T) {
	red, _ := Preset("red")
	blue, _ := Preset("blue")

	tests := []struct {
		name     string
		rgb      [3]uint8
		wantRed  bool
		wantBlue bool
	}{
		{"pure red", [3]uint8{255, 0, 0}, true, false},
		{"magenta-ish red", [3]uint8{220, 20, 60}, true, false},
		{"orange-red", [3]uint8{230, 40, 0}, true, false},
		{"pure blue", [3]uint8{0, 0, 255}, false, true},
		{"azure blue", [3]uint8{20, 80, 220}, false, true},
		{"white", [3]uint8{255, 255, 255}, false, false},
		{"black", [3]uint8{0, 0, 0}, false, false},
		{"dark red", [3]uint8{60, 0, 0}, false, false},
		{"green", [3]uint8{0, 200, 0}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RGBToHSV(tt.rgb[0], tt.rgb[1], tt.rgb[2]).Scaled()
			inAny := func(p ColorPreset) bool {
				for _, r := range p.Ranges {
					if r.Contains(s[:]) {
						return true
					}
				}
				return false
			}
			assert.Equal(t, tt.wantRed, inAny(red), "red for %v (hsv %v)", tt.rgb, s)
			assert.Equal(t, tt.wantBlue, inAny(blue), "blue for %v (hsv %v)", tt.rgb, s)
		})
	}
}

func TestInRange(t *testing.T) {
	hsv, err := raster.New(raster.KindRGB, 3, 1, 255)
	require.NoError(t, err)
	copy(hsv.Pix(0, 0), []byte{5, 200, 200})
	copy(hsv.Pix(1, 0), []byte{170, 200, 200})
	copy(hsv.Pix(2, 0), []byte{90, 200, 200})

	red, _ := Preset("red")
	mask, err := InRange(hsv, red.Ranges...)
	require.NoError(t, err)

	assert.Equal(t, raster.KindGray, mask.Kind)
	assert.Equal(t, []byte{raster.MaskForeground, raster.MaskForeground, 0}, mask.Data)

	_, err = InRange(hsv)
	assert.True(t, errors.Is(err, raster.ErrInvalidParameter))
}

func TestSegmentColor(t *testing.T) {
	rgb := rgbBuffer(t, 16, 16, 255, 255, 255)
	fillRect(rgb, 4, 4, 9, 9, [3]uint8{255, 0, 0})
	fillRect(rgb, 11, 11, 11, 11, [3]uint8{255, 0, 0}) // speck
	red, _ := Preset("red")

	mask, err := SegmentColor(rgb, red, 3)
	require.NoError(t, err)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := x >= 4 && x <= 9 && y >= 4 && y <= 9
			assert.Equal(t, want, mask.Pix(x, y)[0] == raster.MaskForeground, "pixel (%d,%d)", x, y)
		}
	}
}

func TestSegmentColor_OtherColorIgnored(t *testing.T) {
	rgb := rgbBuffer(t, 16, 16, 255, 255, 255)
	fillRect(rgb, 4, 4, 9, 9, [3]uint8{0, 0, 255})
	red, _ := Preset("red")
	blue, _ := Preset("blue")

	mask, err := SegmentColor(rgb, red, 3)
	require.NoError(t, err)
	for _, v := range mask.Data {
		require.Zero(t, v)
	}

	mask, err = SegmentColor(rgb, blue, 3)
	require.NoError(t, err)
	assert.Equal(t, byte(raster.MaskForeground), mask.Pix(6, 6)[0])
}

func TestSegmentColor_InvalidInput(t *testing.T) {
	red, _ := Preset("red")
	gray, err := raster.New(raster.KindGray, 4, 4, 255)
	require.NoError(t, err)

	_, err = SegmentColor(gray, red, 3)
	assert.True(t, errors.Is(err, raster.ErrInvalidParameter))

	_, err = SegmentColor(rgbBuffer(t, 4, 4, 0, 0, 0), red, 4)
	assert.True(t, errors.Is(err, raster.ErrInvalidParameter))
}

func TestThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	img.Pix = []uint8{0, 100, 200, 255}

	mask, err := Threshold(img, 128, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 255, 255}, mask.Data)

	inv, err := Threshold(img, 128, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 0, 0}, inv.Data)
}

func TestThreshold_ColorImage(t *testing.T) {
	img := createInMemoryImage(3, 3, color.RGBA{0, 0, 0, 255}).(*image.RGBA)
	img.Set(1, 1, color.RGBA{255, 255, 255, 255})

	mask, err := Threshold(img, 128, false)
	require.NoError(t, err)
	assert.Equal(t, 3, mask.Width)
	assert.Equal(t, byte(raster.MaskForeground), mask.Pix(1, 1)[0])
	assert.Zero(t, mask.Pix(0, 0)[0])
}

func TestClearBorder(t *testing.T) {
	buf, err := raster.NewWhite(raster.KindGray, 5, 4, 255)
	require.NoError(t, err)

	out, err := ClearBorder(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		".....",
		".###.",
		".###.",
		".....",
	}, maskRows(out))

	_, err = ClearBorder(buf, -1)
	assert.True(t, errors.Is(err, raster.ErrInvalidParameter))
}
