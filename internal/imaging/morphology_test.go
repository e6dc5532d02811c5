package imaging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// maskFromRows builds a gray mask where '#' is foreground.
func maskFromRows(t *testing.T, rows ...string) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(raster.KindGray, len(rows[0]), len(rows), 255)
	require.NoError(t, err)
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				buf.Pix(x, y)[0] = raster.MaskForeground
			}
		}
	}
	return buf
}

func maskRows(buf *raster.Buffer) []string {
	rows := make([]string, buf.Height)
	for y := range rows {
		line := make([]byte, buf.Width)
		for x := range line {
			line[x] = '.'
			if buf.Pix(x, y)[0] != 0 {
				line[x] = '#'
			}
		}
		rows[y] = string(line)
	}
	return rows
}

func TestErode_BorderFill(t *testing.T) {
	buf, err := raster.New(raster.KindGray, 6, 5, 255)
	require.NoError(t, err)

	out, err := Erode(buf, 3)
	require.NoError(t, err)

	for y := 0; y < 5; y++ {
		for x := 0; x < 6; x++ {
			border := x == 0 || y == 0 || x == 5 || y == 4
			want := byte(0)
			if border {
				want = ErodeFill
			}
			assert.Equal(t, want, out.Pix(x, y)[0], "pixel (%d,%d)", x, y)
		}
	}
}

func TestDilate_BorderFill(t *testing.T) {
	buf, err := raster.NewWhite(raster.KindGray, 7, 7, 255)
	require.NoError(t, err)

	out, err := Dilate(buf, 5)
	require.NoError(t, err)

	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			border := x < 2 || y < 2 || x > 4 || y > 4
			want := byte(255)
			if border {
				want = DilateFill
			}
			assert.Equal(t, want, out.Pix(x, y)[0], "pixel (%d,%d)", x, y)
		}
	}
}

func TestErode_RemovesSpeck(t *testing.T) {
	buf := maskFromRows(t,
		".......",
		".#.....",
		"...###.",
		"...###.",
		"...###.",
		".......",
	)

	out, err := Erode(buf, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"#######",
		"#.....#",
		"#.....#",
		"#...#.#",
		"#.....#",
		"#######",
	}, maskRows(out))
}

func TestDilate_GrowsBlock(t *testing.T) {
	buf := maskFromRows(t,
		".......",
		".......",
		"...#...",
		".......",
		".......",
	)

	out, err := Dilate(buf, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{
		".......",
		"..###..",
		"..###..",
		"..###..",
		".......",
	}, maskRows(out))
}

// Away from the border band, opening only ever removes foreground. Pixels
// within 2r of an edge can pick up the erode fill during the dilate pass.
func TestOpen_NeverGrowsInterior(t *testing.T) {
	buf := maskFromRows(t,
		"............",
		"............",
		"..####......",
		"..####..#...",
		"..####......",
		"..####.###..",
		".......###..",
		"...#...###..",
		"............",
		"............",
	)

	opened, err := Open(buf, 3)
	require.NoError(t, err)

	for y := 2; y < buf.Height-2; y++ {
		for x := 2; x < buf.Width-2; x++ {
			if opened.Pix(x, y)[0] != 0 {
				assert.NotZero(t, buf.Pix(x, y)[0], "open grew pixel (%d,%d)", x, y)
			}
		}
	}
	assert.Zero(t, opened.Pix(8, 3)[0], "isolated speck should be removed")
	assert.Zero(t, opened.Pix(3, 7)[0], "isolated speck should be removed")
	assert.NotZero(t, opened.Pix(3, 3)[0], "block interior should survive")
	assert.NotZero(t, opened.Pix(8, 6)[0], "block interior should survive")
}

func TestClose_FillsHole(t *testing.T) {
	buf := maskFromRows(t,
		".......",
		".#####.",
		".#####.",
		".##.##.",
		".#####.",
		".#####.",
		".......",
	)

	closed, err := Close(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, byte(raster.MaskForeground), closed.Pix(3, 3)[0])
}

func TestOpen_Idempotent(t *testing.T) {
	buf := maskFromRows(t,
		"..............",
		"..............",
		"..............",
		"...#####......",
		"...#####..##..",
		"...#####..##..",
		"...#####......",
		"...######.#...",
		"........###...",
		"..............",
		"..............",
		"..............",
	)

	once, err := Open(buf, 3)
	require.NoError(t, err)
	twice, err := Open(once, 3)
	require.NoError(t, err)
	assert.Equal(t, maskRows(once), maskRows(twice))
}

func TestMorph_KernelOneIsIdentity(t *testing.T) {
	buf := maskFromRows(t,
		"#..#",
		".##.",
		"#..#",
	)

	for _, op := range []MorphOp{MorphErode, MorphDilate, MorphOpen, MorphClose} {
		out, err := Morph(buf, op, 1)
		require.NoError(t, err, op)
		assert.Equal(t, buf.Data, out.Data, op)
	}
}

func TestMorph_WritesAllChannels(t *testing.T) {
	rgb := rgbBuffer(t, 5, 5, 10, 20, 30)
	rgb.Pix(2, 2)[0] = 200

	out, err := Dilate(rgb, 3)
	require.NoError(t, err)

	assert.Equal(t, []byte{200, 200, 200}, out.Pix(1, 1))
	assert.Equal(t, []byte{0, 0, 0}, out.Pix(0, 0))
}

func TestMorph_InvalidParameters(t *testing.T) {
	buf := maskFromRows(t, "...", "...", "...")
	bin, err := raster.New(raster.KindBinary, 3, 3, 1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		buf    *raster.Buffer
		op     MorphOp
		kernel int
	}{
		{"even kernel", buf, MorphErode, 2},
		{"zero kernel", buf, MorphDilate, 0},
		{"negative kernel", buf, MorphOpen, -3},
		{"unknown op", buf, MorphOp("thin"), 3},
		{"binary input", bin, MorphClose, 3},
		{"nil buffer", nil, MorphErode, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Morph(tt.buf, tt.op, tt.kernel)
			assert.True(t, errors.Is(err, raster.ErrInvalidParameter), "got %v", err)
		})
	}
}

func TestMorph_KernelLargerThanImage(t *testing.T) {
	buf := maskFromRows(t, "###", "###")

	out, err := Erode(buf, 5)
	require.NoError(t, err)
	for _, v := range out.Data {
		assert.Equal(t, byte(ErodeFill), v)
	}
}
