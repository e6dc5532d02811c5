package detection

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

// filledRect returns a w x h mask with a filled rectangle from (x0,y0) to
// (x1,y1) inclusive.
func filledRect(t *testing.T, w, h, x0, y0, x1, y1 int) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(raster.KindGray, w, h, 255)
	require.NoError(t, err)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			buf.Pix(x, y)[0] = raster.MaskForeground
		}
	}
	return buf
}

// filledDisk returns a w x h mask with a disk of radius r around (cx, cy).
func filledDisk(t *testing.T, w, h, cx, cy, r int) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(raster.KindGray, w, h, 255)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				buf.Pix(x, y)[0] = raster.MaskForeground
			}
		}
	}
	return buf
}

func adjacent(a, b Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return a != b && dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

func assertClosedChain(t *testing.T, c Contour) {
	t.Helper()
	for i := range c {
		next := c[(i+1)%len(c)]
		assert.True(t, adjacent(c[i], next), "points %d %v and %v are not 8-connected", i, c[i], next)
	}
}

func TestCompassIsClockwise(t *testing.T) {
	for d := 0; d < 8; d++ {
		a, b := compass[d], compass[(d+1)%8]
		// Clockwise on screen means a positive cross product with Y down.
		assert.Positive(t, a.X*b.Y-a.Y*b.X, "step %d -> %d", d, (d+1)%8)
		o := compass[(d+opposite)%8]
		assert.Equal(t, Point{-a.X, -a.Y}, o)
	}
}

func TestFindContours_SinglePixel(t *testing.T) {
	mask := maskFromRows(t,
		".....",
		"..#..",
		".....",
	)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	assert.Equal(t, Contour{{2, 1}}, contours[0])
}

func TestFindContours_FilledSquare(t *testing.T) {
	mask := filledRect(t, 10, 10, 2, 2, 6, 6)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 1)

	c := contours[0]
	assert.Equal(t, Point{2, 2}, c[0], "trace starts at the top-left seed")
	assert.Equal(t, Point{3, 2}, c[1], "first step goes east")
	assert.Len(t, c, 16)
	assertClosedChain(t, c)
	assert.True(t, adjacent(c[0], c[len(c)-1]))

	for _, p := range c {
		onEdge := p.X == 2 || p.X == 6 || p.Y == 2 || p.Y == 6
		assert.True(t, onEdge, "interior point %v traced", p)
	}
	assert.InDelta(t, 16.0, Area(c), 1e-9)
	assert.InDelta(t, 16.0, Perimeter(c), 1e-9)
}

func TestFindContours_TouchingImageEdges(t *testing.T) {
	mask := filledRect(t, 4, 3, 0, 0, 3, 2)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	assert.Len(t, contours[0], 10)
	assertClosedChain(t, contours[0])
}

func TestFindContours_ThinLine(t *testing.T) {
	mask := maskFromRows(t,
		".......",
		".#####.",
		".......",
	)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	assert.Equal(t, Contour{{1, 1}, {2, 1}, {3, 1}, {4, 1}, {5, 1}, {4, 1}, {3, 1}, {2, 1}}, contours[0])
	assert.Zero(t, Area(contours[0]))
}

func TestFindContours_MultipleRegions(t *testing.T) {
	mask := maskFromRows(t,
		"##......",
		"##...#..",
		"......#.",
		"#.......",
	)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 3)
	assert.Equal(t, Point{0, 0}, contours[0][0])
	assert.Equal(t, Point{5, 1}, contours[1][0])
	assert.Equal(t, Contour{{5, 1}, {6, 2}}, contours[1], "diagonal pair is 8-connected")
	assert.Equal(t, Contour{{0, 3}}, contours[2])
}

func TestFindContours_SeedJoiningTwoBranches(t *testing.T) {
	// The apex is the seed and the only link between the two strokes.
	mask := maskFromRows(t,
		".....",
		"..#..",
		".#.#.",
		"#...#",
		".....",
	)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 1, "the chevron is one 8-connected region")
	assert.Equal(t, Contour{{2, 1}, {3, 2}, {4, 3}, {3, 2}, {2, 1}, {1, 2}, {0, 3}, {1, 2}}, contours[0])
	assertClosedChain(t, contours[0])
}

func TestFindContours_ShallowV(t *testing.T) {
	mask := maskFromRows(t,
		"..#..",
		".#.#.",
	)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	assert.Equal(t, Contour{{2, 0}, {3, 1}, {2, 0}, {1, 1}}, contours[0])
}

func TestFindContours_Hole(t *testing.T) {
	mask := maskFromRows(t,
		".......",
		".#####.",
		".#...#.",
		".#...#.",
		".#...#.",
		".#####.",
		".......",
	)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	// The ring is one pixel wide, so its outer and inner boundaries are the
	// same pixels and one trace visits them all.
	require.Len(t, contours, 1)
	assert.Len(t, contours[0], 16)
}

func TestFindContours_ThickRingTracesHole(t *testing.T) {
	mask := filledRect(t, 12, 12, 1, 1, 10, 10)
	for y := 4; y <= 7; y++ {
		for x := 4; x <= 7; x++ {
			mask.Pix(x, y)[0] = 0
		}
	}

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 2)
	assert.Equal(t, Point{1, 1}, contours[0][0])
	assertClosedChain(t, contours[1])
	b := BoundingBox(contours[1])
	assert.Equal(t, Bounds{X1: 3, Y1: 3, X2: 8, Y2: 8}, b)
}

func TestFindContours_DiskTerminates(t *testing.T) {
	mask := filledDisk(t, 64, 64, 32, 32, 20)

	contours, err := FindContours(mask)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	assertClosedChain(t, contours[0])
}

func TestFindContours_BinaryMask(t *testing.T) {
	bin, err := raster.New(raster.KindBinary, 9, 3, 1)
	require.NoError(t, err)
	bin.SetBit(8, 1, true)

	contours, err := FindContours(bin)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	assert.Equal(t, Contour{{8, 1}}, contours[0])
}

func TestFindContours_OnlySentinelIsForeground(t *testing.T) {
	mask := maskFromRows(t, "...", "...", "...")
	mask.Pix(1, 1)[0] = 254

	contours, err := FindContours(mask)
	require.NoError(t, err)
	assert.Empty(t, contours)
}

func TestFindContours_InvalidInput(t *testing.T) {
	deep, err := raster.New(raster.KindGray, 3, 3, 1023)
	require.NoError(t, err)

	_, err = FindContours(deep)
	assert.True(t, errors.Is(err, raster.ErrInvalidParameter))

	_, err = FindContours(nil)
	assert.True(t, errors.Is(err, raster.ErrInvalidParameter))
}
