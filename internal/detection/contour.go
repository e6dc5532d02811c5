package detection

import (
	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is a closed boundary: the last point connects back to the first.
// Consecutive points are 8-connected neighbors.
type Contour []Point

// compass lists the eight neighbor offsets clockwise from north, in image
// coordinates (Y grows downward). Index arithmetic mod 8 walks the ring.
var compass = [8]Point{
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
}

const (
	dirN = 0

	// opposite turns a direction index around.
	opposite = 4
)

// FindContours traces the boundary of every foreground region in mask.
//
// The mask is an 8-bit gray or rgb buffer whose channel 0 holds
// raster.MaskForeground for foreground, or a binary buffer (set bits are
// foreground). Pixels with any other value are background.
//
// # Algorithm
//
// Moore-neighbor tracing. The mask is scanned in row-major order. A seed is an
// unvisited foreground pixel with at least one 4-neighbor that is background
// or off the image, so outer boundaries and hole boundaries both start traces
// but region interiors never do. From the seed the walk keeps a backtrack
// direction and searches the compass clockwise starting one step past it; the
// first foreground neighbor becomes the next point and the backtrack becomes
// the direction pointing back at the pixel just left.
//
// The initial backtrack is the first background 4-neighbor of the seed in
// N, E, S, W order. For an outer boundary found by the row-major scan that is
// always north. Hole seeds usually have foreground to the north, and starting
// there would sweep into the region interior.
//
// Every traced pixel is marked visited. A trace ends when it leaves the seed
// a second time with the same step it first took (Jacob's stopping
// criterion). A seed that joins two thin branches is passed through once per
// branch before that happens, so a V or chevron traces as one contour. The
// closing visit to the seed is not repeated at the end of the contour. A seed
// with no foreground neighbor ends at once as a one-point contour. If the walk
// ever repeats any other (point, backtrack) state, the trace is closed there,
// so tracing always terminates.
//
// Contours are returned in seed order (top-to-bottom, left-to-right).
func FindContours(mask *raster.Buffer) ([]Contour, error) {
	if mask != nil && mask.Kind == raster.KindBinary {
		unpacked, err := raster.Unpack(mask)
		if err != nil {
			return nil, err
		}
		mask = unpacked
	}
	if err := raster.Require8Bit("find contours", mask); err != nil {
		return nil, err
	}

	t := &tracer{
		mask:    mask,
		visited: make([]bool, mask.Width*mask.Height),
	}

	var contours []Contour
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			p := Point{x, y}
			if t.visited[y*mask.Width+x] || !t.foreground(p) || !t.onBoundary(p) {
				continue
			}
			contours = append(contours, t.trace(p))
		}
	}
	return contours, nil
}

type tracer struct {
	mask    *raster.Buffer
	visited []bool
}

func (t *tracer) foreground(p Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= t.mask.Width || p.Y >= t.mask.Height {
		return false
	}
	return t.mask.Pix(p.X, p.Y)[0] == raster.MaskForeground
}

// onBoundary reports whether a 4-neighbor of p is background.
func (t *tracer) onBoundary(p Point) bool {
	for d := 0; d < 8; d += 2 {
		if !t.foreground(Point{p.X + compass[d].X, p.Y + compass[d].Y}) {
			return true
		}
	}
	return false
}

// entry returns the direction of the first background 4-neighbor of a seed.
func (t *tracer) entry(seed Point) int {
	for d := dirN; d < 8; d += 2 {
		if !t.foreground(Point{seed.X + compass[d].X, seed.Y + compass[d].Y}) {
			return d
		}
	}
	return dirN
}

type traceState struct {
	p    Point
	back int
}

func (t *tracer) trace(seed Point) Contour {
	contour := Contour{}
	seen := make(map[traceState]struct{})

	var first traceState
	p, back := seed, t.entry(seed)
	for {
		contour = append(contour, p)
		t.visited[p.Y*t.mask.Width+p.X] = true

		moved := false
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			q := Point{p.X + compass[d].X, p.Y + compass[d].Y}
			if t.foreground(q) {
				p, back = q, (d+opposite)%8
				moved = true
				break
			}
		}
		if !moved {
			return contour
		}

		s := traceState{p, back}
		switch {
		case len(contour) == 1:
			first = s
		case s == first:
			// The last point appended is the seed again.
			return contour[:len(contour)-1]
		}
		if _, ok := seen[s]; ok {
			return contour
		}
		seen[s] = struct{}{}
	}
}
