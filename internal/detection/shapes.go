package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left pixel and (X2, Y2) the bottom-right pixel; both
// are inclusive, so a single pixel has X1 == X2.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (inclusive)
	Y2 int `json:"y2"` // Bottom edge (inclusive)
}

// PointF is a point with sub-pixel precision.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FittedCircle approximates a contour by a circle.
type FittedCircle struct {
	Center PointF  `json:"center"`
	Radius float64 `json:"radius"`
}

// ShapeDescriptor summarizes the geometry of one contour.
type ShapeDescriptor struct {
	// Points is the number of traced boundary points.
	Points int `json:"points"`

	// Area is the shoelace area of the boundary polygon in square pixels.
	Area float64 `json:"area"`

	// Perimeter is the closed boundary length in pixels.
	Perimeter float64 `json:"perimeter"`

	// Circularity is 4π·Area/Perimeter²: 1 for a circle, smaller otherwise.
	Circularity float64 `json:"circularity"`

	// Centroid is the mean of the boundary points.
	Centroid PointF `json:"centroid"`

	// Bounds is the bounding box of the boundary points.
	Bounds Bounds `json:"bounds"`

	// Circle is the FitCircle approximation.
	Circle FittedCircle `json:"circle"`
}

// Area returns the area enclosed by c using the shoelace formula with cyclic
// indexing. Contours with fewer than three points have zero area.
func Area(c Contour) float64 {
	n := len(c)
	var sum float64
	for i := 0; i < n; i++ {
		p, q := c[i], c[(i+1)%n]
		sum += float64(p.X*q.Y - q.X*p.Y)
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the sum of Euclidean distances between cyclically
// consecutive points of c.
func Perimeter(c Contour) float64 {
	n := len(c)
	var sum float64
	for i := 0; i < n; i++ {
		p, q := c[i], c[(i+1)%n]
		sum += math.Hypot(float64(q.X-p.X), float64(q.Y-p.Y))
	}
	return sum
}

// Circularity returns 4π·area/perimeter².
//
// Returns raster.ErrDegenerateGeometry when the perimeter is zero (an empty
// or one-point contour).
func Circularity(c Contour) (float64, error) {
	per := Perimeter(c)
	if per == 0 {
		return 0, fmt.Errorf("circularity: %w: zero perimeter (%d points)", raster.ErrDegenerateGeometry, len(c))
	}
	return 4 * math.Pi * Area(c) / (per * per), nil
}

// ContourCentroid returns the unweighted mean of the boundary points.
//
// This differs from MaskCentroid for non-convex or hollow shapes: only the
// traced boundary contributes, and every boundary point counts equally.
func ContourCentroid(c Contour) (PointF, error) {
	if len(c) == 0 {
		return PointF{}, fmt.Errorf("contour centroid: %w: empty contour", raster.ErrDegenerateGeometry)
	}
	var sx, sy float64
	for _, p := range c {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(c))
	return PointF{X: sx / n, Y: sy / n}, nil
}

// MaskCentroid returns the mean coordinate of every foreground pixel in mask.
// Binary masks are read bit by bit; other masks use channel 0.
func MaskCentroid(mask *raster.Buffer) (PointF, error) {
	if mask != nil && mask.Kind == raster.KindBinary {
		unpacked, err := raster.Unpack(mask)
		if err != nil {
			return PointF{}, err
		}
		mask = unpacked
	}
	if err := raster.Require8Bit("mask centroid", mask); err != nil {
		return PointF{}, err
	}

	var sx, sy, n float64
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.Pix(x, y)[0] == raster.MaskForeground {
				sx += float64(x)
				sy += float64(y)
				n++
			}
		}
	}
	if n == 0 {
		return PointF{}, fmt.Errorf("mask centroid: %w: no foreground pixels", raster.ErrDegenerateGeometry)
	}
	return PointF{X: sx / n, Y: sy / n}, nil
}

// FitCircle approximates c by a circle centered on ContourCentroid with the
// mean distance from that center as radius.
//
// This is a quick estimate, not a least-squares geometric fit. It is exact
// for points evenly spread on a true circle and biased for uneven sampling.
func FitCircle(c Contour) (FittedCircle, error) {
	center, err := ContourCentroid(c)
	if err != nil {
		return FittedCircle{}, fmt.Errorf("fit circle: %w", err)
	}
	var sum float64
	for _, p := range c {
		sum += math.Hypot(float64(p.X)-center.X, float64(p.Y)-center.Y)
	}
	return FittedCircle{Center: center, Radius: sum / float64(len(c))}, nil
}

// IsCircular reports whether the circularity of c is at least minCircularity.
func IsCircular(c Contour, minCircularity float64) (bool, error) {
	circ, err := Circularity(c)
	if err != nil {
		return false, err
	}
	return circ >= minCircularity, nil
}

// BoundingBox returns the inclusive bounding box of c. An empty contour
// yields the zero Bounds.
func BoundingBox(c Contour) Bounds {
	if len(c) == 0 {
		return Bounds{}
	}
	b := Bounds{X1: c[0].X, Y1: c[0].Y, X2: c[0].X, Y2: c[0].Y}
	for _, p := range c[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	return b
}

// Describe computes every descriptor for c.
func Describe(c Contour) (ShapeDescriptor, error) {
	circ, err := Circularity(c)
	if err != nil {
		return ShapeDescriptor{}, err
	}
	circle, err := FitCircle(c)
	if err != nil {
		return ShapeDescriptor{}, err
	}
	return ShapeDescriptor{
		Points:      len(c),
		Area:        Area(c),
		Perimeter:   Perimeter(c),
		Circularity: circ,
		Centroid:    circle.Center,
		Bounds:      BoundingBox(c),
		Circle:      circle,
	}, nil
}

// ShapeResult is the outcome of describing one contour. Exactly one of Shape
// and Error is set.
type ShapeResult struct {
	Index int              `json:"index"`
	Shape *ShapeDescriptor `json:"shape,omitempty"`
	Error string           `json:"error,omitempty"`
	Err   error            `json:"-"`
}

// AnalyzeContours describes every contour. A degenerate contour produces a
// result carrying its error; it never aborts the rest of the batch.
func AnalyzeContours(contours []Contour) []ShapeResult {
	results := make([]ShapeResult, len(contours))
	for i, c := range contours {
		results[i].Index = i
		d, err := Describe(c)
		if err != nil {
			results[i].Err = err
			results[i].Error = err.Error()
			continue
		}
		results[i].Shape = &d
	}
	return results
}

// Circle represents a circular region found in a mask.
type Circle struct {
	// Center is the fitted center in pixel coordinates.
	Center PointF `json:"center"`

	// Radius is the fitted radius in pixels.
	Radius float64 `json:"radius"`

	// Circularity is the contour's circularity score (0.0 to 1.0).
	Circularity float64 `json:"circularity"`

	// Area is the enclosed area in square pixels.
	Area float64 `json:"area"`

	// Contour is the index of the source contour in trace order.
	Contour int `json:"contour"`
}

// CirclesResult contains all circles found in a mask.
type CirclesResult struct {
	// Circles is sorted by radius, largest first.
	Circles []Circle `json:"circles"`

	// Count is the number of circles found.
	Count int `json:"count"`

	// Contours is the number of contours traced.
	Contours int `json:"contours"`

	// Rejected counts contours below the circularity threshold.
	Rejected int `json:"rejected"`

	// Degenerate counts contours with no perimeter (isolated pixels).
	Degenerate int `json:"degenerate"`
}

// FindCircles traces every contour in mask and keeps those whose circularity
// is at least minCircularity, fitted with FitCircle.
//
// Typical thresholds are 0.7 to 0.85. Traced pixel boundaries of true disks
// score a little below 1 because a staircase boundary is longer than the arc
// it follows.
func FindCircles(mask *raster.Buffer, minCircularity float64) (*CirclesResult, error) {
	if minCircularity < 0 || minCircularity > 1 || math.IsNaN(minCircularity) {
		return nil, fmt.Errorf("find circles: %w: min circularity %v outside [0, 1]", raster.ErrInvalidParameter, minCircularity)
	}
	contours, err := FindContours(mask)
	if err != nil {
		return nil, err
	}

	res := &CirclesResult{Circles: []Circle{}, Contours: len(contours)}
	for _, r := range AnalyzeContours(contours) {
		if r.Err != nil {
			res.Degenerate++
			continue
		}
		if r.Shape.Circularity < minCircularity {
			res.Rejected++
			continue
		}
		res.Circles = append(res.Circles, Circle{
			Center:      r.Shape.Circle.Center,
			Radius:      r.Shape.Circle.Radius,
			Circularity: r.Shape.Circularity,
			Area:        r.Shape.Area,
			Contour:     r.Index,
		})
	}

	sort.SliceStable(res.Circles, func(i, j int) bool {
		return res.Circles[i].Radius > res.Circles[j].Radius
	})
	res.Count = len(res.Circles)
	return res, nil
}
