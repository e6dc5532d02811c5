package detection

import (
	"fmt"
	"math"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// PolygonKind names a recognized polygon class.
type PolygonKind string

const (
	KindSquare  PolygonKind = "square"
	KindOctagon PolygonKind = "octagon"
	KindOther   PolygonKind = "other"
)

// Classification thresholds.
const (
	// ApproxEpsilonRatio scales the contour perimeter into the
	// Douglas-Peucker tolerance.
	ApproxEpsilonRatio = 0.02

	// MinSquareArea is the smallest simplified-polygon area accepted as a
	// square, in square pixels.
	MinSquareArea = 1000.0

	// MaxSquareSideRatio bounds longest side / shortest side of a square.
	MaxSquareSideRatio = 1.2

	// MinOctagonEdgeRatio bounds shortest edge / longest edge of an octagon.
	MinOctagonEdgeRatio = 0.8
)

// Polygon is a contour simplified to its corner points and classified.
type Polygon struct {
	Kind      PolygonKind `json:"kind"`
	Vertices  Contour     `json:"vertices"`
	Centroid  PointF      `json:"centroid"`
	Area      float64     `json:"area"`
	Perimeter float64     `json:"perimeter"`
	Contour   int         `json:"contour"`
}

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm. Points closer than epsilon to the simplified outline are
// dropped. The result keeps c's orientation and starts at c[0].
//
// The contour is first split at c[0] and the point farthest from it, and the
// two halves are simplified independently, so a closed outline never
// collapses to a single segment. Contours of fewer than three points are
// returned as a copy.
func ApproxPolygon(c Contour, epsilon float64) Contour {
	n := len(c)
	if n < 3 {
		return append(Contour(nil), c...)
	}

	far, farDist := 0, -1.0
	for i := 1; i < n; i++ {
		if d := dist(c[0], c[i]); d > farDist {
			far, farDist = i, d
		}
	}

	keep := make([]bool, n+1)
	keep[0], keep[far], keep[n] = true, true, true
	// Index n stands for c[0] again, closing the outline.
	at := func(i int) Point { return c[i%n] }
	simplify(at, 0, far, epsilon, keep)
	simplify(at, far, n, epsilon, keep)

	out := Contour{}
	for i := 0; i < n; i++ {
		if keep[i] {
			out = append(out, c[i])
		}
	}
	return out
}

// simplify marks the points of the open chain lo..hi that Douglas-Peucker
// keeps. The endpoints are assumed kept already.
func simplify(at func(int) Point, lo, hi int, epsilon float64, keep []bool) {
	type span struct{ lo, hi int }
	stack := []span{{lo, hi}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}
		a, b := at(s.lo), at(s.hi)
		idx, maxD := -1, epsilon
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(at(i), a, b); d > maxD {
				idx, maxD = i, d
			}
		}
		if idx < 0 {
			continue
		}
		keep[idx] = true
		stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
	}
}

// segmentDistance is the distance from p to segment ab.
func segmentDistance(p, a, b Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	px, py := float64(p.X-a.X), float64(p.Y-a.Y)
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(px, py)
	}
	t := math.Max(0, math.Min(1, (px*dx+py*dy)/l2))
	return math.Hypot(px-t*dx, py-t*dy)
}

func dist(a, b Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

// edgeRange returns the shortest and longest edge of a closed polygon.
func edgeRange(v Contour) (shortest, longest float64) {
	shortest = math.Inf(1)
	for i := range v {
		d := dist(v[i], v[(i+1)%len(v)])
		shortest = math.Min(shortest, d)
		longest = math.Max(longest, d)
	}
	return shortest, longest
}

// PolygonCentroid returns the area centroid of the region bounded by c. For
// a contour with zero area it falls back to ContourCentroid.
func PolygonCentroid(c Contour) (PointF, error) {
	n := len(c)
	var a, cx, cy float64
	for i := 0; i < n; i++ {
		p, q := c[i], c[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		a += cross
		cx += float64(p.X+q.X) * cross
		cy += float64(p.Y+q.Y) * cross
	}
	if a == 0 {
		return ContourCentroid(c)
	}
	return PointF{X: cx / (3 * a), Y: cy / (3 * a)}, nil
}

// ClassifyPolygon simplifies c with an epsilon of ApproxEpsilonRatio times
// its perimeter and classifies the result:
//
//   - square: 4 vertices, simplified area above MinSquareArea, and longest
//     side at most MaxSquareSideRatio times the shortest
//   - octagon: 8 vertices with shortest/longest edge at least
//     MinOctagonEdgeRatio
//   - other: anything else
//
// The centroid is the area centroid of the traced contour, not of the
// simplified vertices.
func ClassifyPolygon(c Contour) (Polygon, error) {
	per := Perimeter(c)
	if per == 0 {
		return Polygon{}, fmt.Errorf("classify polygon: %w: zero perimeter", raster.ErrDegenerateGeometry)
	}
	centroid, err := PolygonCentroid(c)
	if err != nil {
		return Polygon{}, err
	}

	v := ApproxPolygon(c, ApproxEpsilonRatio*per)
	p := Polygon{
		Kind:      KindOther,
		Vertices:  v,
		Centroid:  centroid,
		Area:      Area(v),
		Perimeter: per,
	}

	shortest, longest := edgeRange(v)
	switch len(v) {
	case 4:
		if p.Area > MinSquareArea && longest <= MaxSquareSideRatio*shortest {
			p.Kind = KindSquare
		}
	case 8:
		if longest > 0 && shortest/longest >= MinOctagonEdgeRatio {
			p.Kind = KindOctagon
		}
	}
	return p, nil
}

// PolygonsResult contains the squares and octagons found in a mask.
type PolygonsResult struct {
	Squares  []Polygon `json:"squares"`
	Octagons []Polygon `json:"octagons"`
	Contours int       `json:"contours"`
	Skipped  int       `json:"skipped"`
}

// DetectPolygons traces mask and returns every contour classified as a
// square or an octagon. Contours shorter than minPerimeter are skipped.
func DetectPolygons(mask *raster.Buffer, minPerimeter float64) (*PolygonsResult, error) {
	if minPerimeter < 0 || math.IsNaN(minPerimeter) {
		return nil, fmt.Errorf("detect polygons: %w: min perimeter %v", raster.ErrInvalidParameter, minPerimeter)
	}
	contours, err := FindContours(mask)
	if err != nil {
		return nil, err
	}

	res := &PolygonsResult{Squares: []Polygon{}, Octagons: []Polygon{}, Contours: len(contours)}
	for i, c := range contours {
		if Perimeter(c) < minPerimeter {
			res.Skipped++
			continue
		}
		p, err := ClassifyPolygon(c)
		if err != nil {
			res.Skipped++
			continue
		}
		p.Contour = i
		switch p.Kind {
		case KindSquare:
			res.Squares = append(res.Squares, p)
		case KindOctagon:
			res.Octagons = append(res.Octagons, p)
		}
	}
	return res, nil
}
