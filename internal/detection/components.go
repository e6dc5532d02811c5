package detection

import (
	"fmt"

	"github.com/ironsheep/raster-shapes-mcp/internal/imaging"
	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// Component is one 4-connected foreground region.
type Component struct {
	Label  int    `json:"label"`
	Area   int    `json:"area"`
	Bounds Bounds `json:"bounds"`
}

// RemoveSmallComponents cleans a mask before contour tracing.
//
// The mask is first closed with a (2*morphSize+1) square kernel to bridge
// small gaps, and the morphSize-wide border band left by Close is cleared.
// The result is then split into 4-connected components and only components
// with at least minArea pixels are kept. The returned mask is 8-bit gray.
//
// A morphSize of 0 skips the closing step.
func RemoveSmallComponents(mask *raster.Buffer, minArea, morphSize int) (*raster.Buffer, error) {
	if minArea < 0 || morphSize < 0 {
		return nil, fmt.Errorf("remove small components: %w: min area %d, morph size %d",
			raster.ErrInvalidParameter, minArea, morphSize)
	}
	gray, err := toGrayMask(mask)
	if err != nil {
		return nil, err
	}

	closed, err := imaging.Close(gray, 2*morphSize+1)
	if err != nil {
		return nil, err
	}
	closed, err = imaging.ClearBorder(closed, morphSize)
	if err != nil {
		return nil, err
	}

	labels, comps := LabelComponents(closed)

	keep := make([]bool, len(comps)+1)
	for _, c := range comps {
		keep[c.Label] = c.Area >= minArea
	}

	out, err := raster.New(raster.KindGray, gray.Width, gray.Height, 255)
	if err != nil {
		return nil, err
	}
	for i, l := range labels {
		if l > 0 && keep[l] {
			out.Data[i] = raster.MaskForeground
		}
	}
	return out, nil
}

// LabelComponents assigns a label to each 4-connected foreground region of
// an 8-bit mask. labels is indexed y*Width+x and holds 0 for background or
// the 1-based label of the pixel's component. Components are listed in label
// order, which is the row-major order of their first pixel.
func LabelComponents(mask *raster.Buffer) (labels []int, comps []Component) {
	w, h := mask.Width, mask.Height
	labels = make([]int, w*h)
	fg := func(x, y int) bool {
		return mask.Pix(x, y)[0] == raster.MaskForeground
	}

	var stack []Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if labels[y*w+x] != 0 || !fg(x, y) {
				continue
			}
			c := Component{Label: len(comps) + 1, Bounds: Bounds{X1: x, Y1: y, X2: x, Y2: y}}
			labels[y*w+x] = c.Label
			stack = append(stack[:0], Point{x, y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				c.Area++
				c.Bounds.X1 = min(c.Bounds.X1, p.X)
				c.Bounds.Y1 = min(c.Bounds.Y1, p.Y)
				c.Bounds.X2 = max(c.Bounds.X2, p.X)
				c.Bounds.Y2 = max(c.Bounds.Y2, p.Y)

				for d := 0; d < 8; d += 2 {
					q := Point{p.X + compass[d].X, p.Y + compass[d].Y}
					if q.X < 0 || q.Y < 0 || q.X >= w || q.Y >= h {
						continue
					}
					if labels[q.Y*w+q.X] == 0 && fg(q.X, q.Y) {
						labels[q.Y*w+q.X] = c.Label
						stack = append(stack, q)
					}
				}
			}
			comps = append(comps, c)
		}
	}
	return labels, comps
}

// toGrayMask returns mask as an 8-bit gray buffer with channel 0 only.
func toGrayMask(mask *raster.Buffer) (*raster.Buffer, error) {
	if mask != nil && mask.Kind == raster.KindBinary {
		return raster.Unpack(mask)
	}
	if err := raster.Require8Bit("mask", mask); err != nil {
		return nil, err
	}
	if mask.Kind == raster.KindGray {
		return mask, nil
	}
	gray, err := raster.New(raster.KindGray, mask.Width, mask.Height, 255)
	if err != nil {
		return nil, err
	}
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			gray.Data[y*mask.Width+x] = mask.Pix(x, y)[0]
		}
	}
	return gray, nil
}
