package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// MorphOp names a morphological operation.
type MorphOp string

const (
	MorphErode  MorphOp = "erode"  // neighborhood minimum: shrinks foreground
	MorphDilate MorphOp = "dilate" // neighborhood maximum: grows foreground
	MorphOpen   MorphOp = "open"   // erode then dilate: removes small specks
	MorphClose  MorphOp = "close"  // dilate then erode: fills small holes
)

// Border fill values for pixels closer than the kernel radius to an edge.
const (
	ErodeFill  = 255
	DilateFill = 0
)

// Morph applies op to buf with a square structuring element of size kernel.
func Morph(buf *raster.Buffer, op MorphOp, kernel int) (*raster.Buffer, error) {
	switch op {
	case MorphErode:
		return Erode(buf, kernel)
	case MorphDilate:
		return Dilate(buf, kernel)
	case MorphOpen:
		return Open(buf, kernel)
	case MorphClose:
		return Close(buf, kernel)
	default:
		return nil, fmt.Errorf("%w: unknown morphological operation %q", raster.ErrInvalidParameter, op)
	}
}

// Erode replaces each pixel with the minimum of channel 0 over its
// kernel x kernel neighborhood and writes that value to every channel.
//
// Border policy: pixels within kernel/2 of any edge are not computed and are
// set to ErodeFill. Nothing is clamped or wrapped.
//
// Returns raster.ErrInvalidParameter for an even or non-positive kernel, or
// for a buffer that is not 8-bit gray or rgb.
func Erode(buf *raster.Buffer, kernel int) (*raster.Buffer, error) {
	return rankFilter("erode", buf, kernel, ErodeFill, func(a, b byte) bool { return b < a })
}

// Dilate replaces each pixel with the maximum of channel 0 over its
// neighborhood. Border pixels are set to DilateFill.
func Dilate(buf *raster.Buffer, kernel int) (*raster.Buffer, error) {
	return rankFilter("dilate", buf, kernel, DilateFill, func(a, b byte) bool { return b > a })
}

// Open is Dilate(Erode(buf)).
func Open(buf *raster.Buffer, kernel int) (*raster.Buffer, error) {
	eroded, err := Erode(buf, kernel)
	if err != nil {
		return nil, err
	}
	return Dilate(eroded, kernel)
}

// Close is Erode(Dilate(buf)).
func Close(buf *raster.Buffer, kernel int) (*raster.Buffer, error) {
	dilated, err := Dilate(buf, kernel)
	if err != nil {
		return nil, err
	}
	return Erode(dilated, kernel)
}

// rankFilter runs a min or max filter. better(a, b) reports whether b should
// replace the running value a.
func rankFilter(op string, buf *raster.Buffer, kernel int, fill byte, better func(a, b byte) bool) (*raster.Buffer, error) {
	if kernel < 1 || kernel%2 == 0 {
		return nil, fmt.Errorf("%s: %w: kernel size %d must be odd and positive", op, raster.ErrInvalidParameter, kernel)
	}
	if err := raster.Require8Bit(op, buf); err != nil {
		return nil, err
	}

	out := buf.Clone()
	for i := range out.Data {
		out.Data[i] = fill
	}

	r := kernel / 2
	rows := buf.Height - 2*r
	if rows <= 0 || buf.Width-2*r <= 0 {
		return out, nil
	}

	parallel.Line(rows, func(start, end int) {
		for y := start + r; y < end+r; y++ {
			for x := r; x < buf.Width-r; x++ {
				v := buf.Pix(x-r, y-r)[0]
				for ky := -r; ky <= r; ky++ {
					for kx := -r; kx <= r; kx++ {
						if c := buf.Pix(x+kx, y+ky)[0]; better(v, c) {
							v = c
						}
					}
				}
				p := out.Pix(x, y)
				for c := range p {
					p[c] = v
				}
			}
		}
	})
	return out, nil
}

// ClearBorder returns a copy of buf with every pixel within width of an edge
// set to 0. After a Close the outer ring holds ErodeFill, which would read as
// a frame of foreground around the whole mask; clearing it keeps that ring out
// of contour tracing.
func ClearBorder(buf *raster.Buffer, width int) (*raster.Buffer, error) {
	if err := raster.Require8Bit("clear border", buf); err != nil {
		return nil, err
	}
	if width < 0 {
		return nil, fmt.Errorf("clear border: %w: width %d", raster.ErrInvalidParameter, width)
	}
	out := buf.Clone()
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if x < width || y < width || x >= out.Width-width || y >= out.Height-width {
				p := out.Pix(x, y)
				for c := range p {
					p[c] = 0
				}
			}
		}
	}
	return out, nil
}
