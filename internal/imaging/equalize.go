package imaging

import (
	"fmt"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// EqualizeValues performs histogram equalization on one 8-bit channel.
//
// # Algorithm
//
//  1. Build a 256-bin histogram
//  2. Accumulate it into a CDF
//  3. Remap: out = (cdf[v] - cdfMin) * 255 / (cdfMax - cdfMin)
//
// cdfMin is the CDF at the first occupied bin, so the darkest present value
// maps to 0 and the brightest to 255. When every sample has the same value
// (cdfMax == cdfMin) the input is returned unchanged.
//
// The result is a new slice; values is not modified.
func EqualizeValues(values []uint8) []uint8 {
	out := make([]uint8, len(values))
	copy(out, values)
	if len(values) == 0 {
		return out
	}

	var hist [256]uint64
	for _, v := range values {
		hist[v]++
	}

	var cdf [256]uint64
	var cdfMin uint64
	var running uint64
	for i := 0; i < 256; i++ {
		running += hist[i]
		cdf[i] = running
		if cdfMin == 0 && running > 0 {
			cdfMin = running
		}
	}
	cdfMax := cdf[255]
	if cdfMax == cdfMin {
		return out
	}

	var lut [256]uint8
	for i := 0; i < 256; i++ {
		if cdf[i] < cdfMin {
			continue
		}
		lut[i] = uint8((cdf[i] - cdfMin) * 255 / (cdfMax - cdfMin))
	}
	for i, v := range values {
		out[i] = lut[v]
	}
	return out
}

// EqualizeChannel equalizes one channel of an 8-bit buffer and leaves the
// other channels untouched.
func EqualizeChannel(buf *raster.Buffer, channel int) (*raster.Buffer, error) {
	if err := raster.Require8Bit("equalize", buf); err != nil {
		return nil, err
	}
	if channel < 0 || channel >= buf.Channels {
		return nil, fmt.Errorf("equalize: %w: channel %d of %d", raster.ErrInvalidParameter, channel, buf.Channels)
	}

	values := make([]uint8, 0, buf.Width*buf.Height)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			values = append(values, buf.Pix(x, y)[channel])
		}
	}
	equalized := EqualizeValues(values)

	out := buf.Clone()
	i := 0
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Pix(x, y)[channel] = equalized[i]
			i++
		}
	}
	return out, nil
}

// EqualizeValue equalizes the V channel of a scaled HSV buffer.
func EqualizeValue(hsv *raster.Buffer) (*raster.Buffer, error) {
	if err := requireRGB("equalize value", hsv); err != nil {
		return nil, err
	}
	return EqualizeChannel(hsv, 2)
}

// EqualizeRGB boosts contrast of an RGB buffer without shifting hues: it
// converts to HSV, equalizes V, and converts back.
func EqualizeRGB(rgb *raster.Buffer) (*raster.Buffer, error) {
	hsv, err := ConvertToHSV(rgb)
	if err != nil {
		return nil, err
	}
	eq, err := EqualizeValue(hsv)
	if err != nil {
		return nil, err
	}
	return ConvertToRGB(eq)
}
