package raster

import (
	"fmt"
	"image"
	"image/color"
)

// Unpack expands a binary buffer into an 8-bit mask: white bits become
// MaskForeground, black bits become 0. Gray and RGB buffers are returned as a
// clone so the result never aliases the input.
func Unpack(b *Buffer) (*Buffer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Kind != KindBinary {
		return b.Clone(), nil
	}
	mask, err := New(KindGray, b.Width, b.Height, 255)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Height; y++ {
		row := mask.Row(y)
		for x := 0; x < b.Width; x++ {
			if b.Bit(x, y) {
				row[x] = MaskForeground
			}
		}
	}
	return mask, nil
}

// Pack folds an 8-bit buffer into a binary one. A pixel is white when channel 0
// is non-zero. Padding bits are left clear.
func Pack(b *Buffer) (*Buffer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Kind == KindBinary {
		return b.Clone(), nil
	}
	if !b.Is8Bit() {
		return nil, fmt.Errorf("%w: pack needs 8-bit samples, got max value %d", ErrInvalidParameter, b.MaxValue)
	}
	out, err := New(KindBinary, b.Width, b.Height, 1)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Pix(x, y)[0] != 0 {
				out.SetBit(x, y, true)
			}
		}
	}
	return out, nil
}

// Require8Bit returns ErrInvalidParameter unless b is a valid Gray or RGB buffer
// with byte-sized samples. op names the caller in the error message.
func Require8Bit(op string, b *Buffer) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !b.Is8Bit() {
		return fmt.Errorf("%s: %w: needs an 8-bit gray or rgb buffer, got %s max %d",
			op, ErrInvalidParameter, b.Kind, b.MaxValue)
	}
	return nil
}

// ToImage converts the buffer to a standard library image.
//
// The concrete type depends on the layout:
//   - KindBinary -> *image.Gray (white 255, black 0)
//   - KindGray   -> *image.Gray or *image.Gray16
//   - KindRGB    -> *image.RGBA or *image.RGBA64 (opaque)
//
// Samples are rescaled from MaxValue to the full 8 or 16 bit range.
func (b *Buffer) ToImage() image.Image {
	rect := image.Rect(0, 0, b.Width, b.Height)
	switch {
	case b.Kind == KindBinary:
		img := image.NewGray(rect)
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				if b.Bit(x, y) {
					img.Pix[y*img.Stride+x] = 0xFF
				}
			}
		}
		return img
	case b.Kind == KindGray && b.BytesPerChannel() == 1:
		img := image.NewGray(rect)
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				img.Pix[y*img.Stride+x] = uint8(scale(b.Sample(x, y, 0), b.MaxValue, 255))
			}
		}
		return img
	case b.Kind == KindGray:
		img := image.NewGray16(rect)
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: uint16(scale(b.Sample(x, y, 0), b.MaxValue, 65535))})
			}
		}
		return img
	case b.BytesPerChannel() == 1:
		img := image.NewRGBA(rect)
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				i := y*img.Stride + x*4
				img.Pix[i] = uint8(scale(b.Sample(x, y, 0), b.MaxValue, 255))
				img.Pix[i+1] = uint8(scale(b.Sample(x, y, 1), b.MaxValue, 255))
				img.Pix[i+2] = uint8(scale(b.Sample(x, y, 2), b.MaxValue, 255))
				img.Pix[i+3] = 0xFF
			}
		}
		return img
	default:
		img := image.NewRGBA64(rect)
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				img.SetRGBA64(x, y, color.RGBA64{
					R: uint16(scale(b.Sample(x, y, 0), b.MaxValue, 65535)),
					G: uint16(scale(b.Sample(x, y, 1), b.MaxValue, 65535)),
					B: uint16(scale(b.Sample(x, y, 2), b.MaxValue, 65535)),
					A: 0xFFFF,
				})
			}
		}
		return img
	}
}

// FromImage copies any image into a new 8-bit buffer of the given kind.
// KindGray uses the standard library luminance model; KindRGB drops alpha
// after the usual premultiplied conversion. KindBinary marks a pixel white
// when its luminance is at least 128.
func FromImage(img image.Image, kind Kind) (*Buffer, error) {
	bounds := img.Bounds()
	b, err := New(kind, bounds.Dx(), bounds.Dy(), 255)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := img.At(x+bounds.Min.X, y+bounds.Min.Y)
			switch kind {
			case KindBinary:
				g := color.GrayModel.Convert(c).(color.Gray)
				b.SetBit(x, y, g.Y >= 128)
			case KindGray:
				g := color.GrayModel.Convert(c).(color.Gray)
				b.Data[y*b.Stride()+x] = g.Y
			case KindRGB:
				r, g, bl, _ := c.RGBA()
				p := b.Pix(x, y)
				p[0], p[1], p[2] = uint8(r>>8), uint8(g>>8), uint8(bl>>8)
			}
		}
	}
	return b, nil
}

func scale(v, from, to int) int {
	if v > from {
		v = from
	}
	if from == to {
		return v
	}
	return (v*to + from/2) / from
}
