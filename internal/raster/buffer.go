package raster

import "fmt"

// Kind identifies the pixel layout of a Buffer.
type Kind int

const (
	// KindBinary is a 1-bit image (PBM, P4).
	KindBinary Kind = iota
	// KindGray is a single channel image (PGM, P5).
	KindGray
	// KindRGB is a three channel image (PPM, P6).
	KindRGB
)

// String returns the lowercase Netpbm name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "pbm"
	case KindGray:
		return "pgm"
	case KindRGB:
		return "ppm"
	default:
		return "unknown"
	}
}

// Channels returns the number of channels stored per pixel for the kind.
func (k Kind) Channels() int {
	if k == KindRGB {
		return 3
	}
	return 1
}

// MaskForeground is the channel value marking a foreground pixel in an 8-bit mask.
const MaskForeground = 0xFF

// Buffer is a contiguous pixel container with its layout metadata.
//
// The invariant len(Data) == Stride()*Height always holds for buffers built
// through New, NewWhite or FromData.
type Buffer struct {
	Kind     Kind   `json:"kind"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	MaxValue int    `json:"max_value"` // 1 for binary, 1..65535 otherwise
	Data     []byte `json:"-"`
}

// New allocates a zeroed buffer.
//
// Parameters:
//   - kind: pixel layout.
//   - width, height: dimensions in pixels. Both must be positive.
//   - maxValue: largest sample value. Ignored for KindBinary (always 1); must be
//     in 1..65535 for the other kinds.
//
// Returns ErrInvalidParameter for bad dimensions, an unknown kind or an out of
// range maxValue.
func New(kind Kind, width, height, maxValue int) (*Buffer, error) {
	b, err := layout(kind, width, height, maxValue)
	if err != nil {
		return nil, err
	}
	b.Data = make([]byte, b.Stride()*height)
	return b, nil
}

// NewWhite allocates a buffer with every pixel set to white: all bits set for
// binary images, maxValue for every sample otherwise. Padding bits of binary
// rows stay clear.
func NewWhite(kind Kind, width, height, maxValue int) (*Buffer, error) {
	b, err := New(kind, width, height, maxValue)
	if err != nil {
		return nil, err
	}
	if kind == KindBinary {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				b.SetBit(x, y, true)
			}
		}
		return b, nil
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < b.Channels; c++ {
				b.SetSample(x, y, c, maxValue)
			}
		}
	}
	return b, nil
}

// FromData wraps data in a buffer after validating its length against the layout.
// The slice is copied, so the caller keeps ownership of data.
func FromData(kind Kind, width, height, maxValue int, data []byte) (*Buffer, error) {
	b, err := layout(kind, width, height, maxValue)
	if err != nil {
		return nil, err
	}
	want := b.Stride() * height
	if len(data) != want {
		return nil, fmt.Errorf("%w: data length %d, layout needs %d", ErrInvalidParameter, len(data), want)
	}
	b.Data = append([]byte(nil), data...)
	return b, nil
}

func layout(kind Kind, width, height, maxValue int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidParameter, width, height)
	}
	switch kind {
	case KindBinary:
		maxValue = 1
	case KindGray, KindRGB:
		if maxValue < 1 || maxValue > 65535 {
			return nil, fmt.Errorf("%w: max value %d outside 1..65535", ErrInvalidParameter, maxValue)
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidParameter, kind)
	}
	return &Buffer{
		Kind:     kind,
		Width:    width,
		Height:   height,
		Channels: kind.Channels(),
		MaxValue: maxValue,
	}, nil
}

// BytesPerChannel returns the storage size of one sample: 1 below 256, else 2.
// Binary buffers report 0 since their samples are bits.
func (b *Buffer) BytesPerChannel() int {
	switch {
	case b.Kind == KindBinary:
		return 0
	case b.MaxValue < 256:
		return 1
	default:
		return 2
	}
}

// BytesPerPixel returns Channels*BytesPerChannel (0 for binary buffers).
func (b *Buffer) BytesPerPixel() int {
	return b.Channels * b.BytesPerChannel()
}

// Stride returns the number of bytes in one row.
func (b *Buffer) Stride() int {
	if b.Kind == KindBinary {
		return (b.Width + 7) / 8
	}
	return b.Width * b.BytesPerPixel()
}

// Validate checks the buffer's metadata and data length.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidParameter)
	}
	ref, err := layout(b.Kind, b.Width, b.Height, b.MaxValue)
	if err != nil {
		return err
	}
	if b.Channels != ref.Channels {
		return fmt.Errorf("%w: %s buffer with %d channels", ErrInvalidParameter, b.Kind, b.Channels)
	}
	if want := ref.Stride() * b.Height; len(b.Data) != want {
		return fmt.Errorf("%w: data length %d, layout needs %d", ErrInvalidParameter, len(b.Data), want)
	}
	return nil
}

// Is8Bit reports whether the buffer holds byte-sized samples (Gray or RGB with
// MaxValue below 256).
func (b *Buffer) Is8Bit() bool {
	return b.Kind != KindBinary && b.MaxValue < 256
}

// Clone returns a deep copy that shares no storage with b.
func (b *Buffer) Clone() *Buffer {
	c := *b
	c.Data = append([]byte(nil), b.Data...)
	return &c
}

// Bit reports whether the binary pixel at (x, y) is white.
func (b *Buffer) Bit(x, y int) bool {
	return b.Data[y*b.Stride()+x/8]&(0x80>>uint(x%8)) != 0
}

// SetBit sets the binary pixel at (x, y) to white (true) or black (false).
func (b *Buffer) SetBit(x, y int, white bool) {
	i := y*b.Stride() + x/8
	mask := byte(0x80 >> uint(x%8))
	if white {
		b.Data[i] |= mask
	} else {
		b.Data[i] &^= mask
	}
}

// Sample returns channel c of the pixel at (x, y) for Gray and RGB buffers.
func (b *Buffer) Sample(x, y, c int) int {
	bpc := b.BytesPerChannel()
	i := y*b.Stride() + (x*b.Channels+c)*bpc
	if bpc == 1 {
		return int(b.Data[i])
	}
	return int(b.Data[i])<<8 | int(b.Data[i+1])
}

// SetSample stores v into channel c of the pixel at (x, y) for Gray and RGB
// buffers. v is not clamped against MaxValue.
func (b *Buffer) SetSample(x, y, c, v int) {
	bpc := b.BytesPerChannel()
	i := y*b.Stride() + (x*b.Channels+c)*bpc
	if bpc == 1 {
		b.Data[i] = byte(v)
		return
	}
	b.Data[i] = byte(v >> 8)
	b.Data[i+1] = byte(v)
}

// Row returns the bytes of row y. The slice aliases the buffer.
func (b *Buffer) Row(y int) []byte {
	s := b.Stride()
	return b.Data[y*s : (y+1)*s]
}

// Pix returns the 8-bit samples of the pixel at (x, y). It is only meaningful
// for buffers where Is8Bit is true. The slice aliases the buffer.
func (b *Buffer) Pix(x, y int) []byte {
	i := y*b.Stride() + x*b.Channels
	return b.Data[i : i+b.Channels]
}
