package netpbm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// maxPixelBytes bounds the pixel section a header may announce.
const maxPixelBytes = 1 << 30

type header struct {
	kind     raster.Kind
	width    int
	height   int
	maxValue int
	stride   int
}

// Decode reads one Netpbm image from r.
//
// Returns:
//   - *raster.Buffer: the decoded image. Binary images keep the packed,
//     row-padded layout.
//   - error: raster.ErrInvalidFormat for an unknown magic number, a malformed
//     header token or a sample above the max value, raster.ErrTruncatedData
//     when the pixel section is short.
//
// The pixel buffer grows as data arrives, so a header announcing a huge image
// over a short stream costs no more than the bytes actually read. On error no
// buffer is returned.
func Decode(r io.Reader) (*raster.Buffer, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	if err := readSeparator(br); err != nil {
		return nil, err
	}

	size := h.stride * h.height
	data, err := io.ReadAll(io.LimitReader(br, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pixel data: %w", err)
	}
	if len(data) < size {
		return nil, fmt.Errorf("%w: pixel section has %d of %d bytes", raster.ErrTruncatedData, len(data), size)
	}

	buf, err := raster.FromData(h.kind, h.width, h.height, h.maxValue, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrInvalidFormat, err)
	}
	if err := checkSamples(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// checkSamples rejects gray and rgb samples greater than the header's max value.
func checkSamples(buf *raster.Buffer) error {
	if buf.Kind == raster.KindBinary || buf.MaxValue == 255 || buf.MaxValue == 65535 {
		return nil
	}
	step := buf.BytesPerChannel()
	for i := 0; i+step <= len(buf.Data); i += step {
		v := int(buf.Data[i])
		if step == 2 {
			v = v<<8 | int(buf.Data[i+1])
		}
		if v > buf.MaxValue {
			return fmt.Errorf("%w: sample %d exceeds max value %d", raster.ErrInvalidFormat, v, buf.MaxValue)
		}
	}
	return nil
}

// ReadFile opens path and decodes it with Decode.
func ReadFile(path string) (*raster.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	buf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return buf, nil
}

func readHeader(br *bufio.Reader) (header, error) {
	var h header

	magic := make([]byte, 2)
	if _, err := io.ReadFull(br, magic); err != nil {
		return h, fmt.Errorf("%w: missing magic number", raster.ErrInvalidFormat)
	}
	switch string(magic) {
	case "P4":
		h.kind = raster.KindBinary
	case "P5":
		h.kind = raster.KindGray
	case "P6":
		h.kind = raster.KindRGB
	default:
		return h, fmt.Errorf("%w: unsupported magic %q", raster.ErrInvalidFormat, magic)
	}

	var err error
	if h.width, err = readNumber(br, "width"); err != nil {
		return h, err
	}
	if h.height, err = readNumber(br, "height"); err != nil {
		return h, err
	}
	h.maxValue = 1
	if h.kind != raster.KindBinary {
		if h.maxValue, err = readNumber(br, "max value"); err != nil {
			return h, err
		}
		if h.maxValue > 65535 {
			return h, fmt.Errorf("%w: max value %d exceeds 65535", raster.ErrInvalidFormat, h.maxValue)
		}
	}

	h.stride = (h.width + 7) / 8
	if h.kind != raster.KindBinary {
		bpc := 1
		if h.maxValue > 255 {
			bpc = 2
		}
		h.stride = h.width * h.kind.Channels() * bpc
	}
	if h.width > maxPixelBytes || h.stride > maxPixelBytes/h.height {
		return h, fmt.Errorf("%w: %dx%d image is too large", raster.ErrInvalidFormat, h.width, h.height)
	}
	return h, nil
}

// skipSpaceAndComments consumes whitespace and '#' comments until the next
// significant byte, which is left unread.
func skipSpaceAndComments(br *bufio.Reader) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return
		}
		switch {
		case isSpace(c):
			continue
		case c == '#':
			for {
				c, err = br.ReadByte()
				if err != nil || c == '\n' {
					break
				}
			}
			if err != nil {
				return
			}
		default:
			_ = br.UnreadByte()
			return
		}
	}
}

// readNumber reads one positive decimal token after skipping whitespace and
// comments. name labels the token in errors.
func readNumber(br *bufio.Reader, name string) (int, error) {
	skipSpaceAndComments(br)

	n, digits := 0, 0
	for {
		c, err := br.ReadByte()
		if err != nil {
			break
		}
		if c < '0' || c > '9' {
			_ = br.UnreadByte()
			break
		}
		n = n*10 + int(c-'0')
		digits++
		if n > maxPixelBytes {
			return 0, fmt.Errorf("%w: %s out of range", raster.ErrInvalidFormat, name)
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: %s is not a number", raster.ErrInvalidFormat, name)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s must be positive", raster.ErrInvalidFormat, name)
	}
	return n, nil
}

// readSeparator consumes the single whitespace byte between header and pixels.
func readSeparator(br *bufio.Reader) error {
	c, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: no pixel data after header", raster.ErrTruncatedData)
	}
	if !isSpace(c) {
		return fmt.Errorf("%w: expected whitespace after header, got %q", raster.ErrInvalidFormat, c)
	}
	return nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
