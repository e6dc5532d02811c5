package netpbm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// Encode writes buf to w in binary Netpbm form.
//
// The header is "P4\n{width} {height}\n" for binary buffers and
// "P5\n{width} {height}\n{max}\n" or "P6\n..." for gray and rgb buffers.
// Binary rows are written with their padding bits cleared, whatever the
// buffer holds in them.
//
// Returns raster.ErrInvalidParameter if buf fails validation, or the first
// write error.
func Encode(w io.Writer, buf *raster.Buffer) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("cannot encode: %w", err)
	}

	bw := bufio.NewWriter(w)
	switch buf.Kind {
	case raster.KindBinary:
		fmt.Fprintf(bw, "P4\n%d %d\n", buf.Width, buf.Height)
		if err := writePackedRows(bw, buf); err != nil {
			return err
		}
	case raster.KindGray:
		fmt.Fprintf(bw, "P5\n%d %d\n%d\n", buf.Width, buf.Height, buf.MaxValue)
		if _, err := bw.Write(buf.Data); err != nil {
			return fmt.Errorf("failed to write pixel data: %w", err)
		}
	case raster.KindRGB:
		fmt.Fprintf(bw, "P6\n%d %d\n%d\n", buf.Width, buf.Height, buf.MaxValue)
		if _, err := bw.Write(buf.Data); err != nil {
			return fmt.Errorf("failed to write pixel data: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

func writePackedRows(w io.Writer, buf *raster.Buffer) error {
	stride := buf.Stride()
	row := make([]byte, stride)
	var pad byte = 0xFF
	if rem := buf.Width % 8; rem != 0 {
		pad = 0xFF << uint(8-rem)
	}
	for y := 0; y < buf.Height; y++ {
		copy(row, buf.Row(y))
		row[stride-1] &= pad
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", y, err)
		}
	}
	return nil
}

// WriteFile encodes buf to path.
//
// The image is written to a temporary file in the same directory and renamed
// into place once complete. On any failure the temporary file is removed and
// path is left untouched. A new file gets mode 0644; replacing an existing
// file keeps its permissions.
func WriteFile(path string, buf *raster.Buffer) (err error) {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("cannot encode: %w", err)
	}

	mode := os.FileMode(0o644)
	if fi, statErr := os.Stat(path); statErr == nil && fi.Mode().IsRegular() {
		mode = fi.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, buf); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}
