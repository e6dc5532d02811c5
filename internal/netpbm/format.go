package netpbm

import (
	"bufio"
	"image"
	"image/color"
	"io"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

func init() {
	image.RegisterFormat("pbm", "P4", decodeImage, DecodeConfig)
	image.RegisterFormat("pgm", "P5", decodeImage, DecodeConfig)
	image.RegisterFormat("ppm", "P6", decodeImage, DecodeConfig)
}

func decodeImage(r io.Reader) (image.Image, error) {
	buf, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return buf.ToImage(), nil
}

// DecodeConfig reads only the header of a Netpbm stream and reports the
// dimensions and the color model ToImage would produce.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}

	var model color.Model
	switch {
	case h.kind == raster.KindRGB && h.maxValue > 255:
		model = color.RGBA64Model
	case h.kind == raster.KindRGB:
		model = color.RGBAModel
	case h.maxValue > 255:
		model = color.Gray16Model
	default:
		model = color.GrayModel
	}
	return image.Config{ColorModel: model, Width: h.width, Height: h.height}, nil
}
