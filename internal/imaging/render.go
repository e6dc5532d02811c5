package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// RenderResult contains an image encoded as base64 PNG.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Region is a rectangle inside an image. (X1, Y1) is inclusive and (X2, Y2)
// is exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// RenderImage encodes img as a base64 PNG, optionally cropped to region and
// scaled.
//
// Scaling uses nearest-neighbor sampling so masks stay strictly two-valued and
// single pixels stay visible when zoomed in. A scale of 1 (or anything <= 0)
// leaves the size unchanged.
func RenderImage(img image.Image, region *Region, scale float64) (*RenderResult, error) {
	out := img
	if region != nil {
		bounds := img.Bounds()
		if region.X1 < bounds.Min.X || region.Y1 < bounds.Min.Y || region.X2 > bounds.Max.X || region.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				region.X1, region.Y1, region.X2, region.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
			return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
		}
		out = imaging.Crop(img, image.Rect(region.X1, region.Y1, region.X2, region.Y2))
	}

	if scale != 1.0 && scale > 0 {
		w := int(float64(out.Bounds().Dx()) * scale)
		h := int(float64(out.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %.3f shrinks the image to nothing", scale)
		}
		out = imaging.Resize(out, w, h, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &RenderResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Render encodes a raster buffer as a base64 PNG. See RenderImage.
func Render(buf *raster.Buffer, region *Region, scale float64) (*RenderResult, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return RenderImage(buf.ToImage(), region, scale)
}
