package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/raster-shapes-mcp/internal/netpbm"
	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

type cacheEntry struct {
	img    image.Image
	format string
}

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Once an image is loaded, subsequent Load calls for the same path return the
// cached copy without disk I/O. Cached images stay in memory until Evict or
// Clear is called.
//
// Supported formats: PBM, PGM and PPM (binary forms), PNG, JPEG, GIF, BMP,
// TIFF and WebP.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cacheEntry
}

// NewImageCache creates an empty image cache, ready for concurrent use.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cacheEntry),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// The image is cached under the exact path string provided; a relative and an
// absolute path to the same file are separate entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (cacheEntry, error) {
	c.mu.RLock()
	if e, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("failed to decode image: %w", err)
	}

	e := cacheEntry{img: img, format: format}
	c.mu.Lock()
	c.images[path] = e
	c.mu.Unlock()

	return e, nil
}

// LoadRaster loads path through the cache and converts it to an 8-bit buffer
// of the requested kind. The returned buffer is owned by the caller.
func (c *ImageCache) LoadRaster(path string, kind raster.Kind) (*raster.Buffer, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return raster.FromImage(img, kind)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Evict removes one image from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that recognised the file contents: "pbm", "pgm",
	// "ppm", "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth is "1-bit", "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`

	// Channels is 1 for binary and grayscale images, 3 or 4 otherwise.
	Channels int `json:"channels"`

	// MaxValue is the Netpbm max sample value. Zero for other formats.
	MaxValue int `json:"max_value,omitempty"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and describes it.
//
// Format detection uses the file contents rather than the extension. For
// Netpbm files the header is read directly so the exact max value and bit
// depth are reported.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &ImageInfo{
		Width:         e.img.Bounds().Dx(),
		Height:        e.img.Bounds().Dy(),
		Format:        e.format,
		ColorDepth:    "8-bit",
		Channels:      3,
		FileSizeBytes: stat.Size(),
	}

	switch e.format {
	case "pbm", "pgm", "ppm":
		buf, err := netpbm.ReadFile(path)
		if err != nil {
			return nil, err
		}
		info.Channels = buf.Channels
		info.MaxValue = buf.MaxValue
		switch {
		case buf.Kind == raster.KindBinary:
			info.ColorDepth = "1-bit"
		case buf.BytesPerChannel() == 2:
			info.ColorDepth = "16-bit"
		}
		return info, nil
	}

	switch e.img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
		info.Channels = 4
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.Channels = 4
		info.ColorDepth = "16-bit"
	case *image.Gray:
		info.Channels = 1
	case *image.Gray16:
		info.Channels = 1
		info.ColorDepth = "16-bit"
	}
	return info, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns only the dimensions of an image.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
