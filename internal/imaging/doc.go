// Package imaging provides the pixel-level stages of the shape pipeline for the
// MCP server.
//
// This package implements color sampling, RGB/HSV conversion, color
// segmentation, morphology, histogram equalization, image loading and PNG
// rendering. Pipeline stages work on *raster.Buffer values; loading and
// rendering bridge to standard Go image.Image types. The coordinate system has
// (0,0) at the top-left corner, X increasing rightward and Y increasing
// downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # HSV Layout
//
// HSV buffers reuse the rgb kind with the channels holding H/2 (0-179), S*255
// and V*255. Color presets and InRange bounds are written in the same layout,
// which is why HSV.Scaled exists alongside the exact float form.
//
// # Masks
//
// A mask is an 8-bit gray buffer where raster.MaskForeground (255) marks
// foreground and 0 marks background. raster.Pack turns a mask into a binary
// buffer for PBM output.
//
// # Border Policy
//
// Erode and Dilate do not clamp or wrap at image edges. Pixels closer than
// kernel/2 to an edge are set to ErodeFill or DilateFill respectively.
// ClearBorder strips those bands from a finished mask.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other operation takes
// its inputs by pointer, never modifies them, and returns a freshly allocated
// result, so operations can run concurrently as long as callers do not mutate
// a buffer that another goroutine is reading. Color conversion and morphology
// split rows across goroutines internally.
//
// # Error Handling
//
// Invalid arguments are reported with raster.ErrInvalidParameter wrapped in
// context, so callers can test with errors.Is. I/O and decode failures from
// the loader are wrapped as-is.
package imaging
