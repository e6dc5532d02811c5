// Package server implements the MCP (Model Context Protocol) server for shape
// analysis tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the Netpbm codec,
// color segmentation, morphology and contour analysis through the MCP
// protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata (Netpbm max value and bit depth)
//   - image_dimensions: Get width and height
//   - image_sample_color: Color at one or more pixels, including scaled HSV
//
// Conversion and Filtering:
//   - image_to_netpbm: Write PBM, PGM or PPM
//   - image_segment_color: Mask of a color preset
//   - image_morphology: Erode, dilate, open or close
//   - image_equalize: Histogram equalization of V or luminance
//
// Shape Detection:
//   - image_find_contours: Trace and measure every region
//   - image_detect_circles: Regions above a circularity threshold
//   - image_detect_polygons: Squares and octagons
//   - image_render_shapes: Draw detections over the image
//
// The detection tools share one set of mask arguments. A color preset selects
// color segmentation; otherwise the image is thresholded on luminance.
// min_area and morph_size then drop small regions before tracing.
//
// # Image Caching
//
// The server maintains an in-memory cache of decoded images keyed by path.
// Every tool converts from the cached image into a fresh raster buffer, so
// tools never observe each other's output.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Failures and tool timings are logged through the logrus logger passed to
// New. The logger must not write to stdout.
//
// # Usage
//
//	srv := server.New(logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
