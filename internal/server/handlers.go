package server

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/raster-shapes-mcp/internal/detection"
	"github.com/ironsheep/raster-shapes-mcp/internal/imaging"
	"github.com/ironsheep/raster-shapes-mcp/internal/netpbm"
	"github.com/ironsheep/raster-shapes-mcp/internal/raster"
)

// Defaults for optional tool arguments.
const (
	defaultKernel         = 5
	defaultMorphKernel    = 3
	defaultThreshold      = 128
	defaultMinCircularity = 0.8
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_find_contours").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	log := s.logger.WithFields(logrus.Fields{
		"tool":        params.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("tool completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/detection/netpbm function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Color Operations
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	// Conversion and Filtering
	case "image_to_netpbm":
		return s.handleImageToNetpbm(args)
	case "image_segment_color":
		return s.handleImageSegmentColor(args)
	case "image_morphology":
		return s.handleImageMorphology(args)
	case "image_equalize":
		return s.handleImageEqualize(args)

	// Shape Detection
	case "image_find_contours":
		return s.handleImageFindContours(args)
	case "image_detect_circles":
		return s.handleImageDetectCircles(args)
	case "image_detect_polygons":
		return s.handleImageDetectPolygons(args)
	case "image_render_shapes":
		return s.handleImageRenderShapes(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Color Operation Handlers ===

type imageSampleColorArgs struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return imaging.SampleColor(img, a.X, a.Y)
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleColorsMulti(img, points)
}

// === Conversion and Filtering Handlers ===

// fileResult describes a Netpbm file written by a tool.
type fileResult struct {
	OutputPath string `json:"output_path"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	MaxValue   int    `json:"max_value"`
	SizeBytes  int64  `json:"size_bytes"`
}

// writeNetpbm writes buf to path and describes the written file.
func writeNetpbm(path string, buf *raster.Buffer) (*fileResult, error) {
	if err := netpbm.WriteFile(path, buf); err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &fileResult{
		OutputPath: path,
		Format:     buf.Kind.String(),
		Width:      buf.Width,
		Height:     buf.Height,
		MaxValue:   buf.MaxValue,
		SizeBytes:  stat.Size(),
	}, nil
}

func parseKind(name string) (raster.Kind, error) {
	switch name {
	case "", "rgb":
		return raster.KindRGB, nil
	case "gray":
		return raster.KindGray, nil
	case "binary":
		return raster.KindBinary, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q (use binary, gray or rgb)", raster.ErrInvalidParameter, name)
	}
}

type imageToNetpbmArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	Kind       string `json:"kind"`
}

func (s *Server) handleImageToNetpbm(args json.RawMessage) (interface{}, error) {
	var a imageToNetpbmArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("%w: output_path is required", raster.ErrInvalidParameter)
	}
	kind, err := parseKind(a.Kind)
	if err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadRaster(a.Path, kind)
	if err != nil {
		return nil, err
	}
	return writeNetpbm(a.OutputPath, buf)
}

// filterResult is returned by tools that transform an image.
type filterResult struct {
	*imaging.RenderResult
	Output *fileResult `json:"output,omitempty"`
}

// finishFilter renders buf and optionally writes it to outputPath.
func finishFilter(buf *raster.Buffer, outputPath string, scale float64) (*filterResult, error) {
	if scale == 0 {
		scale = 1.0
	}
	rendered, err := imaging.Render(buf, nil, scale)
	if err != nil {
		return nil, err
	}
	res := &filterResult{RenderResult: rendered}
	if outputPath != "" {
		if res.Output, err = writeNetpbm(outputPath, buf); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type imageSegmentColorArgs struct {
	Path         string  `json:"path"`
	Color        string  `json:"color"`
	Kernel       int     `json:"kernel"`
	OutputPath   string  `json:"output_path"`
	IncludeImage bool    `json:"include_image"`
	Scale        float64 `json:"scale"`
}

type segmentResult struct {
	Color           string                `json:"color"`
	Width           int                   `json:"width"`
	Height          int                   `json:"height"`
	Foreground      int                   `json:"foreground_pixels"`
	CoveragePercent float64               `json:"coverage_percent"`
	Output          *fileResult           `json:"output,omitempty"`
	Image           *imaging.RenderResult `json:"image,omitempty"`
}

func (s *Server) handleImageSegmentColor(args json.RawMessage) (interface{}, error) {
	var a imageSegmentColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Kernel == 0 {
		a.Kernel = defaultKernel
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	preset, err := imaging.Preset(a.Color)
	if err != nil {
		return nil, err
	}
	rgb, err := s.cache.LoadRaster(a.Path, raster.KindRGB)
	if err != nil {
		return nil, err
	}
	mask, err := imaging.SegmentColor(rgb, preset, a.Kernel)
	if err != nil {
		return nil, err
	}

	res := &segmentResult{Color: preset.Name, Width: mask.Width, Height: mask.Height}
	for _, v := range mask.Data {
		if v == raster.MaskForeground {
			res.Foreground++
		}
	}
	res.CoveragePercent = float64(res.Foreground) / float64(len(mask.Data)) * 100

	if a.OutputPath != "" {
		packed, err := raster.Pack(mask)
		if err != nil {
			return nil, err
		}
		if res.Output, err = writeNetpbm(a.OutputPath, packed); err != nil {
			return nil, err
		}
	}
	if a.IncludeImage {
		if res.Image, err = imaging.Render(mask, nil, a.Scale); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type imageMorphologyArgs struct {
	Path       string  `json:"path"`
	Operation  string  `json:"operation"`
	Kernel     int     `json:"kernel"`
	OutputPath string  `json:"output_path"`
	Scale      float64 `json:"scale"`
}

func (s *Server) handleImageMorphology(args json.RawMessage) (interface{}, error) {
	var a imageMorphologyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Kernel == 0 {
		a.Kernel = defaultMorphKernel
	}
	gray, err := s.cache.LoadRaster(a.Path, raster.KindGray)
	if err != nil {
		return nil, err
	}
	out, err := imaging.Morph(gray, imaging.MorphOp(a.Operation), a.Kernel)
	if err != nil {
		return nil, err
	}
	return finishFilter(out, a.OutputPath, a.Scale)
}

type imageEqualizeArgs struct {
	Path       string  `json:"path"`
	Mode       string  `json:"mode"`
	OutputPath string  `json:"output_path"`
	Scale      float64 `json:"scale"`
}

func (s *Server) handleImageEqualize(args json.RawMessage) (interface{}, error) {
	var a imageEqualizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var out *raster.Buffer
	switch a.Mode {
	case "", "value":
		rgb, err := s.cache.LoadRaster(a.Path, raster.KindRGB)
		if err != nil {
			return nil, err
		}
		if out, err = imaging.EqualizeRGB(rgb); err != nil {
			return nil, err
		}
	case "gray":
		gray, err := s.cache.LoadRaster(a.Path, raster.KindGray)
		if err != nil {
			return nil, err
		}
		if out, err = imaging.EqualizeChannel(gray, 0); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown equalize mode %q (use value or gray)", raster.ErrInvalidParameter, a.Mode)
	}
	return finishFilter(out, a.OutputPath, a.Scale)
}

// === Shape Detection Handlers ===

// maskArgs selects how a tool turns its input image into a mask.
type maskArgs struct {
	Path      string `json:"path"`
	Color     string `json:"color"`
	Kernel    int    `json:"kernel"`
	Threshold *int   `json:"threshold"`
	Invert    bool   `json:"invert"`
	MinArea   int    `json:"min_area"`
	MorphSize int    `json:"morph_size"`
}

// loadMask builds the analysis mask for a. With a color preset the image is
// segmented by color; otherwise it is thresholded on luminance. min_area and
// morph_size then drop small regions.
func (s *Server) loadMask(a maskArgs) (*raster.Buffer, error) {
	var mask *raster.Buffer
	if a.Color != "" {
		preset, err := imaging.Preset(a.Color)
		if err != nil {
			return nil, err
		}
		kernel := a.Kernel
		if kernel == 0 {
			kernel = defaultKernel
		}
		rgb, err := s.cache.LoadRaster(a.Path, raster.KindRGB)
		if err != nil {
			return nil, err
		}
		if mask, err = imaging.SegmentColor(rgb, preset, kernel); err != nil {
			return nil, err
		}
	} else {
		level := defaultThreshold
		if a.Threshold != nil {
			level = *a.Threshold
		}
		if level < 0 || level > 255 {
			return nil, fmt.Errorf("%w: threshold %d outside 0-255", raster.ErrInvalidParameter, level)
		}
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		if mask, err = imaging.Threshold(img, uint8(level), a.Invert); err != nil {
			return nil, err
		}
	}

	if a.MinArea > 0 || a.MorphSize > 0 {
		return detection.RemoveSmallComponents(mask, a.MinArea, a.MorphSize)
	}
	return mask, nil
}

type imageFindContoursArgs struct {
	maskArgs
	IncludePoints bool `json:"include_points"`
}

type contoursResult struct {
	Count    int                     `json:"count"`
	Shapes   []detection.ShapeResult `json:"shapes"`
	Contours []detection.Contour     `json:"contours,omitempty"`
}

func (s *Server) handleImageFindContours(args json.RawMessage) (interface{}, error) {
	var a imageFindContoursArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := s.loadMask(a.maskArgs)
	if err != nil {
		return nil, err
	}
	contours, err := detection.FindContours(mask)
	if err != nil {
		return nil, err
	}

	res := &contoursResult{
		Count:  len(contours),
		Shapes: detection.AnalyzeContours(contours),
	}
	if a.IncludePoints {
		res.Contours = contours
	}
	return res, nil
}

type imageDetectCirclesArgs struct {
	maskArgs
	MinCircularity *float64 `json:"min_circularity"`
}

func (s *Server) handleImageDetectCircles(args json.RawMessage) (interface{}, error) {
	var a imageDetectCirclesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := s.loadMask(a.maskArgs)
	if err != nil {
		return nil, err
	}
	return detection.FindCircles(mask, circularityOrDefault(a.MinCircularity))
}

func circularityOrDefault(v *float64) float64 {
	if v == nil {
		return defaultMinCircularity
	}
	return *v
}

type imageDetectPolygonsArgs struct {
	maskArgs
	MinPerimeter float64 `json:"min_perimeter"`
}

func (s *Server) handleImageDetectPolygons(args json.RawMessage) (interface{}, error) {
	var a imageDetectPolygonsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := s.loadMask(a.maskArgs)
	if err != nil {
		return nil, err
	}
	return detection.DetectPolygons(mask, a.MinPerimeter)
}

type imageRenderShapesArgs struct {
	maskArgs
	Shapes         string   `json:"shapes"`
	MinCircularity *float64 `json:"min_circularity"`
	OverlayColor   string   `json:"overlay_color"`
	Thickness      int      `json:"thickness"`
	Labels         bool     `json:"labels"`
}

func (s *Server) handleImageRenderShapes(args json.RawMessage) (interface{}, error) {
	var a imageRenderShapesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := s.loadMask(a.maskArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var (
		polylines [][]image.Point
		circles   []imaging.OverlayCircle
	)
	switch a.Shapes {
	case "", "contours":
		contours, err := detection.FindContours(mask)
		if err != nil {
			return nil, err
		}
		for _, c := range contours {
			polylines = append(polylines, toImagePoints(c))
		}
	case "circles":
		found, err := detection.FindCircles(mask, circularityOrDefault(a.MinCircularity))
		if err != nil {
			return nil, err
		}
		for _, c := range found.Circles {
			circles = append(circles, imaging.OverlayCircle{CX: c.Center.X, CY: c.Center.Y, Radius: c.Radius})
		}
	case "polygons":
		found, err := detection.DetectPolygons(mask, 0)
		if err != nil {
			return nil, err
		}
		for _, p := range append(found.Squares, found.Octagons...) {
			polylines = append(polylines, toImagePoints(p.Vertices))
		}
	default:
		return nil, fmt.Errorf("%w: unknown shapes %q (use contours, circles or polygons)", raster.ErrInvalidParameter, a.Shapes)
	}

	return imaging.ShapeOverlay(img, polylines, circles, imaging.OverlayOptions{
		Color:     a.OverlayColor,
		Thickness: a.Thickness,
		Labels:    a.Labels,
	})
}

func toImagePoints(c detection.Contour) []image.Point {
	pts := make([]image.Point, len(c))
	for i, p := range c {
		pts[i] = image.Point{X: p.X, Y: p.Y}
	}
	return pts
}
