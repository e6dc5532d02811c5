package server

import "github.com/ironsheep/raster-shapes-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file (PBM, PGM, PPM, PNG, JPEG, GIF, BMP, TIFF or WebP)",
}

// maskProperties returns the arguments shared by every tool that builds a
// binary mask before analysis, merged with extra.
func maskProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": pathProperty,
		"color": map[string]interface{}{
			"type":        "string",
			"enum":        imaging.PresetNames(),
			"description": "Segment by color preset. When omitted the mask comes from a luminance threshold instead",
		},
		"kernel": map[string]interface{}{
			"type":        "integer",
			"description": "Odd morphology kernel used by color segmentation (default 5)",
			"default":     defaultKernel,
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Luminance level 0-255 for threshold masks (default 128)",
			"default":     defaultThreshold,
		},
		"invert": map[string]interface{}{
			"type":        "boolean",
			"description": "Treat dark pixels as foreground for threshold masks",
			"default":     false,
		},
		"min_area": map[string]interface{}{
			"type":        "integer",
			"description": "Drop connected regions smaller than this many pixels before tracing (default 0, keep all)",
			"default":     0,
		},
		"morph_size": map[string]interface{}{
			"type":        "integer",
			"description": "Closing radius applied with min_area; the kernel is 2*morph_size+1 (default 0)",
			"default":     0,
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

var outputPathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Optional path to write the result as a Netpbm file",
}

var scaleProperty = map[string]interface{}{
	"type":        "number",
	"description": "Scale factor for the returned PNG (default 1.0)",
	"default":     1.0,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, channel count and bit depth. Netpbm files report their exact max value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Color Operations
		{
			Name:        "image_sample_color",
			Description: "Get the exact color at one pixel, or at several labeled pixels, as RGB, hex, HSL and scaled HSV.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Sample these points instead of x/y",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"path"},
			},
		},

		// Conversion and Filtering
		{
			Name:        "image_to_netpbm",
			Description: "Convert an image to a binary Netpbm file: PBM for binary, PGM for gray, PPM for rgb.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Path of the Netpbm file to write",
					},
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"binary", "gray", "rgb"},
						"description": "Pixel layout of the output (default rgb)",
						"default":     "rgb",
					},
				},
				"required": []string{"path", "output_path"},
			},
		},
		{
			Name:        "image_segment_color",
			Description: "Build a binary mask of the pixels matching a color preset. The mask is cleaned with an opening then a closing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"color": map[string]interface{}{
						"type":        "string",
						"enum":        imaging.PresetNames(),
						"description": "Color preset to select",
					},
					"kernel": map[string]interface{}{
						"type":        "integer",
						"description": "Odd morphology kernel size (default 5)",
						"default":     defaultKernel,
					},
					"output_path": outputPathProperty,
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the mask as a base64 PNG",
						"default":     false,
					},
					"scale": scaleProperty,
				},
				"required": []string{"path", "color"},
			},
		},
		{
			Name:        "image_morphology",
			Description: "Apply erode, dilate, open or close with a square kernel to the grayscale image. Pixels closer than kernel/2 to an edge take a fixed fill value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"operation": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"erode", "dilate", "open", "close"},
						"description": "Morphological operation",
					},
					"kernel": map[string]interface{}{
						"type":        "integer",
						"description": "Odd kernel size (default 3)",
						"default":     defaultMorphKernel,
					},
					"output_path": outputPathProperty,
					"scale":       scaleProperty,
				},
				"required": []string{"path", "operation"},
			},
		},
		{
			Name:        "image_equalize",
			Description: "Histogram-equalize an image. Color images equalize the HSV value channel so hues are kept; gray mode equalizes luminance.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"value", "gray"},
						"description": "value equalizes HSV V of the color image, gray equalizes the grayscale image (default value)",
						"default":     "value",
					},
					"output_path": outputPathProperty,
					"scale":       scaleProperty,
				},
				"required": []string{"path"},
			},
		},

		// Shape Detection
		{
			Name:        "image_find_contours",
			Description: "Trace the boundary of every foreground region in a mask and report area, perimeter, circularity, centroid and bounds for each.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": maskProperties(map[string]interface{}{
					"include_points": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the traced boundary points of each contour",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_detect_circles",
			Description: "Find regions whose boundary circularity (4*pi*area/perimeter^2) reaches a threshold and fit a circle to each.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": maskProperties(map[string]interface{}{
					"min_circularity": map[string]interface{}{
						"type":        "number",
						"description": "Circularity threshold between 0 and 1 (default 0.8)",
						"default":     defaultMinCircularity,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_detect_polygons",
			Description: "Simplify region boundaries with Douglas-Peucker and report the squares and octagons with their vertices and centroids.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": maskProperties(map[string]interface{}{
					"min_perimeter": map[string]interface{}{
						"type":        "number",
						"description": "Skip contours shorter than this (default 0)",
						"default":     0,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_render_shapes",
			Description: "Draw detected contours, circles or polygons over the original image and return it as a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": maskProperties(map[string]interface{}{
					"shapes": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"contours", "circles", "polygons"},
						"description": "Which detection to draw (default contours)",
						"default":     "contours",
					},
					"min_circularity": map[string]interface{}{
						"type":        "number",
						"description": "Circle threshold when shapes is circles (default 0.8)",
						"default":     defaultMinCircularity,
					},
					"overlay_color": map[string]interface{}{
						"type":        "string",
						"description": "Stroke color as hex (default #00FF00)",
						"default":     "#00FF00",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Stroke width in pixels (default 1)",
						"default":     1,
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each shape with its index",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
