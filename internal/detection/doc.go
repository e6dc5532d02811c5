// Package detection finds and measures shapes in binary masks.
//
// Masks come from the imaging package (color segmentation, thresholding) or
// from PBM files. This package traces their region boundaries and derives
// geometry from the traced points. It never looks at color.
//
// # Pipeline
//
//  1. Cleanup (optional): RemoveSmallComponents closes gaps and drops regions
//     below an area threshold
//  2. Tracing: FindContours walks every region boundary with Moore-neighbor
//     tracing
//  3. Measurement: Area, Perimeter, Circularity, centroids and FitCircle
//  4. Classification: FindCircles by circularity, DetectPolygons by
//     Douglas-Peucker vertex count
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward (column)
//   - Y increases downward (row)
//   - Bounds are inclusive on both corners
//
// # Centroids
//
// Two centroids exist and they differ for hollow or non-convex shapes.
// ContourCentroid averages the traced boundary points; FitCircle uses it.
// MaskCentroid averages every foreground pixel. PolygonCentroid is the area
// centroid of the boundary polygon and is what DetectPolygons reports.
//
// # Degenerate Contours
//
// A one-point contour has no perimeter, so ratios such as circularity are
// undefined. Those calls return raster.ErrDegenerateGeometry. Batch calls
// (AnalyzeContours, FindCircles, DetectPolygons) record the failure per
// contour and carry on.
package detection
