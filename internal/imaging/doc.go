// Package imaging provides the raster primitives the grading pipeline is
// built from: page loading and caching, grayscale conversion, global (Otsu)
// and adaptive (Sauvola) binarization, rectangular morphology, Canny edges,
// CLAHE contrast enhancement, clamped crops, and overlay rendering.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner.
// Rectangles are expressed with geometry.Rect; crops clamp their rectangle
// to the image so they never index out of bounds.
//
// # Masks
//
// Binary images are *image.Gray values with ink set to 255 and background
// to 0, always with their origin at (0,0). Thresholding helpers follow the
// inverse-binary convention: dark input pixels become ink.
//
// # Thread Safety
//
// PageCache is safe for concurrent use. All other functions are stateless
// and never modify their inputs, so they may run concurrently on shared
// images.
package imaging
