package media

// FitDimensions returns the size of an origWidth x origHeight image scaled
// to fit a maxWidth x maxHeight bounding box with its aspect ratio kept.
//
// The fit is done in two passes: first the height is clamped to maxHeight,
// then the (possibly already scaled) width is clamped to maxWidth. Both passes
// work on floating point values; the result is truncated to whole pixels
// only at the end and is never smaller than 1x1. Images already inside the
// box keep their size.
func FitDimensions(origWidth, origHeight, maxWidth, maxHeight int) (width, height int) {
	w := float64(origWidth)
	h := float64(origHeight)

	// taller
	if maxHeight > 0 && h > float64(maxHeight) {
		w = w * float64(maxHeight) / h
		h = float64(maxHeight)
	}

	// wider
	if maxWidth > 0 && w > float64(maxWidth) {
		h = h * float64(maxWidth) / w
		w = float64(maxWidth)
	}

	return toPixels(w), toPixels(h)
}

func toPixels(v float64) int {
	p := int(v)
	if p < 1 {
		return 1
	}
	return p
}
