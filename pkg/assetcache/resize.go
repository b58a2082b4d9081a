package assetcache

import (
	"image"

	"golang.org/x/image/draw"
)

// shrinkToWidth scales img down so its width is at most maxWidth, preserving
// aspect ratio. Images at or under the limit are returned unchanged.
func shrinkToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW <= maxWidth {
		return img
	}

	ratio := float64(maxWidth) / float64(srcW)
	targetH := int(float64(srcH) * ratio)
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, targetH))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
