package preview

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"lumen/session"
)

// Fit scales w x h down or up to fit inside maxW x maxH keeping the aspect ratio.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}

	outW, outH := maxW, h*maxW/w
	if outH > maxH {
		outW, outH = w*maxH/h, maxH
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

// Thumbnail scales img into a grid of at most maxW x maxH pixels.
func Thumbnail(img image.Image, maxW, maxH int) session.Thumbnail {
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxW, maxH)
	if w == 0 {
		return session.Thumbnail{}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	pixels := make([]color.RGBA, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels = append(pixels, dst.RGBAAt(x, y))
		}
	}

	return session.Thumbnail{Width: w, Height: h, Pixels: pixels}
}
