// Package heatmap renders activation tensors as PNG images for visual
// inspection.
package heatmap

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Render lays values out row-major into a cols-wide grid, one pixel per
// value, colored on a thermal ramp between the tensor's minimum and maximum.
// Grid cells past the end of the tensor are filled black.
func Render(values []float32, cols int) *image.RGBA {
	if cols <= 0 {
		panic("heatmap: cols must be positive")
	}
	if len(values) == 0 {
		panic("heatmap: empty tensor")
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	rows := (len(values) + cols - 1) / cols
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for i, v := range values {
		t := 0.0
		if hi > lo {
			t = float64(v-lo) / float64(hi-lo)
		}
		img.SetRGBA(i%cols, i/cols, thermal(t))
	}
	for i := len(values); i < cols*rows; i++ {
		img.SetRGBA(i%cols, i/cols, color.RGBA{A: 255})
	}
	return img
}

// thermal maps t in [0, 1] onto a blue to green to red ramp.
func thermal(t float64) color.RGBA {
	switch {
	case t <= 0:
		return color.RGBA{B: 255, A: 255}
	case t >= 1:
		return color.RGBA{R: 255, A: 255}
	case t < 0.5:
		return color.RGBA{
			G: uint8(255 * t * 2),
			B: uint8(255 * (1 - t*2)),
			A: 255,
		}
	default:
		return color.RGBA{
			R: uint8(255 * (t - 0.5) * 2),
			G: uint8(255 * (1 - (t-0.5)*2)),
			A: 255,
		}
	}
}

// WritePNG writes img to path, upscaled by scale with nearest neighbor so
// individual cells stay sharp.
func WritePNG(path string, img image.Image, scale int) error {
	if scale < 1 {
		scale = 1
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*scale, bounds.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
