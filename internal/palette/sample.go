package palette

import (
	"context"
	"errors"
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"tunedrop/internal/core"
)

const (
	// sampleSize bounds the downscaled artwork edge in pixels.
	sampleSize = 64
	// minAlpha is the 16-bit alpha below which a pixel is treated as transparent.
	minAlpha = 0x8000
	// darkThreshold is the CIE L* (0..1) under which artwork counts as dark.
	darkThreshold = 0.5

	FallbackBackground = "#121212"
	LightText          = "#ffffff"
	DarkText           = "#000000"
)

var errNoOpaquePixels = errors.New("image has no opaque pixels")

// Fallback is applied when no artwork is available or extraction fails.
func Fallback() core.Palette {
	return core.Palette{
		Background: FallbackBackground,
		Foreground: LightText,
		Dark:       true,
	}
}

// FromColor derives a palette with readable text for the given background.
func FromColor(background colorful.Color) core.Palette {
	l, _, _ := background.Lab()
	dark := l < darkThreshold

	foreground := DarkText
	if dark {
		foreground = LightText
	}

	return core.Palette{
		Background: background.Clamped().Hex(),
		Foreground: foreground,
		Dark:       dark,
	}
}

// Dominant averages the opaque pixels of img in linear RGB after scaling it
// down to at most sampleSize×sampleSize.
func Dominant(ctx context.Context, img image.Image) (colorful.Color, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return colorful.Color{}, errNoOpaquePixels
	}

	if err := ctx.Err(); err != nil {
		return colorful.Color{}, err
	}

	small := downscale(img)
	smallBounds := small.Bounds()

	var r, g, b float64
	var n int
	for y := smallBounds.Min.Y; y < smallBounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return colorful.Color{}, err
		}
		for x := smallBounds.Min.X; x < smallBounds.Max.X; x++ {
			px := small.At(x, y)
			if _, _, _, a := px.RGBA(); a < minAlpha {
				continue
			}
			c, ok := colorful.MakeColor(px)
			if !ok {
				continue
			}
			lr, lg, lb := c.LinearRgb()
			r += lr
			g += lg
			b += lb
			n++
		}
	}

	if n == 0 {
		return colorful.Color{}, errNoOpaquePixels
	}

	count := float64(n)
	return colorful.LinearRgb(r/count, g/count, b/count).Clamped(), nil
}

func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= sampleSize && h <= sampleSize {
		return img
	}

	// Keep the aspect ratio; the longer edge becomes sampleSize.
	if w >= h {
		h = max(1, h*sampleSize/w)
		w = sampleSize
	} else {
		w = max(1, w*sampleSize/h)
		h = sampleSize
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
