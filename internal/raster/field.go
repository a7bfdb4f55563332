// Package raster provides the grayscale heightmap buffer and PNG export.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Field is a dense float64 grayscale raster. Samples are expected in [0, 1];
// conversion to image formats clamps. Each cell is owned by exactly one
// writer during parallel rendering, so Field does no locking of its own.
type Field struct {
	width   int
	height  int
	samples []float64
}

// NewField allocates a width x height field. Dimensions must be positive.
func NewField(width, height int) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("field dimensions must be positive, got %dx%d", width, height)
	}
	return &Field{
		width:   width,
		height:  height,
		samples: make([]float64, width*height),
	}, nil
}

// Width returns the raster width in cells.
func (f *Field) Width() int { return f.width }

// Height returns the raster height in cells.
func (f *Field) Height() int { return f.height }

// At returns the sample at (x, y).
func (f *Field) At(x, y int) float64 { return f.samples[y*f.width+x] }

// Set writes the sample at (x, y).
func (f *Field) Set(x, y int, v float64) { f.samples[y*f.width+x] = v }

// NRGBA converts the field to an 8-bit image with the height replicated
// into all three color channels and full opacity.
func (f *Field) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			g := uint8(clamp01(f.At(x, y)) * 255)
			img.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// Gray16 converts the field to a 16-bit grayscale image. The extra depth
// matters for heightmaps consumed as displacement data, where 8-bit
// quantization shows up as terracing.
func (f *Field) Gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(clamp01(f.At(x, y)) * 65535)})
		}
	}
	return img
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CompressionLevel maps the CLI compression names onto the PNG encoder
// levels. Unknown names fall back to the default level.
func CompressionLevel(name string) png.CompressionLevel {
	switch name {
	case "speed":
		return png.BestSpeed
	case "best":
		return png.BestCompression
	case "none":
		return png.NoCompression
	default:
		return png.DefaultCompression
	}
}

// EncodePNG writes img as PNG with the named compression level.
func EncodePNG(w io.Writer, img image.Image, compression string) error {
	enc := png.Encoder{CompressionLevel: CompressionLevel(compression)}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WritePNG writes img to path as PNG with the named compression level.
func WritePNG(path string, img image.Image, compression string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	return EncodePNG(file, img, compression)
}
