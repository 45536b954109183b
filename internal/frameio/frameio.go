// Package frameio decodes hologram exposures from image files into intensity
// frames and writes rendered results back to disk.
package frameio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"holoscope/internal/models"
)

// Load decodes a BMP, PNG, TIFF or JPEG file into an intensity frame.
// Color images are converted to luminance.
func Load(path string) (*models.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	frame := FromImage(img)
	if frame.Len() == 0 {
		return nil, fmt.Errorf("%s (%s) has no pixels: %w", path, format, models.ErrEmptyFrame)
	}
	return frame, nil
}

// LoadAll loads every path in order
func LoadAll(paths []string) ([]*models.Frame, error) {
	frames := make([]*models.Frame, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// FromImage converts img to a frame with samples on the 8-bit scale [0, 255].
// Deeper images keep their fractional precision.
func FromImage(img image.Image) *models.Frame {
	b := img.Bounds()
	frame := models.NewFrame(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			frame.Set(x-b.Min.X, y-b.Min.Y, float64(g.Y)/257)
		}
	}
	return frame
}

// SavePNG writes img to path, creating parent directories as needed
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
