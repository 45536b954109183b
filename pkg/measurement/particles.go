// Package measurement labels particles in cleaned masks and converts pixel
// measurements to physical units through a user calibrated scale.
package measurement

import (
	"fmt"
	"image"

	"holoscope/internal/models"
)

// neighbours8 lists the offsets of the 8-connected neighbourhood.
var neighbours8 = [8]image.Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// AnalyzeParticles labels the 8-connected foreground components of mask and
// returns one Particle per component, in label order. Labels are assigned in
// raster order of each component's first pixel and start at 1.
//
// When roi is non-nil, only pixels inside roi (canonicalized and clipped to the
// mask) are labeled; components are cut at the ROI edge. Centroids and bounds
// are always reported in the coordinates of the full mask.
//
// A mask without foreground yields an empty, non-nil slice.
//
// Parameters:
//   - mask: cleaned foreground mask
//   - roi: optional region of interest in mask coordinates
//
// Returns:
//   - The particles in label order, or an error wrapping ErrInvalidField
func AnalyzeParticles(mask *models.Mask, roi *image.Rectangle) ([]models.Particle, error) {
	if !mask.Valid() {
		return nil, fmt.Errorf("particle analysis input: %w", models.ErrInvalidField)
	}

	region := mask.Bounds()
	if roi != nil {
		region = roi.Canon().Intersect(region)
	}
	particles := make([]models.Particle, 0)
	if region.Empty() {
		return particles, nil
	}

	visited := make([]bool, len(mask.Bits))
	var queue []image.Point
	var xs, ys []float64

	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			idx := y*mask.Width + x
			if !mask.Bits[idx] || visited[idx] {
				continue
			}

			// Flood the component starting at its first raster pixel
			visited[idx] = true
			queue = append(queue[:0], image.Pt(x, y))
			xs, ys = xs[:0], ys[:0]
			bounds := image.Rect(x, y, x+1, y+1)

			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				xs = append(xs, float64(p.X))
				ys = append(ys, float64(p.Y))
				bounds = bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

				for _, d := range neighbours8 {
					q := p.Add(d)
					if !q.In(region) {
						continue
					}
					qi := q.Y*mask.Width + q.X
					if mask.Bits[qi] && !visited[qi] {
						visited[qi] = true
						queue = append(queue, q)
					}
				}
			}

			particle := models.Particle{
				Label:  len(particles) + 1,
				Area:   len(xs),
				Bounds: bounds,
			}
			shape := computeMoments(xs, ys)
			particle.Centroid = shape.centroid
			particle.MajorAxis = shape.major
			particle.MinorAxis = shape.minor
			particle.Orientation = shape.orientation
			particles = append(particles, particle)
		}
	}

	return particles, nil
}

// Extents returns the pixel length (rows spanned) and width (columns spanned)
// of a user selected rectangle.
func Extents(rect image.Rectangle) (length, width int) {
	r := rect.Canon()
	return r.Dy(), r.Dx()
}
