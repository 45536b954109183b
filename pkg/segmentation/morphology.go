package segmentation

import (
	"fmt"

	"holoscope/internal/models"
)

// ElementSize is the side of the square structuring element.
const ElementSize = 3

// Dilate sets a pixel when any pixel of the 3x3 neighbourhood is set.
// Pixels outside the mask count as background.
func Dilate(m *models.Mask) (*models.Mask, error) {
	return morph(m, false)
}

// Erode keeps a pixel only when every in-bounds pixel of the 3x3
// neighbourhood is set, so foreground touching the border is not eroded by it.
func Erode(m *models.Mask) (*models.Mask, error) {
	return morph(m, true)
}

// Close fills small holes and gaps: dilation followed by erosion.
func Close(m *models.Mask) (*models.Mask, error) {
	d, err := Dilate(m)
	if err != nil {
		return nil, err
	}
	return Erode(d)
}

// Open removes isolated specks smaller than the element: erosion followed by dilation.
func Open(m *models.Mask) (*models.Mask, error) {
	e, err := Erode(m)
	if err != nil {
		return nil, err
	}
	return Dilate(e)
}

// Clean applies closing then opening with a 3x3 square element.
func Clean(m *models.Mask) (*models.Mask, error) {
	c, err := Close(m)
	if err != nil {
		return nil, err
	}
	return Open(c)
}

func morph(m *models.Mask, erode bool) (*models.Mask, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("morphology input is empty or malformed: %w", models.ErrInvalidField)
	}

	r := ElementSize / 2
	out := models.NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			// erosion starts true and looks for a background neighbour,
			// dilation starts false and looks for a foreground one
			v := erode
			for dy := -r; dy <= r && v == erode; dy++ {
				ny := y + dy
				if ny < 0 || ny >= m.Height {
					continue
				}
				for dx := -r; dx <= r; dx++ {
					nx := x + dx
					if nx < 0 || nx >= m.Width {
						continue
					}
					if m.Bits[ny*m.Width+nx] != erode {
						v = !erode
						break
					}
				}
			}
			out.Bits[y*m.Width+x] = v
		}
	}
	return out, nil
}
