package models

import (
	"image"
	"math"
)

// Frame is a single grayscale hologram exposure (an IntensityFrame).
// Samples are non-negative intensities stored in row-major order.
type Frame struct {
	// Width is the number of columns in the frame
	Width int

	// Height is the number of rows in the frame
	Height int

	// Pix holds Width*Height samples, row by row
	Pix []float64
}

// NewFrame allocates a zeroed frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the sample at column x and row y.
func (f *Frame) At(x, y int) float64 {
	return f.Pix[y*f.Width+x]
}

// Set stores v at column x and row y.
func (f *Frame) Set(x, y int, v float64) {
	f.Pix[y*f.Width+x] = v
}

// Len returns the number of samples held by the frame.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Pix)
}

// Bounds returns the frame extent as an image rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Field is a real-valued 2-D grid: contrast, resampled contrast, amplitude or phase.
type Field struct {
	Width  int
	Height int
	Data   []float64

	// Lossy marks fields that were clipped or quantized for display.
	// Lossy fields must never be propagated.
	Lossy bool
}

// NewField allocates a zeroed field of the given size.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// At returns the value at column x and row y.
func (f *Field) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Set stores v at column x and row y.
func (f *Field) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// Row returns the backing slice of row y.
func (f *Field) Row(y int) []float64 {
	return f.Data[y*f.Width : (y+1)*f.Width]
}

// Valid reports whether the declared dimensions match the backing data.
func (f *Field) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Data) == f.Width*f.Height
}

// ContrastField is the signed difference reference - sample.
type ContrastField = Field

// ComplexField is a 2-D grid of complex samples stored in row-major order.
type ComplexField struct {
	Width  int
	Height int
	Data   []complex128
}

// NewComplexField allocates a zeroed complex field.
func NewComplexField(width, height int) *ComplexField {
	return &ComplexField{
		Width:  width,
		Height: height,
		Data:   make([]complex128, width*height),
	}
}

// At returns the sample at column x and row y.
func (c *ComplexField) At(x, y int) complex128 {
	return c.Data[y*c.Width+x]
}

// Set stores v at column x and row y.
func (c *ComplexField) Set(x, y int, v complex128) {
	c.Data[y*c.Width+x] = v
}

// Valid reports whether the declared dimensions match the backing data.
func (c *ComplexField) Valid() bool {
	return c != nil && c.Width > 0 && c.Height > 0 && len(c.Data) == c.Width*c.Height
}

// Square reports whether the field has as many rows as columns.
func (c *ComplexField) Square() bool {
	return c.Width == c.Height
}

// Clone returns a deep copy of the field.
func (c *ComplexField) Clone() *ComplexField {
	out := &ComplexField{Width: c.Width, Height: c.Height, Data: make([]complex128, len(c.Data))}
	copy(out.Data, c.Data)
	return out
}

// Mask is a binary foreground/background grid.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// At returns the mask value at column x and row y.
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Set stores v at column x and row y.
func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Valid reports whether the declared dimensions match the backing data.
func (m *Mask) Valid() bool {
	return m != nil && m.Width > 0 && m.Height > 0 && len(m.Bits) == m.Width*m.Height
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Bounds returns the mask extent as an image rectangle anchored at the origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Point is a sub-pixel position in image coordinates (x = column, y = row).
type Point struct {
	X, Y float64
}

// Dist returns the Euclidean distance between p and q in pixels.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Particle is one connected foreground component of a cleaned mask.
type Particle struct {
	// Label is the 1-based label in assignment order
	Label int

	// Area is the number of member pixels
	Area int

	// Centroid is the mean member coordinate in the original image frame
	Centroid Point

	// Bounds is the half-open enclosing rectangle in the original image frame
	Bounds image.Rectangle

	// MajorAxis and MinorAxis are the lengths, in pixels, of the ellipse
	// with the same second central moments as the component
	MajorAxis float64
	MinorAxis float64

	// Orientation is the angle of the major axis measured from +x toward +y, in radians
	Orientation float64
}
