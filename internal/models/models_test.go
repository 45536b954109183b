package models

import (
	"errors"
	"fmt"
	"testing"
)

// TestStageError verifies that the stage wrapper keeps the error kind reachable
func TestStageError(t *testing.T) {
	inner := fmt.Errorf("phase field: %w", ErrDegenerateHistogram)
	err := AtStage(StageBinarize, inner)

	if !errors.Is(err, ErrDegenerateHistogram) {
		t.Errorf("Expected errors.Is to find ErrDegenerateHistogram in %v", err)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Expected a *StageError, got %T", err)
	}
	if stageErr.Stage != StageBinarize {
		t.Errorf("Expected stage %q, got %q", StageBinarize, stageErr.Stage)
	}

	if AtStage(StageClean, nil) != nil {
		t.Errorf("Expected nil error to stay nil")
	}
}

// TestFieldAccessors checks row-major addressing
func TestFieldAccessors(t *testing.T) {
	f := NewField(3, 2)
	f.Set(2, 1, 7)
	if f.Data[5] != 7 {
		t.Errorf("Expected Data[5]=7, got %f", f.Data[5])
	}
	if got := f.Row(1)[2]; got != 7 {
		t.Errorf("Expected Row(1)[2]=7, got %f", got)
	}
	if !f.Valid() {
		t.Errorf("Expected freshly allocated field to be valid")
	}

	bad := &Field{Width: 3, Height: 3, Data: make([]float64, 4)}
	if bad.Valid() {
		t.Errorf("Expected field with short backing data to be invalid")
	}
}

// TestMaskCount verifies foreground counting
func TestMaskCount(t *testing.T) {
	m := NewMask(4, 4)
	m.Set(0, 0, true)
	m.Set(3, 3, true)
	if m.Count() != 2 {
		t.Errorf("Expected 2 foreground pixels, got %d", m.Count())
	}
}

// TestPointDist checks the Euclidean distance helper
func TestPointDist(t *testing.T) {
	d := Point{X: 0, Y: 0}.Dist(Point{X: 3, Y: 4})
	if d != 5 {
		t.Errorf("Expected distance 5, got %f", d)
	}
}
