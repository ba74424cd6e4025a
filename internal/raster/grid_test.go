package raster

import (
	"math"
	"testing"
)

func TestTransformRowCol(t *testing.T) {
	// 10 m pixels, origin (1000, 2000), north-up.
	tr := Transform{1000, 10, 0, 2000, 0, -10}

	row, col, ok := tr.RowCol(1005, 1995)
	if !ok {
		t.Fatal("expected invertible transform")
	}
	if row != 0 || col != 0 {
		t.Fatalf("rowcol = (%d, %d), want (0, 0)", row, col)
	}

	row, col, ok = tr.RowCol(1030, 1950)
	if !ok || row != 5 || col != 3 {
		t.Fatalf("rowcol = (%d, %d, %v), want (5, 3, true)", row, col, ok)
	}
}

func TestTransformDegenerate(t *testing.T) {
	var tr Transform
	if _, _, ok := tr.RowCol(1, 1); ok {
		t.Fatal("zero transform must not invert")
	}
}

func TestGridSample(t *testing.T) {
	g := NewGrid(2, 2)
	g.Transform = Transform{0, 10, 0, 0, 0, -10}
	g.Set(1, 1, 42)

	if v := g.Sample(15, -15); v != 42 {
		t.Fatalf("sample = %v, want 42", v)
	}
	if v := g.Sample(100, -100); !math.IsNaN(v) {
		t.Fatalf("out-of-bounds sample = %v, want NaN", v)
	}
}

func TestGridCloneIndependent(t *testing.T) {
	g := NewGrid(2, 2)
	g.Set(0, 0, 1)
	c := g.Clone()
	c.Set(0, 0, 9)
	if g.At(0, 0) != 1 {
		t.Fatal("clone shares storage with original")
	}
}

func TestValidCount(t *testing.T) {
	g := NewGrid(1, 4)
	copy(g.Data, []float64{1, math.NaN(), math.Inf(1), 2})
	if n := g.ValidCount(); n != 2 {
		t.Fatalf("valid count = %d, want 2", n)
	}
}
