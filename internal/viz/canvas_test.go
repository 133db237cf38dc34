package viz

import (
	"strings"
	"testing"
)

func TestCanvasSetAndString(t *testing.T) {
	c := NewCanvas(4, 2)

	out := c.String()
	if len(strings.Split(strings.TrimRight(out, "\n"), "\n")) != 2 {
		t.Fatalf("expected 2 rows, got %q", out)
	}
	for _, r := range strings.ReplaceAll(out, "\n", "") {
		if r != 0x2800 {
			t.Fatalf("fresh canvas should be empty braille, got %q", r)
		}
	}

	c.Set(0, 0)
	if c.Grid[0][0] != 0x2800|0x1 {
		t.Fatalf("Set(0,0) produced %x", c.Grid[0][0])
	}
	c.Set(1, 3)
	if c.Grid[0][0] != 0x2800|0x1|0x80 {
		t.Fatalf("Set(1,3) produced %x", c.Grid[0][0])
	}
}

func TestCanvasSetIgnoresOutOfRange(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(0, -5)
	c.Set(100, 0)
	c.Set(0, 100)

	for _, row := range c.Grid {
		for _, cell := range row {
			if cell != 0x2800 {
				t.Fatalf("out-of-range Set leaked into grid: %x", cell)
			}
		}
	}
}

func TestCanvasUnset(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(0, 0)
	c.Set(1, 0)
	c.Unset(0, 0)
	if c.Grid[0][0] != 0x2800|0x8 {
		t.Fatalf("Unset left %x", c.Grid[0][0])
	}
	c.Unset(1, 0)
	if c.Grid[0][0] != 0x2800 {
		t.Fatalf("cell should return to empty braille, got %x", c.Grid[0][0])
	}
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(3, 3)
	c.DrawLine(0, 0, 5, 11)
	c.Clear()
	for _, row := range c.Grid {
		for _, cell := range row {
			if cell != 0x2800 {
				t.Fatalf("Clear left %x", cell)
			}
		}
	}
}

func TestDrawLineEndpoints(t *testing.T) {
	c := NewCanvas(10, 10)
	c.DrawLine(2, 3, 15, 30)

	if !pixelSet(c, 2, 3) {
		t.Error("line start not set")
	}
	if !pixelSet(c, 15, 30) {
		t.Error("line end not set")
	}
}

func TestDrawLineHorizontal(t *testing.T) {
	c := NewCanvas(10, 2)
	c.DrawLine(0, 2, 19, 2)
	for x := 0; x < 20; x++ {
		if !pixelSet(c, x, 2) {
			t.Fatalf("horizontal line missing pixel at x=%d", x)
		}
	}
}

func TestFillRect(t *testing.T) {
	c := NewCanvas(6, 6)
	c.FillRect(5, 9, 2, 4) // reversed corners normalize

	for y := 4; y <= 9; y++ {
		for x := 2; x <= 5; x++ {
			if !pixelSet(c, x, y) {
				t.Fatalf("rect missing pixel (%d,%d)", x, y)
			}
		}
	}
	if pixelSet(c, 1, 4) || pixelSet(c, 6, 4) {
		t.Error("rect leaked outside its bounds")
	}
}

func pixelSet(c *Canvas, x, y int) bool {
	col, row := x/2, y/4
	if col < 0 || row < 0 || col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}
