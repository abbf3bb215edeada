package room

import "fmt"

// Point is one tile coordinate.
type Point struct {
	X, Y int
}

func (p Point) String() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// Rotations: 0=N(y-1) 1=NE 2=E(x+1) 3=SE 4=S(y+1) 5=SW 6=W(x-1) 7=NW
var (
	headingDX = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	headingDY = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}
)

// Step returns the neighbouring tile in direction rot.
func (p Point) Step(rot int) Point {
	rot &= 7
	return Point{X: p.X + headingDX[rot], Y: p.Y + headingDY[rot]}
}

// RotationTowards returns the compass rotation that faces from a towards b.
// Returns 2 (east) when the points coincide.
func RotationTowards(a, b Point) int {
	dx := sign(b.X - a.X)
	dy := sign(b.Y - a.Y)
	for rot := 0; rot < 8; rot++ {
		if headingDX[rot] == dx && headingDY[rot] == dy {
			return rot
		}
	}
	return 2
}

// Chebyshev is the 8-directional grid distance.
func Chebyshev(a, b Point) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// AffectedTiles returns every tile covered by a width×length footprint
// anchored at (x, y). Width runs along x and length along y at rotations
// 0 and 4; rotations 2 and 6 swap the two.
func AffectedTiles(length, width, x, y, rotation int) []Point {
	if length < 1 {
		length = 1
	}
	if width < 1 {
		width = 1
	}
	if rotation == 2 || rotation == 6 {
		length, width = width, length
	}
	tiles := make([]Point, 0, length*width)
	for i := 0; i < width; i++ {
		for j := 0; j < length; j++ {
			tiles = append(tiles, Point{X: x + i, Y: y + j})
		}
	}
	return tiles
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
