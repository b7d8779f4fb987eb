// Package geometry holds the pure board helpers: coordinates, the
// Cornucore safe zone and its sub-areas, board edges and neighbourhoods.
package geometry

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
)

const (
	// CornucoreHalf is the half-width of the 5x5 safe zone.
	CornucoreHalf = 2
	// SanctumHalf is the half-width of the 3x3 inner sanctum.
	SanctumHalf = 1
)

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) Key() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
}

func (c Coord) String() string {
	return Label(c)
}

// ParseKey decodes an "x,y" key.
func ParseKey(k string) (Coord, error) {
	xs, ys, ok := strings.Cut(k, ",")
	if !ok {
		return Coord{}, fmt.Errorf("invalid tile key %q", k)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Coord{}, fmt.Errorf("invalid tile key %q: %w", k, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Coord{}, fmt.Errorf("invalid tile key %q: %w", k, err)
	}
	return Coord{X: x, Y: y}, nil
}

func Manhattan(a, b Coord) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func InBounds(c Coord, size int) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < size && c.Y < size
}

// Clamp pulls c into the board.
func Clamp(c Coord, size int) Coord {
	return Coord{X: clampInt(c.X, 0, size-1), Y: clampInt(c.Y, 0, size-1)}
}

// Neighbors4 returns the in-bounds orthogonal neighbours of c.
func Neighbors4(c Coord, size int) []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range [4]Coord{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		n := Coord{X: c.X + d.X, Y: c.Y + d.Y}
		if InBounds(n, size) {
			out = append(out, n)
		}
	}
	return out
}

// EdgeTiles lists the board perimeter: top and bottom rows, then the side columns.
func EdgeTiles(size int) []Coord {
	if size <= 0 {
		return nil
	}
	last := size - 1
	out := make([]Coord, 0, 4*size)
	for x := 0; x <= last; x++ {
		out = append(out, Coord{x, 0})
		if last > 0 {
			out = append(out, Coord{x, last})
		}
	}
	for y := 1; y < last; y++ {
		out = append(out, Coord{0, y}, Coord{last, y})
	}
	return out
}

// Cornucore is the 5x5 safe zone centred on the board.
type Cornucore struct {
	Center Coord `json:"center"`
	MinX   int   `json:"minX"`
	MaxX   int   `json:"maxX"`
	MinY   int   `json:"minY"`
	MaxY   int   `json:"maxY"`
}

func NewCornucore(size int) Cornucore {
	c := Coord{X: size / 2, Y: size / 2}
	return Cornucore{
		Center: c,
		MinX:   c.X - CornucoreHalf,
		MaxX:   c.X + CornucoreHalf,
		MinY:   c.Y - CornucoreHalf,
		MaxY:   c.Y + CornucoreHalf,
	}
}

func (cc Cornucore) Contains(c Coord) bool {
	return c.X >= cc.MinX && c.X <= cc.MaxX && c.Y >= cc.MinY && c.Y <= cc.MaxY
}

func (cc Cornucore) InSanctum(c Coord) bool {
	return abs(c.X-cc.Center.X) <= SanctumHalf && abs(c.Y-cc.Center.Y) <= SanctumHalf
}

func (cc Cornucore) IsCenter(c Coord) bool {
	return c == cc.Center
}

func (cc Cornucore) Area() int {
	w := cc.MaxX - cc.MinX + 1
	h := cc.MaxY - cc.MinY + 1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Ring returns the 16 perimeter tiles of the 5x5 safe zone.
func (cc Cornucore) Ring() []Coord {
	cx, cy := cc.Center.X, cc.Center.Y
	r := CornucoreHalf
	out := make([]Coord, 0, 16)
	for x := cx - r; x <= cx+r; x++ {
		out = append(out, Coord{x, cy - r}, Coord{x, cy + r})
	}
	for y := cy - r + 1; y <= cy+r-1; y++ {
		out = append(out, Coord{cx - r, y}, Coord{cx + r, y})
	}
	return out
}

func (cc Cornucore) OnRing(c Coord) bool {
	return cc.Contains(c) && (c.X == cc.MinX || c.X == cc.MaxX || c.Y == cc.MinY || c.Y == cc.MaxY)
}

// Label renders a tile as (row,col-letter), e.g. (5,c).
func Label(c Coord) string {
	return fmt.Sprintf("(%d,%s)", c.Y+1, column(c.X))
}

func column(x int) string {
	if x < 0 {
		return strconv.Itoa(x)
	}
	s := ""
	for {
		s = string(rune('a'+x%26)) + s
		x = x/26 - 1
		if x < 0 {
			return s
		}
	}
}

// Less orders tiles row-major.
func Less(a, b Coord) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

func Sort(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool { return Less(cs[i], cs[j]) })
}

// Shuffle returns a shuffled copy of cs.
func Shuffle(rng *rand.Rand, cs []Coord) []Coord {
	out := append([]Coord(nil), cs...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
