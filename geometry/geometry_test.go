package geometry

import (
	"math/rand/v2"
	"testing"
)

func TestCornucore_InsideBoardForAllSizes(t *testing.T) {
	for n := 8; n <= 64; n++ {
		cc := NewCornucore(n)
		if cc.MinX < 0 || cc.MinY < 0 || cc.MaxX >= n || cc.MaxY >= n {
			t.Fatalf("size %d: safe zone %+v leaves the board", n, cc)
		}
		if cc.Area() != 25 {
			t.Fatalf("size %d: expected area 25, got %d", n, cc.Area())
		}
		for _, e := range EdgeTiles(n) {
			if cc.Contains(e) {
				t.Fatalf("size %d: edge tile %v inside safe zone", n, e)
			}
		}
	}
}

func TestCornucore_RingAndSanctum(t *testing.T) {
	cc := NewCornucore(10)
	if cc.Center != (Coord{5, 5}) {
		t.Fatalf("Expected center (5,5), got %v", cc.Center)
	}

	ring := cc.Ring()
	if len(ring) != 16 {
		t.Fatalf("Expected 16 ring tiles, got %d", len(ring))
	}
	seen := make(map[Coord]bool)
	for _, c := range ring {
		if seen[c] {
			t.Errorf("Duplicate ring tile %v", c)
		}
		seen[c] = true
		if !cc.OnRing(c) || cc.InSanctum(c) {
			t.Errorf("Ring tile %v misclassified", c)
		}
	}

	sanctum := 0
	for y := cc.MinY; y <= cc.MaxY; y++ {
		for x := cc.MinX; x <= cc.MaxX; x++ {
			if cc.InSanctum(Coord{x, y}) {
				sanctum++
			}
		}
	}
	if sanctum != 9 {
		t.Errorf("Expected 9 sanctum tiles, got %d", sanctum)
	}
}

func TestEdgeTiles(t *testing.T) {
	edges := EdgeTiles(8)
	if len(edges) != 28 {
		t.Fatalf("Expected 28 edge tiles on 8x8, got %d", len(edges))
	}
	for _, e := range edges {
		if e.X != 0 && e.Y != 0 && e.X != 7 && e.Y != 7 {
			t.Errorf("Tile %v is not on the edge", e)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	c := Coord{12, 3}
	got, err := ParseKey(c.Key())
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Errorf("Expected %v, got %v", c, got)
	}
	if _, err := ParseKey("nope"); err == nil {
		t.Error("Expected an error for a malformed key")
	}
}

func TestManhattanAndNeighbors(t *testing.T) {
	if d := Manhattan(Coord{0, 0}, Coord{3, 4}); d != 7 {
		t.Errorf("Expected 7, got %d", d)
	}
	if n := Neighbors4(Coord{0, 0}, 8); len(n) != 2 {
		t.Errorf("Corner should have 2 neighbours, got %d", len(n))
	}
	if n := Neighbors4(Coord{3, 3}, 8); len(n) != 4 {
		t.Errorf("Interior tile should have 4 neighbours, got %d", len(n))
	}
}

func TestLabel(t *testing.T) {
	cases := map[Coord]string{
		{0, 0}:  "(1,a)",
		{2, 4}:  "(5,c)",
		{26, 0}: "(1,aa)",
	}
	for c, want := range cases {
		if got := Label(c); got != want {
			t.Errorf("Label(%v) = %q, want %q", c, got, want)
		}
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	in := EdgeTiles(10)
	out := Shuffle(rng, in)
	if len(out) != len(in) {
		t.Fatalf("Shuffle changed length")
	}
	Sort(out)
	Sort(in)
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("Shuffle lost element %v", in[i])
		}
	}
}
