package render

const defaultSeed = 42

// SeedFromID derives the jitter seed for a shape: the first eight decimal
// digits found in its id, or 42 when there are none. Every client computes
// the same seed for the same shape, so hand-drawn strokes look identical
// across the room.
func SeedFromID(id string) int64 {
	var seed int64
	n := 0
	for _, r := range id {
		if r < '0' || r > '9' {
			continue
		}
		seed = seed*10 + int64(r-'0')
		n++
		if n == 8 {
			break
		}
	}
	if n == 0 || seed == 0 {
		return defaultSeed
	}
	return seed
}

// random is a Park-Miller minimal standard generator. The sequence is fixed
// by the algorithm itself, which keeps drawables reproducible everywhere.
type random struct {
	state int64
}

const (
	pmModulus    = 2147483647
	pmMultiplier = 48271
)

func newRandom(seed int64) *random {
	s := seed % pmModulus
	if s <= 0 {
		s += pmModulus - 1
	}
	return &random{state: s}
}

// next returns a value in (0, 1).
func (r *random) next() float64 {
	r.state = r.state * pmMultiplier % pmModulus
	return float64(r.state) / pmModulus
}
