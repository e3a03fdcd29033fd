package randutil

import (
	"hash/fnv"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// ForTable derives an independent source for one table. Two tables on the
// same seeded server never share a dice stream, and a table's rolls do not
// depend on what other tables have rolled.
func ForTable(seed int64, tableID string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tableID))
	u := uint64(seed) ^ mix(h.Sum64())
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
