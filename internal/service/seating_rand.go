package service

import "time"

// mulberry32 is a tiny deterministic PRNG. Plans generated from the same
// seed must reproduce bit for bit across runs and platforms, so all state
// is explicit 32-bit arithmetic.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

// next returns the next value in [0, 1).
func (m *mulberry32) next() float64 {
	m.state += 0x6D2B79F5
	z := m.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// intn returns a value in [0, n).
func (m *mulberry32) intn(n int) int {
	return int(m.next() * float64(n))
}

// weeklySeed derives the generation seed from the ISO week so a plan
// regenerated within the same week lands on the same arrangement. The
// modifier lets a teacher force a reshuffle without waiting a week.
func weeklySeed(at time.Time, modifier int) uint32 {
	year, week := at.ISOWeek()
	return uint32(year*100 + week + modifier)
}

// shuffle applies a Fisher-Yates pass driven by the provided stream.
func shuffle[T any](items []T, rng *mulberry32) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
