// Package randsrc hands out seeded random number generators.
//
// Every stochastic decision in a render draws from a generator created here,
// so a seed fully determines the output.  Generators are not safe for
// concurrent use; each unit of work gets its own stream.
package randsrc

import "math/rand/v2"

// streamMix decorrelates neighbouring stream numbers before they seed PCG.
const streamMix = 0x9e3779b97f4a7c15

func New(seed uint64) *rand.Rand {
	return Stream(seed, 0)
}

// Stream returns the generator for one numbered stream under seed.  Distinct
// (seed, stream) pairs yield independent sequences.
func Stream(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, splitmix(stream^streamMix)))
}

// Key folds several numbers into one stream number.  Every bit of every
// part reaches the result.
func Key(parts ...uint64) uint64 {
	var k uint64
	for _, p := range parts {
		k = splitmix(k ^ p)
	}
	return k
}

// splitmix is the SplitMix64 finalizer.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
