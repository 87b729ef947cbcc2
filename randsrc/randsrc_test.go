package randsrc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func draw(n int, seed, stream uint64) []float64 {
	rng := Stream(seed, stream)
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}

func TestStreamIsDeterministic(t *testing.T) {
	if diff := cmp.Diff(draw(16, 42, 3), draw(16, 42, 3)); diff != "" {
		t.Errorf("Same seed and stream gave different draws; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(draw(16, 42, 0), func() []float64 {
		rng := New(42)
		out := make([]float64, 16)
		for i := range out {
			out[i] = rng.Float64()
		}
		return out
	}()); diff != "" {
		t.Errorf("New(seed) isn't stream 0; diff (-got +want)\n%s", diff)
	}
}

func TestStreamsDiffer(t *testing.T) {
	base := draw(16, 42, 0)
	for _, tc := range []struct{ seed, stream uint64 }{{42, 1}, {43, 0}, {42, 1 << 32}} {
		if cmp.Equal(draw(16, tc.seed, tc.stream), base) {
			t.Errorf("Stream(%d, %d) repeats Stream(42, 0)", tc.seed, tc.stream)
		}
	}
}

func TestFloatsInUnitInterval(t *testing.T) {
	for _, v := range draw(10000, 7, 7) {
		if v < 0 || v >= 1 {
			t.Fatalf("Draw %v is outside [0, 1)", v)
		}
	}
}

func TestKeyUsesEveryBit(t *testing.T) {
	base := Key(3, 1)
	testCases := []struct {
		desc  string
		parts []uint64
	}{
		{desc: "high bits of first part", parts: []uint64{3 + 1<<32, 1}},
		{desc: "top bit of first part", parts: []uint64{3 | 1<<63, 1}},
		{desc: "second part", parts: []uint64{3, 2}},
		{desc: "swapped parts", parts: []uint64{1, 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if got := Key(tc.parts...); got == base {
				t.Errorf("Key(%v) = Key(3, 1) = %#x", tc.parts, got)
			}
		})
	}

	if Key(3, 1) != base {
		t.Errorf("Key isn't deterministic")
	}
}
