// Package simhash computes 64-bit SimHash fingerprints, used to tell when
// a scrolled results feed has stopped changing.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Sum computes the SimHash of a set of features. Each feature is hashed
// with FNV-64a and votes on every bit; ties resolve to 0. No features
// yield 0.
func Sum(features []string) uint64 {
	if len(features) == 0 {
		return 0
	}

	var votes [64]int
	h := fnv.New64a()
	for _, f := range features {
		h.Reset()
		h.Write([]byte(f))
		sum := h.Sum64()
		for i := range votes {
			if sum&(1<<uint(i)) != 0 {
				votes[i]++
			} else {
				votes[i]--
			}
		}
	}

	var fp uint64
	for i, v := range votes {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Text fingerprints text using its whitespace-separated words as features.
func Text(text string) uint64 {
	return Sum(strings.Fields(text))
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether a and b differ in at most threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
