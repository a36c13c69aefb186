package domain

import (
	"math/rand"
	"strings"
)

const acroLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AcroGenerator produces random round acronyms. It is not safe for concurrent
// use; each game drives its generator from a single goroutine.
type AcroGenerator struct {
	minLen int
	maxLen int
	rng    *rand.Rand
}

// NewAcroGenerator creates a generator for acronyms with length in
// [minLen, maxLen] inclusive. Pass a seeded rand.Rand to make output
// deterministic in tests.
func NewAcroGenerator(minLen, maxLen int, rng *rand.Rand) *AcroGenerator {
	if minLen < 1 || maxLen < minLen {
		panic("acronym: invalid length range")
	}
	return &AcroGenerator{
		minLen: minLen,
		maxLen: maxLen,
		rng:    rng,
	}
}

// Generate returns a fresh uppercase acronym
func (g *AcroGenerator) Generate() string {
	length := g.minLen + g.rng.Intn(g.maxLen-g.minLen+1)
	b := make([]byte, length)
	for i := range b {
		b[i] = acroLetters[g.rng.Intn(len(acroLetters))]
	}
	return string(b)
}

// InitialsMatch reports whether the initials of the whitespace-separated
// words in text, case-normalized, spell out acro exactly.
func InitialsMatch(text, acro string) bool {
	words := strings.Fields(text)
	if len(words) != len(acro) {
		return false
	}
	var initials strings.Builder
	for _, word := range words {
		initials.WriteByte(word[0])
	}
	return strings.ToUpper(initials.String()) == acro
}
