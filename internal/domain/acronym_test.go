package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcroGenerator_Generate(t *testing.T) {
	t.Parallel()

	gen := NewAcroGenerator(3, 6, rand.New(rand.NewSource(42)))

	for i := 0; i < 200; i++ {
		acro := gen.Generate()
		require.GreaterOrEqual(t, len(acro), 3)
		require.LessOrEqual(t, len(acro), 6)
		for _, c := range acro {
			require.True(t, c >= 'A' && c <= 'Z', "unexpected character %q in %q", c, acro)
		}
	}
}

func TestAcroGenerator_FixedLength(t *testing.T) {
	t.Parallel()

	gen := NewAcroGenerator(4, 4, rand.New(rand.NewSource(1)))

	for i := 0; i < 50; i++ {
		assert.Len(t, gen.Generate(), 4)
	}
}

func TestAcroGenerator_Deterministic(t *testing.T) {
	t.Parallel()

	first := NewAcroGenerator(3, 6, rand.New(rand.NewSource(7))).Generate()
	second := NewAcroGenerator(3, 6, rand.New(rand.NewSource(7))).Generate()

	assert.Equal(t, first, second)
}

func TestAcroGenerator_InvalidRange(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewAcroGenerator(6, 3, rand.New(rand.NewSource(1)))
	})
}

func TestInitialsMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		acro string
		want bool
	}{
		{"exact match", "big angry turtles", "BAT", true},
		{"mixed case", "Big Angry Turtles", "BAT", true},
		{"surrounding whitespace", "  big angry turtles  ", "BAT", true},
		{"multiple spaces between words", "big   angry     turtles", "BAT", true},
		{"wrong initials", "big happy turtles", "BAT", false},
		{"too few words", "big turtles", "BAT", false},
		{"too many words", "big angry turtles dance", "BAT", false},
		{"single word", "zap", "Z", true},
		{"empty text", "", "BAT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InitialsMatch(tt.text, tt.acro))
		})
	}
}
