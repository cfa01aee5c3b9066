package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketCode_Shape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateTicketCode()
		require.NoError(t, err)
		assert.Len(t, code, codeLength)

		seen := map[rune]struct{}{}
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
			_, dup := seen[r]
			assert.False(t, dup, "characters within a code must be distinct: %s", code)
			seen[r] = struct{}{}
		}
	}
}

func TestGenerateTicketCode_NoVowelsOrAmbiguousLetters(t *testing.T) {
	for _, forbidden := range []string{"A", "E", "I", "O", "U"} {
		assert.NotContains(t, codeAlphabet, forbidden)
	}
}

func TestGenerateTicketCodeNotIn_AvoidsExcluded(t *testing.T) {
	excluded := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code, err := generateTicketCodeNotIn(excluded)
		require.NoError(t, err)
		_, taken := excluded[code]
		require.False(t, taken)
		excluded[code] = struct{}{}
	}
	assert.Len(t, excluded, 50)

	// All drawn codes stay inside the alphabet.
	for code := range excluded {
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r))
		}
	}
}
