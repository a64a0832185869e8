package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawWinnersCardinality(t *testing.T) {
	entries := []string{"a", "b", "c", "d", "e"}

	winners := drawWinners(entries, 3)
	assert.Len(t, winners, 3)

	seen := make(map[string]bool)
	for _, w := range winners {
		assert.False(t, seen[w], "winner %s drawn twice", w)
		seen[w] = true
		assert.Contains(t, entries, w)
	}
}

func TestDrawWinnersCapsAtPool(t *testing.T) {
	winners := drawWinners([]string{"a", "b"}, 10)
	assert.ElementsMatch(t, []string{"a", "b"}, winners)
}

func TestDrawWinnersEmptyPool(t *testing.T) {
	assert.Empty(t, drawWinners(nil, 3))
	assert.Empty(t, drawWinners([]string{"a"}, 0))
}
