package service

import (
	"math/rand"
)

// drawWinners picks up to winnersCount distinct winners from entries. The
// pool is Fisher-Yates shuffled, then winners are drawn by repeated uniform
// index picks, skipping duplicates. Once every entrant has been drawn the
// loop stops, so winnersCount greater than the pool simply makes everyone a
// winner. Zero entries yields zero winners.
func drawWinners(entries []string, winnersCount int) []string {
	if len(entries) == 0 || winnersCount <= 0 {
		return []string{}
	}

	shuffled := make([]string, len(entries))
	copy(shuffled, entries)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	if winnersCount > len(shuffled) {
		winnersCount = len(shuffled)
	}

	winners := make([]string, 0, winnersCount)
	picked := make(map[string]struct{}, winnersCount)
	for len(winners) < winnersCount {
		candidate := shuffled[rand.Intn(len(shuffled))]
		if _, dup := picked[candidate]; dup {
			continue
		}
		picked[candidate] = struct{}{}
		winners = append(winners, candidate)
	}

	return winners
}
