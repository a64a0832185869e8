package service

import (
	"fmt"
	"sync"
)

// recordLocks serializes lifecycle mutations per giveaway record. Two
// interactions against the same record re-read, mutate and write back; the
// per-record mutex closes the lost-update window between those steps.
type recordLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for one (guild, id) pair and returns its unlock.
func (r *recordLocks) lock(guildID string, id int) func() {
	key := fmt.Sprintf("%s:%d", guildID, id)

	r.mu.Lock()
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
