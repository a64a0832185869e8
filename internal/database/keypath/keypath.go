// Package keypath implements dotted key-path access ("guild123.giveaways")
// over nested map[string]interface{} trees, plus the in-process Store used as
// the read-through cache in front of the durable backends. Absence is
// reported, never signalled as an error.
package keypath

import (
	"encoding/json"
	"strings"
	"sync"
)

// Normalize round-trips value through JSON so every stored tree uses the same
// shapes (map[string]interface{}, []interface{}, float64) regardless of the
// Go type the caller handed in.
func Normalize(value interface{}) interface{} {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return value
	}
	return out
}

// Split breaks a dotted path into its segments.
func Split(path string) []string {
	return strings.Split(path, ".")
}

// GetIn walks tree along segments and returns the value at the final segment.
func GetIn(tree map[string]interface{}, segments []string) (interface{}, bool) {
	current, ok := tree[segments[0]]
	if !ok {
		return nil, false
	}

	for _, segment := range segments[1:] {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// SetIn assigns value at segments, creating intermediate maps for every
// missing or non-map segment along the way. The whole top-level subtree is
// re-stored into tree, so writes are at first-segment granularity.
func SetIn(tree map[string]interface{}, segments []string, value interface{}) {
	if len(segments) == 1 {
		tree[segments[0]] = value
		return
	}

	top, ok := tree[segments[0]].(map[string]interface{})
	if !ok {
		top = make(map[string]interface{})
	}

	node := top
	for _, segment := range segments[1 : len(segments)-1] {
		next, ok := node[segment].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			node[segment] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value

	tree[segments[0]] = top
}

// DeleteIn removes the value at segments. Walking a path that does not exist
// still inserts empty intermediate maps; callers relying on a pristine tree
// should check presence first.
func DeleteIn(tree map[string]interface{}, segments []string) {
	if len(segments) == 1 {
		delete(tree, segments[0])
		return
	}

	top, ok := tree[segments[0]].(map[string]interface{})
	if !ok {
		top = make(map[string]interface{})
	}

	node := top
	for _, segment := range segments[1 : len(segments)-1] {
		next, ok := node[segment].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			node[segment] = next
		}
		node = next
	}
	delete(node, segments[len(segments)-1])

	tree[segments[0]] = top
}

// Store is the in-process cache: top-level keys mapped to nested trees.
type Store struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

func New() *Store {
	return &Store{data: make(map[string]interface{})}
}

// Get returns the value at path; the second return value reports presence.
func (s *Store) Get(path string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GetIn(s.data, Split(path))
}

// Set assigns value at path.
func (s *Store) Set(path string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	SetIn(s.data, Split(path), value)
}

// Delete removes the value at path.
func (s *Store) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	DeleteIn(s.data, Split(path))
}

// All returns a snapshot of the top-level mapping.
func (s *Store) All() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]interface{}, len(s.data))
	for key, value := range s.data {
		snapshot[key] = value
	}
	return snapshot
}

// Keys enumerates the object keys at path, or the top-level keys when path is
// empty. A missing or non-object path yields nil.
func (s *Store) Keys(path string) []string {
	var node map[string]interface{}
	if path == "" {
		s.mu.RLock()
		node = s.data
		defer s.mu.RUnlock()
	} else {
		value, ok := s.Get(path)
		if !ok {
			return nil
		}
		node, ok = value.(map[string]interface{})
		if !ok {
			return nil
		}
	}

	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	return keys
}

// Clear drops everything.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]interface{})
}
