// Package database composes the in-process key-path cache with a durable
// backend. Reads are served from the cache; every mutation writes through to
// both. The cache is warmed from one full backend scan at startup.
package database

import (
	"context"
	"reflect"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/common/logger"
	"discord-giveaways/internal/database/backend"
	"discord-giveaways/internal/database/keypath"
)

type Manager struct {
	cache   *keypath.Store
	backend backend.Adapter
}

func NewManager(adapter backend.Adapter) *Manager {
	return &Manager{
		cache:   keypath.New(),
		backend: adapter,
	}
}

// Connect warms the cache with one full backend scan, one cache write per
// top-level key.
func (m *Manager) Connect(ctx context.Context) error {
	tree, err := m.backend.All(ctx)
	if err != nil {
		return err
	}
	for key, value := range tree {
		m.cache.Set(key, value)
	}
	logger.Info().Int("keys", len(tree)).Msg("database connected")
	return nil
}

// Get serves from the cache only; no backend round-trip.
func (m *Manager) Get(path string) (interface{}, bool) {
	return m.cache.Get(path)
}

// All returns the full cache snapshot.
func (m *Manager) All() map[string]interface{} {
	return m.cache.All()
}

// Keys enumerates object keys at path, or top-level keys when path is empty.
func (m *Manager) Keys(path string) []string {
	return m.cache.Keys(path)
}

// Set writes value at path to the cache and the backend.
func (m *Manager) Set(ctx context.Context, path string, value interface{}) (interface{}, error) {
	normalized := keypath.Normalize(value)
	m.cache.Set(path, normalized)
	if err := m.backend.Set(ctx, path, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// Delete removes path from the cache and the backend, reporting whether the
// cached value existed.
func (m *Manager) Delete(ctx context.Context, path string) (bool, error) {
	_, existed := m.cache.Get(path)
	m.cache.Delete(path)
	if _, err := m.backend.Delete(ctx, path); err != nil {
		return false, err
	}
	return existed, nil
}

// Add increments the numeric value at path. The type check runs once against
// the cached value; backends receive a plain Set of the result.
func (m *Manager) Add(ctx context.Context, path string, amount float64) (float64, error) {
	current, err := m.currentNumber(path)
	if err != nil {
		return 0, err
	}
	result := current + amount
	if _, err := m.Set(ctx, path, result); err != nil {
		return 0, err
	}
	return result, nil
}

// Subtract decrements the numeric value at path.
func (m *Manager) Subtract(ctx context.Context, path string, amount float64) (float64, error) {
	return m.Add(ctx, path, -amount)
}

// Push appends value to the array at path, creating the array when absent.
func (m *Manager) Push(ctx context.Context, path string, value interface{}) ([]interface{}, error) {
	current, err := m.currentArray(path)
	if err != nil {
		return nil, err
	}
	result := append(current, keypath.Normalize(value))
	if _, err := m.Set(ctx, path, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Pull removes every element of the array at path equal to value.
func (m *Manager) Pull(ctx context.Context, path string, value interface{}) ([]interface{}, error) {
	current, err := m.currentArray(path)
	if err != nil {
		return nil, err
	}

	target := keypath.Normalize(value)
	result := make([]interface{}, 0, len(current))
	for _, element := range current {
		if !reflect.DeepEqual(element, target) {
			result = append(result, element)
		}
	}

	if _, err := m.Set(ctx, path, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Pop removes and returns the last element of the array at path. An empty or
// absent array yields nil without error.
func (m *Manager) Pop(ctx context.Context, path string) (interface{}, error) {
	current, err := m.currentArray(path)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, nil
	}

	last := current[len(current)-1]
	if _, err := m.Set(ctx, path, current[:len(current)-1]); err != nil {
		return nil, err
	}
	return last, nil
}

// Clear drops the cache and the backend contents.
func (m *Manager) Clear(ctx context.Context) error {
	m.cache.Clear()
	return m.backend.Clear(ctx)
}

// Close releases the backend.
func (m *Manager) Close(ctx context.Context) error {
	return m.backend.Close(ctx)
}

// currentNumber reads the cached value at path as a number. Absent values
// count as zero; anything else is an invalid target.
func (m *Manager) currentNumber(path string) (float64, error) {
	value, ok := m.cache.Get(path)
	if !ok || value == nil {
		return 0, nil
	}
	switch n := value.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, apperrors.NewInvalidTargetType(path, "a number")
	}
}

// currentArray reads the cached value at path as an array. Absent values
// count as empty; anything else is an invalid target.
func (m *Manager) currentArray(path string) ([]interface{}, error) {
	value, ok := m.cache.Get(path)
	if !ok || value == nil {
		return []interface{}{}, nil
	}
	array, ok := value.([]interface{})
	if !ok {
		return nil, apperrors.NewInvalidTargetType(path, "an array")
	}
	return array, nil
}
