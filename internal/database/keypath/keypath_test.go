package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetInGetIn(t *testing.T) {
	tree := map[string]interface{}{}

	SetIn(tree, Split("guild1.giveaways"), []interface{}{"a"})
	SetIn(tree, Split("guild1.settings.locale"), "en")
	SetIn(tree, Split("counter"), float64(3))

	value, ok := GetIn(tree, Split("guild1.giveaways"))
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a"}, value)

	value, ok = GetIn(tree, Split("guild1.settings.locale"))
	require.True(t, ok)
	assert.Equal(t, "en", value)

	value, ok = GetIn(tree, Split("counter"))
	require.True(t, ok)
	assert.Equal(t, float64(3), value)
}

func TestGetInAbsentPath(t *testing.T) {
	tree := map[string]interface{}{
		"guild1": map[string]interface{}{"settings": map[string]interface{}{}},
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "missing top key", path: "guild2"},
		{name: "missing nested key", path: "guild1.settings.locale"},
		{name: "path through leaf", path: "guild1.settings.locale.deep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := GetIn(tree, Split(tt.path))
			assert.False(t, ok)
		})
	}
}

func TestSetInOverwritesNonMapSegment(t *testing.T) {
	tree := map[string]interface{}{"guild1": "scalar"}

	SetIn(tree, Split("guild1.settings.locale"), "en")

	value, ok := GetIn(tree, Split("guild1.settings.locale"))
	require.True(t, ok)
	assert.Equal(t, "en", value)
}

func TestDeleteInCreatesIntermediates(t *testing.T) {
	// Walking an absent path on delete leaves empty intermediate maps
	// behind. Downstream code depends on this shape, so it is pinned here.
	tree := map[string]interface{}{}

	DeleteIn(tree, Split("guild1.settings.locale"))

	value, ok := GetIn(tree, Split("guild1.settings"))
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{}, value)
}

func TestDeleteInRemovesLeaf(t *testing.T) {
	tree := map[string]interface{}{}
	SetIn(tree, Split("guild1.settings.locale"), "en")
	SetIn(tree, Split("guild1.settings.tz"), "UTC")

	DeleteIn(tree, Split("guild1.settings.locale"))

	_, ok := GetIn(tree, Split("guild1.settings.locale"))
	assert.False(t, ok)
	value, ok := GetIn(tree, Split("guild1.settings.tz"))
	require.True(t, ok)
	assert.Equal(t, "UTC", value)
}

func TestNormalize(t *testing.T) {
	type record struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags"`
	}

	normalized := Normalize(record{ID: 7, Tags: []string{"x"}})

	assert.Equal(t, map[string]interface{}{
		"id":   float64(7),
		"tags": []interface{}{"x"},
	}, normalized)
}

func TestStoreRoundTrip(t *testing.T) {
	s := New()

	s.Set("guild1.giveaways", []interface{}{"a", "b"})
	s.Set("guild2.giveaways", []interface{}{})

	value, ok := s.Get("guild1.giveaways")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a", "b"}, value)

	assert.ElementsMatch(t, []string{"guild1", "guild2"}, s.Keys(""))
	assert.ElementsMatch(t, []string{"giveaways"}, s.Keys("guild1"))
	assert.Nil(t, s.Keys("guild1.giveaways"))
	assert.Nil(t, s.Keys("missing"))

	s.Delete("guild1.giveaways")
	_, ok = s.Get("guild1.giveaways")
	assert.False(t, ok)

	s.Clear()
	assert.Empty(t, s.All())
}

func TestStoreAllIsSnapshot(t *testing.T) {
	s := New()
	s.Set("guild1", map[string]interface{}{"n": float64(1)})

	snapshot := s.All()
	delete(snapshot, "guild1")

	_, ok := s.Get("guild1")
	assert.True(t, ok)
}
