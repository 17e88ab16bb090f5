package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"llm.provider": "openai"}, map[string]any{"ingest.concurrency": int64(4)})

	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, 4, store.GetInt("ingest.concurrency"))
	assert.Equal(t, []string{"ingest.concurrency", "llm.provider"}, store.Keys())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Coercion(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"int":       7,
		"float":     float64(2.9),
		"int_str":   " 12 ",
		"bad_int":   "twelve",
		"bool":      true,
		"bool_str":  "true",
		"list":      []any{"a", 1, "b"},
		"list_str":  "a, b,,c",
		"strings":   []string{"x"},
		"not_a_str": 5,
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"int", store.GetInt("int"), 7},
		{"float truncates", store.GetInt("float"), 2},
		{"int string", store.GetInt("int_str"), 12},
		{"bad int string", store.GetInt("bad_int"), 0},
		{"missing int", store.GetInt("missing"), 0},
		{"bool", store.GetBool("bool"), true},
		{"bool string", store.GetBool("bool_str"), true},
		{"missing bool", store.GetBool("missing"), false},
		{"any list", store.GetStringSlice("list"), []string{"a", "b"}},
		{"comma list", store.GetStringSlice("list_str"), []string{"a", "b", "c"}},
		{"string list", store.GetStringSlice("strings"), []string{"x"}},
		{"non-string", store.GetString("not_a_str"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SetAndSave(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("pipeline.guide_text", "guia"))
	require.NoError(t, store.Save())
	require.NoError(t, store.Load())

	assert.Equal(t, "guia", store.GetString("pipeline.guide_text"))
	assert.Equal(t, 1, store.Saves())
}

func TestConfigStore_Concurrent(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("k", n)
			_ = store.GetInt("k")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("k")
	assert.True(t, ok)
}
