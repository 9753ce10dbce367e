package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"id":      float64(12),
		"name":    "eth0",
		"enabled": true,
		"mtu":     nil,
	}

	assert.Equal(t, 12, rec.ID())
	assert.Equal(t, "eth0", rec.Str("name"))
	assert.Equal(t, 0, rec.Int("mtu"))
	assert.Equal(t, 0, rec.Int("missing"))
	assert.True(t, rec.Has("name"))
	assert.False(t, rec.Has("mtu"))

	enabled, ok := rec.Bool("enabled")
	assert.True(t, ok)
	assert.True(t, enabled)
	_, ok = rec.Bool("missing")
	assert.False(t, ok)
}

func TestRecordList(t *testing.T) {
	rec := Record{
		"a_terminations": []any{
			map[string]any{"object_type": "dcim.interface", "object_id": float64(3)},
		},
	}

	terms := rec.List("a_terminations")
	require.Len(t, terms, 1)
	assert.Equal(t, "dcim.interface", terms[0].Str("object_type"))
	assert.Equal(t, 3, terms[0].Int("object_id"))

	assert.Nil(t, rec.List("b_terminations"))
}
