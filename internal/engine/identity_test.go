package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolverSeedAndRuntime(t *testing.T) {
	r := NewResolver(map[string]map[string]string{
		TypeSite: {"7": "dc-legacy"},
	})

	key, ok := r.Resolve(TypeSite, 7)
	assert.True(t, ok)
	assert.Equal(t, "dc-legacy", key)

	_, ok = r.Resolve(TypeSite, 8)
	assert.False(t, ok)

	r.Record(TypeSite, 8, "dc-new")
	key, ok = r.Resolve(TypeSite, 8)
	assert.True(t, ok)
	assert.Equal(t, "dc-new", key)
}

func TestResolverNeverOverwrites(t *testing.T) {
	r := NewResolver(map[string]map[string]string{
		TypeSite: {"1": "seeded"},
	})

	r.Record(TypeSite, 1, "clobbered")
	key, _ := r.Resolve(TypeSite, 1)
	assert.Equal(t, "seeded", key)

	r.Record(TypeTenant, 1, "first")
	r.Record(TypeTenant, 1, "second")
	key, _ = r.Resolve(TypeTenant, 1)
	assert.Equal(t, "first", key)
}

func TestResolverZeroIDIsNotFound(t *testing.T) {
	r := NewResolver(nil)
	r.Record(TypeSite, 0, "nothing")
	_, ok := r.Resolve(TypeSite, 0)
	assert.False(t, ok)
}
