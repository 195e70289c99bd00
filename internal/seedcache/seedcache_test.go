package seedcache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_MissingEntry(t *testing.T) {
	c := New()
	_, ok := c.Get("rAddress")
	assert.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	c := New()
	c.Put("rAddress", []byte("entropy"))

	entropy, ok := c.Get("rAddress")
	assert.True(t, ok)
	assert.Equal(t, []byte("entropy"), entropy)
}

func TestPut_OverwritesExisting(t *testing.T) {
	c := New()
	c.Put("rAddress", []byte("old"))
	c.Put("rAddress", []byte("new"))

	entropy, ok := c.Get("rAddress")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), entropy)
}

func TestEvict_RemovesEntry(t *testing.T) {
	c := New()
	c.Put("rAddress", []byte("entropy"))
	c.Evict("rAddress")

	_, ok := c.Get("rAddress")
	assert.False(t, ok)
}

func TestEvict_NonexistentKeyIsNoOp(t *testing.T) {
	c := New()
	assert.NotPanics(t, func() {
		c.Evict("never-existed")
	})
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			addr := "rAddr"
			c.Put(addr, []byte{byte(n)})
			c.Get(addr)
		}(i)
	}
	wg.Wait()
}
