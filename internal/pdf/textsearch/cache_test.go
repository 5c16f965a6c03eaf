package textsearch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/assessment-forms/internal/pdf/pdftest"
)

func TestCacheReusesIndexes(t *testing.T) {
	c := NewCache(0)
	doc := sampleDoc()

	first, err := c.Index(doc)
	require.NoError(t, err)
	second, err := c.Index(append([]byte(nil), doc...))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, CacheStats{Hits: 1, Misses: 1, Size: 1}, c.Stats())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	a := sampleDoc()
	b := pdftest.Build(pdftest.Page{Width: 100, Height: 100})
	d := pdftest.Build(pdftest.Page{Width: 200, Height: 200})

	for _, doc := range [][]byte{a, b, a, d} {
		_, err := c.Index(doc)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Stats().Size)

	// b was least recently used
	_, err := c.Index(a)
	require.NoError(t, err)
	_, err = c.Index(b)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Hits: 2, Misses: 4, Size: 2}, c.Stats())
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	c := NewCache(4)
	_, err := c.Index([]byte("not a pdf"))
	assert.Error(t, err)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCacheConcurrentUse(t *testing.T) {
	c := NewCache(4)
	doc := sampleDoc()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := c.Index(doc)
			if assert.NoError(t, err) {
				_, ok := ix.Find("a phobic", true, 0)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Stats().Size)
}
