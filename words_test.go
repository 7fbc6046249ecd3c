package main

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogEntries(t *testing.T) {
	assert.NotEmpty(t, wordCatalog)

	for category, entries := range wordCatalog {
		assert.NotEmpty(t, entries, "category %q has no entries", category)

		for _, entry := range entries {
			assert.NotEmpty(t, entry.Word)
			assert.NotEmpty(t, entry.Hint)
			assert.NotEqual(t, entry.Word, entry.Decoy, "decoy must differ from the real word")
		}
	}
}

func TestCategoryNames(t *testing.T) {
	names := categoryNames()

	assert.Len(t, names, len(wordCatalog))
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "Animals")

	for _, name := range names {
		assert.True(t, validCategory(name))
	}

	assert.False(t, validCategory("random"))
	assert.False(t, validCategory("Nonsense"))
}

func TestPickWordKnownCategory(t *testing.T) {
	category, entry := pickWord("Animals")

	assert.Equal(t, "Animals", category)
	assert.Contains(t, wordCatalog["Animals"], entry)
}

func TestPickWordRandom(t *testing.T) {
	for i := 0; i < 20; i++ {
		category, entry := pickWord(categoryRandom)

		assert.True(t, validCategory(category))
		assert.Contains(t, wordCatalog[category], entry)
	}
}

func TestRandIndexBounds(t *testing.T) {
	assert.Equal(t, 0, randIndex(0))
	assert.Equal(t, 0, randIndex(1))

	for i := 0; i < 100; i++ {
		n := randIndex(3)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 3)
	}
}
