package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "cat", DefaultTitle("/home/user/Pictures/cat.jpg"))
	assert.Equal(t, "archive.tar", DefaultTitle("archive.tar.gz"))
	assert.Equal(t, "noext", DefaultTitle("noext"))
	assert.Equal(t, "Picture", DefaultTitle(""))
	assert.Equal(t, ".hidden", DefaultTitle("/tmp/.hidden"))
}

func TestDisplayTitleFallback(t *testing.T) {
	p := &Picture{OriginalPath: "/p/sunset.jpg"}
	assert.Equal(t, "sunset", p.DisplayTitle())
	p.Title = "Evening"
	assert.Equal(t, "Evening", p.DisplayTitle())
}

func TestOrderingMostRecentFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := &Picture{ModTime: base, arrival: 0}
	newer := &Picture{ModTime: base.Add(time.Hour), arrival: 1}

	assert.True(t, newer.lessThan(older))
	assert.False(t, older.lessThan(newer))
}

func TestOrderingTieBreaksOnArrival(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &Picture{ModTime: base, arrival: 3}
	second := &Picture{ModTime: base, arrival: 7}

	assert.True(t, first.lessThan(second))
	assert.False(t, second.lessThan(first))
	// Irreflexive, as a strict weak ordering requires.
	assert.False(t, first.lessThan(first))
}

func TestInsertSorted(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration, arrival uint64) *Picture {
		return &Picture{ModTime: base.Add(offset), arrival: arrival}
	}

	var list []*Picture
	var i int
	list, i = insertSorted(list, mk(0, 0))
	assert.Equal(t, 0, i)
	list, i = insertSorted(list, mk(2*time.Hour, 1))
	assert.Equal(t, 0, i, "newest goes first")
	list, i = insertSorted(list, mk(time.Hour, 2))
	assert.Equal(t, 1, i, "middle timestamp goes between")
	list, i = insertSorted(list, mk(0, 3))
	assert.Equal(t, 3, i, "equal timestamp goes after earlier arrival")

	for j := 0; j+1 < len(list); j++ {
		assert.False(t, list[j+1].lessThan(list[j]), "list out of order at %d", j)
	}
}

func TestIndexByName(t *testing.T) {
	list := []*Picture{
		{Path: "/vault/AAAA000011112222"},
		{Path: "/vault/BBBB000011112222"},
	}
	assert.Equal(t, 1, indexByName(list, "BBBB000011112222"))
	assert.Equal(t, -1, indexByName(list, "missing"))
}
