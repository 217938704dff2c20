package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cachedList(sizes ...int) []*Picture {
	list := make([]*Picture, len(sizes))
	for i, n := range sizes {
		list[i] = &Picture{}
		if n > 0 {
			list[i].decrypted = make([]byte, n)
		}
	}
	return list
}

func TestDefaultCacheBudgetPositive(t *testing.T) {
	assert.Positive(t, DefaultCacheBudget())
}

func TestCircularDistance(t *testing.T) {
	assert.Equal(t, 0, circularDistance(3, 3, 10))
	assert.Equal(t, 1, circularDistance(0, 9, 10), "ends are adjacent on the ring")
	assert.Equal(t, 5, circularDistance(0, 5, 10))
	assert.Equal(t, 2, circularDistance(8, 0, 10))
}

func TestTooMuchDecrypted(t *testing.T) {
	// A single oversized entry never triggers shrinking.
	assert.False(t, tooMuchDecrypted(cachedList(1000, 0, 0), 100))
	assert.False(t, tooMuchDecrypted(cachedList(50, 40, 0), 100))
	assert.True(t, tooMuchDecrypted(cachedList(80, 80, 0), 100))
}

func TestDropFurthestKeepsLastTouched(t *testing.T) {
	list := cachedList(10, 10, 10, 10, 10, 10)

	// Touching index 0, the circularly furthest cached entry is 3.
	assert.Equal(t, 3, dropFurthest(list, 0))

	// The last touched entry is never dropped even if it is the only
	// other candidate.
	list = cachedList(10, 0, 0, 0, 0, 10)
	assert.Equal(t, 0, dropFurthest(list, 5))
	list = cachedList(0, 0, 0, 0, 0, 10)
	assert.Equal(t, -1, dropFurthest(list, 5))
}

func TestEvictionInvariant(t *testing.T) {
	// Shrinking by repeatedly dropping the furthest entry terminates
	// and leaves the last touched entry cached.
	list := cachedList(60, 60, 60, 60, 60)
	last := 2
	budget := int64(100)
	for tooMuchDecrypted(list, budget) {
		i := dropFurthest(list, last)
		if i < 0 {
			break
		}
		list[i].decrypted = nil
	}
	assert.NotNil(t, list[last].decrypted)
	assert.LessOrEqual(t, decryptedCount(list), 2)
}
