package gallery

import (
	"github.com/shirou/gopsutil/v4/mem"

	"Picvault/internal/log"
)

// fallbackCacheBudget is used when total system memory cannot be
// determined: the budget for 4 GB of RAM.
const fallbackCacheBudget = 4 * 5 * 1024 * 1024

// DefaultCacheBudget sizes the plaintext cache at 5 MB per GB of system
// RAM.
func DefaultCacheBudget() int64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Total == 0 {
		log.Warn("cannot determine system memory, using fallback cache budget",
			log.Err(err))
		return fallbackCacheBudget
	}
	return int64(vm.Total/1024) * 5
}

// decryptedTotal sums the cached plaintext sizes across the collection.
func decryptedTotal(list []*Picture) int64 {
	var total int64
	for _, p := range list {
		total += int64(len(p.decrypted))
	}
	return total
}

// decryptedCount counts entries holding cached plaintext.
func decryptedCount(list []*Picture) int {
	n := 0
	for _, p := range list {
		if p.decrypted != nil {
			n++
		}
	}
	return n
}

// tooMuchDecrypted reports whether the cache must shrink. The entry last
// touched always stays, so a single oversized picture never thrashes.
func tooMuchDecrypted(list []*Picture, budget int64) bool {
	return decryptedCount(list) > 1 && decryptedTotal(list) > budget
}

// circularDistance measures how far apart two positions are when the
// collection is browsed as a ring, which is how a gallery flick view
// moves.
func circularDistance(i, j, n int) int {
	d := i - j
	if d < 0 {
		d = -d
	}
	if n-d < d {
		d = n - d
	}
	return d
}

// dropFurthest returns the index of the cached entry circularly furthest
// from the last touched position, or -1 when nothing can be dropped. The
// last touched entry itself is never a candidate.
func dropFurthest(list []*Picture, lastTouched int) int {
	best, bestDist := -1, -1
	n := len(list)
	for i, p := range list {
		if i == lastTouched || p.decrypted == nil {
			continue
		}
		if d := circularDistance(i, lastTouched, n); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
