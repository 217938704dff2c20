package gallery

// Change identifies one observable model property. Values double as bit
// positions in the coalescing mask, and their order is the emission
// order within a flush.
type Change int

const (
	ChangeCount Change = iota
	ChangeBusy
	ChangeKeyAvailable
	ChangeLockState
	ChangeThumbnailSize
	ChangeMayHaveEncryptedPictures

	changeCount
)

func (c Change) String() string {
	switch c {
	case ChangeCount:
		return "count"
	case ChangeBusy:
		return "busy"
	case ChangeKeyAvailable:
		return "key-available"
	case ChangeLockState:
		return "lock-state"
	case ChangeThumbnailSize:
		return "thumbnail-size"
	case ChangeMayHaveEncryptedPictures:
		return "may-have-encrypted-pictures"
	default:
		return "unknown"
	}
}

// signalQueue coalesces change notifications. Each change is recorded at
// most once per flush no matter how many times the model queues it.
type signalQueue struct {
	pending uint
}

func (q *signalQueue) queue(c Change) {
	q.pending |= 1 << uint(c)
}

// flush emits pending changes in declaration order. Each bit is cleared
// before its emit call, so a handler that mutates the model queues fresh
// bits for the next flush instead of losing them.
func (q *signalQueue) flush(emit func(Change)) {
	for c := Change(0); c < changeCount; c++ {
		bit := uint(1) << uint(c)
		if q.pending&bit != 0 {
			q.pending &^= bit
			emit(c)
		}
	}
}
