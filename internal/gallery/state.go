package gallery

// LockState is the externally visible state of the gallery key machine.
type LockState int

const (
	// NoKey means no key file exists; the gallery cannot operate until
	// one is generated.
	NoKey LockState = iota

	// KeyNotEncrypted means the key file is usable without a password.
	// The gallery treats it as permanently unlocked.
	KeyNotEncrypted

	// Locked means an encrypted key file exists and no password has been
	// accepted yet, or the gallery was explicitly locked.
	Locked

	// LockedTimedOut is Locked entered by an inactivity timeout rather
	// than a user action. The distinction only matters to the caller.
	LockedTimedOut

	// KeyInvalid means the key file exists but cannot be parsed.
	KeyInvalid

	// KeyError means the key file could not be read at all.
	KeyError

	// GeneratingKey means a key generation task is in flight.
	GeneratingKey

	// Decrypting means the key was accepted and the unlock scan is
	// rebuilding the collection.
	Decrypting

	// Ready means the key is available and the collection reflects the
	// vault directory.
	Ready
)

func (s LockState) String() string {
	switch s {
	case NoKey:
		return "no-key"
	case KeyNotEncrypted:
		return "key-not-encrypted"
	case Locked:
		return "locked"
	case LockedTimedOut:
		return "locked-timed-out"
	case KeyInvalid:
		return "key-invalid"
	case KeyError:
		return "key-error"
	case GeneratingKey:
		return "generating-key"
	case Decrypting:
		return "decrypting"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Unlocked reports whether decrypted content may be held in memory.
func (s LockState) Unlocked() bool {
	switch s {
	case KeyNotEncrypted, Decrypting, Ready:
		return true
	default:
		return false
	}
}
