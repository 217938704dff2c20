package cli

import (
	"fmt"
	"time"

	"Picvault/internal/gallery"
	"Picvault/internal/log"
)

// logNotifier stands in for a media indexer: it records plaintext files
// the vault absorbed or restored.
type logNotifier struct{}

func (logNotifier) PictureHidden(path string) {
	log.Debug("picture absorbed into vault", log.String("path", path))
}

func (logNotifier) PictureRestored(path string) {
	log.Debug("picture restored from vault", log.String("path", path))
}

// session is the model behind the currently running command, so the
// signal handler can close it cleanly.
var session *gallery.Model

func closeSession() {
	if session != nil {
		session.Close()
		session = nil
	}
}

// openModel loads the config and starts the gallery model.
func openModel() (*gallery.Model, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	m, err := gallery.New(cfg)
	if err != nil {
		return nil, err
	}
	m.SetNotifier(logNotifier{})
	session = m
	return m, nil
}

// openUnlocked starts the model and brings it to a usable state,
// prompting for the password when the key file is protected. Up to three
// attempts on a terminal, one otherwise.
func openUnlocked() (*gallery.Model, error) {
	m, err := openModel()
	if err != nil {
		return nil, err
	}

	attempts := 1
	if isTerminal() {
		attempts = 3
	}
	for {
		switch m.LockState() {
		case gallery.NoKey:
			return nil, fmt.Errorf("no key file; run \"picvault init\" first")
		case gallery.KeyInvalid:
			return nil, fmt.Errorf("key file is not usable")
		case gallery.KeyError:
			return nil, fmt.Errorf("key file cannot be read")
		case gallery.Locked, gallery.LockedTimedOut:
			password, perr := readPasswordSecure("Password: ")
			if perr != nil {
				return nil, perr
			}
			if m.Unlock(password) {
				continue
			}
			attempts--
			if attempts <= 0 {
				return nil, fmt.Errorf("wrong password")
			}
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Wrong password, try again")
		case gallery.Decrypting, gallery.GeneratingKey:
			waitIdle(m)
		case gallery.Ready, gallery.KeyNotEncrypted:
			waitIdle(m)
			return m, nil
		default:
			return nil, fmt.Errorf("unexpected state %v", m.LockState())
		}
	}
}

// waitIdle blocks until the model has no background work in flight.
func waitIdle(m *gallery.Model) {
	changed := make(chan struct{}, 1)
	m.OnChange(func(gallery.Change) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	for m.Busy() || m.LockState() == gallery.Decrypting {
		select {
		case <-changed:
		case <-time.After(100 * time.Millisecond):
		}
	}
}
