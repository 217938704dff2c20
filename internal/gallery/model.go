package gallery

import (
	"image"
	"sync"

	"github.com/google/uuid"

	"Picvault/internal/config"
	"Picvault/internal/crypto"
	"Picvault/internal/errors"
	"Picvault/internal/fileops"
	"Picvault/internal/log"
	"Picvault/internal/task"
)

// MediaIndexNotifier is told about plaintext files appearing and
// disappearing so an external media index can be kept honest. Calls
// arrive on the model's control goroutine and must not call back into
// the model.
type MediaIndexNotifier interface {
	PictureHidden(sourcePath string)
	PictureRestored(destPath string)
}

// Model is the encrypted gallery. All state is owned by a single control
// goroutine; public methods marshal onto it and block until handled, so
// the model is safe for concurrent use. Observable changes are coalesced
// and delivered once per handled event, in a fixed priority order.
type Model struct {
	cfg       *config.Config
	pool      *task.Pool
	notifier  MediaIndexNotifier
	listeners []func(Change)

	events    chan func()
	closed    chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once

	kp          *crypto.KeyPair
	lockState   LockState
	thumbSize   image.Point
	cacheBudget int64
	mayHave     bool
	lastBusy    bool

	entries     []*Picture
	ids         []string // parallel to entries
	arrival     uint64
	lastTouched int

	signals signalQueue

	genTask    *generateKeyTask
	checkTask  *checkVaultTask
	unlockTask *unlockScanTask
	saveTask   *saveOrderTask
	encTasks   map[*encryptTask]struct{}
	decTasks   map[string]*decryptTask
	imgTasks   map[string]*imageRequestTask
	imgQueue   map[string][]*imageRequest
}

// New starts a model over the configured vault. The vault directory is
// created private if missing, the key file is probed, and a background
// check for pre-existing containers is kicked off.
func New(cfg *config.Config) (*Model, error) {
	if err := fileops.EnsurePrivateDir(cfg.VaultDir); err != nil {
		return nil, err
	}
	m := &Model{
		cfg:         cfg,
		thumbSize:   image.Pt(cfg.ThumbnailWidth, cfg.ThumbnailHeight),
		cacheBudget: DefaultCacheBudget(),
		lastTouched: -1,
		events:      make(chan func(), 256),
		closed:      make(chan struct{}),
		loopDone:    make(chan struct{}),
		encTasks:    make(map[*encryptTask]struct{}),
		decTasks:    make(map[string]*decryptTask),
		imgTasks:    make(map[string]*imageRequestTask),
		imgQueue:    make(map[string][]*imageRequest),
	}
	m.pool = task.NewPool(0, m.post)
	go m.loop()

	m.call(func() {
		m.probeKey()
		m.startVaultCheck()
	})
	return m, nil
}

// Close releases in-flight work, drains the pool and stops the control
// goroutine. Pending image requests receive their empty reply. The model
// must not be used afterwards.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.call(func() { m.releaseAll() })
		m.pool.Close()
		close(m.closed)
		<-m.loopDone
	})
}

func (m *Model) loop() {
	defer close(m.loopDone)
	for {
		select {
		case <-m.closed:
			return
		case fn := <-m.events:
			fn()
		}
	}
}

// call runs fn on the control goroutine and waits for it. Coalesced
// change notifications are flushed once after fn returns.
func (m *Model) call(fn func()) {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		m.flush()
		close(done)
	}
	select {
	case <-m.closed:
		return
	case m.events <- wrapped:
	}
	select {
	case <-m.closed:
	case <-done:
	}
}

// post schedules fn on the control goroutine without waiting. Used for
// task completions and progress; dropped silently after Close.
func (m *Model) post(fn func()) {
	wrapped := func() {
		fn()
		m.flush()
	}
	select {
	case <-m.closed:
	case m.events <- wrapped:
	}
}

func (m *Model) flush() {
	m.syncBusy()
	m.signals.flush(func(c Change) {
		for _, l := range m.listeners {
			l(c)
		}
	})
}

// OnChange registers a listener for coalesced change notifications. The
// listener runs on the control goroutine and must not block.
func (m *Model) OnChange(listener func(Change)) {
	m.call(func() { m.listeners = append(m.listeners, listener) })
}

// SetNotifier installs the media index notifier.
func (m *Model) SetNotifier(n MediaIndexNotifier) {
	m.call(func() { m.notifier = n })
}

// Count returns the number of entries.
func (m *Model) Count() int {
	var n int
	m.call(func() { n = len(m.entries) })
	return n
}

// Get returns a snapshot of the entry at index.
func (m *Model) Get(index int) (Info, bool) {
	var info Info
	var ok bool
	m.call(func() {
		if index >= 0 && index < len(m.entries) {
			info, ok = m.entries[index].info(), true
		}
	})
	return info, ok
}

// Busy reports whether any background work is in flight.
func (m *Model) Busy() bool {
	var b bool
	m.call(func() { b = m.busy() })
	return b
}

// KeyAvailable reports whether a key is loaded.
func (m *Model) KeyAvailable() bool {
	var k bool
	m.call(func() { k = m.kp != nil })
	return k
}

// LockState returns the current key machine state.
func (m *Model) LockState() LockState {
	var s LockState
	m.call(func() { s = m.lockState })
	return s
}

// MayHaveEncryptedPictures reports whether the vault directory holds
// anything that looks like a container. Meaningful while no key is
// loaded; used to warn before generating a key that would orphan them.
func (m *Model) MayHaveEncryptedPictures() bool {
	var v bool
	m.call(func() { v = m.mayHave })
	return v
}

// ThumbnailSize returns the current thumbnail size.
func (m *Model) ThumbnailSize() image.Point {
	var sz image.Point
	m.call(func() { sz = m.thumbSize })
	return sz
}

// SetThumbnailSize changes the thumbnail size for future encryption and
// unlock scans. Existing thumbnails are regenerated on the next unlock.
func (m *Model) SetThumbnailSize(sz image.Point) {
	m.call(func() {
		if sz.X > 0 && sz.Y > 0 && sz != m.thumbSize {
			m.thumbSize = sz
			m.signals.queue(ChangeThumbnailSize)
		}
	})
}

// GenerateKey creates a new key pair and key file, protected by password
// (empty for an unencrypted key). Any loaded key and all entries are
// discarded; existing containers sealed to the old key become
// unreadable.
func (m *Model) GenerateKey(password string, bits int) {
	m.call(func() {
		m.releaseCollectionTasks()
		m.dropEntries()
		m.setKey(nil)
		m.setLockState(GeneratingKey)

		gt := newGenerateKeyTask(m.cfg.KeyFile, bits, password)
		m.genTask = gt
		gt.t.Submit(m.pool, func() {
			if m.genTask != gt {
				return
			}
			m.genTask = nil
			if gt.err != nil {
				log.Error("key generation failed", log.Err(gt.err))
				m.probeKey()
				return
			}
			m.setKey(gt.kp)
			if password == "" {
				m.setLockState(KeyNotEncrypted)
			} else {
				m.setLockState(Ready)
			}
		})
	})
}

// Unlock loads an encrypted key file with the password. On success the
// unlock scan starts rebuilding the collection and Unlock returns true;
// a wrong password returns false and leaves the state untouched.
func (m *Model) Unlock(password string) bool {
	var ok bool
	m.call(func() {
		if m.kp != nil {
			ok = true
			return
		}
		kp, err := crypto.LoadKeyFile(m.cfg.KeyFile, password)
		if err != nil {
			if !errors.Is(err, errors.ErrWrongPassword) {
				log.Warn("cannot load key file", log.Err(err))
				m.probeKey()
			}
			return
		}
		ok = true
		m.setKey(kp)
		m.setLockState(Decrypting)
		m.startScan()
	})
	return ok
}

// Lock drops the key and all decrypted state. timeout records whether
// this was an inactivity lock, which only changes the reported state.
// Returns false when there is nothing to lock or the key file is not
// password protected.
func (m *Model) Lock(timeout bool) bool {
	var ok bool
	m.call(func() {
		if m.kp == nil || m.lockState == KeyNotEncrypted {
			return
		}
		ok = true
		m.releaseCollectionTasks()
		m.dropEntries()
		m.setKey(nil)
		if timeout {
			m.setLockState(LockedTimedOut)
		} else {
			m.setLockState(Locked)
		}
	})
	return ok
}

// CheckPassword verifies a password against the key file without
// changing any state.
func (m *Model) CheckPassword(password string) bool {
	return crypto.CheckPassword(m.cfg.KeyFile, password)
}

// ChangePassword re-encrypts the key file under a new password. The
// loaded key and collection are unaffected.
func (m *Model) ChangePassword(oldPassword, newPassword string) bool {
	return crypto.ChangePassword(m.cfg.KeyFile, oldPassword, newPassword)
}

// EncryptFile encrypts the image at path into the vault and deletes the
// source on success. The new entry appears when the task completes.
func (m *Model) EncryptFile(path, title string, orientation int) error {
	var err error
	m.call(func() {
		if m.kp == nil {
			err = errors.ErrKeyMissing
			return
		}
		et := newEncryptTask(m.kp, m.cfg.VaultDir, path, title, orientation, m.thumbSize)
		m.encTasks[et] = struct{}{}
		et.t.Submit(m.pool, func() {
			if _, live := m.encTasks[et]; !live {
				return
			}
			delete(m.encTasks, et)
			if et.err != nil {
				if !errors.IsCancelled(et.err) {
					log.Warn("encryption failed", log.String("path", path), log.Err(et.err))
				}
				return
			}
			m.addPicture(et.pic)
			m.setMayHave(true)
			m.requestSaveOrder()
			if m.notifier != nil {
				m.notifier.PictureHidden(path)
			}
		})
	})
	return err
}

// DecryptAt restores the entry at index to its original path and removes
// its containers. A second call for the same entry while the first is in
// flight is a no-op.
func (m *Model) DecryptAt(index int) bool {
	var ok bool
	m.call(func() { ok = m.decryptAt(index, true) })
	return ok
}

// DecryptAll restores every entry. Entries disappear one by one as their
// tasks complete; the order manifest is rewritten once, when the batch
// finishes.
func (m *Model) DecryptAll() {
	m.call(func() {
		n := len(m.entries)
		for i := n - 1; i >= 1; i-- {
			m.decryptAt(i, false)
		}
		if n > 0 {
			// The first entry is submitted last; its completion marks
			// the end of the batch and triggers the manifest rewrite.
			m.decryptAt(0, true)
		}
	})
}

func (m *Model) decryptAt(index int, saveOrder bool) bool {
	if m.kp == nil || index < 0 || index >= len(m.entries) {
		return false
	}
	id := m.ids[index]
	if _, inFlight := m.decTasks[id]; inFlight {
		return false
	}
	p := m.entries[index]
	dt := newDecryptTask(m.kp, p.Path, p.ThumbPath)
	m.decTasks[id] = dt
	dt.t.Submit(m.pool, func() {
		if m.decTasks[id] != dt {
			return
		}
		delete(m.decTasks, id)
		if dt.err != nil {
			if !errors.IsCancelled(dt.err) {
				log.Warn("decryption failed", log.String("path", p.Path), log.Err(dt.err))
			}
			if saveOrder {
				m.requestSaveOrder()
			}
			return
		}
		if i := m.indexOfID(id); i >= 0 {
			m.removeEntry(i)
		}
		if saveOrder {
			m.requestSaveOrder()
		}
		if m.notifier != nil {
			m.notifier.PictureRestored(dt.dest)
		}
	})
	return true
}

// RemoveAt deletes the entry at index and its container files without
// restoring the plaintext.
func (m *Model) RemoveAt(index int) bool {
	var ok bool
	m.call(func() {
		if index < 0 || index >= len(m.entries) {
			return
		}
		ok = true
		p := m.entries[index]
		id := m.ids[index]
		if dt, inFlight := m.decTasks[id]; inFlight {
			dt.t.Cancel()
			dt.t.Release()
			delete(m.decTasks, id)
		}
		fileops.RemoveQuiet(p.Path)
		if p.ThumbPath != "" {
			fileops.RemoveQuiet(p.ThumbPath)
		}
		m.removeEntry(index)
		m.requestSaveOrder()
	})
	return ok
}

// ImageRequest asks for the decrypted bytes of the entry at index. The
// reply fires exactly once, possibly before ImageRequest returns on a
// cache hit, possibly with nil data when the image cannot be produced.
// At most one decryption per entry is in flight; concurrent requests for
// the same entry share it.
func (m *Model) ImageRequest(index int, reply ImageReply) {
	m.call(func() {
		if index < 0 || index >= len(m.entries) || m.kp == nil {
			newImageRequest("", reply).respondEmpty()
			return
		}
		p := m.entries[index]
		id := m.ids[index]
		m.lastTouched = index

		if p.decrypted != nil {
			// The cache only ever holds payloads the request task has
			// already decoded successfully.
			newImageRequest(p.Name(), reply).respond(p.decrypted, p.ContentType)
			return
		}

		req := newImageRequest(p.Name(), reply)
		if _, inFlight := m.imgTasks[id]; inFlight {
			m.imgQueue[id] = append(m.imgQueue[id], req)
			return
		}
		it := newImageRequestTask(m.kp, p.Path, req)
		m.imgTasks[id] = it
		it.t.Submit(m.pool, func() {
			if m.imgTasks[id] != it {
				return
			}
			delete(m.imgTasks, id)
			queued := m.imgQueue[id]
			delete(m.imgQueue, id)
			for _, q := range queued {
				q.respond(it.data, it.contentType)
			}
			if it.data == nil {
				return
			}
			if i := m.indexOfID(id); i >= 0 {
				e := m.entries[i]
				e.decrypted = it.data
				if e.ContentType == "" {
					e.ContentType = it.contentType
				}
				m.lastTouched = i
				m.evict()
			}
		})
	})
}

func (m *Model) busy() bool {
	return m.genTask != nil || m.checkTask != nil || m.unlockTask != nil ||
		m.saveTask != nil || len(m.encTasks) > 0 || len(m.decTasks) > 0 ||
		len(m.imgTasks) > 0
}

func (m *Model) syncBusy() {
	if b := m.busy(); b != m.lastBusy {
		m.lastBusy = b
		m.signals.queue(ChangeBusy)
	}
}

func (m *Model) setLockState(s LockState) {
	if m.lockState != s {
		m.lockState = s
		m.signals.queue(ChangeLockState)
	}
}

func (m *Model) setKey(kp *crypto.KeyPair) {
	if (m.kp != nil) != (kp != nil) {
		m.signals.queue(ChangeKeyAvailable)
	}
	m.kp = kp
}

func (m *Model) setMayHave(v bool) {
	if m.mayHave != v {
		m.mayHave = v
		m.signals.queue(ChangeMayHaveEncryptedPictures)
	}
}

// probeKey classifies the key file and, for an unencrypted key, loads it
// and starts the unlock scan right away.
func (m *Model) probeKey() {
	err := crypto.ProbeKeyFile(m.cfg.KeyFile)
	switch {
	case err == nil:
		kp, lerr := crypto.LoadKeyFile(m.cfg.KeyFile, "")
		if lerr != nil {
			m.setLockState(KeyInvalid)
			return
		}
		m.setKey(kp)
		m.setLockState(KeyNotEncrypted)
		m.startScan()
	case errors.Is(err, errors.ErrKeyEncrypted):
		m.setLockState(Locked)
	case errors.Is(err, errors.ErrKeyMissing):
		m.setLockState(NoKey)
	case errors.Is(err, errors.ErrKeyInvalid):
		m.setLockState(KeyInvalid)
	default:
		log.Warn("cannot probe key file", log.Err(err))
		m.setLockState(KeyError)
	}
}

func (m *Model) startVaultCheck() {
	ct := newCheckVaultTask(m.cfg.VaultDir)
	m.checkTask = ct
	ct.t.Submit(m.pool, func() {
		if m.checkTask != ct {
			return
		}
		m.checkTask = nil
		m.setMayHave(ct.mayHave)
	})
}

func (m *Model) startScan() {
	if m.unlockTask != nil {
		m.unlockTask.t.Cancel()
		m.unlockTask.t.Release()
	}
	var ut *unlockScanTask
	ut = newUnlockScanTask(m.kp, m.cfg.VaultDir, m.thumbSize, func(p *Picture) {
		m.post(func() {
			if m.unlockTask == ut {
				m.addPicture(p)
			}
		})
	})
	m.unlockTask = ut
	ut.t.Submit(m.pool, func() {
		if m.unlockTask != ut {
			return
		}
		m.unlockTask = nil
		if m.lockState == Decrypting {
			m.setLockState(Ready)
		}
		if ut.dirty {
			m.requestSaveOrder()
		}
	})
}

// requestSaveOrder persists the current order. A save already in flight
// is superseded: it is released and a fresh snapshot is queued, so the
// last writer always reflects the latest order.
func (m *Model) requestSaveOrder() {
	if m.kp == nil {
		return
	}
	if m.saveTask != nil {
		m.saveTask.t.Cancel()
		m.saveTask.t.Release()
	}
	st := newSaveOrderTask(m.kp, m.cfg.VaultDir, FromPictures(m.entries))
	m.saveTask = st
	st.t.Submit(m.pool, func() {
		if m.saveTask != st {
			return
		}
		m.saveTask = nil
		if st.err != nil && !errors.IsCancelled(st.err) {
			log.Warn("cannot save order manifest", log.Err(st.err))
		}
	})
}

func (m *Model) addPicture(p *Picture) {
	p.arrival = m.arrival
	m.arrival++
	var i int
	m.entries, i = insertSorted(m.entries, p)
	m.ids = append(m.ids, "")
	copy(m.ids[i+1:], m.ids[i:])
	m.ids[i] = uuid.NewString()
	if m.lastTouched >= i {
		m.lastTouched++
	}
	m.signals.queue(ChangeCount)
}

func (m *Model) removeEntry(i int) {
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	m.ids = append(m.ids[:i], m.ids[i+1:]...)
	if m.lastTouched == i {
		m.lastTouched = -1
	} else if m.lastTouched > i {
		m.lastTouched--
	}
	m.signals.queue(ChangeCount)
}

func (m *Model) indexOfID(id string) int {
	for i, other := range m.ids {
		if other == id {
			return i
		}
	}
	return -1
}

func (m *Model) dropEntries() {
	if len(m.entries) > 0 {
		m.entries = nil
		m.ids = nil
		m.lastTouched = -1
		m.signals.queue(ChangeCount)
	}
}

// evict shrinks the plaintext cache to its budget, always keeping the
// last touched entry.
func (m *Model) evict() {
	for tooMuchDecrypted(m.entries, m.cacheBudget) {
		i := dropFurthest(m.entries, m.lastTouched)
		if i < 0 {
			return
		}
		m.entries[i].decrypted = nil
	}
}

// releaseCollectionTasks detaches every task that depends on the loaded
// key or the collection. Queued image requests get their empty reply.
func (m *Model) releaseCollectionTasks() {
	if m.unlockTask != nil {
		m.unlockTask.t.Cancel()
		m.unlockTask.t.Release()
		m.unlockTask = nil
	}
	if m.saveTask != nil {
		m.saveTask.t.Cancel()
		m.saveTask.t.Release()
		m.saveTask = nil
	}
	for et := range m.encTasks {
		et.t.Cancel()
		et.t.Release()
	}
	m.encTasks = make(map[*encryptTask]struct{})
	for _, dt := range m.decTasks {
		dt.t.Cancel()
		dt.t.Release()
	}
	m.decTasks = make(map[string]*decryptTask)
	for _, it := range m.imgTasks {
		it.t.Cancel()
		it.t.Release()
	}
	m.imgTasks = make(map[string]*imageRequestTask)
	for _, reqs := range m.imgQueue {
		for _, r := range reqs {
			r.respondEmpty()
		}
	}
	m.imgQueue = make(map[string][]*imageRequest)
}

// releaseAll is releaseCollectionTasks plus the key machine tasks; used
// only on Close.
func (m *Model) releaseAll() {
	m.releaseCollectionTasks()
	if m.genTask != nil {
		m.genTask.t.Cancel()
		m.genTask.t.Release()
		m.genTask = nil
	}
	if m.checkTask != nil {
		m.checkTask.t.Cancel()
		m.checkTask.t.Release()
		m.checkTask = nil
	}
}
