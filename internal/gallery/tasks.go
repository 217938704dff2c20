package gallery

import (
	"image"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"Picvault/internal/container"
	"Picvault/internal/crypto"
	"Picvault/internal/errors"
	"Picvault/internal/fileops"
	"Picvault/internal/imaging"
	"Picvault/internal/log"
	"Picvault/internal/task"
)

// thumbContentType is the storage format for generated thumbnails.
const thumbContentType = "image/jpeg"

// generateKeyTask creates a fresh key pair and writes the key file.
type generateKeyTask struct {
	t        *task.Task
	path     string
	bits     int
	password string

	kp  *crypto.KeyPair
	err error
}

func newGenerateKeyTask(path string, bits int, password string) *generateKeyTask {
	gt := &generateKeyTask{path: path, bits: bits, password: password}
	gt.t = task.New(gt.run)
	return gt
}

func (gt *generateKeyTask) run(t *task.Task) {
	if t.Canceled() {
		gt.err = errors.ErrCancelled
		return
	}
	kp, err := crypto.GenerateKeyPair(gt.bits)
	if err != nil {
		gt.err = err
		return
	}
	if t.Canceled() {
		gt.err = errors.ErrCancelled
		return
	}
	if err := crypto.SaveKeyFile(gt.path, kp, gt.password); err != nil {
		gt.err = err
		return
	}
	gt.kp = kp
}

// checkVaultTask probes the vault directory for anything that looks like
// an encrypted container.
type checkVaultTask struct {
	t   *task.Task
	dir string

	mayHave bool
}

func newCheckVaultTask(dir string) *checkVaultTask {
	ct := &checkVaultTask{dir: dir}
	ct.t = task.New(ct.run)
	return ct
}

func (ct *checkVaultTask) run(t *task.Task) {
	entries, err := os.ReadDir(ct.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if t.Canceled() {
			return
		}
		if e.IsDir() {
			continue
		}
		if container.Sniff(filepath.Join(ct.dir, e.Name())) {
			ct.mayHave = true
			return
		}
	}
}

// encryptTask turns one plaintext image file into a pair of containers
// (full image plus thumbnail) and deletes the source. The operation is
// all or nothing: cancellation or failure at any step removes whatever
// was already written.
type encryptTask struct {
	t           *task.Task
	kp          *crypto.KeyPair
	dir         string
	source      string
	title       string
	orientation int
	thumbSize   image.Point

	pic *Picture
	err error
}

func newEncryptTask(kp *crypto.KeyPair, dir, source, title string, orientation int, thumbSize image.Point) *encryptTask {
	et := &encryptTask{
		kp:          kp,
		dir:         dir,
		source:      source,
		title:       title,
		orientation: orientation,
		thumbSize:   thumbSize,
	}
	et.t = task.New(et.run)
	return et
}

func (et *encryptTask) run(t *task.Task) {
	if t.Canceled() {
		et.err = errors.ErrCancelled
		return
	}
	data, err := os.ReadFile(et.source)
	if err != nil {
		et.err = errors.NewFileError("read", et.source, err)
		return
	}
	contentType := imaging.DetectContentType(data)
	if !imaging.IsImage(contentType) {
		et.err = errors.ErrNotImage
		return
	}
	img, err := imaging.Decode(data, contentType)
	if err != nil {
		et.err = err
		return
	}
	atime, mtime, err := fileops.StatTimes(et.source)
	if err != nil {
		now := time.Now()
		atime, mtime = now, now
	}

	title := et.title
	if title == "" {
		title = DefaultTitle(et.source)
	}

	msg := &container.Message{ContentType: contentType, Data: data}
	msg.Add(container.HeaderOriginalPath, et.source)
	msg.Add(container.HeaderModificationTime, mtime.Format(container.TimeFormat))
	msg.Add(container.HeaderAccessTime, atime.Format(container.TimeFormat))
	msg.Add(container.HeaderOrientation, strconv.Itoa(et.orientation))
	msg.Add(container.HeaderTitle, title)

	if t.Canceled() {
		et.err = errors.ErrCancelled
		return
	}
	path, err := container.WriteEncrypted(et.dir, msg, et.kp)
	if err != nil {
		et.err = err
		return
	}
	fileops.SetFileTimes(path, atime, mtime)

	thumb := imaging.Thumbnail(img, et.thumbSize, et.orientation)
	thumbData, err := imaging.Encode(thumb, thumbContentType)
	if err != nil {
		fileops.RemoveQuiet(path)
		et.err = err
		return
	}
	bounds := img.Bounds()
	thumbMsg := &container.Message{ContentType: thumbContentType, Data: thumbData}
	for _, name := range []string{
		container.HeaderOriginalPath,
		container.HeaderModificationTime,
		container.HeaderAccessTime,
		container.HeaderOrientation,
		container.HeaderTitle,
	} {
		container.CopyHeader(thumbMsg, msg, name)
	}
	thumbMsg.Add(container.HeaderFullWidth, strconv.Itoa(bounds.Dx()))
	thumbMsg.Add(container.HeaderFullHeight, strconv.Itoa(bounds.Dy()))

	if t.Canceled() {
		fileops.RemoveQuiet(path)
		et.err = errors.ErrCancelled
		return
	}
	thumbPath, err := container.WriteEncrypted(et.dir, thumbMsg, et.kp)
	if err != nil {
		fileops.RemoveQuiet(path)
		et.err = err
		return
	}
	fileops.SetFileTimes(thumbPath, atime, mtime)

	if err := os.Remove(et.source); err != nil {
		log.Warn("cannot remove encrypted source", log.String("path", et.source), log.Err(err))
	}

	et.pic = &Picture{
		Path:         path,
		ThumbPath:    thumbPath,
		OriginalPath: et.source,
		ContentType:  contentType,
		Title:        title,
		Orientation:  et.orientation,
		ModTime:      mtime,
		AccessTime:   atime,
		FullWidth:    bounds.Dx(),
		FullHeight:   bounds.Dy(),
		Thumbnail:    thumb,
	}
}

// decryptTask restores one picture to its original path and removes its
// containers. Failure at any step before the final removal leaves the
// containers intact.
type decryptTask struct {
	t         *task.Task
	kp        *crypto.KeyPair
	path      string
	thumbPath string

	dest string
	err  error
}

func newDecryptTask(kp *crypto.KeyPair, path, thumbPath string) *decryptTask {
	dt := &decryptTask{kp: kp, path: path, thumbPath: thumbPath}
	dt.t = task.New(dt.run)
	return dt
}

func (dt *decryptTask) run(t *task.Task) {
	if t.Canceled() {
		dt.err = errors.ErrCancelled
		return
	}
	msg, err := container.DecryptAndVerifyFile(dt.path, dt.kp)
	if err != nil {
		dt.err = err
		return
	}
	dest := msg.Value(container.HeaderOriginalPath)
	if dest == "" {
		dt.err = errors.New("container has no original path")
		return
	}
	if t.Canceled() {
		dt.err = errors.ErrCancelled
		return
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		dt.err = errors.NewFileError("mkdir", filepath.Dir(dest), err)
		return
	}
	if err := os.WriteFile(dest, msg.Data, 0o600); err != nil {
		dt.err = errors.NewFileError("write", dest, err)
		return
	}

	// Restore the recorded timestamps, falling back to the container's
	// own file times when the headers are missing.
	mtime, haveMod := msg.ModTime()
	atimeT, haveAcc := msg.Time(container.HeaderAccessTime)
	if !haveMod || !haveAcc {
		fa, fm, ferr := fileops.StatTimes(dt.path)
		if ferr == nil {
			if !haveMod {
				mtime = fm
			}
			if !haveAcc {
				atimeT = fa
			}
			haveMod, haveAcc = true, true
		}
	}
	if haveMod && haveAcc {
		fileops.SetFileTimes(dest, atimeT, mtime)
	}

	fileops.RemoveQuiet(dt.path)
	if dt.thumbPath != "" {
		fileops.RemoveQuiet(dt.thumbPath)
	}
	dt.dest = dest
}

// imageRequestTask decrypts the full container for one image request.
// The reply fires from the body so it is honored even when the owner has
// released the task during shutdown.
type imageRequestTask struct {
	t    *task.Task
	kp   *crypto.KeyPair
	path string
	req  *imageRequest

	data        []byte
	contentType string
}

func newImageRequestTask(kp *crypto.KeyPair, path string, req *imageRequest) *imageRequestTask {
	it := &imageRequestTask{kp: kp, path: path, req: req}
	it.t = task.New(it.run)
	return it
}

func (it *imageRequestTask) run(t *task.Task) {
	if !t.Canceled() {
		if msg, err := container.DecryptAndVerifyFile(it.path, it.kp); err == nil {
			// The payload must decode as an image; a container holding
			// anything else gets the empty reply.
			if _, derr := imaging.Decode(msg.Data, msg.ContentType); derr == nil {
				it.data = msg.Data
				it.contentType = msg.ContentType
				it.req.respond(msg.Data, msg.ContentType)
				return
			}
			log.Warn("container holds no decodable image", log.String("path", it.path))
		}
	}
	it.req.respondEmpty()
}

// saveOrderTask persists an order snapshot.
type saveOrderTask struct {
	t     *task.Task
	kp    *crypto.KeyPair
	dir   string
	order Order

	err error
}

func newSaveOrderTask(kp *crypto.KeyPair, dir string, order Order) *saveOrderTask {
	st := &saveOrderTask{kp: kp, dir: dir, order: order}
	st.t = task.New(st.run)
	return st
}

func (st *saveOrderTask) run(t *task.Task) {
	if t.Canceled() {
		st.err = errors.ErrCancelled
		return
	}
	st.err = SaveOrder(st.dir, st.kp, st.order)
}

// unlockScanTask reconciles the vault directory against the persisted
// order manifest and rebuilds the collection. Entries are reported
// incrementally through progress as they are recovered: manifest-listed
// containers first, in manifest order, then any stray containers in
// directory order. The dirty flag means the manifest no longer matches
// reality and must be rewritten.
type unlockScanTask struct {
	t         *task.Task
	kp        *crypto.KeyPair
	dir       string
	thumbSize image.Point
	progress  func(*Picture)

	pics  []*Picture
	dirty bool
}

func newUnlockScanTask(kp *crypto.KeyPair, dir string, thumbSize image.Point, progress func(*Picture)) *unlockScanTask {
	ut := &unlockScanTask{kp: kp, dir: dir, thumbSize: thumbSize, progress: progress}
	ut.t = task.New(ut.run)
	return ut
}

func (ut *unlockScanTask) run(t *task.Task) {
	entries, err := os.ReadDir(ut.dir)
	if err != nil {
		return
	}
	present := make(map[string]bool, len(entries))
	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == ManifestName || e.Name() == ManifestName+".tmp" {
			continue
		}
		present[e.Name()] = true
		names = append(names, e.Name())
	}

	order, haveOrder := LoadOrder(ut.dir, ut.kp)
	if !haveOrder && len(names) > 0 {
		ut.dirty = true
	}

	consumed := make(map[string]bool)
	for _, item := range order.Items {
		if t.Canceled() {
			return
		}
		if !present[item.Name] {
			ut.dirty = true
			continue
		}
		consumed[item.Name] = true
		if item.Thumb != "" && present[item.Thumb] {
			consumed[item.Thumb] = true
		}
		pic := ut.recover(t, item.Name, item.Thumb)
		if pic == nil {
			ut.dirty = true
			continue
		}
		ut.emit(pic)
	}

	// Stray containers the manifest does not know about.
	for _, name := range names {
		if t.Canceled() {
			return
		}
		if consumed[name] {
			continue
		}
		pic := ut.recoverFull(t, name)
		if pic == nil {
			continue
		}
		ut.dirty = true
		ut.emit(pic)
	}
}

func (ut *unlockScanTask) emit(pic *Picture) {
	ut.pics = append(ut.pics, pic)
	if ut.progress != nil {
		ut.progress(pic)
	}
}

// recover rebuilds one entry, preferring the cheap thumbnail container
// and falling back to the full container when the thumbnail is missing,
// unreadable or the wrong size.
func (ut *unlockScanTask) recover(t *task.Task, name, thumbName string) *Picture {
	if thumbName != "" {
		if pic := ut.recoverThumb(name, thumbName); pic != nil {
			return pic
		}
		ut.dirty = true
	}
	return ut.recoverFull(t, name)
}

func (ut *unlockScanTask) recoverThumb(name, thumbName string) *Picture {
	thumbPath := filepath.Join(ut.dir, thumbName)
	msg, err := container.DecryptAndVerifyFile(thumbPath, ut.kp)
	if err != nil {
		return nil
	}
	// A thumbnail container must describe the full image it stands for;
	// without the dimensions and the original path only the full
	// container is trustworthy.
	if msg.Int(container.HeaderFullWidth, 0) <= 0 ||
		msg.Int(container.HeaderFullHeight, 0) <= 0 ||
		msg.Value(container.HeaderOriginalPath) == "" {
		return nil
	}
	thumb, err := imaging.Decode(msg.Data, msg.ContentType)
	if err != nil {
		return nil
	}
	if b := thumb.Bounds(); b.Dx() != ut.thumbSize.X || b.Dy() != ut.thumbSize.Y {
		return nil
	}
	return ut.picture(msg, filepath.Join(ut.dir, name), thumbPath, thumb)
}

// recoverFull decrypts the full container, regenerates the thumbnail and
// writes a fresh thumbnail container beside it.
func (ut *unlockScanTask) recoverFull(t *task.Task, name string) *Picture {
	path := filepath.Join(ut.dir, name)
	msg, err := container.DecryptAndVerifyFile(path, ut.kp)
	if err != nil {
		// Not ours. Leave it alone.
		return nil
	}
	img, err := imaging.Decode(msg.Data, msg.ContentType)
	if err != nil {
		log.Warn("container holds no decodable image", log.String("path", path))
		return nil
	}
	orientation := msg.Int(container.HeaderOrientation, 0)
	thumb := imaging.Thumbnail(img, ut.thumbSize, orientation)

	pic := ut.picture(msg, path, "", thumb)
	bounds := img.Bounds()
	pic.FullWidth = bounds.Dx()
	pic.FullHeight = bounds.Dy()

	if t.Canceled() {
		return pic
	}
	thumbData, err := imaging.Encode(thumb, thumbContentType)
	if err == nil {
		thumbMsg := &container.Message{ContentType: thumbContentType, Data: thumbData}
		for _, h := range []string{
			container.HeaderOriginalPath,
			container.HeaderModificationTime,
			container.HeaderAccessTime,
			container.HeaderOrientation,
			container.HeaderTitle,
		} {
			container.CopyHeader(thumbMsg, msg, h)
		}
		thumbMsg.Add(container.HeaderFullWidth, strconv.Itoa(bounds.Dx()))
		thumbMsg.Add(container.HeaderFullHeight, strconv.Itoa(bounds.Dy()))
		if thumbPath, werr := container.WriteEncrypted(ut.dir, thumbMsg, ut.kp); werr == nil {
			fileops.CopyTimes(thumbPath, path)
			pic.ThumbPath = thumbPath
		}
	}
	return pic
}

// picture builds an entry from a decrypted message's headers. Works for
// both full and thumbnail messages; the thumbnail message additionally
// carries the full image dimensions.
func (ut *unlockScanTask) picture(msg *container.Message, path, thumbPath string, thumb image.Image) *Picture {
	pic := &Picture{
		Path:         path,
		ThumbPath:    thumbPath,
		OriginalPath: msg.Value(container.HeaderOriginalPath),
		ContentType:  msg.ContentType,
		Title:        msg.Value(container.HeaderTitle),
		Orientation:  msg.Int(container.HeaderOrientation, 0),
		FullWidth:    msg.Int(container.HeaderFullWidth, 0),
		FullHeight:   msg.Int(container.HeaderFullHeight, 0),
		Thumbnail:    thumb,
	}
	if thumbPath != "" {
		// Thumbnail messages describe the full image, not themselves.
		pic.ContentType = ""
	}
	if mt, ok := msg.ModTime(); ok {
		pic.ModTime = mt
	} else if _, fm, err := fileops.StatTimes(path); err == nil {
		pic.ModTime = fm
	}
	if at, ok := msg.Time(container.HeaderAccessTime); ok {
		pic.AccessTime = at
	}
	return pic
}
