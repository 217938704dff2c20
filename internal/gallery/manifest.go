package gallery

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"Picvault/internal/container"
	"Picvault/internal/crypto"
	"Picvault/internal/errors"
	"Picvault/internal/log"
)

// ManifestName is the encrypted order manifest kept in the vault
// directory alongside the containers.
const ManifestName = ".picvault-order"

// manifestPayload marks a decrypted manifest as ours. The interesting
// content lives in the Order header.
const manifestPayload = "Picvault"

// OrderItem names one container and its optional thumbnail container.
type OrderItem struct {
	Name  string
	Thumb string
}

// Order is the persisted presentation order of the vault.
type Order struct {
	Items []OrderItem
}

// FromPictures snapshots the current collection order.
func FromPictures(list []*Picture) Order {
	var o Order
	for _, p := range list {
		o.Items = append(o.Items, OrderItem{Name: p.Name(), Thumb: p.ThumbName()})
	}
	return o
}

// encode renders the order as a comma separated list of "name" or
// "name:thumb" items.
func (o Order) encode() string {
	var b strings.Builder
	for i, item := range o.Items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(item.Name)
		if item.Thumb != "" {
			b.WriteByte(':')
			b.WriteString(item.Thumb)
		}
	}
	return b.String()
}

// parseOrder is tolerant: empty items are skipped, anything after a
// second colon is ignored.
func parseOrder(s string) Order {
	var o Order
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, thumb, _ := strings.Cut(part, ":")
		if i := strings.IndexByte(thumb, ':'); i >= 0 {
			thumb = thumb[:i]
		}
		if name == "" {
			continue
		}
		o.Items = append(o.Items, OrderItem{Name: name, Thumb: thumb})
	}
	return o
}

// LoadOrder reads the manifest from dir. A missing, undecryptable or
// foreign manifest yields an empty order and false; the unlock scan then
// rebuilds it from the directory contents.
func LoadOrder(dir string, kp *crypto.KeyPair) (Order, bool) {
	path := filepath.Join(dir, ManifestName)
	msg, err := container.DecryptAndVerifyFile(path, kp)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, errors.ErrNotContainer) {
			log.Warn("cannot read order manifest", log.String("path", path), log.Err(err))
		}
		return Order{}, false
	}
	if string(msg.Data) != manifestPayload {
		log.Warn("foreign order manifest ignored", log.String("path", path))
		return Order{}, false
	}
	return parseOrder(msg.Value(container.HeaderOrder)), true
}

// SaveOrder encrypts and atomically replaces the manifest in dir.
func SaveOrder(dir string, kp *crypto.KeyPair, o Order) error {
	msg := &container.Message{
		ContentType: "text/plain",
		Data:        []byte(manifestPayload),
	}
	msg.Add(container.HeaderOrder, o.encode())

	var buf bytes.Buffer
	if err := container.Encrypt(&buf, msg, kp); err != nil {
		return err
	}

	path := filepath.Join(dir, ManifestName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return errors.NewFileError("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewFileError("rename", tmp, err)
	}
	log.Debug("saved order manifest", log.Int("entries", len(o.Items)))
	return nil
}
