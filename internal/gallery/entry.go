// Package gallery implements the encrypted picture gallery: an ordered,
// observable collection of container-backed entries, the tasks that
// encrypt, decrypt and scan them, and the model that serializes all
// access on a single control goroutine.
package gallery

import (
	"image"
	"path/filepath"
	"strings"
	"time"
)

// Picture is one gallery entry backed by an encrypted container, plus an
// optional thumbnail container. All fields are owned by the model's
// control goroutine.
type Picture struct {
	Path      string // full container path
	ThumbPath string // thumbnail container path, empty when absent

	OriginalPath string
	ContentType  string
	Title        string
	Orientation  int
	ModTime      time.Time
	AccessTime   time.Time
	FullWidth    int
	FullHeight   int

	Thumbnail image.Image

	// decrypted is the cached plaintext, nil until an image request
	// fetches it. Accounted against the model's cache budget.
	decrypted []byte

	// arrival breaks ordering ties: of two entries with the same
	// timestamp the one seen first stays first.
	arrival uint64
}

// Name returns the container file name.
func (p *Picture) Name() string {
	return filepath.Base(p.Path)
}

// ThumbName returns the thumbnail container file name, or "".
func (p *Picture) ThumbName() string {
	if p.ThumbPath == "" {
		return ""
	}
	return filepath.Base(p.ThumbPath)
}

// FileName returns the original file name of the picture.
func (p *Picture) FileName() string {
	if p.OriginalPath == "" {
		return ""
	}
	return filepath.Base(p.OriginalPath)
}

// DisplayTitle returns the title, falling back to a title derived from
// the original file name.
func (p *Picture) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return DefaultTitle(p.OriginalPath)
}

// DefaultTitle derives a presentable title from a file path: the base
// name without its extension, or "Picture" when there is nothing to go on.
func DefaultTitle(path string) string {
	base := filepath.Base(path)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" || base == "." || base == "/" {
		return "Picture"
	}
	return base
}

// lessThan is the collection order: most recently modified first, arrival
// order breaking ties. It is a strict weak ordering.
func (p *Picture) lessThan(other *Picture) bool {
	if !p.ModTime.Equal(other.ModTime) {
		return p.ModTime.After(other.ModTime)
	}
	return p.arrival < other.arrival
}

// Info is an external snapshot of one entry. It carries no references to
// model-owned state and stays valid after the model moves on.
type Info struct {
	Path        string
	ThumbPath   string
	Title       string
	FileName    string
	ContentType string
	Orientation int
	ModTime     time.Time
	Width       int
	Height      int
	Thumbnail   image.Image
	Decrypted   bool
}

func (p *Picture) info() Info {
	return Info{
		Path:        p.Path,
		ThumbPath:   p.ThumbPath,
		Title:       p.DisplayTitle(),
		FileName:    p.FileName(),
		ContentType: p.ContentType,
		Orientation: p.Orientation,
		ModTime:     p.ModTime,
		Width:       p.FullWidth,
		Height:      p.FullHeight,
		Thumbnail:   p.Thumbnail,
		Decrypted:   p.decrypted != nil,
	}
}

// insertSorted places p into list at its ordered position and returns the
// new slice and the insertion index.
func insertSorted(list []*Picture, p *Picture) ([]*Picture, int) {
	i := 0
	for i < len(list) && list[i].lessThan(p) {
		i++
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = p
	return list, i
}

// indexByName finds the entry whose container name matches, or -1.
func indexByName(list []*Picture, name string) int {
	for i, p := range list {
		if p.Name() == name {
			return i
		}
	}
	return -1
}
