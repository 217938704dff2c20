package container

import (
	"strconv"
	"strings"
	"time"
)

// Header keys understood by the core. Containers may carry others; they are
// preserved but not interpreted.
const (
	HeaderOriginalPath     = "Original-Path"
	HeaderModificationTime = "Modification-Time"
	HeaderAccessTime       = "Access-Time"
	HeaderOrientation      = "Orientation"
	HeaderTitle            = "Title"

	// Thumbnail specific headers
	HeaderFullWidth  = "Full-Width"
	HeaderFullHeight = "Full-Height"

	// Order manifest header
	HeaderOrder = "Order"
)

// TimeFormat is the wire format for timestamp headers.
const TimeFormat = time.RFC3339Nano

// Header is one name/value pair carried inside a container.
type Header struct {
	Name  string
	Value string
}

// Message is the decrypted content of one container: a content type, an
// ordered header list, and the payload bytes.
type Message struct {
	ContentType string
	Headers     []Header
	Data        []byte
}

// Add appends a header.
func (m *Message) Add(name, value string) {
	m.Headers = append(m.Headers, Header{Name: name, Value: value})
}

// Value returns the first header with the given name, or "".
func (m *Message) Value(name string) string {
	for _, h := range m.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// Int returns the named header parsed as an integer, or def if the header
// is absent or unparseable.
func (m *Message) Int(name string, def int) int {
	s := strings.TrimSpace(m.Value(name))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Time returns the named timestamp header. The boolean is false when the
// header is absent or unparseable.
func (m *Message) Time(name string) (time.Time, bool) {
	s := m.Value(name)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ModTime returns the Modification-Time header.
func (m *Message) ModTime() (time.Time, bool) {
	return m.Time(HeaderModificationTime)
}

// CopyHeader copies the named header from src to dst if present.
func CopyHeader(dst, src *Message, name string) bool {
	for _, h := range src.Headers {
		if h.Name == name {
			dst.Add(name, h.Value)
			return true
		}
	}
	return false
}
