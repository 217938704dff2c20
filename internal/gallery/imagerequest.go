package gallery

import "sync"

// ImageReply delivers the decrypted bytes of one picture. An empty reply
// (nil data) means the picture could not be produced.
type ImageReply func(data []byte, contentType string)

// imageRequest wraps a reply so it fires exactly once, from wherever the
// request ends up: cache hit, task completion, or the implicit empty
// reply when the request is dropped during shutdown or lock.
type imageRequest struct {
	name  string
	once  sync.Once
	reply ImageReply
}

func newImageRequest(name string, reply ImageReply) *imageRequest {
	return &imageRequest{name: name, reply: reply}
}

func (r *imageRequest) respond(data []byte, contentType string) {
	r.once.Do(func() {
		if r.reply != nil {
			r.reply(data, contentType)
		}
	})
}

func (r *imageRequest) respondEmpty() {
	r.respond(nil, "")
}
