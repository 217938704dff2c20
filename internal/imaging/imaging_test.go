package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"Picvault/internal/errors"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectContentType(t *testing.T) {
	data := pngBytes(t, testImage(8, 8))
	if ct := DetectContentType(data); ct != "image/png" {
		t.Errorf("DetectContentType(png) = %q", ct)
	}
	if ct := DetectContentType([]byte("hello, world")); IsImage(ct) && ct != "" {
		t.Errorf("IsImage(%q) = true for text", ct)
	}
}

func TestDecodeEncodeRoundtrip(t *testing.T) {
	data := pngBytes(t, testImage(20, 10))
	img, err := Decode(data, "image/png")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("decoded bounds = %v", b)
	}

	out, err := Encode(img, "image/jpeg")
	if err != nil {
		t.Fatalf("Encode(jpeg): %v", err)
	}
	if ct := DetectContentType(out); ct != "image/jpeg" {
		t.Errorf("re-encoded content type = %q", ct)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image at all"), "image/png"); !errors.Is(err, errors.ErrNotImage) {
		t.Errorf("Decode(garbage) = %v, want ErrNotImage", err)
	}
}

func TestThumbnailSize(t *testing.T) {
	img := testImage(640, 480)
	for _, rotate := range []int{0, 90, 180, 270, -90, 450} {
		thumb := Thumbnail(img, image.Pt(128, 128), rotate)
		if b := thumb.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
			t.Errorf("Thumbnail(rotate=%d) bounds = %v, want 128x128", rotate, b)
		}
	}
}

func TestThumbnailRotation(t *testing.T) {
	// Left half red, right half blue; after a 180 turn the left edge
	// must be blue.
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 32 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	thumb := Thumbnail(img, image.Pt(64, 64), 180)
	r, _, b, _ := thumb.At(2, 32).RGBA()
	if r > b {
		t.Error("left edge is still red after 180 degree rotation")
	}
}
