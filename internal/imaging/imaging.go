// Package imaging adapts the image codec libraries to what the gallery
// core needs: decode by content type, encode back to the same type, and
// thumbnail generation (scale to cover, center crop, rotate).
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"Picvault/internal/errors"
)

// DetectContentType sniffs the content type of raw file data.
func DetectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// IsImage reports whether the content type names an image format. An empty
// content type is given the benefit of the doubt, the decoder decides.
func IsImage(contentType string) bool {
	return contentType == "" || strings.HasPrefix(contentType, "image/")
}

// Decode decodes raw bytes as an image, using the content type as a format
// hint. Unknown types fall through to format auto-detection.
func Decode(data []byte, contentType string) (image.Image, error) {
	reader := bytes.NewReader(data)

	var img image.Image
	var err error
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		img, err = jpeg.Decode(reader)
	case "image/png":
		img, err = png.Decode(reader)
	case "image/webp":
		img, err = webp.Decode(reader)
	default:
		// gif, bmp, tiff and anything unhinted
		img, err = imaging.Decode(reader)
	}
	if err != nil {
		return nil, errors.ErrNotImage
	}
	return img, nil
}

// Encode encodes an image in the format named by the content type.
// Unencodable types fall back to PNG, which every consumer can decode.
func Encode(img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "image/webp":
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
	case "image/png", "":
		err = png.Encode(&buf, img)
	default:
		if format, ferr := imaging.FormatFromExtension(extensionFor(contentType)); ferr == nil {
			err = imaging.Encode(&buf, img, format)
		} else {
			err = png.Encode(&buf, img)
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "encoding image")
	}
	return buf.Bytes(), nil
}

// Thumbnail scales the image to cover size, center-crops it to exactly
// size, and rotates the result counter-clockwise by rotate degrees.
func Thumbnail(img image.Image, size image.Point, rotate int) image.Image {
	thumb := imaging.Fill(img, size.X, size.Y, imaging.Center, imaging.Lanczos)
	switch normalizeDegrees(rotate) {
	case 0:
		return thumb
	case 90:
		return imaging.Rotate90(thumb)
	case 180:
		return imaging.Rotate180(thumb)
	case 270:
		return imaging.Rotate270(thumb)
	default:
		return imaging.Rotate(thumb, float64(rotate), color.Transparent)
	}
}

func normalizeDegrees(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/gif":
		return ".gif"
	case "image/bmp", "image/x-bmp":
		return ".bmp"
	case "image/tif", "image/tiff":
		return ".tif"
	default:
		return ""
	}
}
