package storage

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/nfnt/resize"
)

// Allowed upload content types.
var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// DetectType sniffs the content type of data and reports whether it is an
// accepted document format together with the file extension to store it under.
func DetectType(data []byte) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok = allowedTypes[contentType]
	return contentType, ext, ok
}

// Shrink downsizes an image so neither side exceeds maxDim and re-encodes it
// as JPEG. Images already within bounds, and anything that is not a decodable
// image, are returned unchanged with their original content type.
func Shrink(data []byte, contentType string, maxDim uint) ([]byte, string, error) {
	if maxDim == 0 || !strings.HasPrefix(contentType, "image/") {
		return data, contentType, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, contentType, nil
	}
	b := img.Bounds()
	if uint(b.Dx()) <= maxDim && uint(b.Dy()) <= maxDim {
		return data, contentType, nil
	}

	small := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}
