package assets

import (
	"bytes"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// maxImageDim bounds uploaded images; anything larger is downscaled
// keep-aspect before hitting the store. PDFs and unknown formats pass
// through untouched.
const maxImageDim = 1600

// NormalizeImage downscales oversized JPEG/PNG content and returns the bytes
// to upload. Decode failures are not fatal: the original bytes are returned
// so an odd-but-valid file still reaches the store.
func NormalizeImage(content []byte, contentType string) []byte {
	if !strings.HasPrefix(contentType, "image/") {
		return content
	}
	img, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return content
	}
	b := img.Bounds()
	if b.Dx() <= maxImageDim && b.Dy() <= maxImageDim {
		return content
	}
	resized := imaging.Fit(img, maxImageDim, maxImageDim, imaging.Lanczos)

	var out bytes.Buffer
	switch format {
	case "png":
		err = imaging.Encode(&out, resized, imaging.PNG)
	default:
		err = imaging.Encode(&out, resized, imaging.JPEG, imaging.JPEGQuality(85))
	}
	if err != nil {
		return content
	}
	return out.Bytes()
}
