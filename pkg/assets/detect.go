package assets

import (
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// DetectResourceType decides image vs raw for an upload: content type wins,
// file extension is the fallback, image is the default.
func DetectResourceType(contentType, filename string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "application/pdf" {
		return ResourceRaw
	}
	if strings.HasPrefix(ct, "image/") {
		return ResourceImage
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".pdf" {
		return ResourceRaw
	}
	if imageExtensions[ext] {
		return ResourceImage
	}
	return ResourceImage
}
