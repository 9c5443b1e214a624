package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectResourceType(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		filename    string
		want        string
	}{
		{"pdf content type", "application/pdf", "doc.bin", ResourceRaw},
		{"image content type", "image/png", "photo", ResourceImage},
		{"content type wins over extension", "image/jpeg", "scan.pdf", ResourceImage},
		{"pdf extension fallback", "application/octet-stream", "comprobante.pdf", ResourceRaw},
		{"image extension fallback", "", "logo.JPG", ResourceImage},
		{"unknown defaults to image", "application/octet-stream", "archivo.bin", ResourceImage},
		{"empty everything defaults to image", "", "", ResourceImage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectResourceType(tc.contentType, tc.filename))
		})
	}
}
