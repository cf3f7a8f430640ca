// Package media validates uploaded documents and prepares the embedded
// preview image stored alongside a recipe.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"recipe-scanner/internal/pkg/common"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// MIME types accepted for upload.
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeGIF  = "image/gif"
	TypeWebP = "image/webp"
	TypePDF  = "application/pdf"
)

var allowedTypes = map[string]bool{
	TypeJPEG: true,
	TypePNG:  true,
	TypeGIF:  true,
	TypeWebP: true,
	TypePDF:  true,
}

// Processor prepares uploaded media. maxWidth bounds the stored preview
// image; wider uploads are downscaled, narrower ones pass through.
type Processor struct {
	maxWidth uint
	quality  int
}

// NewProcessor creates a media processor.
func NewProcessor(maxWidth uint, quality int) *Processor {
	return &Processor{maxWidth: maxWidth, quality: quality}
}

// DetectType sniffs the MIME type from the file content, ignoring the
// client-declared type entirely. Unsupported content fails with
// ErrInvalidFileType.
func DetectType(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	// DetectContentType may append a charset suffix.
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if !allowedTypes[mime] {
		return "", common.ErrInvalidFileType
	}
	return mime, nil
}

// IsImage reports whether mime is one of the accepted raster image types.
func IsImage(mime string) bool {
	return mime != TypePDF && allowedTypes[mime]
}

// Preview decodes an uploaded image, downscales it to the configured width,
// and returns it as a JPEG data URI for embedding in the stored record.
func (p *Processor) Preview(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if uint(img.Bounds().Dx()) > p.maxWidth {
		img = resize.Resize(p.maxWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}

	return DataURI(TypeJPEG, buf.Bytes()), nil
}

// DataURI encodes data as a base64 data URI with the given MIME type.
func DataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
