package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"recipe-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectType(t *testing.T) {
	mime, err := DetectType(encodePNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, TypePNG, mime)

	pdf := []byte("%PDF-1.4\n%fake document")
	mime, err = DetectType(pdf)
	require.NoError(t, err)
	assert.Equal(t, TypePDF, mime)

	_, err = DetectType([]byte("just some text, not a recipe photo"))
	assert.ErrorIs(t, err, common.ErrInvalidFileType)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage(TypeJPEG))
	assert.True(t, IsImage(TypeWebP))
	assert.False(t, IsImage(TypePDF))
	assert.False(t, IsImage("text/html"))
}

func TestPreviewDownscalesWideImages(t *testing.T) {
	p := NewProcessor(800, 85)

	uri, err := p.Preview(encodePNG(t, 1600, 400))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy(), "aspect ratio preserved")
}

func TestPreviewKeepsSmallImages(t *testing.T) {
	p := NewProcessor(800, 85)

	uri, err := p.Preview(encodePNG(t, 100, 50))
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestPreviewRejectsNonImage(t *testing.T) {
	p := NewProcessor(800, 85)

	_, err := p.Preview([]byte("%PDF-1.4 not an image"))
	assert.Error(t, err)
}
