package feather

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feather-classroom/feather/config"
)

func pngOf(t *testing.T, w, h int) io.Reader {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 255, A: 255})
	}
	buf := &bytes.Buffer{}
	require.Nil(t, png.Encode(buf, img))
	return buf
}

func TestImageNew(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)

	img, err := p.ImageNew(s, pngOf(t, 3200, 800))
	assert.Nil(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, 1600, img.Width)
	assert.Equal(t, 400, img.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
	assert.Nil(t, err)
	assert.Equal(t, image.Rect(0, 0, 1600, 400), decoded.Bounds())

	loaded, err := p.ImageGet(img.Id)
	assert.Nil(t, err)
	assert.Equal(t, img.Data, loaded.Data)
}

func TestImageNew_SmallImagesKeepTheirSize(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)

	img, err := p.ImageNew(s, pngOf(t, 300, 600))
	assert.Nil(t, err)
	assert.Equal(t, 300, img.Width)
	assert.Equal(t, 600, img.Height)
}

func TestImageNew_Rejected(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)

	_, err := p.ImageNew(s, strings.NewReader("definitely not an image"))
	assert.True(t, errors.Is(err, ErrInvalidImage))

	defer func(mb int) { config.MaxUploadMB = mb }(config.MaxUploadMB)
	config.MaxUploadMB = 0
	_, err = p.ImageNew(s, pngOf(t, 10, 10))
	assert.Equal(t, ErrImageTooLarge, err)
}

func TestImageNew_TooManyPixels(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)

	// a flat gray canvas compresses to a few kilobytes whatever its size
	buf := &bytes.Buffer{}
	require.Nil(t, png.Encode(buf, image.NewGray(image.Rect(0, 0, 2000, 1500))))
	require.Less(t, buf.Len(), 1<<20)

	defer func(px int) { config.MaxImagePixels = px }(config.MaxImagePixels)
	config.MaxImagePixels = 2000 * 1500
	_, err := p.ImageNew(s, bytes.NewReader(buf.Bytes()))
	assert.Nil(t, err)

	config.MaxImagePixels = 2000*1500 - 1
	_, err = p.ImageNew(s, bytes.NewReader(buf.Bytes()))
	assert.Equal(t, ErrImageTooLarge, err)
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 3000))

	assert.Equal(t, image.Rect(0, 0, 500, 1500), fit(src, 1500).Bounds())
	assert.Equal(t, image.Rect(0, 0, 1000, 3000), fit(src, 0).Bounds())
	assert.Equal(t, image.Rect(0, 0, 1, 3000), fit(image.NewRGBA(image.Rect(0, 0, 1, 9000)), 3000).Bounds())
}
