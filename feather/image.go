package feather

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/feather/types"
)

const jpegQuality = 80

func (p *feather) ImageNew(s *types.Session, r io.Reader) (*types.Image, error) {
	defer observeAction("ImageNew", time.Now())

	current, err := p.storage.SessionGet(s.Id)
	if err != nil {
		return nil, err
	}
	if current.IsEnded() {
		return nil, ErrSessionEnded
	}

	limit := int64(config.MaxUploadMB) << 20
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > limit {
		return nil, ErrImageTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrInvalidImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(config.MaxImagePixels) {
		return nil, ErrImageTooLarge
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}

	dst := fit(src, config.MaxImageDimension)
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}

	img := &types.Image{
		Id:          p.generator.NewId(),
		SessionId:   s.Id,
		ContentType: "image/jpeg",
		Width:       dst.Bounds().Dx(),
		Height:      dst.Bounds().Dy(),
		Data:        buf.Bytes(),
		CreatedAt:   time.Now(),
	}
	if err := p.storage.ImagePut(img); err != nil {
		log.Println(err)
		return nil, err
	}

	log.WithFields(log.Fields{"session": s.Id, "image": img.Id}).Infof("Stored %s image %dx%d as %d bytes of jpeg", format, img.Width, img.Height, len(img.Data))
	return img, nil
}

func (p *feather) ImageGet(id string) (*types.Image, error) {
	defer observeAction("ImageGet", time.Now())

	return p.storage.ImageGet(id)
}

// fit draws src over a white background, scaled down so that its longest side
// is at most maxSide pixels.
func fit(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		if w >= h {
			h = h * maxSide / w
			w = maxSide
		} else {
			w = w * maxSide / h
			h = maxSide
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
