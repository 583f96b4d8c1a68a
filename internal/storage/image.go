package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	MaxProductImageSize    = 5 << 20
	MaxSubmissionImageSize = 10 << 20

	maxWidth  = 800
	maxHeight = 600
)

var (
	ErrUnsupportedImage = errors.New("only JPEG, PNG and WebP images are allowed")
	ErrImageTooLarge    = errors.New("image exceeds the size limit")
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Image is a validated upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// PrepareImage sniffs the content type, enforces the size limit and shrinks
// JPEG and PNG images to fit 800x600. WebP is stored unchanged.
func PrepareImage(data []byte, limit int) (*Image, error) {
	if len(data) > limit {
		return nil, fmt.Errorf("%w (%d MB)", ErrImageTooLarge, limit>>20)
	}
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}
	if contentType == "image/webp" {
		return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
	}

	resized := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
	var buf bytes.Buffer
	if contentType == "image/png" {
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 80})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &Image{Data: buf.Bytes(), ContentType: contentType, Ext: ext}, nil
}

// ObjectKey builds a collision-free key such as products/1700000000000-<uuid>.jpg.
func ObjectKey(folder, ext string, now time.Time) string {
	return path.Join(folder, fmt.Sprintf("%d-%s.%s", now.UnixMilli(), uuid.NewString(), ext))
}
