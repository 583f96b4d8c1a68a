package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"regexp"
	"testing"
	"time"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPrepareImageResizesLargePNG(t *testing.T) {
	out, err := PrepareImage(encodePNG(t, 1600, 600), MaxProductImageSize)
	if err != nil {
		t.Fatalf("PrepareImage: %v", err)
	}
	if out.ContentType != "image/png" || out.Ext != "png" {
		t.Errorf("unexpected type %s/%s", out.ContentType, out.Ext)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 800 || cfg.Height != 300 {
		t.Errorf("resized to %dx%d, want 800x300", cfg.Width, cfg.Height)
	}
}

func TestPrepareImageKeepsSmallJPEG(t *testing.T) {
	var buf bytes.Buffer
	jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30)), nil)
	out, err := PrepareImage(buf.Bytes(), MaxProductImageSize)
	if err != nil {
		t.Fatal(err)
	}
	if out.Ext != "jpg" || !bytes.Equal(out.Data, buf.Bytes()) {
		t.Error("small images should be stored unchanged")
	}
}

func TestPrepareImageRejects(t *testing.T) {
	if _, err := PrepareImage([]byte("%PDF-1.4 not an image"), MaxProductImageSize); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("expected ErrUnsupportedImage, got %v", err)
	}
	big := make([]byte, MaxProductImageSize+1)
	if _, err := PrepareImage(big, MaxProductImageSize); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("products", "jpg", time.UnixMilli(1700000000000))
	if !regexp.MustCompile(`^products/1700000000000-[0-9a-f-]{36}\.jpg$`).MatchString(key) {
		t.Errorf("unexpected key %q", key)
	}
}

func TestKeyFromURL(t *testing.T) {
	c := &Client{publicURL: "https://cdn.example.com", endpoint: "https://acct.r2.cloudflarestorage.com"}
	url := c.PublicURL(ProductBucket, "products/a.jpg")
	if url != "https://cdn.example.com/product-images/products/a.jpg" {
		t.Errorf("PublicURL = %s", url)
	}
	key, ok := c.KeyFromURL(ProductBucket, url)
	if !ok || key != "products/a.jpg" {
		t.Errorf("KeyFromURL = %q %v", key, ok)
	}
	if _, ok := c.KeyFromURL(ProductBucket, "https://elsewhere.example.com/x.jpg"); ok {
		t.Error("foreign URLs are not ours")
	}
}
