package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"market-admin/internal/models"
	"market-admin/internal/storage"
)

type fakeObjects struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeObjects) Upload(_ context.Context, bucket, key, _ string, data []byte) (string, error) {
	f.objects[bucket+"/"+key] = data
	return "https://cdn.example.com/" + bucket + "/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, bucket, key string) error {
	f.deleted = append(f.deleted, bucket+"/"+key)
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) KeyFromURL(bucket, url string) (string, bool) {
	prefix := "https://cdn.example.com/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProductImageRoundTrip(t *testing.T) {
	products, _, _ := newProductService()
	objects := &fakeObjects{objects: map[string][]byte{}}
	svc := NewImageService(objects, products, nil, testLogger())
	ctx := context.Background()

	p, _ := products.Create(ctx, Actor{}, &models.ProductInput{Name: "Vase"})
	p, err := svc.AddProductImage(ctx, Actor{}, p.ID, tinyPNG(t))
	if err != nil {
		t.Fatalf("AddProductImage: %v", err)
	}
	if len(p.Images) != 1 || !strings.HasPrefix(p.Images[0], "https://cdn.example.com/product-images/products/") {
		t.Fatalf("images = %v", p.Images)
	}

	p, err = svc.RemoveProductImage(ctx, Actor{}, p.ID, p.Images[0])
	if err != nil {
		t.Fatalf("RemoveProductImage: %v", err)
	}
	if len(p.Images) != 0 || len(objects.objects) != 0 || len(objects.deleted) != 1 {
		t.Errorf("image not removed: %v %v", p.Images, objects.objects)
	}
}

func TestProductImageRejectsNonImage(t *testing.T) {
	products, _, _ := newProductService()
	objects := &fakeObjects{objects: map[string][]byte{}}
	svc := NewImageService(objects, products, nil, testLogger())
	ctx := context.Background()
	p, _ := products.Create(ctx, Actor{}, &models.ProductInput{Name: "Vase"})

	if _, err := svc.AddProductImage(ctx, Actor{}, p.ID, []byte("plain text")); !errors.Is(err, storage.ErrUnsupportedImage) {
		t.Errorf("expected ErrUnsupportedImage, got %v", err)
	}
	if _, err := svc.AddProductImage(ctx, Actor{}, "missing", tinyPNG(t)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(objects.objects) != 0 {
		t.Error("nothing should be uploaded")
	}
}

func TestSubmissionImage(t *testing.T) {
	subs, _, _ := newSubmissionService(pendingSubmission("s1"))
	objects := &fakeObjects{objects: map[string][]byte{}}
	svc := NewImageService(objects, nil, subs, testLogger())

	sub, err := svc.AddSubmissionImage(context.Background(), Actor{}, "s1", tinyPNG(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(sub.Images) != 1 || !strings.Contains(sub.Images[0], "/submission-images/submissions/") {
		t.Errorf("images = %v", sub.Images)
	}
}
