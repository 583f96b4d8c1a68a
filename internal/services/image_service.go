package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"market-admin/internal/models"
	"market-admin/internal/storage"
)

type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, bucket, key string) error
	KeyFromURL(bucket, url string) (string, bool)
}

// ImageService stores uploaded pictures and attaches them to products and
// submissions.
type ImageService struct {
	Store       ObjectStore
	Products    *ProductService
	Submissions *SubmissionService
	logger      *logrus.Logger
	now         func() time.Time
}

func NewImageService(store ObjectStore, products *ProductService, submissions *SubmissionService, logger *logrus.Logger) *ImageService {
	return &ImageService{Store: store, Products: products, Submissions: submissions, logger: logger, now: time.Now}
}

func (s *ImageService) AddProductImage(ctx context.Context, actor Actor, productID string, data []byte) (*models.Product, error) {
	if _, err := s.Products.Get(ctx, productID); err != nil {
		return nil, err
	}
	url, key, err := s.put(ctx, storage.ProductBucket, "products", data, storage.MaxProductImageSize)
	if err != nil {
		return nil, err
	}
	p, err := s.Products.AddImage(ctx, actor, productID, url)
	if err != nil {
		s.discard(ctx, storage.ProductBucket, key)
		return nil, err
	}
	return p, nil
}

// RemoveProductImage detaches url from the product and deletes the object
// when it lives in our bucket.
func (s *ImageService) RemoveProductImage(ctx context.Context, actor Actor, productID, url string) (*models.Product, error) {
	p, err := s.Products.RemoveImage(ctx, actor, productID, url)
	if err != nil {
		return nil, err
	}
	if key, ok := s.Store.KeyFromURL(storage.ProductBucket, url); ok {
		s.discard(ctx, storage.ProductBucket, key)
	}
	return p, nil
}

func (s *ImageService) AddSubmissionImage(ctx context.Context, actor Actor, submissionID string, data []byte) (*models.ItemSubmission, error) {
	if _, err := s.Submissions.Get(ctx, submissionID); err != nil {
		return nil, err
	}
	url, key, err := s.put(ctx, storage.SubmissionBucket, "submissions", data, storage.MaxSubmissionImageSize)
	if err != nil {
		return nil, err
	}
	sub, err := s.Submissions.AddImage(ctx, actor, submissionID, url)
	if err != nil {
		s.discard(ctx, storage.SubmissionBucket, key)
		return nil, err
	}
	return sub, nil
}

func (s *ImageService) put(ctx context.Context, bucket, folder string, data []byte, limit int) (string, string, error) {
	img, err := storage.PrepareImage(data, limit)
	if err != nil {
		return "", "", err
	}
	key := storage.ObjectKey(folder, img.Ext, s.now())
	url, err := s.Store.Upload(ctx, bucket, key, img.ContentType, img.Data)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

func (s *ImageService) discard(ctx context.Context, bucket, key string) {
	if err := s.Store.Delete(ctx, bucket, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to delete stored image")
	}
}
