// Package storage keeps uploaded media on local disk or in an S3-compatible
// bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/church-platform/internal/config"
)

var ErrInvalidKey = errors.New("invalid_storage_key")

// Store persists objects and reports the URL they are served from.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Uploader normalizes images and writes them to a Store.
type Uploader struct {
	store  Store
	maxDim int
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, maxDim: MaxImageDimension}
}

// SaveImage re-encodes r as WebP under prefix/<uuid>.webp.
func (u *Uploader) SaveImage(ctx context.Context, prefix string, r io.Reader) (Object, error) {
	data, err := ProcessImage(r, u.maxDim)
	if err != nil {
		return Object{}, err
	}

	key := path.Join(prefix, uuid.NewString()+".webp")
	url, err := u.store.Put(ctx, key, "image/webp", data)
	if err != nil {
		return Object{}, fmt.Errorf("store image: %w", err)
	}
	return Object{Key: key, URL: url}, nil
}

func (u *Uploader) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return u.store.Delete(ctx, key)
}

// New picks S3 when a bucket is configured and local disk otherwise.
func New(ctx context.Context, opts config.StorageOptions, log logrus.FieldLogger) (Store, error) {
	if opts.S3Bucket != "" {
		log.WithField("bucket", opts.S3Bucket).Info("using s3 media storage")
		s3Store, err := NewS3(ctx, S3Config{
			Bucket:    opts.S3Bucket,
			Region:    opts.S3Region,
			Endpoint:  opts.S3Endpoint,
			AccessKey: opts.S3AccessKey,
			SecretKey: opts.S3SecretKey,
			PublicURL: opts.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	}
	log.WithField("dir", opts.UploadDir).Info("using local media storage")
	local, err := NewLocal(opts.UploadDir, opts.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return local, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
