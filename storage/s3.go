// Package storage implements the file storage boundary on S3-compatible
// object stores (AWS S3, MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config points at one bucket on an S3-compatible endpoint.
type Config struct {
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// FileStore writes uploads under uploads/<folder>/<uuid>.<ext> keys.
type FileStore struct {
	client s3API
	bucket string
}

// NewFileStore builds the S3 client from static credentials, with an
// optional custom endpoint for MinIO-style deployments.
func NewFileStore(ctx context.Context, cfg Config) (*FileStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &FileStore{client: client, bucket: cfg.Bucket}, nil
}

// NewFileStoreWithClient injects a prebuilt client (used in tests).
func NewFileStoreWithClient(client s3API, bucket string) *FileStore {
	return &FileStore{client: client, bucket: bucket}
}

// Put stores the content under a fresh uuid key in the folder and returns
// the stored filename. When oldFilename names a previously stored object it
// is deleted after the write; external URLs are left alone.
func (f *FileStore) Put(ctx context.Context, content []byte, folder, ext, oldFilename string) (string, error) {
	filename := fmt.Sprintf("%s%s", uuid.New(), normalizeExt(ext))
	key := objectKey(folder, filename)

	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return "", err
	}

	if oldFilename != "" && !isExternalURL(oldFilename) {
		// best-effort: a stale object is not worth failing the upload over
		_ = f.Delete(ctx, oldFilename, folder)
	}

	return filename, nil
}

// Delete removes a stored file. External URLs and empty names are no-ops.
func (f *FileStore) Delete(ctx context.Context, filename, folder string) error {
	if filename == "" || isExternalURL(filename) {
		return nil
	}

	key := objectKey(folder, path.Base(filename))
	if folder == "" {
		if strings.HasPrefix(filename, "uploads/") {
			key = filename
		} else {
			key = "uploads/" + filename
		}
	}

	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	return err
}

func objectKey(folder, filename string) string {
	return fmt.Sprintf("uploads/%s/%s", folder, filename)
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}

func isExternalURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
