package exchange

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aleciaid/crm-bj/internal/core/config"
)

// Archiver stores a finished export somewhere outside the service.
type Archiver interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// BucketArchiver uploads exports to an S3-compatible bucket.
type BucketArchiver struct {
	client objectPutter
	bucket string
	prefix string
}

// NewBucketArchiver returns nil when archiving is not configured.
func NewBucketArchiver(cfg config.ArchiveConfig) (*BucketArchiver, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	return &BucketArchiver{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *BucketArchiver) objectName(name string) string {
	prefix := strings.Trim(a.prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (a *BucketArchiver) Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	object := a.objectName(name)
	_, err := a.client.PutObject(ctx, a.bucket, object, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return a.bucket + "/" + object, nil
}
