package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the production Uploader: finished parquet parts land in an
// S3-compatible bucket under hive-style date partitions.
type ObjectStore struct {
	mc     *minio.Client
	bucket string
}

func NewMinIO(endpoint, access, secret string, useTLS bool, bucket string) (*ObjectStore, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", endpoint, err)
	}
	return &ObjectStore{mc: mc, bucket: bucket}, nil
}

// EnsureBucket creates the archive bucket on first boot; a bucket that
// already exists is not an error.
func (c *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("bucket lookup %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	return nil
}

func (c *ObjectStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := c.mc.PutObject(ctx, c.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s to bucket %s: %w", objectName, c.bucket, err)
	}
	return nil
}

// BuildObjectPath lays parts out as <base>/year=YYYY/month=MM/day=DD/<file>,
// so downstream readers can prune partitions by date.
func BuildObjectPath(basePath string, t time.Time, file string) string {
	u := t.UTC()
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s",
		basePath, u.Year(), u.Month(), u.Day(), file)
}
