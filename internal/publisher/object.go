package publisher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"hangmantrainer/internal/config"
	"hangmantrainer/internal/models"
	"hangmantrainer/internal/report"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectCollector uploads each result's text report to an S3-compatible bucket
type ObjectCollector struct {
	client objectPutter
	bucket string
}

func NewObjectCollector(ctx context.Context, cfg config.S3Config) (*ObjectCollector, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &ObjectCollector{client: client, bucket: cfg.Bucket}, nil
}

func (c *ObjectCollector) Name() string {
	return "object"
}

// ObjectName is the key a result is stored under
func ObjectName(r models.LevelResult, id string) string {
	return fmt.Sprintf("results/%s/%s_level%02d_%s.txt", report.SafeName(r.EmployeeID), r.Timestamp.UTC().Format("20060102T150405"), r.Level, id)
}

func (c *ObjectCollector) Collect(ctx context.Context, result models.LevelResult) error {
	body := report.FormatResult(result)
	_, err := c.client.PutObject(ctx, c.bucket, ObjectName(result, uuid.NewString()), strings.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("failed to upload result: %w", err)
	}
	return nil
}
