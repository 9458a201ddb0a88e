// Package export uploads score snapshots to S3 for downstream
// consumers (dashboards, notebooks).
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/feanalyst/fe-analyst/internal/scores"
)

// Config holds S3 exporter settings
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string // optional; default credential chain when empty
	SecretKey string
}

// S3Exporter uploads msgpack-encoded score snapshots to S3
type S3Exporter struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
	log      zerolog.Logger
}

// NewS3Exporter creates an exporter, resolving AWS credentials from
// static config when provided or the default chain otherwise
func NewS3Exporter(ctx context.Context, cfg Config, log zerolog.Logger) (*S3Exporter, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &S3Exporter{
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		uploader: manager.NewUploader(client),
		log:      log.With().Str("component", "s3_exporter").Logger(),
	}, nil
}

// snapshot is the exported payload shape
type snapshot struct {
	ExportedAt time.Time       `msgpack:"exported_at"`
	Records    []scores.Record `msgpack:"records"`
}

// Export encodes the records and uploads them under a timestamped key
func (e *S3Exporter) Export(ctx context.Context, records []scores.Record) error {
	payload, err := msgpack.Marshal(snapshot{
		ExportedAt: time.Now().UTC(),
		Records:    records,
	})
	if err != nil {
		return fmt.Errorf("failed to encode score snapshot: %w", err)
	}

	key := fmt.Sprintf("%s/scores-%s.msgpack", e.prefix, time.Now().UTC().Format("20060102T150405Z"))

	_, err = e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to upload score snapshot to s3://%s/%s: %w", e.bucket, key, err)
	}

	e.log.Info().
		Str("bucket", e.bucket).
		Str("key", key).
		Int("records", len(records)).
		Msg("Score snapshot exported")

	return nil
}
