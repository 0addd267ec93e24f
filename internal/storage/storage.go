package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/logging"
	"github.com/user/foodlog/internal/metrics"
)

// Uploader stores an image and returns a URL the completion provider can fetch
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType, filename string) (string, error)
}

// PutObjectAPI is the subset of the S3 client used by S3Uploader
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// S3Uploader uploads to any S3-compatible object store
type S3Uploader struct {
	client        PutObjectAPI
	bucket        string
	keyPrefix     string
	publicBaseURL string
	publicRead    bool
	logger        *logging.Logger
	now           func() time.Time
}

// NewS3Uploader builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.WrapError(err, "Failed to load object storage configuration", errors.KindConfig)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
		if cfg.MaxAttempts > 0 {
			o.RetryMaxAttempts = cfg.MaxAttempts
		}
	})

	return NewS3UploaderWithClient(client, cfg, logger), nil
}

// NewS3UploaderWithClient creates an uploader around an existing client
func NewS3UploaderWithClient(client PutObjectAPI, cfg config.StorageConfig, logger *logging.Logger) *S3Uploader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = cfg.Endpoint
	}

	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		keyPrefix:     strings.Trim(cfg.KeyPrefix, "/"),
		publicBaseURL: strings.TrimRight(base, "/"),
		publicRead:    cfg.PublicRead,
		logger:        logger.Named("storage"),
		now:           time.Now,
	}
}

// Upload stores data under a unique key and returns its public URL
func (u *S3Uploader) Upload(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	key := u.objectKey(filename)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if u.publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	start := time.Now()
	if _, err := u.client.PutObject(ctx, input); err != nil {
		metrics.StorageUploads.WithLabelValues(metrics.OutcomeFailure).Inc()
		u.logger.Error("upload failed",
			logging.String("bucket", u.bucket),
			logging.String("key", key),
			logging.Error(err),
		)
		return "", errors.NewStorageUnavailableError(u.bucket, err)
	}

	metrics.StorageUploads.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.StorageUploadBytes.Observe(float64(len(data)))
	u.logger.Debug("upload completed",
		logging.String("key", key),
		logging.Int("bytes", len(data)),
		logging.Duration("duration", time.Since(start)),
	)

	return u.PublicURL(key), nil
}

// PublicURL returns the URL at which key is served
func (u *S3Uploader) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", u.publicBaseURL, u.bucket, key)
}

// objectKey returns <prefix>/<unix-ms>-<uuid>-<name>
func (u *S3Uploader) objectKey(filename string) string {
	name := fmt.Sprintf("%d-%s-%s", u.now().UnixMilli(), uuid.NewString(), SanitizeFilename(filename))
	if u.keyPrefix == "" {
		return name
	}
	return u.keyPrefix + "/" + name
}

// SanitizeFilename reduces an uploaded file name to a safe object key segment
func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "photo"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}
