package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lshigami/nodo-plus/config"
	"github.com/rs/zerolog/log"
)

// Provider is recorded on attachment rows.
const Provider = "r2"

var ErrNotConfigured = errors.New("object storage not configured")

// ObjectStorage stores opaque blobs by key and hands out signed URLs.
type ObjectStorage interface {
	Enabled() bool
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

// S3Storage talks to any S3 compatible endpoint, Cloudflare R2 included.
type S3Storage struct {
	Client        *s3.Client
	Presigner     *s3.PresignClient
	Bucket        string
	PublicBaseURL string
}

func NewObjectStorage(cfg *config.Config) (ObjectStorage, error) {
	st := cfg.Storage
	if st.Bucket == "" {
		log.Warn().Msg("R2_BUCKET_NAME is not set. Attachment uploads will be rejected.")
		return &S3Storage{}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(st.Region)}
	if st.AccessKeyID != "" && st.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(st.AccessKeyID, st.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	endpoint := Endpoint(st)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	log.Info().Str("bucket", st.Bucket).Str("endpoint", endpoint).Msg("Object storage configured")
	return &S3Storage{
		Client:        client,
		Presigner:     s3.NewPresignClient(client),
		Bucket:        st.Bucket,
		PublicBaseURL: strings.TrimRight(st.PublicBaseURL, "/"),
	}, nil
}

// Endpoint returns the explicit endpoint or the one derived from the R2
// account id. Empty means the default AWS endpoint.
func Endpoint(st config.Storage) string {
	if st.Endpoint != "" {
		return st.Endpoint
	}
	if st.AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", st.AccountID)
	}
	return ""
}

func (s *S3Storage) Enabled() bool { return s != nil && s.Client != nil && s.Bucket != "" }

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL joins the public base URL and key. Without a base URL it falls
// back to an r2:// style reference.
func (s *S3Storage) PublicURL(key string) string {
	if s.PublicBaseURL != "" {
		return s.PublicBaseURL + "/" + key
	}
	return fmt.Sprintf("r2://%s/%s", s.Bucket, key)
}
