// Package artifact stores finished images and hands back the opaque
// reference recorded on the job. Completion events carry only this
// reference; consumers fetch bytes separately.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"

	"ai-image-service/internal/config"
)

// Store persists one artifact per job and returns its reference.
type Store interface {
	Save(ctx context.Context, jobID string, png []byte) (string, error)
}

const previewWidth = 256

// preview renders the small JPEG written alongside every artifact.
func preview(png []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	thumb := imaging.Resize(img, previewWidth, 0, imaging.Lanczos)
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// LocalStore writes artifacts under a base directory.
type LocalStore struct {
	baseDir string
}

// NewLocal builds a directory-backed store.
func NewLocal(baseDir string) *LocalStore {
	if baseDir == "" {
		baseDir = "./output"
	}
	return &LocalStore{baseDir: baseDir}
}

func (l *LocalStore) Save(_ context.Context, jobID string, png []byte) (string, error) {
	path := filepath.Join(l.baseDir, jobID+".png")
	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create dirs: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	if thumb, err := preview(png); err == nil {
		thumbPath := filepath.Join(l.baseDir, "thumbs", jobID+".jpg")
		if err := os.MkdirAll(filepath.Dir(thumbPath), 0o755); err == nil {
			_ = os.WriteFile(thumbPath, thumb, 0o644)
		}
	}
	return path, nil
}

// S3Store uploads artifacts and previews to a bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3-backed store, honoring a custom endpoint for local
// S3-compatible services.
func NewS3(ctx context.Context, cfg config.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ArtifactS3Region),
	}
	if cfg.ArtifactS3Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:               cfg.ArtifactS3Endpoint,
					HostnameImmutable: cfg.ArtifactS3PathStyle,
					SigningRegion:     cfg.ArtifactS3Region,
					Source:            aws.EndpointSourceCustom,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ArtifactS3PathStyle
	})
	return &S3Store{client: client, bucket: cfg.ArtifactS3Bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, jobID string, png []byte) (string, error) {
	key := jobID + ".png"
	if err := s.put(ctx, key, png, "image/png"); err != nil {
		return "", err
	}
	if thumb, err := preview(png); err == nil {
		_ = s.put(ctx, "thumbs/"+jobID+".jpg", thumb, "image/jpeg")
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *S3Store) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
