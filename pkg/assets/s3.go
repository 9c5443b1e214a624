package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// callTimeout bounds every remote call; a timeout is classified like any
// other transport failure (upload error, delete "other").
const callTimeout = 30 * time.Second

// S3Config carries the bucket wiring, normally read from the environment in
// main.
type S3Config struct {
	Endpoint  string // S3-compatible endpoint (e.g. R2 account endpoint)
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // base URL objects are served from, no trailing slash
}

// S3Store implements Store on any S3-compatible object store.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	log       *zap.Logger
}

// NewS3Store builds the client the same way for AWS proper and for
// S3-compatible stores behind a custom endpoint.
func NewS3Store(ctx context.Context, cfg S3Config, log *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("assets: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("assets: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		log:       log,
	}, nil
}

// Upload stores content under folder with a unique object key. Raw resources
// are uploaded with a public-read ACL since the store defaults them private.
func (s *S3Store) Upload(ctx context.Context, content []byte, folder, filename, contentType string) (Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resourceType := DetectResourceType(contentType, filename)
	key := objectKey(folder, filename)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	}
	if resourceType == ResourceRaw {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Descriptor{}, &StoreError{Op: "upload", PublicID: key, Err: err}
	}
	s.log.Info("object uploaded",
		zap.String("public_id", key),
		zap.String("resource_type", resourceType),
		zap.Int("bytes", len(content)))
	return Descriptor{
		URL:          s.ResolveURL(key, resourceType),
		PublicID:     key,
		ResourceType: resourceType,
	}, nil
}

// Delete removes an object, classifying the result so cascades can treat
// not_found as success. A missing object is detected up front with a head
// request since S3 deletes are silently idempotent.
func (s *S3Store) Delete(ctx context.Context, publicID, resourceType string) (DeleteStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return DeleteNotFound, nil
		}
		return DeleteOther, &StoreError{Op: "delete", PublicID: publicID, Err: err}
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	}); err != nil {
		return DeleteOther, &StoreError{Op: "delete", PublicID: publicID, Err: err}
	}
	s.log.Info("object deleted", zap.String("public_id", publicID), zap.String("resource_type", resourceType))
	return DeleteOK, nil
}

// Download fetches the object behind a public URL in one piece.
func (s *S3Store) Download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if key, ok := strings.CutPrefix(url, s.publicURL+"/"); ok {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, &StoreError{Op: "download", PublicID: key, Err: err}
		}
		defer out.Body.Close()
		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, &StoreError{Op: "download", PublicID: key, Err: err}
		}
		return data, nil
	}

	// Foreign URL: plain GET.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &StoreError{Op: "download", PublicID: url, Err: err}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &StoreError{Op: "download", PublicID: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StoreError{Op: "download", PublicID: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StoreError{Op: "download", PublicID: url, Err: err}
	}
	return data, nil
}

// ResolveURL derives the public URL for a stored object.
func (s *S3Store) ResolveURL(publicID, resourceType string) string {
	return s.publicURL + "/" + publicID
}

// objectKey builds "<folder>/<uuid>_<cleaned filename>" so repeated uploads
// of the same filename never collide.
func objectKey(folder, filename string) string {
	base := filepath.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return folder + "/" + uuid.NewString() + "_" + base
}

// StoreError wraps any transport or store-side failure so callers see a
// single error type regardless of the SDK behind it.
type StoreError struct {
	Op       string
	PublicID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("asset store %s %s: %v", e.Op, e.PublicID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
