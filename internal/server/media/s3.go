// Package media stores uploaded files in an S3-compatible bucket.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/vidtube/internal/filex"
	"github.com/dmitrijs2005/vidtube/internal/logging"
)

// Config describes the bucket and how to reach it.
type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	// PublicURL prefixes object URLs when set; otherwise the path-style
	// endpoint URL of the object is used.
	PublicURL string
}

// Asset is a stored object.
type Asset struct {
	URL         string
	PublicID    string
	ContentType string
	Size        int64
}

// objectAPI is the part of *s3.Client the uploader uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Uploader struct {
	api       objectAPI
	bucket    string
	publicURL string
	log       logging.Logger
	now       func() time.Time
}

// NewS3Uploader builds a client with static credentials and path-style
// addressing, which MinIO and most S3 clones require.
func NewS3Uploader(ctx context.Context, c Config, log logging.Logger) (*S3Uploader, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	api := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	})

	return newUploader(api, c, log), nil
}

func newUploader(api objectAPI, c Config, log logging.Logger) *S3Uploader {
	public := c.PublicURL
	if public == "" {
		public = strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
	}
	return &S3Uploader{
		api:       api,
		bucket:    c.Bucket,
		publicURL: strings.TrimRight(public, "/"),
		log:       log.With("module", "media"),
		now:       time.Now,
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (u *S3Uploader) EnsureBucket(ctx context.Context) error {
	if _, err := u.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)}); err == nil {
		return nil
	}
	if _, err := u.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(u.bucket)}); err != nil {
		return fmt.Errorf("create bucket %s: %w", u.bucket, err)
	}
	u.log.Info(ctx, "bucket created", "bucket", u.bucket)
	return nil
}

// ObjectKey returns a fresh key of the form media/YYYY/M/D/<uuid><ext>.
func ObjectKey(t time.Time, ext string) string {
	return fmt.Sprintf("media/%d/%d/%d/%s%s", t.Year(), t.Month(), t.Day(), uuid.New(), strings.ToLower(ext))
}

// Upload stores the file at localPath and returns where it lives. The local
// file is removed afterwards whether or not the upload succeeded.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (*Asset, error) {
	if localPath == "" {
		return nil, errors.New("media: empty file path")
	}
	defer func() {
		if err := filex.RemoveQuietly(localPath); err != nil {
			u.log.Warn(ctx, "temp file cleanup failed", "path", localPath, "error", err)
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}

	ext := filepath.Ext(localPath)
	contentType, err := detectContentType(f, ext)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(u.now(), ext)
	_, err = u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	u.log.Debug(ctx, "object stored", "key", key, "size", info.Size())

	return &Asset{
		URL:         u.publicURL + "/" + key,
		PublicID:    key,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

// Delete removes an object previously returned by Upload.
func (u *S3Uploader) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := u.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

func detectContentType(f *os.File, ext string) (string, error) {
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct, nil
	}

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}
