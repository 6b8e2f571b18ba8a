// Package media stores uploaded banner images in S3 and hands back the
// public URL that is saved with the banner.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Uploader puts an image somewhere public and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// objectPutter is the part of *s3.Client used here.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes objects under Prefix in Bucket.  URLs are built from
// PublicBaseURL when set (a CDN in front of the bucket), otherwise from
// the virtual-hosted bucket endpoint.
type S3Uploader struct {
	client        objectPutter
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
}

// NewS3Uploader loads the default AWS credential chain.
func NewS3Uploader(ctx context.Context, bucket, publicBaseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Uploader{
		client:        s3.NewFromConfig(cfg),
		Bucket:        bucket,
		Region:        cfg.Region,
		Prefix:        "banners",
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Upload stores body under a fresh random key keeping the file extension.
func (u *S3Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := path.Join(u.Prefix, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return u.url(key), nil
}

func (u *S3Uploader) url(key string) string {
	if u.PublicBaseURL != "" {
		return u.PublicBaseURL + "/" + key
	}
	if u.Region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.Bucket, u.Region, key)
}
