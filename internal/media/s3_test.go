package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUploadUsesPublicBase(t *testing.T) {
	p := &fakePutter{}
	u := &S3Uploader{client: p, Bucket: "assets", Prefix: "banners", PublicBaseURL: "https://cdn.example.com"}

	url, err := u.Upload(context.Background(), "Summer.PNG", "image/png", strings.NewReader("img"))
	require.NoError(t, err)

	key := aws.ToString(p.in.Key)
	assert.True(t, strings.HasPrefix(key, "banners/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "assets", aws.ToString(p.in.Bucket))
	assert.Equal(t, "image/png", aws.ToString(p.in.ContentType))
	assert.Equal(t, "img", p.body)
	assert.Equal(t, "https://cdn.example.com/"+key, url)
}

func TestUploadBucketURL(t *testing.T) {
	u := &S3Uploader{client: &fakePutter{}, Bucket: "assets", Region: "ap-southeast-1", Prefix: "banners"}
	url, err := u.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://assets.s3.ap-southeast-1.amazonaws.com/banners/"))
}

func TestUploadError(t *testing.T) {
	u := &S3Uploader{client: &fakePutter{err: errors.New("denied")}, Bucket: "assets"}
	_, err := u.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader(""))
	assert.ErrorContains(t, err, "denied")
}
