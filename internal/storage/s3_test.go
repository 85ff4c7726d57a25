package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/config"
)

type fakeS3 struct {
	objects map[string]string
	headErr error
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{ETag: aws.String(`"etag-1"`)}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/plain"),
		LastModified:  aws.Time(time.Unix(0, 0)),
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string]string{}}
	st := &s3Storage{client: fake, bucket: "docs"}

	info, err := st.Put(ctx, "documents/a/hello.txt", strings.NewReader("hello"), PutObjectOptions{Size: 5, ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "etag-1", info.ETag)

	body, got, err := st.Get(ctx, "documents/a/hello.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), got.Size)
	assert.Equal(t, "text/plain", got.ContentType)

	_, _, err = st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Delete(ctx, "documents/a/hello.txt"))
	assert.Equal(t, []string{"documents/a/hello.txt"}, fake.deleted)

	assert.ErrorIs(t, st.Delete(ctx, "documents/a/hello.txt"), ErrNotFound)
	assert.Len(t, fake.deleted, 1)

	fake.headErr = errors.New("access denied")
	err = st.Delete(ctx, "whatever")
	assert.EqualError(t, err, "access denied")

	_, err = st.PresignGet(ctx, "k", time.Minute)
	assert.Error(t, err)
}

func TestIsS3NotFound(t *testing.T) {
	assert.True(t, isS3NotFound(&types.NoSuchKey{}))
	assert.True(t, isS3NotFound(&types.NotFound{}))
	assert.True(t, isS3NotFound(&smithy.GenericAPIError{Code: "NoSuchBucket"}))
	assert.False(t, isS3NotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isS3NotFound(errors.New("boom")))
}

func TestBaseURLs(t *testing.T) {
	assert.Equal(t, "https://docs.s3.us-east-2.amazonaws.com", S3BaseURL(config.S3Config{Bucket: "docs", Region: "us-east-2"}))
	assert.Equal(t, "http://minio:9000/docs", S3BaseURL(config.S3Config{Bucket: "docs", Endpoint: "http://minio:9000/"}))
	assert.Equal(t, "https://minio:9000/docs", MinIOBaseURL(config.MinIOConfig{Endpoint: "minio:9000", Bucket: "docs", UseSSL: true}))
}
