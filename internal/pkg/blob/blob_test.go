package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Put(ctx, "abc123", "image/png", strings.NewReader("png-bytes"), 9))

	rc, err := l.Open(ctx, "abc123")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, l.Delete(ctx, "abc123"))
	_, err = l.Open(ctx, "abc123")
	assert.ErrorIs(t, err, ErrNotExist)
	assert.NoError(t, l.Delete(ctx, "abc123"))
}

func TestLocalRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, l.Put(ctx, "../evil", "", strings.NewReader("x"), 1))
	_, err = l.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalPutHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = l.Put(ctx, "k", "", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = l.Open(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotExist)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	f.types[*in.Bucket+"/"+*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3UsesPrefixAndMapsMissingKey(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	s := &S3{client: fake, bucket: "memo", prefix: "uploads"}

	require.NoError(t, s.Put(ctx, "f1", "", strings.NewReader("hello"), 5))
	assert.Contains(t, fake.objects, "memo/uploads/f1")
	assert.Equal(t, "application/octet-stream", fake.types["memo/uploads/f1"])

	rc, err := s.Open(ctx, "f1")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, "f1"))
	_, err = s.Open(ctx, "f1")
	assert.True(t, errors.Is(err, ErrNotExist))
}
