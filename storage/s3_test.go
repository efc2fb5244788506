package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memS3 is an in-memory stand-in for the S3 API. ListObjectsV2 returns one
// key per page to exercise pagination.
type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemS3() *memS3 { return &memS3{objects: map[string][]byte{}} }

func notFound(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "not found"}
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, notFound("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[aws.ToString(in.Key)]; !ok {
		return nil, notFound("NotFound")
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *memS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
	}
	out := &s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String(keys[0])}},
		IsTruncated: aws.Bool(len(keys) > 1),
	}
	if len(keys) > 1 {
		out.NextContinuationToken = aws.String(keys[0])
	}
	return out, nil
}

func TestNewS3Storage_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := NewS3Storage(ctx, "", "us-east-1", "")
	assert.Error(t, err)
	_, err = NewS3Storage(ctx, "bucket", "", "")
	assert.Error(t, err)
}

func TestS3Storage_RoundTripWithPrefix(t *testing.T) {
	ctx := context.Background()
	api := newMemS3()
	s := newS3Storage(api, "bucket", "/pilot/")

	require.NoError(t, s.Put(ctx, "runs/r1/TC-1.log", strings.NewReader("transcript")))
	assert.Contains(t, api.objects, "pilot/runs/r1/TC-1.log")

	rc, err := s.Get(ctx, "runs/r1/TC-1.log")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "transcript", string(data))

	_, err = s.Get(ctx, "runs/r1/missing.log")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "runs/r1/TC-1.log")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	url, err := s.URL(ctx, "runs/r1/TC-1.log")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/pilot/runs/r1/TC-1.log", url)
}

func TestS3Storage_ListPaginates(t *testing.T) {
	ctx := context.Background()
	s := newS3Storage(newMemS3(), "bucket", "pilot")
	for _, key := range []string{"runs/r1/c.log", "runs/r1/a.log", "runs/r1/b.log", "runs/r2/a.log"} {
		require.NoError(t, s.Put(ctx, key, strings.NewReader("x")))
	}

	keys, err := s.List(ctx, "runs/r1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/r1/a.log", "runs/r1/b.log", "runs/r1/c.log"}, keys)
}

func TestS3Storage_RejectsBadKeys(t *testing.T) {
	s := newS3Storage(newMemS3(), "bucket", "")
	err := s.Put(context.Background(), "../x", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestIsS3NotFoundError(t *testing.T) {
	assert.True(t, isS3NotFoundError(notFound("NoSuchKey")))
	assert.True(t, isS3NotFoundError(notFound("NotFound")))
	assert.False(t, isS3NotFoundError(notFound("AccessDenied")))
	assert.False(t, isS3NotFoundError(io.EOF))
}
