package s3

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kmeansgo/blobstore"
)

// mockS3Client is an in-memory S3 double for unit tests. Snapshot payloads
// stay far below the upload manager's part size, so uploads always take the
// single PutObject path and the multipart methods only satisfy the interface.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
}

var _ Client = (*mockS3Client)(nil)

var errNoMultipart = errors.New("multipart upload not supported by test double")

func (m *mockS3Client) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errNoMultipart
}

func (m *mockS3Client) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errNoMultipart
}

func (m *mockS3Client) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errNoMultipart
}

func (m *mockS3Client) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errNoMultipart
}

func newMockS3Client() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(string(data))),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *mockS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := aws.ToString(params.Prefix)
	var contents []types.Object
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		contents = append(contents, types.Object{Key: aws.String(key)})
	}

	return &s3.ListObjectsV2Output{
		Contents:    contents,
		IsTruncated: aws.Bool(false),
	}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockS3Client(), "bucket", "models")

	require.NoError(t, store.Put(ctx, "a.snap", []byte("alpha")))

	r, err := store.Open(ctx, "a.snap")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), data)
}

func TestStoreOpenMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockS3Client(), "bucket", "models")

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockS3Client(), "bucket", "models")

	require.NoError(t, store.Put(ctx, "b.snap", []byte("b")))
	require.NoError(t, store.Put(ctx, "a.snap", []byte("a")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.snap", "b.snap"}, names)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockS3Client(), "bucket", "models")

	require.NoError(t, store.Put(ctx, "a.snap", []byte("a")))
	require.NoError(t, store.Delete(ctx, "a.snap"))

	_, err := store.Open(ctx, "a.snap")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
