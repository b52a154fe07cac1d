package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlob(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", UserDocument)
	b := &LocalBlob{Path: path}

	_, err := b.Read(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Write(ctx, []byte(`{"a": 1}`)))
	require.NoError(t, b.Write(ctx, []byte(`{"b": 2}`)))

	data, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"b": 2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3BlobBacksFileStores(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	blob := NewS3Blob(client, "users", "prod", UserDocument)
	assert.Equal(t, "s3://users/prod/.db_User.json", blob.Name())

	s, err := NewFileUserStore(ctx, blob)
	require.NoError(t, err)
	u := addUser(t, s, "a@x.com", "", "")

	assert.Contains(t, client.objects, "users/prod/.db_User.json")

	reloaded, err := NewFileUserStore(ctx, NewS3Blob(client, "users", "prod", UserDocument))
	require.NoError(t, err)
	got, err := reloaded.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	client.putErr = errors.New("access denied")
	_, err = s.Update(ctx, u.ID, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
