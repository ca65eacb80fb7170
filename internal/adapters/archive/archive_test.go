package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bucket, key string
	body        []byte
	err         error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchivePut(t *testing.T) {
	fake := &fakeS3{}
	a := NewS3ArchiveWithClient(fake, "route-reports", "/prod/")

	key := "reports/co1/2026-10-19/r1.json"
	require.NoError(t, a.Put(context.Background(), key, []byte(`{"route_id":"r1"}`)))

	assert.Equal(t, "route-reports", fake.bucket)
	assert.Equal(t, "prod/reports/co1/2026-10-19/r1.json", fake.key)
	assert.JSONEq(t, `{"route_id":"r1"}`, string(fake.body))
}

func TestS3ArchiveWrapsErrors(t *testing.T) {
	denied := errors.New("access denied")
	a := NewS3ArchiveWithClient(&fakeS3{err: denied}, "b", "")

	err := a.Put(context.Background(), "k.json", nil)
	assert.ErrorIs(t, err, denied)
	assert.ErrorContains(t, err, "s3://b/k.json")
}

func TestFileArchive(t *testing.T) {
	dir := t.TempDir()
	a := NewFileArchive(dir)

	require.NoError(t, a.Put(context.Background(), "reports/co1/2026-10-19/r1.json", []byte("{}")))
	got, err := os.ReadFile(filepath.Join(dir, "reports", "co1", "2026-10-19", "r1.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	assert.Error(t, a.Put(context.Background(), "../escape.json", []byte("x")))
	assert.Error(t, a.Put(context.Background(), "", []byte("x")))
}
