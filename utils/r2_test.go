package utils

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveUploadsAndReturnsCDNURL(t *testing.T) {
	p := &fakePutter{}
	a := NewR2ArchiverWithClient(p, "exports-bucket", "https://cdn.example.com/", "https://acct.r2.cloudflarestorage.com")

	url, err := a.Archive(context.Background(), "exports/ana/20260315T183000Z.json", []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/exports/ana/20260315T183000Z.json", url)
	assert.Equal(t, "exports-bucket", aws.ToString(p.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(p.input.ContentType))
	assert.Equal(t, `{"ok":true}`, string(p.body))
}

func TestArchiveFallsBackToBucketEndpoint(t *testing.T) {
	a := NewR2ArchiverWithClient(&fakePutter{}, "b", "", "https://acct.r2.cloudflarestorage.com")
	url, err := a.Archive(context.Background(), "k.json", nil, "application/json")
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com/b/k.json", url)
}

func TestArchiveWrapsUploadError(t *testing.T) {
	a := NewR2ArchiverWithClient(&fakePutter{err: errors.New("denied")}, "b", "", "https://x")
	_, err := a.Archive(context.Background(), "k", nil, "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload to R2")
}
