package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putKeys    []string
	putBodies  [][]byte
	deleteKeys []string
	putErr     error
	deleteErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putKeys = append(f.putKeys, *in.Key)
	f.putBodies = append(f.putBodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleteKeys = append(f.deleteKeys, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestFileStore_Put(t *testing.T) {
	fake := &fakeS3{}
	store := NewFileStoreWithClient(fake, "test-bucket")

	filename, err := store.Put(context.Background(), []byte("png bytes"), "profile_pictures", "png", "")
	require.NoError(t, err)

	// Stored name is a fresh uuid plus the normalized extension.
	require.True(t, strings.HasSuffix(filename, ".png"))
	_, err = uuid.Parse(strings.TrimSuffix(filename, ".png"))
	assert.NoError(t, err)

	require.Len(t, fake.putKeys, 1)
	assert.Equal(t, "uploads/profile_pictures/"+filename, fake.putKeys[0])
	assert.Equal(t, []byte("png bytes"), fake.putBodies[0])
	assert.Empty(t, fake.deleteKeys)
}

func TestFileStore_Put_ReplacesOldFile(t *testing.T) {
	fake := &fakeS3{}
	store := NewFileStoreWithClient(fake, "test-bucket")

	_, err := store.Put(context.Background(), []byte("new"), "profile_pictures", ".jpg", "old-file.jpg")
	require.NoError(t, err)

	require.Len(t, fake.deleteKeys, 1)
	assert.Equal(t, "uploads/profile_pictures/old-file.jpg", fake.deleteKeys[0])
}

func TestFileStore_Put_KeepsExternalURL(t *testing.T) {
	fake := &fakeS3{}
	store := NewFileStoreWithClient(fake, "test-bucket")

	// Profiles seeded with gravatar-style URLs must not trigger deletes.
	_, err := store.Put(context.Background(), []byte("new"), "profile_pictures", "jpg",
		"https://cdn.example.com/avatar.jpg")
	require.NoError(t, err)
	assert.Empty(t, fake.deleteKeys)
}

func TestFileStore_Put_Error(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("denied")}
	store := NewFileStoreWithClient(fake, "test-bucket")

	_, err := store.Put(context.Background(), []byte("x"), "docs", "pdf", "")
	assert.Error(t, err)
}

func TestFileStore_Delete(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		folder   string
		wantKey  string
	}{
		{"with folder", "f.png", "profile_pictures", "uploads/profile_pictures/f.png"},
		{"no folder", "f.png", "", "uploads/f.png"},
		{"already prefixed", "uploads/docs/f.pdf", "", "uploads/docs/f.pdf"},
		{"path stripped to base", "../../etc/passwd.png", "docs", "uploads/docs/passwd.png"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeS3{}
			store := NewFileStoreWithClient(fake, "test-bucket")

			require.NoError(t, store.Delete(context.Background(), tc.filename, tc.folder))
			require.Len(t, fake.deleteKeys, 1)
			assert.Equal(t, tc.wantKey, fake.deleteKeys[0])
		})
	}

	t.Run("no-ops", func(t *testing.T) {
		fake := &fakeS3{}
		store := NewFileStoreWithClient(fake, "test-bucket")

		assert.NoError(t, store.Delete(context.Background(), "", "docs"))
		assert.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/a.png", "docs"))
		assert.Empty(t, fake.deleteKeys)
	})
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".png", normalizeExt("png"))
	assert.Equal(t, ".png", normalizeExt(".png"))
	assert.Equal(t, "", normalizeExt(""))
}
