package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upload(ctx, "raw/austin_animal_outcomes.csv", strings.NewReader("a,b,c")))
	require.NoError(t, store.Upload(ctx, "raw/other.csv", strings.NewReader("x")))
	require.NoError(t, store.Upload(ctx, "train/train.csv", strings.NewReader("1,2")))

	body, err := store.Download(ctx, "raw/austin_animal_outcomes.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	body.Close()
	assert.Equal(t, "a,b,c", string(data))

	objects, err := store.List(ctx, "raw/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "raw/austin_animal_outcomes.csv", objects[0].Key)
	assert.Equal(t, int64(5), objects[0].Size)

	exists, err := store.Exists(ctx, "train/")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "models/")
	require.NoError(t, err)
	assert.False(t, exists)

	deleted, err := store.EmptyPrefix(ctx, "raw/")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	exists, err = store.Exists(ctx, "raw/")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_DownloadMissing(t *testing.T) {
	_, err := NewMemoryStore().Download(context.Background(), "nope")
	assert.Error(t, err)
}

// --- Mock S3API ---

type mockS3 struct {
	PutObjectFunc          func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObjectFunc          func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsFunc        func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjectsFunc      func(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectVersionsFunc func(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	HeadBucketFunc         func(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.PutObjectFunc(ctx, params, optFns...)
}
func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.GetObjectFunc(ctx, params, optFns...)
}
func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return m.ListObjectsFunc(ctx, params, optFns...)
}
func (m *mockS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	return m.DeleteObjectsFunc(ctx, params, optFns...)
}
func (m *mockS3) ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	if m.ListObjectVersionsFunc == nil {
		return &s3.ListObjectVersionsOutput{}, nil
	}
	return m.ListObjectVersionsFunc(ctx, params, optFns...)
}
func (m *mockS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return m.HeadBucketFunc(ctx, params, optFns...)
}

func TestS3Store_ListFollowsContinuationTokens(t *testing.T) {
	calls := 0
	mock := &mockS3{
		ListObjectsFunc: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			calls++
			assert.Equal(t, "animal-insights-data", aws.ToString(params.Bucket))
			if calls == 1 {
				assert.Nil(t, params.ContinuationToken)
				return &s3.ListObjectsV2Output{
					Contents:              []s3types.Object{{Key: aws.String("raw/a.csv"), Size: aws.Int64(10)}},
					NextContinuationToken: aws.String("token-1"),
				}, nil
			}
			assert.Equal(t, "token-1", aws.ToString(params.ContinuationToken))
			return &s3.ListObjectsV2Output{
				Contents: []s3types.Object{{Key: aws.String("raw/b.csv"), Size: aws.Int64(20)}},
			}, nil
		},
	}

	store := NewS3Store(mock, "animal-insights-data")
	objects, err := store.List(context.Background(), "raw/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "raw/a.csv", objects[0].Key)
	assert.Equal(t, int64(20), objects[1].Size)
	assert.Equal(t, 2, calls)
}

func TestS3Store_EmptyPrefixBatchesDeletes(t *testing.T) {
	listed := make([]s3types.Object, 0, 1500)
	for i := 0; i < 1500; i++ {
		listed = append(listed, s3types.Object{
			Key:  aws.String("raw/file-" + strings.Repeat("x", i%3) + ".csv"),
			Size: aws.Int64(1),
		})
	}

	var deleteCalls [][]s3types.ObjectIdentifier
	mock := &mockS3{
		ListObjectsFunc: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{Contents: listed}, nil
		},
		DeleteObjectsFunc: func(_ context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
			deleteCalls = append(deleteCalls, params.Delete.Objects)
			return &s3.DeleteObjectsOutput{}, nil
		},
	}

	store := NewS3Store(mock, "animal-insights-data")
	deleted, err := store.EmptyPrefix(context.Background(), "raw/")
	require.NoError(t, err)
	assert.Equal(t, 1500, deleted)
	require.Len(t, deleteCalls, 2)
	assert.Len(t, deleteCalls[0], 1000)
	assert.Len(t, deleteCalls[1], 500)
}

func TestS3Store_EmptyPrefixSweepsVersions(t *testing.T) {
	var deleteCalls [][]s3types.ObjectIdentifier
	mock := &mockS3{
		ListObjectsFunc: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []s3types.Object{{Key: aws.String("raw/a.csv"), Size: aws.Int64(1)}},
			}, nil
		},
		DeleteObjectsFunc: func(_ context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
			deleteCalls = append(deleteCalls, params.Delete.Objects)
			return &s3.DeleteObjectsOutput{}, nil
		},
		ListObjectVersionsFunc: func(_ context.Context, params *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
			assert.Equal(t, "raw/", aws.ToString(params.Prefix))
			return &s3.ListObjectVersionsOutput{
				Versions: []s3types.ObjectVersion{
					{Key: aws.String("raw/a.csv"), VersionId: aws.String("v1")},
				},
				DeleteMarkers: []s3types.DeleteMarkerEntry{
					{Key: aws.String("raw/a.csv"), VersionId: aws.String("m1")},
				},
			}, nil
		},
	}

	store := NewS3Store(mock, "animal-insights-data")
	deleted, err := store.EmptyPrefix(context.Background(), "raw/")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	require.Len(t, deleteCalls, 2)
	require.Len(t, deleteCalls[1], 2)
	assert.Equal(t, "v1", aws.ToString(deleteCalls[1][0].VersionId))
	assert.Equal(t, "m1", aws.ToString(deleteCalls[1][1].VersionId))
}

func TestS3Store_HeadBucketDistinguishesErrors(t *testing.T) {
	cases := []struct {
		name    string
		code    string
		message string
	}{
		{"missing bucket", "NotFound", "does not exist"},
		{"forbidden", "Forbidden", "access denied"},
		{"other failure", "SlowDown", "not accessible"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockS3{
				HeadBucketFunc: func(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
					return nil, &smithy.GenericAPIError{Code: tc.code}
				},
			}
			err := NewS3Store(mock, "animal-insights-data").HeadBucket(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}

	mock := &mockS3{
		HeadBucketFunc: func(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
			return &s3.HeadBucketOutput{}, nil
		},
	}
	assert.NoError(t, NewS3Store(mock, "animal-insights-data").HeadBucket(context.Background()))
}

func TestS3Store_Upload(t *testing.T) {
	var captured *s3.PutObjectInput
	mock := &mockS3{
		PutObjectFunc: func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			captured = params
			return &s3.PutObjectOutput{}, nil
		},
	}

	store := NewS3Store(mock, "animal-insights-data")
	err := store.Upload(context.Background(), "raw/austin_animal_outcomes.csv", strings.NewReader("data"))
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "animal-insights-data", aws.ToString(captured.Bucket))
	assert.Equal(t, "raw/austin_animal_outcomes.csv", aws.ToString(captured.Key))
}
