package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client the store uses, extracted so tests
// can substitute a mock.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store implements ObjectStore against one S3 bucket.
type S3Store struct {
	client S3API
	bucket string
}

// NewS3Store creates an S3-backed object store for the given bucket.
func NewS3Store(client S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Upload puts body at key in the bucket.
func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	log.Printf("Uploaded s3://%s/%s", s.bucket, key)
	return nil
}

// Download fetches the object at key. The caller closes the reader.
func (s *S3Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

// List returns every object under prefix, following continuation tokens.
func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range out.Contents {
			objects = append(objects, ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			})
		}
		if out.NextContinuationToken == nil {
			break
		}
		continuation = out.NextContinuationToken
	}
	return objects, nil
}

// Exists reports whether any object lives under prefix.
func (s *S3Store) Exists(ctx context.Context, prefix string) (bool, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return false, err
	}
	return len(objects) > 0, nil
}

// EmptyPrefix deletes every object under prefix, then sweeps object versions
// and delete markers so terraform destroy does not trip over a non-empty
// versioned bucket. Returns the number of deletions performed.
func (s *S3Store) EmptyPrefix(ctx context.Context, prefix string) (int, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	identifiers := make([]s3types.ObjectIdentifier, 0, len(objects))
	for _, obj := range objects {
		identifiers = append(identifiers, s3types.ObjectIdentifier{Key: aws.String(obj.Key)})
	}
	deleted, err := s.deleteBatches(ctx, prefix, identifiers)
	if err != nil {
		return deleted, err
	}

	// On a versioned bucket the pass above leaves noncurrent versions
	// behind and adds delete markers.
	versions, err := s.listVersions(ctx, prefix)
	if err != nil {
		return deleted, err
	}
	swept, err := s.deleteBatches(ctx, prefix, versions)
	deleted += swept
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		log.Printf("Deleted %d objects under s3://%s/%s", deleted, s.bucket, prefix)
	}
	return deleted, nil
}

func (s *S3Store) listVersions(ctx context.Context, prefix string) ([]s3types.ObjectIdentifier, error) {
	var identifiers []s3types.ObjectIdentifier
	var keyMarker, versionMarker *string
	for {
		out, err := s.client.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
			Bucket:          aws.String(s.bucket),
			Prefix:          aws.String(prefix),
			KeyMarker:       keyMarker,
			VersionIdMarker: versionMarker,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list object versions under s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, v := range out.Versions {
			identifiers = append(identifiers, s3types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range out.DeleteMarkers {
			identifiers = append(identifiers, s3types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}
		if !aws.ToBool(out.IsTruncated) {
			return identifiers, nil
		}
		keyMarker = out.NextKeyMarker
		versionMarker = out.NextVersionIdMarker
	}
}

func (s *S3Store) deleteBatches(ctx context.Context, prefix string, identifiers []s3types.ObjectIdentifier) (int, error) {
	deleted := 0
	// DeleteObjects accepts at most 1000 keys per call.
	for start := 0; start < len(identifiers); start += 1000 {
		end := start + 1000
		if end > len(identifiers) {
			end = len(identifiers)
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{Objects: identifiers[start:end]},
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete objects under s3://%s/%s: %w", s.bucket, prefix, err)
		}
		deleted += end - start
	}
	return deleted, nil
}

// HeadBucket checks bucket accessibility; used by preflight validation. A
// missing bucket and a permissions problem get distinct messages so the
// operator knows which to fix.
func (s *S3Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return fmt.Errorf("bucket %s does not exist: %w", s.bucket, err)
		case "Forbidden", "AccessDenied":
			return fmt.Errorf("access denied to bucket %s: %w", s.bucket, err)
		}
	}
	return fmt.Errorf("bucket %s is not accessible: %w", s.bucket, err)
}
