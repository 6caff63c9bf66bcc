package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSTS struct {
	GetCallerIdentityFunc func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func (m *mockSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return m.GetCallerIdentityFunc(ctx, params, optFns...)
}

type mockBucketChecker struct {
	err error
}

func (m *mockBucketChecker) HeadBucket(ctx context.Context) error { return m.err }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func TestRun_AllChecksPass(t *testing.T) {
	checker := NewChecker()
	checker.AddIdentityCheck(&mockSTS{
		GetCallerIdentityFunc: func(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return &sts.GetCallerIdentityOutput{
				Account: aws.String("123456789012"),
				Arn:     aws.String("arn:aws:iam::123456789012:user/tutorial"),
			}, nil
		},
	})
	checker.AddBucketCheck("animal-insights-data", &mockBucketChecker{})
	checker.AddPingCheck("warehouse", &mockPinger{})

	results, ok := checker.Run(context.Background())
	assert.True(t, ok)
	require.Len(t, results, 3)

	assert.Equal(t, "aws-identity", results[0].Name)
	assert.True(t, results[0].OK)
	assert.Contains(t, results[0].Detail, "123456789012")
	assert.Equal(t, "s3-bucket", results[1].Name)
	assert.Contains(t, results[1].Detail, "animal-insights-data")
	assert.Equal(t, "warehouse", results[2].Name)
}

func TestRun_ReportsAllFailuresTogether(t *testing.T) {
	checker := NewChecker()
	checker.AddIdentityCheck(&mockSTS{
		GetCallerIdentityFunc: func(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return nil, errors.New("ExpiredToken")
		},
	})
	checker.AddBucketCheck("animal-insights-data", &mockBucketChecker{err: errors.New("bucket not found (404)")})
	checker.AddPingCheck("warehouse", &mockPinger{})

	results, ok := checker.Run(context.Background())
	assert.False(t, ok)
	require.Len(t, results, 3)

	// Failing early would hide the bucket failure behind the identity one.
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Error, "ExpiredToken")
	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Error, "404")
	assert.True(t, results[2].OK)
}

func TestRun_NoChecks(t *testing.T) {
	results, ok := NewChecker().Run(context.Background())
	assert.True(t, ok)
	assert.Empty(t, results)
}
