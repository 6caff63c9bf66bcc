package preflight

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSAPI is the STS surface needed to confirm the active AWS identity.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// BucketChecker confirms the data bucket exists and is reachable.
type BucketChecker interface {
	HeadBucket(ctx context.Context) error
}

// Pinger confirms a database connection is alive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Result is the outcome of one preflight check.
type Result struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) (string, error)
}

// Checker runs the configured environment checks before a pipeline run so
// misconfiguration surfaces up front instead of mid-run.
type Checker struct {
	checks []namedCheck
}

func NewChecker() *Checker {
	return &Checker{}
}

// Add registers a named check. fn returns a human-readable detail on
// success.
func (c *Checker) Add(name string, fn func(ctx context.Context) (string, error)) {
	c.checks = append(c.checks, namedCheck{name: name, fn: fn})
}

// AddIdentityCheck verifies AWS credentials resolve to a caller identity.
func (c *Checker) AddIdentityCheck(client STSAPI) {
	c.Add("aws-identity", func(ctx context.Context) (string, error) {
		out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return "", fmt.Errorf("failed to resolve AWS caller identity: %w", err)
		}
		account, arn := "", ""
		if out.Account != nil {
			account = *out.Account
		}
		if out.Arn != nil {
			arn = *out.Arn
		}
		return fmt.Sprintf("account %s (%s)", account, arn), nil
	})
}

// AddBucketCheck verifies the data bucket is reachable with the active
// credentials.
func (c *Checker) AddBucketCheck(bucket string, checker BucketChecker) {
	c.Add("s3-bucket", func(ctx context.Context) (string, error) {
		if err := checker.HeadBucket(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("bucket %s reachable", bucket), nil
	})
}

// AddPingCheck verifies a database connection.
func (c *Checker) AddPingCheck(name string, pinger Pinger) {
	c.Add(name, func(ctx context.Context) (string, error) {
		if err := pinger.Ping(ctx); err != nil {
			return "", err
		}
		return "connection ok", nil
	})
}

// Run executes every check in registration order. It never stops early:
// all failures are reported together. The bool is true when every check
// passed.
func (c *Checker) Run(ctx context.Context) ([]Result, bool) {
	results := make([]Result, 0, len(c.checks))
	allOK := true
	for _, check := range c.checks {
		detail, err := check.fn(ctx)
		result := Result{Name: check.name, OK: err == nil, Detail: detail}
		if err != nil {
			result.Error = err.Error()
			allOK = false
			log.Printf("Preflight check %s failed: %v", check.name, err)
		} else {
			log.Printf("Preflight check %s ok: %s", check.name, detail)
		}
		results = append(results, result)
	}
	return results, allOK
}
