package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alfredjeanlab/freightdesk/internal/idgen"
)

// ReportName is the base name of exported objects.
const ReportName = "delivery-orders"

// Destination is where an export payload is delivered.
type Destination interface {
	// Write stores the JSONL payload and returns where it went.
	Write(ctx context.Context, data []byte) (string, error)
}

// S3Destination uploads each export as a new object under a key prefix.
type S3Destination struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Destination creates an S3 destination. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar).
func NewS3Destination(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Destination, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 destination: bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Write uploads data under a freshly generated key and returns the s3:// URL.
func (d *S3Destination) Write(ctx context.Context, data []byte) (string, error) {
	key, err := idgen.ObjectKey(d.prefix, ReportName, ".jsonl")
	if err != nil {
		return "", err
	}
	_, err = d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return "s3://" + d.bucket + "/" + key, nil
}

// FileDestination writes exports to the local filesystem. When Path names an
// existing directory (or ends in a separator), each export gets a generated
// file name inside it; otherwise Path itself is overwritten.
type FileDestination struct {
	Path string
}

func (d FileDestination) Write(_ context.Context, data []byte) (string, error) {
	path := d.Path
	if path == "" {
		return "", fmt.Errorf("file destination: path is required")
	}
	if st, err := os.Stat(path); (err == nil && st.IsDir()) || os.IsPathSeparator(path[len(path)-1]) {
		name, err := idgen.ObjectKey("", ReportName, ".jsonl")
		if err != nil {
			return "", err
		}
		path = filepath.Join(path, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
