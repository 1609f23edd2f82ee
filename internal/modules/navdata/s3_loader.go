package navdata

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the subset of the S3 client used by S3Loader
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds object storage settings for externally supplied tables
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string // optional, falls back to the default credential chain
	SecretAccessKey string
}

// S3Loader downloads wide CSV tables from a bucket
type S3Loader struct {
	client ObjectGetter
	bucket string
	log    zerolog.Logger
}

// NewS3Client builds an S3 client from static credentials when given, otherwise from the
// default AWS credential chain
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// NewS3Loader creates a loader reading from bucket
func NewS3Loader(client ObjectGetter, bucket string, log zerolog.Logger) *S3Loader {
	return &S3Loader{
		client: client,
		bucket: bucket,
		log:    log.With().Str("component", "s3_loader").Logger(),
	}
}

// Load downloads the object at key and parses it as a wide CSV table
func (l *S3Loader) Load(ctx context.Context, key string) (*TableSource, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	table, err := LoadCSV(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s3://%s/%s: %w", l.bucket, key, err)
	}

	l.log.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("entities", len(table.Entities())).
		Msg("Loaded table from S3")
	return table, nil
}
