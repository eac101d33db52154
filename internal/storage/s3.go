// Package storage signs direct-to-bucket URLs for lecture uploads and
// playback. The API itself never moves video bytes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Config holds the connection settings for an S3-compatible store.
// Works with AWS S3, MinIO, Cloudflare R2 and friends.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // optional, for S3-compatible services

	// UsePathStyle puts the bucket in the path instead of the host name.
	// MinIO and most S3-compatible services need it.
	UsePathStyle bool
}

// S3Presigner creates time-limited PUT and GET URLs.
//
// Presigning is a local computation (an HMAC over the request), so no call
// reaches the bucket until the client uses the URL.
type S3Presigner struct {
	presign *s3.PresignClient
}

// NewS3Presigner builds a presigner from cfg. Static credentials are used
// when both keys are set; otherwise the default AWS chain applies
// (environment, shared config, instance role).
func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	if cfg.Region == "" {
		return nil, errors.New("storage: region is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	slog.Debug("S3 presigner ready",
		slog.String("region", cfg.Region),
		slog.String("endpoint", cfg.Endpoint),
	)
	return &S3Presigner{presign: s3.NewPresignClient(client)}, nil
}

// PresignPut returns a URL the client can PUT the object to. The signature
// covers contentType, so the upload must send the same Content-Type header.
func (p *S3Presigner) PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (string, error) {
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl), signHeader("Content-Type", contentType))
	if err != nil {
		return "", fmt.Errorf("storage: presigning PUT %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// signHeader sets name on the request after serialization so the presigner
// puts it in X-Amz-SignedHeaders. The serializer drops Content-Type from a
// bodiless PutObject, which would otherwise leave it unsigned.
func signHeader(name, value string) func(*s3.PresignOptions) {
	mw := middleware.BuildMiddlewareFunc("SignHeader"+name, func(
		ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler,
	) (middleware.BuildOutput, middleware.Metadata, error) {
		if req, ok := in.Request.(*smithyhttp.Request); ok {
			req.Header.Set(name, value)
		}
		return next.HandleBuild(ctx, in)
	})

	return func(o *s3.PresignOptions) {
		o.ClientOptions = append(o.ClientOptions, func(so *s3.Options) {
			so.APIOptions = append(so.APIOptions, func(stack *middleware.Stack) error {
				return stack.Build.Add(mw, middleware.After)
			})
		})
	}
}

// PresignGet returns a URL that streams the object for ttl.
func (p *S3Presigner) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("storage: presigning GET %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}
