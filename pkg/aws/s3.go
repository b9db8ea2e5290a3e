package aws

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore reads, writes and presigns objects in one bucket.
type ObjectStore struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewObjectStore creates a store for bucket. publicBaseURL prefixes object keys
// in PublicURL; when empty the virtual-hosted S3 URL is used.
func NewObjectStore(cfg sdkaws.Config, bucket, publicBaseURL string) *ObjectStore {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = UsesCustomEndpoint(cfg)
	})
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return &ObjectStore{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (o *ObjectStore) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := o.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(o.bucket),
		Key:         sdkaws.String(key),
		Body:        body,
		ContentType: sdkaws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (o *ObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: sdkaws.String(o.bucket),
		Key:    sdkaws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	return out.Body, nil
}

// PresignPut returns a presigned PUT URL and the headers the client must send with it.
func (o *ObjectStore) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, map[string]string, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(o.bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	presigned, err := o.presigner.PresignPutObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = expires
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return presigned.URL, headers, nil
}

func (o *ObjectStore) PublicURL(key string) string {
	return o.publicURL + "/" + strings.TrimLeft(key, "/")
}
