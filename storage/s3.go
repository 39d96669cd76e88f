package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

// PutObjectRequester is the part of the S3 API used to sign uploads.
// *s3.S3 satisfies it.
type PutObjectRequester interface {
	PutObjectRequest(*s3.PutObjectInput) (*request.Request, *s3.PutObjectOutput)
}

type S3 struct {
	svc    PutObjectRequester
	bucket string
	domain string
}

// NewS3 returns a Storer signing uploads to bucket and serving them from
// the public domain (usually the CloudFront distribution).
func NewS3(svc PutObjectRequester, bucket, domain string) *S3 {
	return &S3{svc: svc, bucket: bucket, domain: domain}
}

func (s *S3) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, _ := s.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	req.SetContext(ctx)

	url, err := req.Presign(UploadTTL)
	if err != nil {
		return "", fmt.Errorf("presign upload of %s: %w", key, err)
	}
	return url, nil
}

func (s *S3) MediaURL(key string) string {
	return fmt.Sprintf("https://%s/%s", s.domain, key)
}
