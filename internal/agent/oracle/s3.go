package oracle

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/otakit/ota-agent/pkg/options"
)

// presigner is the part of *minio.Client the locator needs.
type presigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// S3Locator hands out presigned GET URLs for objects in a private bucket.
// Object keys follow the same templates as TemplateLocator.
type S3Locator struct {
	client     presigner
	bucketName string
	expiry     time.Duration
	targetPath string
	imagePath  string
}

var _ Locator = (*S3Locator)(nil)

// NewS3Locator creates a locator backed by an S3 compatible store.
// No request is made here; presigning is local as long as the region is set.
func NewS3Locator(s3 *options.S3Options, oracle *options.OracleOptions) (*S3Locator, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if oracle.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := minio.New(s3.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(s3.AccessKeyID, s3.SecretAccessKey, ""),
		Secure:    s3.UseSSL,
		Region:    s3.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return newS3Locator(client, s3.BucketName, s3.URLExpiry, oracle.TargetPath, oracle.ImagePath), nil
}

func newS3Locator(client presigner, bucket string, expiry time.Duration, targetPath, imagePath string) *S3Locator {
	return &S3Locator{
		client:     client,
		bucketName: bucket,
		expiry:     expiry,
		targetPath: targetPath,
		imagePath:  imagePath,
	}
}

func (l *S3Locator) TargetURL(ctx context.Context, deviceID string) (string, error) {
	if deviceID == "" {
		return "", fmt.Errorf("empty device id")
	}
	return l.presign(ctx, objectKey(l.targetPath, devicePlaceholder, deviceID))
}

func (l *S3Locator) ImageURL(ctx context.Context, version FirmwareVersion) (string, error) {
	if version == "" {
		return "", fmt.Errorf("empty version")
	}
	return l.presign(ctx, objectKey(l.imagePath, versionPlaceholder, version.String()))
}

func (l *S3Locator) presign(ctx context.Context, key string) (string, error) {
	u, err := l.client.PresignedGetObject(ctx, l.bucketName, key, l.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", l.bucketName, key, err)
	}
	return u.String(), nil
}
