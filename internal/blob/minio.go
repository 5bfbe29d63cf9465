package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// MinIOStore implements Store against one bucket of an S3-compatible
// backend. S3 has no metadata patch, so PatchMetadata is a self-copy with
// metadata replacement, and the version token is the ETag: DeleteIfGeneration
// re-reads the object and compares before deleting, which narrows but does
// not fully close the race a versioned backend closes natively.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore wraps an existing MinIO client for the named bucket.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

func (s *MinIOStore) Bucket() string { return s.bucket }
func (s *MinIOStore) Scheme() string { return "s3" }

func (s *MinIOStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, translateMinIOError(err))
	}
	return nil
}

func (s *MinIOStore) Stat(ctx context.Context, key string) (Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, fmt.Errorf("stat object %s: %w", key, translateMinIOError(err))
	}
	return minioObject(info), nil
}

func (s *MinIOStore) List(ctx context.Context, prefix string, pageSize int, pageToken string) (Page, error) {
	opts := minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		StartAfter:   pageToken,
		WithMetadata: true,
	}

	page := Page{}
	for info := range s.client.ListObjects(ctx, s.bucket, opts) {
		if info.Err != nil {
			return Page{}, fmt.Errorf("list prefix %s: %w", prefix, translateMinIOError(info.Err))
		}
		if len(page.Objects) == pageSize {
			page.NextToken = page.Objects[len(page.Objects)-1].Key
			break
		}
		page.Objects = append(page.Objects, minioObject(info))
	}
	return page, nil
}

func (s *MinIOStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	dst := minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey}
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey}

	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		return fmt.Errorf("copy %s to %s: %w", srcKey, dstKey, translateMinIOError(err))
	}
	return nil
}

func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, translateMinIOError(err))
	}
	return nil
}

func (s *MinIOStore) DeleteIfGeneration(ctx context.Context, key string, generation string) error {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return fmt.Errorf("conditional delete %s: %w", key, translateMinIOError(err))
	}
	if strings.Trim(info.ETag, `"`) != strings.Trim(generation, `"`) {
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, key)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("conditional delete %s: %w", key, translateMinIOError(err))
	}
	return nil
}

func (s *MinIOStore) PatchMetadata(ctx context.Context, key string, metadata map[string]string) error {
	dst := minio.CopyDestOptions{
		Bucket:          s.bucket,
		Object:          key,
		UserMetadata:    metadata,
		ReplaceMetadata: true,
	}
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: key}

	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		return fmt.Errorf("patch metadata %s: %w", key, translateMinIOError(err))
	}
	return nil
}

func (s *MinIOStore) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	params := url.Values{
		"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", path.Base(key))},
	}

	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, params)
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", key, translateMinIOError(err))
	}
	return signed.String(), nil
}

func minioObject(info minio.ObjectInfo) Object {
	md := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		// Listing responses carry the raw X-Amz-Meta- header names.
		k = strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")
		md[k] = v
	}
	return Object{
		Key:         info.Key,
		Size:        info.Size,
		Updated:     info.LastModified,
		ContentType: info.ContentType,
		Metadata:    md,
		Generation:  strings.Trim(info.ETag, `"`),
	}
}

func translateMinIOError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	case "AccessDenied":
		return ErrAccessDenied
	case "PreconditionFailed":
		return ErrPreconditionFailed
	}
	switch resp.StatusCode {
	case 404:
		return ErrNotFound
	case 403:
		return ErrAccessDenied
	case 412:
		return ErrPreconditionFailed
	}
	return err
}
