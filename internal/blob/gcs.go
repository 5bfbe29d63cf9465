package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GCSStore implements Store against one Google Cloud Storage bucket.
// Credentials are resolved via Application Default Credentials. Generations
// map directly onto GCS object generations, so conditional deletes use the
// backend's native precondition support.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore wraps an existing GCS client for the named bucket.
func NewGCSStore(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Bucket() string { return s.bucket }
func (s *GCSStore) Scheme() string { return "gs" }

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, translateGCSError(err))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", key, translateGCSError(err))
	}
	return nil
}

func (s *GCSStore) Stat(ctx context.Context, key string) (Object, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		return Object{}, fmt.Errorf("stat object %s: %w", key, translateGCSError(err))
	}
	return gcsObject(attrs), nil
}

func (s *GCSStore) List(ctx context.Context, prefix string, pageSize int, pageToken string) (Page, error) {
	query := &gcs.Query{Prefix: prefix}
	if pageToken != "" {
		// StartOffset is inclusive; the token is the last key of the prior
		// page and is skipped below.
		query.StartOffset = pageToken
	}

	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	page := Page{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return Page{}, fmt.Errorf("list prefix %s: %w", prefix, translateGCSError(err))
		}
		if attrs.Name <= pageToken && pageToken != "" {
			continue
		}
		if len(page.Objects) == pageSize {
			page.NextToken = page.Objects[len(page.Objects)-1].Key
			break
		}
		page.Objects = append(page.Objects, gcsObject(attrs))
	}
	return page, nil
}

func (s *GCSStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	bucket := s.client.Bucket(s.bucket)
	src := bucket.Object(srcKey)
	dst := bucket.Object(dstKey)

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return fmt.Errorf("copy %s to %s: %w", srcKey, dstKey, translateGCSError(err))
	}
	return nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", key, translateGCSError(err))
	}
	return nil
}

func (s *GCSStore) DeleteIfGeneration(ctx context.Context, key string, generation string) error {
	gen, err := strconv.ParseInt(generation, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad generation token %q", ErrPreconditionFailed, generation)
	}

	obj := s.client.Bucket(s.bucket).Object(key).If(gcs.Conditions{GenerationMatch: gen})
	if err := obj.Delete(ctx); err != nil {
		return fmt.Errorf("conditional delete %s: %w", key, translateGCSError(err))
	}
	return nil
}

func (s *GCSStore) PatchMetadata(ctx context.Context, key string, metadata map[string]string) error {
	update := gcs.ObjectAttrsToUpdate{Metadata: metadata}
	if _, err := s.client.Bucket(s.bucket).Object(key).Update(ctx, update); err != nil {
		return fmt.Errorf("patch metadata %s: %w", key, translateGCSError(err))
	}
	return nil
}

func (s *GCSStore) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	disposition := fmt.Sprintf("attachment; filename=%q", path.Base(key))
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expires),
		QueryParameters: url.Values{
			"response-content-disposition": {disposition},
		},
	}

	signed, err := s.client.Bucket(s.bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", key, translateGCSError(err))
	}
	return signed, nil
}

func gcsObject(attrs *gcs.ObjectAttrs) Object {
	md := make(map[string]string, len(attrs.Metadata))
	for k, v := range attrs.Metadata {
		md[strings.ToLower(k)] = v
	}
	return Object{
		Key:         attrs.Name,
		Size:        attrs.Size,
		Updated:     attrs.Updated,
		ContentType: attrs.ContentType,
		Metadata:    md,
		Generation:  strconv.FormatInt(attrs.Generation, 10),
	}
}

func translateGCSError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return ErrNotFound
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 404:
			return ErrNotFound
		case 403:
			return ErrAccessDenied
		case 412:
			return ErrPreconditionFailed
		}
	}
	return err
}
