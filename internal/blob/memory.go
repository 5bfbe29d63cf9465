package blob

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// memObject holds one stored object together with its version counter.
type memObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	updated     time.Time
	generation  int64
}

// MemoryStore implements Store using in-memory maps. It backs tests and the
// "memory" backend mode for local runs. Generations are per-key counters so
// conditional deletes behave like a versioned backend.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]*memObject
	nextGen int64
	nowFunc func() time.Time
}

// NewMemoryStore creates an empty in-memory store for the named bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]*memObject),
		nowFunc: time.Now,
	}
}

// SetNow overrides the clock used for object timestamps. Test hook.
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = now
}

func (s *MemoryStore) Bucket() string { return s.bucket }
func (s *MemoryStore) Scheme() string { return "mem" }

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGen++
	s.objects[key] = &memObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		metadata:    copyMetadata(metadata),
		updated:     s.nowFunc(),
		generation:  s.nextGen,
	}
	return nil
}

func (s *MemoryStore) Stat(ctx context.Context, key string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return s.toObject(key, obj), nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string, pageSize int, pageToken string) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) && k > pageToken {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := Page{}
	for _, k := range keys {
		if len(page.Objects) == pageSize {
			page.NextToken = page.Objects[len(page.Objects)-1].Key
			break
		}
		page.Objects = append(page.Objects, s.toObject(k, s.objects[k]))
	}
	return page, nil
}

func (s *MemoryStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.objects[srcKey]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, srcKey)
	}
	s.nextGen++
	s.objects[dstKey] = &memObject{
		data:        append([]byte(nil), src.data...),
		contentType: src.contentType,
		metadata:    copyMetadata(src.metadata),
		updated:     s.nowFunc(),
		generation:  s.nextGen,
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) DeleteIfGeneration(ctx context.Context, key string, generation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if strconv.FormatInt(obj.generation, 10) != generation {
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, key)
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PatchMetadata(ctx context.Context, key string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	obj.metadata = copyMetadata(metadata)
	s.nextGen++
	obj.generation = s.nextGen
	return nil
}

func (s *MemoryStore) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	expiry := s.nowFunc().Add(expires).Unix()
	return fmt.Sprintf("https://storage.invalid/%s/%s?expires=%d", s.bucket, url.PathEscape(key), expiry), nil
}

func (s *MemoryStore) toObject(key string, obj *memObject) Object {
	return Object{
		Key:         key,
		Size:        int64(len(obj.data)),
		Updated:     obj.updated,
		ContentType: obj.contentType,
		Metadata:    copyMetadata(obj.metadata),
		Generation:  strconv.FormatInt(obj.generation, 10),
	}
}

// Content returns the raw bytes stored at key. Test hook.
func (s *MemoryStore) Content(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

func copyMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[strings.ToLower(k)] = v
	}
	return out
}
