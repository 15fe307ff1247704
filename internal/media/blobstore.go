package media

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	storage "github.com/supabase-community/storage-go"
)

// BlobStore abstracts the file backend. Paths are bucket-relative.
type BlobStore interface {
	Upload(path, contentType string, data []byte) error
	Copy(srcPath, dstPath string) error
	Delete(paths []string) error
	PublicURL(path string) string
}

// SupabaseStore stores blobs in a Supabase storage bucket.
type SupabaseStore struct {
	client *storage.Client
	bucket string
	base   string
}

// NewSupabaseStore builds a BlobStore backed by Supabase storage.
func NewSupabaseStore(supabaseURL, serviceRoleKey, bucket string) *SupabaseStore {
	base := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(base+"/storage/v1", serviceRoleKey, nil)
	return &SupabaseStore{client: client, bucket: bucket, base: base}
}

func (s *SupabaseStore) Upload(path, contentType string, data []byte) error {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func (s *SupabaseStore) Copy(srcPath, dstPath string) error {
	if _, err := s.client.CopyFile(s.bucket, srcPath, dstPath); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", srcPath, dstPath, err)
	}
	return nil
}

func (s *SupabaseStore) Delete(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("remove %d files: %w", len(paths), err)
	}
	return nil
}

func (s *SupabaseStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.base, s.bucket, path)
}

// MemoryStore keeps blobs in memory. Used in tests and for local development
// without a Supabase project.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	host  string
}

// NewMemoryStore builds an in-memory BlobStore. host prefixes public URLs.
func NewMemoryStore(host string) *MemoryStore {
	if host == "" {
		host = "http://localhost:8080/files"
	}
	return &MemoryStore{blobs: map[string][]byte{}, host: strings.TrimSuffix(host, "/")}
}

func (s *MemoryStore) Upload(path, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[path] = buf
	return nil
}

func (s *MemoryStore) Copy(srcPath, dstPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.blobs[srcPath]
	if !ok {
		return fmt.Errorf("copy: source %s does not exist", srcPath)
	}
	buf := make([]byte, len(src))
	copy(buf, src)
	s.blobs[dstPath] = buf
	return nil
}

func (s *MemoryStore) Delete(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.blobs, p)
	}
	return nil
}

func (s *MemoryStore) PublicURL(path string) string {
	return s.host + "/" + path
}

// Get returns a stored blob; test helper.
func (s *MemoryStore) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[path]
	return b, ok
}

// Paths lists stored blob paths sorted; test helper.
func (s *MemoryStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.blobs))
	for p := range s.blobs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
