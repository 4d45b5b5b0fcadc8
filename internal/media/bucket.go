// AngelaMos | 2026
// bucket.go

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

// Bucket stores raw media objects by path.
type Bucket interface {
	Put(ctx context.Context, path, contentType string, r io.Reader) (int64, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

type gcsBucket struct {
	client      *storage.Client
	name        string
	emulatorURL string
}

// NewGCSBucket returns a Bucket backed by a Cloud Storage bucket. When
// emulatorURL is set, object URLs point at the emulator's media endpoint.
func NewGCSBucket(client *storage.Client, name, emulatorURL string) Bucket {
	return &gcsBucket{
		client:      client,
		name:        name,
		emulatorURL: strings.TrimRight(strings.TrimSpace(emulatorURL), "/"),
	}
}

func (b *gcsBucket) Put(ctx context.Context, path, contentType string, r io.Reader) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("write object %q: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close object %q: %w", path, err)
	}
	return w.Attrs().Size, nil
}

func (b *gcsBucket) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := b.client.Bucket(b.name).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %q in bucket %q: %w", path, b.name, err)
	}
	return nil
}

func (b *gcsBucket) URL(path string) string {
	path = strings.TrimLeft(path, "/")
	if b.emulatorURL != "" {
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
			b.emulatorURL, url.PathEscape(b.name), url.PathEscape(path))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, path)
}

type memoryObject struct {
	contentType string
	data        []byte
}

// MemoryBucket keeps objects in process. Used for local development and
// tests.
type MemoryBucket struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

func NewMemoryBucket(baseURL string) *MemoryBucket {
	return &MemoryBucket{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (b *MemoryBucket) Put(_ context.Context, path, contentType string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, fmt.Errorf("write object %q: %w", path, err)
	}

	b.mu.Lock()
	b.objects[path] = memoryObject{contentType: contentType, data: buf.Bytes()}
	b.mu.Unlock()
	return n, nil
}

func (b *MemoryBucket) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	delete(b.objects, path)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBucket) URL(path string) string {
	return b.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Object returns a stored object's bytes and content type.
func (b *MemoryBucket) Object(path string) ([]byte, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[path]
	return obj.data, obj.contentType, ok
}
