// AngelaMos | 2026
// service.go

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

const (
	Collection = "media_assets"
	pathPrefix = "media"

	octetStream = "application/octet-stream"
)

var ErrInvalidName = errors.New("invalid file name")

// Asset records one uploaded object.
type Asset struct {
	ID          string    `json:"id"           firestore:"id"`
	Name        string    `json:"name"         firestore:"name"`
	Path        string    `json:"path"         firestore:"path"`
	URL         string    `json:"url"          firestore:"url"`
	ContentType string    `json:"content_type" firestore:"content_type"`
	Size        int64     `json:"size"         firestore:"size"`
	UploadedBy  string    `json:"uploaded_by"  firestore:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"   firestore:"created_at"`
}

type Service struct {
	bucket Bucket
	assets *docstore.Collection[Asset]
	logger *slog.Logger
}

func NewService(store docstore.Store, bucket Bucket, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		bucket: bucket,
		assets: docstore.NewCollection[Asset](store, Collection),
		logger: logger,
	}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func cleanName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if len(base) > 120 {
		base = base[len(base)-120:]
	}
	return base, nil
}

// Upload stores the object and then its record. The object is removed again
// if the record cannot be written.
func (s *Service) Upload(
	ctx context.Context,
	name, contentType string,
	r io.Reader,
	uploadedBy string,
) (*Asset, error) {
	ctx, span := core.StartSpan(ctx, "media.upload", attribute.String("media.name", name))
	defer span.End()

	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if contentType == "" || contentType == octetStream {
		contentType = mime.TypeByExtension(path.Ext(clean))
	}
	if contentType == "" {
		contentType = octetStream
	}

	id := uuid.NewString()
	objectPath := path.Join(pathPrefix, id, clean)

	size, err := s.bucket.Put(ctx, objectPath, contentType, r)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("upload media: %w", err)
	}

	asset := &Asset{
		ID:          id,
		Name:        clean,
		Path:        objectPath,
		URL:         s.bucket.URL(objectPath),
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.assets.Create(ctx, id, asset); err != nil {
		if delErr := s.bucket.Delete(ctx, objectPath); delErr != nil {
			s.logger.Error("orphaned media object", "path", objectPath, "error", delErr)
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("record media: %w", err)
	}

	core.AddSpanEvent(ctx, "media_uploaded", attribute.Int64("media.size", size))
	s.logger.Info("media uploaded", "id", id, "path", objectPath, "size", size, "uploaded_by", uploadedBy)
	return asset, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Asset, error) {
	asset, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return asset, nil
}

func (s *Service) List(ctx context.Context) ([]Asset, error) {
	assets, err := s.assets.List(ctx, docstore.Query{}.Order("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return assets, nil
}

func (s *Service) Watch(ctx context.Context, fn func([]Asset)) (docstore.Unsubscribe, error) {
	return s.assets.WatchAll(ctx, docstore.Query{}.Order("created_at", true), fn)
}

// Delete removes the object and its record.
func (s *Service) Delete(ctx context.Context, id string) error {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if err := s.bucket.Delete(ctx, asset.Path); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if err := s.assets.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}

	s.logger.Info("media deleted", "id", id, "path", asset.Path)
	return nil
}
