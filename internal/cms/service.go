// AngelaMos | 2026
// service.go

package cms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

var (
	ErrInvalidKey   = errors.New("invalid key")
	ErrTypeMismatch = errors.New("type does not match value")
	ErrInvalidStyle = errors.New("invalid style value")
)

const (
	maxStyleNumber = 10000
	colorSuffix    = "color"
)

type Service struct {
	store    docstore.Store
	content  *docstore.Collection[contentDoc]
	settings *docstore.Collection[settingDoc]
	layouts  *docstore.Collection[layoutDoc]
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store docstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		content:  docstore.NewCollection[contentDoc](store, ContentCollection),
		settings: docstore.NewCollection[settingDoc](store, SettingsCollection),
		layouts:  docstore.NewCollection[layoutDoc](store, LayoutCollection),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) checkKey(key string) error {
	if err := s.validate.Var(key, "required,max=200,excludesall=/"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func (s *Service) GetContent(ctx context.Context, key string) (*Content, error) {
	doc, err := s.content.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	c, err := doc.toContent()
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return &c, nil
}

// ListContent returns every entry ordered by key, optionally limited to one
// section.
func (s *Service) ListContent(ctx context.Context, section string) ([]Content, error) {
	q := docstore.Query{}.Order("key", false)
	if section != "" {
		q = q.Equal("metadata.section", section)
	}
	docs, err := s.content.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return s.contents(docs), nil
}

func (s *Service) contents(docs []contentDoc) []Content {
	out := make([]Content, 0, len(docs))
	for _, d := range docs {
		c, err := d.toContent()
		if err != nil {
			s.logger.Warn("skip unreadable content", "key", d.Key, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) WatchContent(ctx context.Context, fn func([]Content)) (docstore.Unsubscribe, error) {
	return s.content.WatchAll(ctx, docstore.Query{}.Order("key", false), func(docs []contentDoc) {
		fn(s.contents(docs))
	})
}

// SetContent writes key with a new value. The value is replaced whole and the
// metadata merged, so a record value never keeps fields the editor removed.
func (s *Service) SetContent(ctx context.Context, key string, in ContentInput, editor string) (*Content, error) {
	ctx, span := core.StartSpan(ctx, "cms.set_content", attribute.String("cms.key", key))
	defer span.End()

	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	if !in.Value.IsValid() {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidValue)
	}
	kind := in.Type
	if kind == "" {
		kind = in.Value.Kind()
	}
	if kind != in.Value.Kind() {
		return nil, fmt.Errorf("%w: type %s, value %s", ErrTypeMismatch, kind, in.Value.Kind())
	}

	var written contentDoc
	err := s.store.RunTransaction(ctx, func(_ context.Context, tx docstore.Tx) error {
		doc := contentDoc{Key: key}
		snap, err := tx.Get(ContentCollection, key)
		switch {
		case err == nil:
			prior, err := docstore.Decode[contentDoc](snap)
			if err != nil {
				return err
			}
			doc.Metadata = prior.Metadata
		case !errors.Is(err, core.ErrNotFound):
			return err
		}

		doc.Type = kind
		doc.Value = in.Value.Any()
		if in.Section != "" {
			doc.Metadata.Section = in.Section
		}
		if in.Component != "" {
			doc.Metadata.Component = in.Component
		}
		doc.Metadata.LastUpdated = s.now()
		doc.Metadata.UpdatedBy = editor

		written = doc
		return tx.Set(ContentCollection, key, &doc)
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("set content: %w", err)
	}

	core.AddSpanEvent(ctx, "content_updated", attribute.String("cms.editor", editor))
	s.logger.Info("content updated", "key", key, "updated_by", editor)

	c := Content{Key: key, Type: written.Type, Value: in.Value, Metadata: written.Metadata}
	return &c, nil
}

func (s *Service) DeleteContent(ctx context.Context, key string, editor string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	if err := s.content.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	s.logger.Info("content deleted", "key", key, "updated_by", editor)
	return nil
}

func (s *Service) GetSetting(ctx context.Context, key string) (*Setting, error) {
	doc, err := s.settings.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}
	st, err := doc.toSetting()
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &st, nil
}

func (s *Service) ListSettings(ctx context.Context) ([]Setting, error) {
	docs, err := s.settings.List(ctx, docstore.Query{}.Order("key", false))
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return s.settingList(docs), nil
}

func (s *Service) settingList(docs []settingDoc) []Setting {
	out := make([]Setting, 0, len(docs))
	for _, d := range docs {
		st, err := d.toSetting()
		if err != nil {
			s.logger.Warn("skip unreadable setting", "key", d.Key, "error", err)
			continue
		}
		out = append(out, st)
	}
	return out
}

func (s *Service) WatchSettings(ctx context.Context, fn func([]Setting)) (docstore.Unsubscribe, error) {
	return s.settings.WatchAll(ctx, docstore.Query{}.Order("key", false), func(docs []settingDoc) {
		fn(s.settingList(docs))
	})
}

func (s *Service) SetSetting(ctx context.Context, key string, value Value, editor string) (*Setting, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	if !value.IsValid() {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidValue)
	}

	doc := settingDoc{Key: key, Value: value.Any(), LastUpdated: s.now(), UpdatedBy: editor}
	if err := s.settings.Set(ctx, key, &doc); err != nil {
		return nil, fmt.Errorf("set setting: %w", err)
	}

	s.logger.Info("setting updated", "key", key, "updated_by", editor)
	return &Setting{Key: key, Value: value, LastUpdated: doc.LastUpdated, UpdatedBy: editor}, nil
}

func (s *Service) GetLayout(ctx context.Context, component string) (*Layout, error) {
	doc, err := s.layouts.Get(ctx, component)
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	l, err := doc.toLayout()
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return &l, nil
}

func (s *Service) ListLayouts(ctx context.Context) ([]Layout, error) {
	docs, err := s.layouts.List(ctx, docstore.Query{}.Order("component", false))
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return s.layoutList(docs), nil
}

func (s *Service) layoutList(docs []layoutDoc) []Layout {
	out := make([]Layout, 0, len(docs))
	for _, d := range docs {
		l, err := d.toLayout()
		if err != nil {
			s.logger.Warn("skip unreadable layout", "component", d.Component, "error", err)
			continue
		}
		out = append(out, l)
	}
	return out
}

func (s *Service) WatchLayouts(ctx context.Context, fn func([]Layout)) (docstore.Unsubscribe, error) {
	return s.layouts.WatchAll(ctx, docstore.Query{}.Order("component", false), func(docs []layoutDoc) {
		fn(s.layoutList(docs))
	})
}

// CheckStyle enforces the editor constraints on one style entry: keys ending
// in "color" hold hex colours and numbers stay within [0, 10000].
func (s *Service) CheckStyle(key string, v Value) error {
	if !v.IsPrimitive() {
		return fmt.Errorf("%w: %q must be a string, number or boolean", ErrInvalidStyle, key)
	}

	if strings.HasSuffix(strings.ToLower(key), colorSuffix) {
		str, ok := v.Str()
		if !ok || s.validate.Var(str, "hexcolor") != nil {
			return fmt.Errorf("%w: %q must be a hex colour", ErrInvalidStyle, key)
		}
	}

	if n, ok := v.Num(); ok {
		if s.validate.Var(n, fmt.Sprintf("min=0,max=%d", maxStyleNumber)) != nil {
			return fmt.Errorf("%w: %q must be between 0 and %d", ErrInvalidStyle, key, maxStyleNumber)
		}
	}
	return nil
}

// UpdateLayout merges the given styles and visibility flags into the
// component's layout. Keys not named in the patch are kept.
func (s *Service) UpdateLayout(ctx context.Context, component string, patch LayoutPatch, editor string) (*Layout, error) {
	ctx, span := core.StartSpan(ctx, "cms.update_layout", attribute.String("cms.component", component))
	defer span.End()

	if err := s.checkKey(component); err != nil {
		return nil, err
	}

	styles := make(map[string]any, len(patch.Styles))
	for k, v := range patch.Styles {
		if err := s.CheckStyle(k, v); err != nil {
			return nil, err
		}
		styles[k] = v.Any()
	}

	fields := map[string]any{
		"component":   component,
		"lastUpdated": s.now(),
		"updatedBy":   editor,
	}
	if len(styles) > 0 {
		fields["styles"] = styles
	}
	if len(patch.Visibility) > 0 {
		visibility := make(map[string]any, len(patch.Visibility))
		for k, v := range patch.Visibility {
			visibility[k] = v
		}
		fields["visibility"] = visibility
	}

	if err := s.layouts.Merge(ctx, component, fields); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("update layout: %w", err)
	}

	core.AddSpanEvent(ctx, "layout_updated", attribute.String("cms.editor", editor))
	s.logger.Info("layout updated", "component", component, "updated_by", editor)

	return s.GetLayout(ctx, component)
}
