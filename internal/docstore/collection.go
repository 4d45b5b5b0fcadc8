// AngelaMos | 2026
// collection.go

package docstore

import (
	"context"
	"fmt"
	"log/slog"
)

// Collection is a typed view over one collection of a Store.
type Collection[T any] struct {
	store Store
	name  string
}

func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Store() Store { return c.store }

func Decode[T any](snap Snapshot) (*T, error) {
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func DecodeAll[T any](snaps []Snapshot) ([]T, error) {
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		v, err := Decode[T](snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	snap, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return Decode[T](snap)
}

func (c *Collection[T]) Set(ctx context.Context, id string, v *T) error {
	return c.store.Set(ctx, c.name, id, v)
}

func (c *Collection[T]) Create(ctx context.Context, id string, v *T) error {
	return c.store.Create(ctx, c.name, id, v)
}

func (c *Collection[T]) Merge(ctx context.Context, id string, fields map[string]any) error {
	return c.store.Merge(ctx, c.name, id, fields)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

func (c *Collection[T]) List(ctx context.Context, q Query) ([]T, error) {
	snaps, err := c.store.List(ctx, c.name, q)
	if err != nil {
		return nil, err
	}
	out, err := DecodeAll[T](snaps)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return out, nil
}

// Watch decodes every snapshot of one document. fn receives nil while the
// document is missing or cannot be decoded.
func (c *Collection[T]) Watch(
	ctx context.Context,
	id string,
	fn func(*T),
) (Unsubscribe, error) {
	return c.store.WatchDocument(ctx, c.name, id, func(snap Snapshot) {
		if snap == nil {
			fn(nil)
			return
		}
		v, err := Decode[T](snap)
		if err != nil {
			slog.Warn("drop undecodable snapshot",
				"collection", c.name,
				"id", id,
				"error", err,
			)
			fn(nil)
			return
		}
		fn(v)
	})
}

func (c *Collection[T]) WatchAll(
	ctx context.Context,
	q Query,
	fn func([]T),
) (Unsubscribe, error) {
	return c.store.WatchCollection(ctx, c.name, q, func(snaps []Snapshot) {
		out, err := DecodeAll[T](snaps)
		if err != nil {
			slog.Warn("drop undecodable collection snapshot",
				"collection", c.name,
				"error", err,
			)
			return
		}
		fn(out)
	})
}
