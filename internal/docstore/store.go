// AngelaMos | 2026
// store.go

package docstore

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
)

var (
	ErrNotFound      = fmt.Errorf("document %w", core.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("document %w", core.ErrDuplicateKey)
)

// Snapshot is a point-in-time read of one document. DataTo decodes into a
// struct whose json and firestore tags carry the same field names.
type Snapshot interface {
	ID() string
	Exists() bool
	DataTo(dst any) error
}

type Filter struct {
	Field string
	Value any
}

// Query selects documents by field equality with at most one ordering.
// Field names may be dotted paths into nested maps.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func (q Query) Equal(field string, value any) Query {
	q.Where = append(append([]Filter(nil), q.Where...), Filter{Field: field, Value: value})
	return q
}

func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = field
	q.Desc = desc
	return q
}

// Unsubscribe ends a live subscription. It is idempotent. Once it returns
// no further callback runs. It must not be called from inside the callback.
type Unsubscribe func()

type Tx interface {
	Get(collection, id string) (Snapshot, error)
	Set(collection, id string, data any) error
	Merge(collection, id string, fields map[string]any) error
	Create(collection, id string, data any) error
}

type Store interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	// Set overwrites the whole document.
	Set(ctx context.Context, collection, id string, data any) error
	// Merge deep-merges fields into the document, creating it if absent.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	Create(ctx context.Context, collection, id string, data any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string, q Query) ([]Snapshot, error)

	// WatchDocument calls fn with the current document and again after every
	// change. fn receives nil while the document does not exist.
	WatchDocument(
		ctx context.Context,
		collection, id string,
		fn func(Snapshot),
	) (Unsubscribe, error)
	WatchCollection(
		ctx context.Context,
		collection string,
		q Query,
		fn func([]Snapshot),
	) (Unsubscribe, error)

	// RunTransaction applies every write made through tx or none of them.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}
