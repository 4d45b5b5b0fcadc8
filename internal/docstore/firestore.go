// AngelaMos | 2026
// firestore.go

package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreStore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

type firestoreSnapshot struct {
	snap *firestore.DocumentSnapshot
}

func (s *firestoreSnapshot) ID() string { return s.snap.Ref.ID }

func (s *firestoreSnapshot) Exists() bool { return s.snap.Exists() }

func (s *firestoreSnapshot) DataTo(dst any) error {
	if err := s.snap.DataTo(dst); err != nil {
		return fmt.Errorf("decode %s: %w", s.snap.Ref.ID, err)
	}
	return nil
}

func mapFirestoreError(op, collection, id string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s %s/%s: %w", op, collection, id, ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s %s/%s: %w", op, collection, id, ErrAlreadyExists)
	default:
		return fmt.Errorf("%s %s/%s: %w", op, collection, id, err)
	}
}

func (f *firestoreStore) doc(collection, id string) *firestore.DocumentRef {
	return f.client.Collection(collection).Doc(id)
}

func (f *firestoreStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	snap, err := f.doc(collection, id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError("get", collection, id, err)
	}
	return &firestoreSnapshot{snap: snap}, nil
}

func (f *firestoreStore) Set(ctx context.Context, collection, id string, data any) error {
	if _, err := f.doc(collection, id).Set(ctx, data); err != nil {
		return mapFirestoreError("set", collection, id, err)
	}
	return nil
}

func (f *firestoreStore) Merge(
	ctx context.Context,
	collection, id string,
	fields map[string]any,
) error {
	if _, err := f.doc(collection, id).Set(ctx, fields, firestore.MergeAll); err != nil {
		return mapFirestoreError("merge", collection, id, err)
	}
	return nil
}

func (f *firestoreStore) Create(ctx context.Context, collection, id string, data any) error {
	if _, err := f.doc(collection, id).Create(ctx, data); err != nil {
		return mapFirestoreError("create", collection, id, err)
	}
	return nil
}

func (f *firestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.doc(collection, id).Delete(ctx); err != nil {
		return mapFirestoreError("delete", collection, id, err)
	}
	return nil
}

func (f *firestoreStore) query(collection string, q Query) firestore.Query {
	query := f.client.Collection(collection).Query
	for _, w := range q.Where {
		query = query.WhereEntity(firestore.PropertyFilter{
			Path:     w.Field,
			Operator: "==",
			Value:    w.Value,
		})
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func (f *firestoreStore) List(
	ctx context.Context,
	collection string,
	q Query,
) ([]Snapshot, error) {
	iter := f.query(collection, q).Documents(ctx)
	defer iter.Stop()

	var out []Snapshot
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		out = append(out, &firestoreSnapshot{snap: snap})
	}

	return out, nil
}

func (f *firestoreStore) WatchDocument(
	ctx context.Context,
	collection, id string,
	fn func(Snapshot),
) (Unsubscribe, error) {
	sub, subCtx := newSubscription(ctx)
	iter := f.doc(collection, id).Snapshots(subCtx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				logWatchEnd(subCtx, collection, id, err)
				return
			}

			var out Snapshot
			if snap.Exists() {
				out = &firestoreSnapshot{snap: snap}
			}
			sub.deliver(func() { fn(out) })
		}
	}()

	return sub.unsubscribe, nil
}

func (f *firestoreStore) WatchCollection(
	ctx context.Context,
	collection string,
	q Query,
	fn func([]Snapshot),
) (Unsubscribe, error) {
	sub, subCtx := newSubscription(ctx)
	iter := f.query(collection, q).Snapshots(subCtx)

	go func() {
		defer iter.Stop()
		for {
			qs, err := iter.Next()
			if err != nil {
				logWatchEnd(subCtx, collection, "", err)
				return
			}

			docs, err := qs.Documents.GetAll()
			if err != nil {
				logWatchEnd(subCtx, collection, "", err)
				return
			}

			out := make([]Snapshot, len(docs))
			for i, d := range docs {
				out[i] = &firestoreSnapshot{snap: d}
			}
			sub.deliver(func() { fn(out) })
		}
	}()

	return sub.unsubscribe, nil
}

func logWatchEnd(ctx context.Context, collection, id string, err error) {
	if ctx.Err() != nil || status.Code(err) == codes.Canceled {
		return
	}
	slog.Error("firestore listener stopped",
		"collection", collection,
		"id", id,
		"error", err,
	)
}

func (f *firestoreStore) RunTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx Tx) error,
) error {
	err := f.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{store: f, tx: t})
	})
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("commit transaction: %w", ErrAlreadyExists)
	}
	return err
}

// Ping reads a document that need not exist; any answer from the backend
// other than a transport error counts.
func (f *firestoreStore) Ping(ctx context.Context) error {
	_, err := f.doc("_health", "ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (f *firestoreStore) Close() error {
	return f.client.Close()
}

type firestoreTx struct {
	store *firestoreStore
	tx    *firestore.Transaction
}

func (t *firestoreTx) Get(collection, id string) (Snapshot, error) {
	snap, err := t.tx.Get(t.store.doc(collection, id))
	if err != nil {
		return nil, mapFirestoreError("get", collection, id, err)
	}
	return &firestoreSnapshot{snap: snap}, nil
}

func (t *firestoreTx) Set(collection, id string, data any) error {
	if err := t.tx.Set(t.store.doc(collection, id), data); err != nil {
		return mapFirestoreError("set", collection, id, err)
	}
	return nil
}

func (t *firestoreTx) Merge(collection, id string, fields map[string]any) error {
	if err := t.tx.Set(t.store.doc(collection, id), fields, firestore.MergeAll); err != nil {
		return mapFirestoreError("merge", collection, id, err)
	}
	return nil
}

func (t *firestoreTx) Create(collection, id string, data any) error {
	if err := t.tx.Create(t.store.doc(collection, id), data); err != nil {
		return mapFirestoreError("create", collection, id, err)
	}
	return nil
}
