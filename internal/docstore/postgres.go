// AngelaMos | 2026
// postgres.go

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	)`

const pgUniqueViolation = "23505"

// postgresStore keeps every collection in one JSONB table. Live updates are
// published in-process after commit, so watchers only see writes made
// through this instance.
type postgresStore struct {
	db  *sqlx.DB
	hub *hub
}

func NewPostgres(db *sqlx.DB) Store {
	return &postgresStore{db: db, hub: newHub()}
}

// Migrate creates the documents table when it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func (r documentRow) snapshot() (*mapSnapshot, error) {
	var data map[string]any
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.ID, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return &mapSnapshot{id: r.ID, data: data}, nil
}

func getRow(ctx context.Context, db core.DBTX, collection, id string, lock bool) (*mapSnapshot, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`
	if lock {
		query += ` FOR UPDATE`
	}

	var row documentRow
	err := db.GetContext(ctx, &row, query, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	return row.snapshot()
}

func upsertRow(ctx context.Context, db core.DBTX, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	if _, err := db.ExecContext(ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	return nil
}

func insertRow(ctx context.Context, db core.DBTX, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`

	_, err = db.ExecContext(ctx, query, collection, id, raw)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("create %s/%s: %w", collection, id, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func mergeRow(ctx context.Context, db core.DBTX, collection, id string, patch map[string]any) error {
	current, err := getRow(ctx, db, collection, id, true)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	var base map[string]any
	if current != nil {
		base = current.data
	}
	return upsertRow(ctx, db, collection, id, deepMerge(base, patch))
}

func (p *postgresStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	snap, err := getRow(ctx, p.db, collection, id, false)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (p *postgresStore) Set(ctx context.Context, collection, id string, data any) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}
	if err := upsertRow(ctx, p.db, collection, id, doc); err != nil {
		return err
	}
	p.hub.publish(collection, id)
	return nil
}

func (p *postgresStore) Merge(
	ctx context.Context,
	collection, id string,
	fields map[string]any,
) error {
	patch, err := encode(fields)
	if err != nil {
		return err
	}

	err = core.InTx(ctx, p.db, nil, func(tx *sqlx.Tx) error {
		return mergeRow(ctx, tx, collection, id, patch)
	})
	if err != nil {
		return err
	}

	p.hub.publish(collection, id)
	return nil
}

func (p *postgresStore) Create(ctx context.Context, collection, id string, data any) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}
	if err := insertRow(ctx, p.db, collection, id, doc); err != nil {
		return err
	}
	p.hub.publish(collection, id)
	return nil
}

func (p *postgresStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	result, err := p.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		p.hub.publish(collection, id)
	}
	return nil
}

func buildListQuery(collection string, q Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{collection}

	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	for _, w := range q.Where {
		value, err := json.Marshal(w.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter %s: %w", w.Field, err)
		}
		args = append(args, strings.Split(w.Field, "."), string(value))
		fmt.Fprintf(&sb, ` AND data #> $%d::text[] = $%d::jsonb`, len(args)-1, len(args))
	}

	if q.OrderBy != "" {
		args = append(args, strings.Split(q.OrderBy, "."))
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY data #> $%d::text[] %s, id`, len(args), dir)
	} else {
		sb.WriteString(` ORDER BY id`)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	return sb.String(), args, nil
}

func (p *postgresStore) List(
	ctx context.Context,
	collection string,
	q Query,
) ([]Snapshot, error) {
	query, args, err := buildListQuery(collection, q)
	if err != nil {
		return nil, err
	}

	var rows []documentRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := row.snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (p *postgresStore) WatchDocument(
	ctx context.Context,
	collection, id string,
	fn func(Snapshot),
) (Unsubscribe, error) {
	return p.hub.watch(ctx, collection, id, func(ctx context.Context) (func(), error) {
		snap, err := getRow(ctx, p.db, collection, id, false)
		if errors.Is(err, ErrNotFound) {
			return func() { fn(nil) }, nil
		}
		if err != nil {
			return nil, err
		}
		return func() { fn(snap) }, nil
	}), nil
}

func (p *postgresStore) WatchCollection(
	ctx context.Context,
	collection string,
	q Query,
	fn func([]Snapshot),
) (Unsubscribe, error) {
	return p.hub.watch(ctx, collection, "", func(ctx context.Context) (func(), error) {
		snaps, err := p.List(ctx, collection, q)
		if err != nil {
			return nil, err
		}
		return func() { fn(snaps) }, nil
	}), nil
}

func (p *postgresStore) RunTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx Tx) error,
) error {
	var touched []docKey

	err := core.InTx(
		ctx,
		p.db,
		&sql.TxOptions{Isolation: sql.LevelRepeatableRead},
		func(tx *sqlx.Tx) error {
			ptx := &postgresTx{ctx: ctx, tx: tx}
			if err := fn(ctx, ptx); err != nil {
				return err
			}
			touched = ptx.touched
			return nil
		},
	)
	if err != nil {
		return err
	}

	for _, key := range touched {
		p.hub.publish(key.collection, key.id)
	}
	return nil
}

func (p *postgresStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (p *postgresStore) Close() error {
	return p.db.Close()
}

type postgresTx struct {
	ctx     context.Context
	tx      *sqlx.Tx
	touched []docKey
}

func (t *postgresTx) Get(collection, id string) (Snapshot, error) {
	snap, err := getRow(t.ctx, t.tx, collection, id, true)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (t *postgresTx) Set(collection, id string, data any) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}
	t.touched = append(t.touched, docKey{collection, id})
	return upsertRow(t.ctx, t.tx, collection, id, doc)
}

func (t *postgresTx) Merge(collection, id string, fields map[string]any) error {
	patch, err := encode(fields)
	if err != nil {
		return err
	}
	t.touched = append(t.touched, docKey{collection, id})
	return mergeRow(t.ctx, t.tx, collection, id, patch)
}

func (t *postgresTx) Create(collection, id string, data any) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}
	t.touched = append(t.touched, docKey{collection, id})
	return insertRow(t.ctx, t.tx, collection, id, doc)
}
