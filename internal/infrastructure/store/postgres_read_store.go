package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const readStoreTimeout = 5 * time.Second

var readStoreLog = logging.New("read-store")

// PostgresReadStore implements ReadStoreInterface as JSONB documents keyed by (collection, id).
type PostgresReadStore struct {
	pool *pgxpool.Pool
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(pool *pgxpool.Pool) *PostgresReadStore {
	return &PostgresReadStore{pool: pool}
}

// ConnectPool opens a pgx pool and checks it with a ping.
func ConnectPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	ctx, cancel := context.WithTimeout(context.Background(), readStoreTimeout)
	defer cancel()

	if err := upsertDocument(ctx, rs.pool, collection, id, data); err != nil {
		readStoreLog.WithError(err).WithField("collection", collection).Error("set failed")
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), readStoreTimeout)
	defer cancel()

	var raw []byte
	err := rs.pool.QueryRow(ctx,
		`SELECT data FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		readStoreLog.WithError(err).WithField("collection", collection).Error("get failed")
		return nil, false
	}

	doc, err := decodeDocument(collection, raw)
	if err != nil {
		readStoreLog.WithError(err).WithField("collection", collection).Error("decode failed")
		return nil, false
	}
	return doc, true
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	ctx, cancel := context.WithTimeout(context.Background(), readStoreTimeout)
	defer cancel()

	rows, err := rs.pool.Query(ctx,
		`SELECT data FROM read_models WHERE collection = $1 ORDER BY id`,
		collection,
	)
	if err != nil {
		readStoreLog.WithError(err).WithField("collection", collection).Error("list failed")
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			readStoreLog.WithError(err).Warn("skipping unreadable row")
			continue
		}
		doc, err := decodeDocument(collection, raw)
		if err != nil {
			readStoreLog.WithError(err).Warn("skipping undecodable document")
			continue
		}
		items = append(items, doc)
	}
	return items
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), readStoreTimeout)
	defer cancel()

	if _, err := rs.pool.Exec(ctx,
		`DELETE FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	); err != nil {
		readStoreLog.WithError(err).WithField("collection", collection).Error("delete failed")
	}
}

// Update reads the row under a lock, applies updateFn and writes it back in one transaction.
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), readStoreTimeout)
	defer cancel()

	found, err := withTx(ctx, rs.pool, func(tx pgx.Tx) (bool, error) {
		var raw []byte
		err := tx.QueryRow(ctx,
			`SELECT data FROM read_models WHERE collection = $1 AND id = $2 FOR UPDATE`,
			collection, id,
		).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		current, err := decodeDocument(collection, raw)
		if err != nil {
			return false, err
		}
		if err := upsertDocument(ctx, tx, collection, id, updateFn(current)); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		readStoreLog.WithError(err).WithField("collection", collection).Error("update failed")
		return false
	}
	return found
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertDocument(ctx context.Context, db execer, collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx,
		`INSERT INTO read_models (collection, id, data, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		collection, id, raw,
	)
	return err
}

func decodeDocument(collection string, raw []byte) (any, error) {
	doc, ok := readmodel.New(collection)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func withTx[T any](ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) (T, error)) (_ T, txErr error) {
	var zero T

	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, err
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, err
	}
	return result, nil
}
