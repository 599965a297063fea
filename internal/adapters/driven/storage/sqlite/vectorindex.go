package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex persists chunks in SQLite and serves reads from an
// in-memory copy of the collection.
type VectorIndex struct {
	store      *Store
	collection string

	// writeMu orders database writes with their cache updates.
	writeMu sync.Mutex
	cache   *memory.VectorIndex
}

// OpenVectorIndex opens the collection in the database under dataDir and
// loads its chunks. dimensions of zero adopts the dimension of the first
// stored vector.
func OpenVectorIndex(ctx context.Context, dataDir, collection string, dimensions int) (*VectorIndex, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}

	store, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	x := &VectorIndex{
		store:      store,
		collection: collection,
		cache:      memory.NewVectorIndex(collection, dimensions),
	}
	if err := x.load(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return x, nil
}

// load reads the collection in insertion order into the cache.
func (x *VectorIndex) load(ctx context.Context) error {
	rows, err := x.store.db.QueryContext(ctx,
		`SELECT id, text, embedding, metadata FROM chunks WHERE collection = ? ORDER BY seq`,
		x.collection)
	if err != nil {
		return domain.IndexError(fmt.Errorf("querying chunks: %w", err))
	}
	defer rows.Close()

	var records []driven.VectorRecord
	for rows.Next() {
		var (
			r        driven.VectorRecord
			blob     []byte
			metadata string
		)
		if err := rows.Scan(&r.ID, &r.Text, &blob, &metadata); err != nil {
			return domain.IndexError(fmt.Errorf("scanning chunk: %w", err))
		}
		r.Vector = bytesToFloat32Slice(blob)
		if r.Metadata, err = unmarshalMetadata(metadata); err != nil {
			return domain.IndexError(fmt.Errorf("chunk %s: %w", r.ID, err))
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return domain.IndexError(fmt.Errorf("iterating chunks: %w", err))
	}

	if err := x.cache.Validate(records); err != nil {
		return fmt.Errorf("loading collection %s: %w", x.collection, err)
	}
	x.cache.Load(records)
	return nil
}

// Insert writes the batch in one transaction. Nothing is written unless
// every record is valid.
func (x *VectorIndex) Insert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	if err := x.cache.Validate(records); err != nil {
		return err
	}

	err := x.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (collection, id, text, embedding, metadata)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			metadata, err := marshalMetadata(r.Metadata)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", r.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, x.collection, r.ID, r.Text,
				float32SliceToBytes(r.Vector), metadata); err != nil {
				return fmt.Errorf("inserting chunk %s: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.IndexError(err)
	}

	return x.cache.Insert(ctx, records)
}

// Query returns the k nearest chunks matching filter.
func (x *VectorIndex) Query(ctx context.Context, vector []float32, k int, filter domain.Metadata) ([]driven.VectorHit, error) {
	return x.cache.Query(ctx, vector, k, filter)
}

// Get returns every chunk matching filter in insertion order.
func (x *VectorIndex) Get(ctx context.Context, filter domain.Metadata) ([]driven.VectorHit, error) {
	return x.cache.Get(ctx, filter)
}

// Delete removes chunks by id. Unknown ids are ignored.
func (x *VectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	if err := x.deleteRows(ctx, ids); err != nil {
		return err
	}
	return x.cache.Delete(ctx, ids)
}

// DeleteWhere removes every chunk matching a non-empty filter.
func (x *VectorIndex) DeleteWhere(ctx context.Context, filter domain.Metadata) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete filter must not be empty", domain.ErrInvalidInput)
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	ids := x.cache.MatchingIDs(filter)
	if len(ids) == 0 {
		return 0, nil
	}
	if err := x.deleteRows(ctx, ids); err != nil {
		return 0, err
	}
	if err := x.cache.Delete(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (x *VectorIndex) deleteRows(ctx context.Context, ids []string) error {
	err := x.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE collection = ? AND id = ?`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, x.collection, id); err != nil {
				return fmt.Errorf("deleting chunk %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.IndexError(err)
	}
	return nil
}

// Count returns the number of chunks in the collection.
func (x *VectorIndex) Count(ctx context.Context) (int, error) {
	return x.cache.Count(ctx)
}

// Clear removes every chunk of the collection.
func (x *VectorIndex) Clear(ctx context.Context) error {
	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	if _, err := x.store.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, x.collection); err != nil {
		return domain.IndexError(fmt.Errorf("clearing collection: %w", err))
	}
	return x.cache.Clear(ctx)
}

// Info describes the index.
func (x *VectorIndex) Info() driven.IndexInfo {
	info := x.cache.Info()
	info.Backend = domain.IndexBackendSQLite
	return info
}

// Path returns the database file path.
func (x *VectorIndex) Path() string {
	return x.store.Path()
}

// Close closes the database.
func (x *VectorIndex) Close() error {
	return x.store.Close()
}

func (x *VectorIndex) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := x.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
