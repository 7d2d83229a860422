// Package memstore hosts the transactional in-memory database shared by the
// memory adapters so that multi-aggregate writes (checkout) commit atomically.
package memstore

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
)

// New builds one database from the tables contributed by each adapter.
func New(tables ...*memdb.TableSchema) (*memdb.MemDB, error) {
	schema := &memdb.DBSchema{Tables: make(map[string]*memdb.TableSchema, len(tables))}
	for _, table := range tables {
		if _, dup := schema.Tables[table.Name]; dup {
			return nil, fmt.Errorf("memstore: table %q registered twice", table.Name)
		}
		schema.Tables[table.Name] = table
	}
	return memdb.NewMemDB(schema)
}

// Scope runs reads and writes either inside a caller-provided transaction or
// in a fresh one it owns.
type Scope struct {
	DB  *memdb.MemDB
	Txn *memdb.Txn
}

// Read runs fn against a snapshot, or the bound transaction.
func (s Scope) Read(fn func(txn *memdb.Txn) error) error {
	if s.Txn != nil {
		return fn(s.Txn)
	}
	txn := s.DB.Txn(false)
	defer txn.Abort()
	return fn(txn)
}

// Write runs fn in a write transaction and commits when fn succeeds. A bound
// transaction is left for its owner to commit.
func (s Scope) Write(fn func(txn *memdb.Txn) error) error {
	if s.Txn != nil {
		return fn(s.Txn)
	}
	txn := s.DB.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Collect drains a result iterator.
func Collect[T any](it memdb.ResultIterator) []T {
	var out []T
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj.(T))
	}
	return out
}
