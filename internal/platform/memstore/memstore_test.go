package memstore

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-memdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name string
}

func widgetTable(name string) *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: name,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
		},
	}
}

func TestNewRejectsDuplicateTables(t *testing.T) {
	_, err := New(widgetTable("w"), widgetTable("w"))
	require.Error(t, err)
}

func TestScopeWriteRollsBackOnError(t *testing.T) {
	db, err := New(widgetTable("w"))
	require.NoError(t, err)
	scope := Scope{DB: db}

	boom := errors.New("boom")
	err = scope.Write(func(txn *memdb.Txn) error {
		require.NoError(t, txn.Insert("w", &widget{Name: "a"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, scope.Read(func(txn *memdb.Txn) error {
		raw, err := txn.First("w", "id", "a")
		assert.Nil(t, raw)
		return err
	}))
}

func TestScopeBoundTxnDefersCommit(t *testing.T) {
	db, err := New(widgetTable("w"))
	require.NoError(t, err)

	txn := db.Txn(true)
	bound := Scope{DB: db, Txn: txn}
	require.NoError(t, bound.Write(func(txn *memdb.Txn) error {
		return txn.Insert("w", &widget{Name: "a"})
	}))

	var seen []*widget
	require.NoError(t, Scope{DB: db}.Read(func(txn *memdb.Txn) error {
		it, err := txn.Get("w", "id")
		if err != nil {
			return err
		}
		seen = Collect[*widget](it)
		return nil
	}))
	assert.Empty(t, seen)

	txn.Commit()
	require.NoError(t, Scope{DB: db}.Read(func(txn *memdb.Txn) error {
		it, err := txn.Get("w", "id")
		if err != nil {
			return err
		}
		seen = Collect[*widget](it)
		return nil
	}))
	assert.Len(t, seen, 1)
}
