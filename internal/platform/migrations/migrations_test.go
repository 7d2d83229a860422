package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModels_UniqueTables(t *testing.T) {
	seen := map[string]bool{}
	for _, model := range Models() {
		named, ok := model.(interface{ TableName() string })
		require.True(t, ok, "%T has no TableName", model)
		assert.False(t, seen[named.TableName()], "duplicate table %s", named.TableName())
		seen[named.TableName()] = true
	}
	for _, table := range []string{"vendors", "menu_items", "carts", "cart_lines", "orders", "sub_orders", "order_lines", "checkout_idempotency_keys"} {
		assert.True(t, seen[table], "missing table %s", table)
	}
}

func TestRun_NilDB(t *testing.T) {
	require.NoError(t, Run(nil))
}
