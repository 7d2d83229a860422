package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddMergesSameItemAndRefreshesPrice(t *testing.T) {
	c := New("tok")
	require.NoError(t, c.Add(1, 10, "Margherita", 1, dec("199"), t0))
	require.NoError(t, c.Add(1, 10, "Margherita", 2, dec("209"), t0.Add(time.Minute)))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].UnitPrice.Equal(dec("209")))
	assert.True(t, c.Subtotal().Equal(dec("627")))
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := New("tok")
	assert.ErrorIs(t, c.Add(1, 10, "x", 0, dec("1"), t0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(1, 10, "x", -3, dec("1"), t0), ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestSubtotalTracksAddRemoveSequence(t *testing.T) {
	c := New("tok")
	require.NoError(t, c.Add(1, 10, "a", 2, dec("50"), t0))
	require.NoError(t, c.Add(1, 11, "b", 1, dec("12.50"), t0))
	require.NoError(t, c.Add(2, 20, "c", 3, dec("7.25"), t0))
	c.Lines[0].ID, c.Lines[1].ID, c.Lines[2].ID = 1, 2, 3

	assert.True(t, c.Subtotal().Equal(dec("134.25")))

	require.NoError(t, c.Remove(2, t0))
	assert.True(t, c.Subtotal().Equal(dec("121.75")))

	assert.ErrorIs(t, c.Remove(2, t0), ErrLineNotFound)
	assert.Equal(t, 5, c.ItemCount())
}

func TestGroupByVendor(t *testing.T) {
	c := New("tok")
	require.NoError(t, c.Add(7, 1, "a", 2, dec("50"), t0))
	require.NoError(t, c.Add(3, 2, "b", 1, dec("100"), t0))
	require.NoError(t, c.Add(7, 4, "c", 1, dec("20"), t0))

	groups := c.GroupByVendor()
	require.Len(t, groups, 2)
	assert.Equal(t, int64(3), groups[0].VendorID)
	assert.True(t, groups[0].Subtotal.Equal(dec("100")))
	assert.Equal(t, int64(7), groups[1].VendorID)
	assert.Len(t, groups[1].Lines, 2)
	assert.True(t, groups[1].Subtotal.Equal(dec("120")))
}

func TestAbsorbSumsAndKeepsNewestPrice(t *testing.T) {
	user := New("user")
	require.NoError(t, user.Add(1, 10, "a", 1, dec("10"), t0))
	user.Lines[0].ID = 5

	guest := New("guest")
	require.NoError(t, guest.Add(1, 10, "a", 2, dec("12"), t0.Add(time.Hour)))
	require.NoError(t, guest.Add(2, 20, "b", 1, dec("3"), t0))
	guest.Lines[1].ID = 99

	user.Absorb(guest, t0.Add(2*time.Hour))

	require.Len(t, user.Lines, 2)
	assert.Equal(t, int64(5), user.Lines[0].ID)
	assert.Equal(t, 3, user.Lines[0].Quantity)
	assert.True(t, user.Lines[0].UnitPrice.Equal(dec("12")))
	assert.Zero(t, user.Lines[1].ID, "absorbed lines get new ids on save")
}

func TestCloneIsIndependent(t *testing.T) {
	c := New("tok")
	require.NoError(t, c.Add(1, 10, "a", 1, dec("10"), t0))
	clone := c.Clone()
	clone.Lines[0].Quantity = 9
	assert.Equal(t, 1, c.Lines[0].Quantity)
}
