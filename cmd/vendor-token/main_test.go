package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/foodcourt-server/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/auth"
)

func TestIssue_TokenVerifiesForKnownVendor(t *testing.T) {
	catalog, err := catalogmemory.NewSeededCatalog(catalogdomain.DemoCatalog())
	require.NoError(t, err)

	token, err := issue(context.Background(), "kitchen-secret", catalog, 2, time.Hour)
	require.NoError(t, err)

	tokens, err := auth.NewVendorTokens("kitchen-secret", time.Hour)
	require.NoError(t, err)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), claims.VendorID)
}

func TestIssue_Rejections(t *testing.T) {
	catalog, err := catalogmemory.NewSeededCatalog(catalogdomain.DemoCatalog())
	require.NoError(t, err)

	_, err = issue(context.Background(), "", catalog, 1, time.Hour)
	require.ErrorContains(t, err, "VENDOR_JWT_SECRET")

	_, err = issue(context.Background(), "kitchen-secret", catalog, 99, time.Hour)
	require.ErrorIs(t, err, catalogports.ErrVendorNotFound)
}
