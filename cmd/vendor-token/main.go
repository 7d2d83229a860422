package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Apurer/foodcourt-server/internal/app/api"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/auth"
	platformobservability "github.com/Apurer/foodcourt-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/foodcourt-server/internal/platform/postgres"
)

func main() {
	vendorID := flag.Int64("vendor", 0, "vendor id the token acts for")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := platformobservability.NewLogger(os.Stderr, "warn")
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	db, cleanup, err := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		log.Fatalf("failed to open postgres: %v", err)
	}
	defer cleanup()
	stores, err := api.BuildStores(ctx, cfg, db, logger)
	if err != nil {
		log.Fatalf("failed to build stores: %v", err)
	}

	token, err := issue(ctx, cfg.VendorJWTSecret, stores.Catalog, *vendorID, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintln(os.Stdout, token)
}

// issue signs a token for a vendor that exists in the catalog.
func issue(ctx context.Context, secret string, catalog catalogports.Lookup, vendorID int64, ttl time.Duration) (string, error) {
	tokens, err := auth.NewVendorTokens(secret, ttl)
	if errors.Is(err, auth.ErrNoSecret) {
		return "", errors.New("VENDOR_JWT_SECRET not set; vendor routes are open and need no token")
	}
	if err != nil {
		return "", err
	}
	if _, err := catalog.GetVendor(ctx, vendorID); err != nil {
		return "", fmt.Errorf("vendor %d: %w", vendorID, err)
	}
	return tokens.Issue(vendorID)
}
