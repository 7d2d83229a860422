package migrations

import (
	"fmt"

	"gorm.io/gorm"

	cartpostgres "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/persistence/postgres"
	catalogpostgres "github.com/Apurer/foodcourt-server/internal/domains/catalog/adapters/persistence/postgres"
	orderspostgres "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/persistence/postgres"
)

// Models lists every record the Postgres adapters own, in dependency order.
func Models() []any {
	var models []any
	models = append(models, catalogpostgres.Models()...)
	models = append(models, cartpostgres.Models()...)
	models = append(models, orderspostgres.Models()...)
	return models
}

// Run applies the schema for the bounded contexts. Adapters never automigrate themselves.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
