package db

import (
	"fmt"

	types "github.com/yungbote/catalog-mapping-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.CategoryMapping{},
		&types.AttributeMappingSet{},
		&types.ProductDefaultCategory{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
