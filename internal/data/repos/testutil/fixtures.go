package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/catalog-mapping-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedCategoryMapping(tb testing.TB, ctx context.Context, tx *gorm.DB, masterShopID, targetShopID, canonicalNodeID string, shopNodeID *string, status string) *types.CategoryMapping {
	tb.Helper()
	row := &types.CategoryMapping{
		ID:                 uuid.New(),
		MasterShopID:       masterShopID,
		TargetShopID:       targetShopID,
		CanonicalNodeID:    canonicalNodeID,
		ShopCategoryNodeID: shopNodeID,
		Status:             status,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed category mapping: %v", err)
	}
	return row
}

func SeedProductDefaultCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, productID, side, shopID string, categoryID *string) *types.ProductDefaultCategory {
	tb.Helper()
	row := &types.ProductDefaultCategory{
		ID:         uuid.New(),
		ProductID:  productID,
		Side:       side,
		ShopID:     shopID,
		CategoryID: categoryID,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed product default category: %v", err)
	}
	return row
}

func Ptr[T any](v T) *T { return &v }
