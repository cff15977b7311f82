package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/catalog-mapping-backend/internal/domain"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
)

type ProductDefaultCategoryRepo interface {
	Upsert(dbc dbctx.Context, row *types.ProductDefaultCategory) (*types.ProductDefaultCategory, error)
	ListByProducts(dbc dbctx.Context, side, shopID string, productIDs []string) ([]*types.ProductDefaultCategory, error)
}

type productDefaultCategoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductDefaultCategoryRepo(db *gorm.DB, baseLog *logger.Logger) ProductDefaultCategoryRepo {
	return &productDefaultCategoryRepo{db: db, log: baseLog.With("repo", "ProductDefaultCategoryRepo")}
}

func (r *productDefaultCategoryRepo) Upsert(dbc dbctx.Context, row *types.ProductDefaultCategory) (*types.ProductDefaultCategory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "side"}, {Name: "shop_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"category_id", "updated_at"}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var stored types.ProductDefaultCategory
	if err := transaction.WithContext(dbc.Ctx).
		Where("product_id = ? AND side = ? AND shop_id = ?", row.ProductID, row.Side, row.ShopID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *productDefaultCategoryRepo) ListByProducts(dbc dbctx.Context, side, shopID string, productIDs []string) ([]*types.ProductDefaultCategory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProductDefaultCategory
	if len(productIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("side = ? AND shop_id = ? AND product_id IN ?", side, shopID, productIDs).
		Order("product_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
