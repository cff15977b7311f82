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

type CategoryMappingRepo interface {
	ListByScope(dbc dbctx.Context, masterShopID, targetShopID string) ([]*types.CategoryMapping, error)
	Upsert(dbc dbctx.Context, rows []*types.CategoryMapping) error
	DeleteByCanonicalNodes(dbc dbctx.Context, masterShopID, targetShopID string, canonicalNodeIDs []string) (int64, error)
}

type categoryMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryMappingRepo(db *gorm.DB, baseLog *logger.Logger) CategoryMappingRepo {
	return &categoryMappingRepo{db: db, log: baseLog.With("repo", "CategoryMappingRepo")}
}

func (r *categoryMappingRepo) ListByScope(dbc dbctx.Context, masterShopID, targetShopID string) ([]*types.CategoryMapping, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CategoryMapping
	if masterShopID == "" || targetShopID == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("master_shop_id = ? AND target_shop_id = ?", masterShopID, targetShopID).
		Order("canonical_node_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert writes rows keyed on (master_shop_id, target_shop_id, canonical_node_id).
func (r *categoryMappingRepo) Upsert(dbc dbctx.Context, rows []*types.CategoryMapping) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.UpdatedAt = now
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "master_shop_id"}, {Name: "target_shop_id"}, {Name: "canonical_node_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"shop_category_node_id",
				"status",
				"similarity",
				"reason",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *categoryMappingRepo) DeleteByCanonicalNodes(dbc dbctx.Context, masterShopID, targetShopID string, canonicalNodeIDs []string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(canonicalNodeIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("master_shop_id = ? AND target_shop_id = ? AND canonical_node_id IN ?", masterShopID, targetShopID, canonicalNodeIDs).
		Delete(&types.CategoryMapping{})
	return res.RowsAffected, res.Error
}
