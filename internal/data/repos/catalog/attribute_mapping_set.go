package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/catalog-mapping-backend/internal/domain"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
)

type AttributeMappingSetRepo interface {
	Get(dbc dbctx.Context, typ, masterShopID, targetShopID string) (*types.AttributeMappingSet, error)
	Save(dbc dbctx.Context, typ, masterShopID, targetShopID string, mappings datatypes.JSON, expectedRevision int64) (*types.AttributeMappingSet, error)
}

type attributeMappingSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttributeMappingSetRepo(db *gorm.DB, baseLog *logger.Logger) AttributeMappingSetRepo {
	return &attributeMappingSetRepo{db: db, log: baseLog.With("repo", "AttributeMappingSetRepo")}
}

// Get returns nil when the scope was never saved.
func (r *attributeMappingSetRepo) Get(dbc dbctx.Context, typ, masterShopID, targetShopID string) (*types.AttributeMappingSet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.AttributeMappingSet
	err := transaction.WithContext(dbc.Ctx).
		Where("type = ? AND master_shop_id = ? AND target_shop_id = ?", typ, masterShopID, targetShopID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// Save stores mappings when the stored revision equals expectedRevision and
// bumps the revision. Revision 0 means the scope has never been saved. A stale
// revision fails with ErrRevisionConflict and writes nothing.
func (r *attributeMappingSetRepo) Save(dbc dbctx.Context, typ, masterShopID, targetShopID string, mappings datatypes.JSON, expectedRevision int64) (*types.AttributeMappingSet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var saved *types.AttributeMappingSet
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if expectedRevision == 0 {
			row := &types.AttributeMappingSet{
				ID:           uuid.New(),
				Type:         typ,
				MasterShopID: masterShopID,
				TargetShopID: targetShopID,
				Revision:     1,
				Mappings:     mappings,
			}
			res := txx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrRevisionConflict
			}
			saved = row
			return nil
		}

		res := txx.Model(&types.AttributeMappingSet{}).
			Where("type = ? AND master_shop_id = ? AND target_shop_id = ? AND revision = ?", typ, masterShopID, targetShopID, expectedRevision).
			Updates(map[string]interface{}{
				"mappings": mappings,
				"revision": expectedRevision + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRevisionConflict
		}
		var row types.AttributeMappingSet
		if err := txx.Where("type = ? AND master_shop_id = ? AND target_shop_id = ?", typ, masterShopID, targetShopID).
			First(&row).Error; err != nil {
			return err
		}
		saved = &row
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRevisionConflict) {
			r.log.Warn("Attribute mapping save rejected", "type", typ, "master_shop_id", masterShopID, "target_shop_id", targetShopID, "expected_revision", expectedRevision)
		}
		return nil, err
	}
	return saved, nil
}
