package repos

import (
	"github.com/yungbote/catalog-mapping-backend/internal/data/repos/catalog"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type CategoryMappingRepo = catalog.CategoryMappingRepo
type AttributeMappingSetRepo = catalog.AttributeMappingSetRepo
type ProductDefaultCategoryRepo = catalog.ProductDefaultCategoryRepo

var ErrRevisionConflict = catalog.ErrRevisionConflict

func NewCategoryMappingRepo(db *gorm.DB, baseLog *logger.Logger) CategoryMappingRepo {
	return catalog.NewCategoryMappingRepo(db, baseLog)
}

func NewAttributeMappingSetRepo(db *gorm.DB, baseLog *logger.Logger) AttributeMappingSetRepo {
	return catalog.NewAttributeMappingSetRepo(db, baseLog)
}

func NewProductDefaultCategoryRepo(db *gorm.DB, baseLog *logger.Logger) ProductDefaultCategoryRepo {
	return catalog.NewProductDefaultCategoryRepo(db, baseLog)
}
