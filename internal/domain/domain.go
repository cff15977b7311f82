package domain

import "github.com/yungbote/catalog-mapping-backend/internal/domain/catalog"

const (
	SideMaster = catalog.SideMaster
	SideShop   = catalog.SideShop
)

type CategoryMapping = catalog.CategoryMapping
type AttributeMappingSet = catalog.AttributeMappingSet
type ProductDefaultCategory = catalog.ProductDefaultCategory
