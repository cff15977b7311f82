package catalog

import (
	"time"

	"github.com/google/uuid"
)

const (
	SideMaster = "master"
	SideShop   = "shop"
)

// ProductDefaultCategory records the default category applied to a product on
// one side. A nil CategoryID means the default was removed.
type ProductDefaultCategory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  string    `gorm:"not null;column:product_id;uniqueIndex:idx_product_default_category,priority:1" json:"product_id"`
	Side       string    `gorm:"not null;column:side;uniqueIndex:idx_product_default_category,priority:2" json:"side"`
	ShopID     string    `gorm:"not null;column:shop_id;uniqueIndex:idx_product_default_category,priority:3" json:"shop_id"`
	CategoryID *string   `gorm:"column:category_id" json:"category_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ProductDefaultCategory) TableName() string { return "product_default_category" }
