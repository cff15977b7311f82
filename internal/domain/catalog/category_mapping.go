package catalog

import (
	"time"

	"github.com/google/uuid"
)

// CategoryMapping is the persisted link of one canonical category to a node of
// one target shop taxonomy.
type CategoryMapping struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MasterShopID       string    `gorm:"not null;column:master_shop_id;uniqueIndex:idx_category_mapping_scope_node,priority:1" json:"master_shop_id"`
	TargetShopID       string    `gorm:"not null;column:target_shop_id;uniqueIndex:idx_category_mapping_scope_node,priority:2" json:"target_shop_id"`
	CanonicalNodeID    string    `gorm:"not null;column:canonical_node_id;uniqueIndex:idx_category_mapping_scope_node,priority:3" json:"canonical_node_id"`
	ShopCategoryNodeID *string   `gorm:"column:shop_category_node_id;index" json:"shop_category_node_id"`
	Status             string    `gorm:"not null;column:status" json:"status"`
	Similarity         *float64  `gorm:"column:similarity" json:"similarity,omitempty"`
	Reason             string    `gorm:"column:reason" json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CategoryMapping) TableName() string { return "category_mapping" }
