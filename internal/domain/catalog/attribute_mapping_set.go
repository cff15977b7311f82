package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AttributeMappingSet stores the whole attribute mapping of one scope as a
// canonical JSON document. Revision increments on every save.
type AttributeMappingSet struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type         string         `gorm:"not null;column:type;uniqueIndex:idx_attribute_mapping_set_scope,priority:1" json:"type"`
	MasterShopID string         `gorm:"not null;column:master_shop_id;uniqueIndex:idx_attribute_mapping_set_scope,priority:2" json:"master_shop_id"`
	TargetShopID string         `gorm:"not null;column:target_shop_id;uniqueIndex:idx_attribute_mapping_set_scope,priority:3" json:"target_shop_id"`
	Revision     int64          `gorm:"not null;default:0;column:revision" json:"revision"`
	Mappings     datatypes.JSON `gorm:"column:mappings" json:"mappings"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (AttributeMappingSet) TableName() string { return "attribute_mapping_set" }
