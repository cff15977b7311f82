package bus

import (
	"context"
	"time"
)

const (
	EventMappingCommitted = "mapping.committed"
	EventDefaultCategory  = "mapping.default_category_applied"
)

// Event announces a persisted change so other instances can drop their
// sessions for the scope.
type Event struct {
	Type          string    `json:"type"`
	Scope         string    `json:"scope"`
	MasterShopID  string    `json:"master_shop_id"`
	TargetShopID  string    `json:"target_shop_id"`
	AttributeType string    `json:"attribute_type,omitempty"`
	Revision      int64     `json:"revision,omitempty"`
	Changed       int       `json:"changed"`
	Origin        string    `json:"origin,omitempty"`
	At            time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
