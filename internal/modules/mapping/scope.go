package mapping

import (
	"fmt"
	"strings"
)

// Scope identifies one reconciliation context: a master/target shop pair and,
// for attribute scopes, the attribute type. Categories use a zero Type.
type Scope struct {
	MasterShopID string        `json:"master_shop_id"`
	TargetShopID string        `json:"target_shop_id"`
	Type         AttributeType `json:"type,omitempty"`
}

func CategoryScope(masterShopID, targetShopID string) Scope {
	return Scope{MasterShopID: strings.TrimSpace(masterShopID), TargetShopID: strings.TrimSpace(targetShopID)}
}

func AttributeScope(typ AttributeType, masterShopID, targetShopID string) Scope {
	s := CategoryScope(masterShopID, targetShopID)
	s.Type = typ
	return s
}

func (s Scope) IsCategory() bool { return s.Type == 0 }

// Validate fails with ErrMissingSelection when the shop context is incomplete.
func (s Scope) Validate() error {
	switch {
	case s.MasterShopID == "":
		return missingSelection("master shop not selected")
	case s.TargetShopID == "":
		return missingSelection("target shop not selected")
	case s.MasterShopID == s.TargetShopID:
		return missingSelection("target shop must differ from master shop")
	case !s.IsCategory() && !s.Type.Valid():
		return missingSelection("attribute type not selected")
	}
	return nil
}

// Key is a stable string form used to key sessions and locks.
func (s Scope) Key() string {
	kind := "categories"
	if !s.IsCategory() {
		kind = s.Type.String()
	}
	return fmt.Sprintf("%s:%s->%s", kind, s.MasterShopID, s.TargetShopID)
}
