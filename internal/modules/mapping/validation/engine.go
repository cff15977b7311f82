package validation

import (
	"strings"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
)

type CategoryRef struct {
	ID   string `json:"id"`
	GUID string `json:"guid,omitempty"`
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// TargetSnapshot is what the target shop currently has for one product.
type TargetSnapshot struct {
	ActualCategoryID string   `json:"actual_category_id"`
	CategoryIDs      []string `json:"category_ids,omitempty"`
}

// ProductSnapshot is the externally supplied category state of one product.
// MasterCategoryGUID is the master default category (guid or node id);
// MasterCategoryGUIDs lists every master category the product sits in.
type ProductSnapshot struct {
	ProductID           string          `json:"product_id"`
	SKU                 string          `json:"sku,omitempty"`
	Name                string          `json:"name,omitempty"`
	Codes               []string        `json:"codes,omitempty"`
	MasterCategoryGUID  string          `json:"master_category_guid"`
	MasterCategoryGUIDs []string        `json:"master_category_guids,omitempty"`
	Target              *TargetSnapshot `json:"target"`
}

// Issue is one drift finding for a (product, master category) pair.
type Issue struct {
	ProductID        string       `json:"product_id"`
	SKU              string       `json:"sku,omitempty"`
	Name             string       `json:"name,omitempty"`
	Codes            []string     `json:"codes"`
	MasterCategory   CategoryRef  `json:"master_category"`
	ExpectedCategory *CategoryRef `json:"expected_category"`
	ActualCategory   *CategoryRef `json:"actual_category"`
	Reason           ReasonCode   `json:"reason"`
	Reasons          []ReasonCode `json:"reasons"`
}

// Engine checks product snapshots against the confirmed category mapping of one shop pair.
type Engine struct {
	canonical *taxonomy.CanonicalIndex
	shop      *taxonomy.ShopIndex
	mappings  mapping.CategoryMappings
}

func New(canonical *taxonomy.CanonicalIndex, shop *taxonomy.ShopIndex, mappings mapping.CategoryMappings) *Engine {
	return &Engine{canonical: canonical, shop: shop, mappings: mappings.Clone()}
}

// Check runs the decision chain for one product. The default master category
// gets the full chain; the product's other master categories are checked up to
// the mapping step, since the actual default only relates to the default one.
func (e *Engine) Check(p ProductSnapshot) []Issue {
	def := strings.TrimSpace(p.MasterCategoryGUID)
	if def == "" {
		return []Issue{e.issue(p, CategoryRef{}, nil, nil, ReasonMissingMasterDefault)}
	}

	var out []Issue
	if iss, ok := e.checkDefault(p, def); ok {
		out = append(out, iss)
	}
	seen := map[string]struct{}{def: {}}
	for _, ref := range p.MasterCategoryGUIDs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		masterID, ok := e.canonical.Resolve(ref)
		if !ok {
			out = append(out, e.issue(p, CategoryRef{GUID: ref}, nil, nil, ReasonCanonicalNotFound))
			continue
		}
		if _, ok := e.confirmedTarget(masterID); !ok {
			out = append(out, e.issue(p, e.canonicalRef(masterID), nil, nil, ReasonMissingMapping))
		}
	}
	return out
}

func (e *Engine) checkDefault(p ProductSnapshot, ref string) (Issue, bool) {
	masterID, ok := e.canonical.Resolve(ref)
	if !ok {
		return e.issue(p, CategoryRef{GUID: ref}, nil, nil, ReasonCanonicalNotFound), true
	}
	master := e.canonicalRef(masterID)
	expectedID, ok := e.confirmedTarget(masterID)
	if !ok {
		return e.issue(p, master, nil, nil, ReasonMissingMapping), true
	}
	expected := e.shopRef(expectedID)
	if p.Target == nil {
		return e.issue(p, master, &expected, nil, ReasonMissingTargetSnapshot), true
	}
	actualID := strings.TrimSpace(p.Target.ActualCategoryID)
	if actualID == "" {
		return e.issue(p, master, &expected, nil, ReasonMissingActualDefault), true
	}
	actual := e.shopRef(actualID)
	if actualID != expectedID {
		return e.issue(p, master, &expected, &actual, ReasonMismatch), true
	}
	if deeper, ok := e.deeperCandidate(p, masterID, actualID); ok {
		want := e.shopRef(deeper)
		return e.issue(p, master, &want, &actual, ReasonDefaultNotDeepest), true
	}
	return Issue{}, false
}

// deeperCandidate looks for a node strictly below actualID that the product
// should sit in instead: one of its target-side categories, or the mapped
// target of another of its master categories.
func (e *Engine) deeperCandidate(p ProductSnapshot, masterID, actualID string) (string, bool) {
	var candidates []string
	for _, id := range p.Target.CategoryIDs {
		if e.shop.IsDescendant(id, actualID) {
			candidates = append(candidates, id)
		}
	}
	for _, ref := range p.MasterCategoryGUIDs {
		otherID, ok := e.canonical.Resolve(strings.TrimSpace(ref))
		if !ok || otherID == masterID {
			continue
		}
		if t, ok := e.confirmedTarget(otherID); ok && e.shop.IsDescendant(t, actualID) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return e.shop.Deepest(candidates)
}

// confirmedTarget returns the shop node a canonical node is confirmed to.
func (e *Engine) confirmedTarget(masterID string) (string, bool) {
	m, ok := e.mappings[masterID]
	if !ok {
		return "", false
	}
	switch m.Status {
	case taxonomy.StatusConfirmed:
		target, ok := m.Target()
		if !ok {
			return "", false
		}
		if e.shop.Len() > 0 && !e.shop.Has(target) {
			return "", false
		}
		return target, true
	case taxonomy.StatusSuggested, taxonomy.StatusRejected:
		return "", false
	default:
		return "", false
	}
}

func (e *Engine) canonicalRef(id string) CategoryRef {
	n, ok := e.canonical.Lookup(id)
	if !ok {
		return CategoryRef{ID: id}
	}
	return CategoryRef{ID: n.ID, GUID: n.GUID, Name: n.Name, Path: n.Path}
}

func (e *Engine) shopRef(id string) CategoryRef {
	n, ok := e.shop.Lookup(id)
	if !ok {
		return CategoryRef{ID: id}
	}
	return CategoryRef{ID: n.ID, GUID: n.RemoteGUID, Name: n.Name, Path: n.Path}
}

func (e *Engine) issue(p ProductSnapshot, master CategoryRef, expected, actual *CategoryRef, reason ReasonCode) Issue {
	return Issue{
		ProductID:        p.ProductID,
		SKU:              p.SKU,
		Name:             p.Name,
		Codes:            append([]string(nil), p.Codes...),
		MasterCategory:   master,
		ExpectedCategory: expected,
		ActualCategory:   actual,
		Reason:           reason,
		Reasons:          []ReasonCode{reason},
	}
}

// Run checks every product and returns the aggregated report.
func (e *Engine) Run(products []ProductSnapshot) Report {
	var raw []Issue
	for _, p := range products {
		raw = append(raw, e.Check(p)...)
	}
	return NewReport(raw)
}
