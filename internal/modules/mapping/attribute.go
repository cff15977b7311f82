package mapping

import (
	"fmt"
	"strings"
)

// AttributeType selects which attribute family a mapping scope covers.
type AttributeType uint8

const (
	AttributeVariants AttributeType = iota + 1
	AttributeFilteringParameters
	AttributeFlags
)

var attributeTypeNames = map[AttributeType]string{
	AttributeVariants:            "variants",
	AttributeFilteringParameters: "filtering_parameters",
	AttributeFlags:               "flags",
}

func (t AttributeType) String() string {
	if name, ok := attributeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AttributeType(%d)", uint8(t))
}

func (t AttributeType) Valid() bool {
	_, ok := attributeTypeNames[t]
	return ok
}

// SupportsValues reports whether mappings of this type carry per-value sub-mappings.
func (t AttributeType) SupportsValues() bool {
	switch t {
	case AttributeVariants, AttributeFilteringParameters:
		return true
	case AttributeFlags:
		return false
	default:
		return false
	}
}

func ParseAttributeType(raw string) (AttributeType, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	for t, name := range attributeTypeNames {
		if name == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown attribute type %q", raw)
}

func (t AttributeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid attribute type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *AttributeType) UnmarshalText(text []byte) error {
	parsed, err := ParseAttributeType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type AttributeValue struct {
	Key                  string `json:"key"`
	Label                string `json:"label"`
	LikelyMasterLanguage bool   `json:"likely_master_language"`
}

// AttributeMappingItem is one master or target attribute/parameter definition.
type AttributeMappingItem struct {
	Key                  string           `json:"key"`
	Label                string           `json:"label"`
	Code                 string           `json:"code,omitempty"`
	Description          string           `json:"description,omitempty"`
	LikelyMasterLanguage bool             `json:"likely_master_language"`
	Values               []AttributeValue `json:"values"`
}

// ItemIndex is the key lookup over one side's attribute list.
type ItemIndex struct {
	items  map[string]AttributeMappingItem
	values map[string]map[string]AttributeValue
	order  []string
}

func NewItemIndex(items []AttributeMappingItem) *ItemIndex {
	ix := &ItemIndex{
		items:  make(map[string]AttributeMappingItem, len(items)),
		values: make(map[string]map[string]AttributeValue, len(items)),
	}
	for _, it := range items {
		if it.Key == "" {
			continue
		}
		if _, seen := ix.items[it.Key]; seen {
			continue
		}
		ix.items[it.Key] = it
		ix.order = append(ix.order, it.Key)
		vals := make(map[string]AttributeValue, len(it.Values))
		for _, v := range it.Values {
			if v.Key == "" {
				continue
			}
			if _, seen := vals[v.Key]; !seen {
				vals[v.Key] = v
			}
		}
		ix.values[it.Key] = vals
	}
	return ix
}

func (ix *ItemIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.items)
}

func (ix *ItemIndex) Has(key string) bool {
	if ix == nil || key == "" {
		return false
	}
	_, ok := ix.items[key]
	return ok
}

func (ix *ItemIndex) Item(key string) (AttributeMappingItem, bool) {
	if ix == nil {
		return AttributeMappingItem{}, false
	}
	it, ok := ix.items[key]
	return it, ok
}

func (ix *ItemIndex) HasValue(itemKey, valueKey string) bool {
	if ix == nil || valueKey == "" {
		return false
	}
	vals, ok := ix.values[itemKey]
	if !ok {
		return false
	}
	_, ok = vals[valueKey]
	return ok
}

// Keys returns item keys in input order.
func (ix *ItemIndex) Keys() []string {
	if ix == nil {
		return nil
	}
	return append([]string(nil), ix.order...)
}

// Items returns the indexed items in input order.
func (ix *ItemIndex) Items() []AttributeMappingItem {
	if ix == nil {
		return nil
	}
	out := make([]AttributeMappingItem, 0, len(ix.order))
	for _, k := range ix.order {
		out = append(out, ix.items[k])
	}
	return out
}
