package mapping

import "github.com/yungbote/catalog-mapping-backend/internal/normalization"

// FlagLikelyMasterLanguage returns a copy of target where every item and value
// whose label folds to a master label is flagged as likely master language.
// Flags already set by the source are kept.
func FlagLikelyMasterLanguage(master, target []AttributeMappingItem) []AttributeMappingItem {
	items := normalization.NewLabelSet()
	values := normalization.NewLabelSet()
	for _, it := range master {
		items.Add(it.Label)
		for _, v := range it.Values {
			values.Add(v.Label)
		}
	}
	out := make([]AttributeMappingItem, len(target))
	for i, it := range target {
		it.LikelyMasterLanguage = it.LikelyMasterLanguage || items.Contains(it.Label)
		vals := make([]AttributeValue, len(it.Values))
		for j, v := range it.Values {
			v.LikelyMasterLanguage = v.LikelyMasterLanguage || values.Contains(v.Label)
			vals[j] = v
		}
		if it.Values == nil {
			vals = nil
		}
		it.Values = vals
		out[i] = it
	}
	return out
}
