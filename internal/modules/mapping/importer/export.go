package importer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
)

// ExportItem is the key-based view of an attribute sent out for AI round-tripping.
type ExportItem struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Code   string   `json:"code,omitempty"`
	Values []string `json:"values,omitempty"`
	Labels []string `json:"value_labels,omitempty"`
}

type Sources struct {
	Type     string       `json:"type"`
	Master   []ExportItem `json:"master"`
	Target   []ExportItem `json:"target"`
	Mappings []Row        `json:"mappings"`
}

// Bundle is the export payload: an instruction prompt plus machine-readable sources.
type Bundle struct {
	Prompt  string  `json:"prompt"`
	Sources Sources `json:"sources"`
}

// Document returns the current mappings as an import document.
func (s Sources) Document() Document {
	return Document{Type: s.Type, Mappings: s.Mappings}
}

// Export serializes the master and target lists with the current links. Target
// items flagged as likely master language are left out of the candidate list.
func Export(typ mapping.AttributeType, master, target *mapping.ItemIndex, current mapping.AttributeMapping) (Bundle, error) {
	src := Sources{
		Type:     typ.String(),
		Master:   exportItems(master.Items(), typ, false),
		Target:   exportItems(target.Items(), typ, true),
		Mappings: []Row{},
	}
	for _, mk := range current.SortedKeys() {
		entry := current[mk]
		tk, ok := entry.Target()
		if !ok || !master.Has(mk) {
			continue
		}
		t := tk
		row := Row{MasterKey: mk, TargetKey: &t}
		if typ.SupportsValues() {
			for _, mv := range sortedKeys(entry.Values) {
				tv, linked := entry.ValueTarget(mv)
				if !linked {
					continue
				}
				row.Values = append(row.Values, ValueRow{MasterKey: mv, TargetKey: &tv})
			}
		}
		src.Mappings = append(src.Mappings, row)
	}

	raw, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return Bundle{}, fmt.Errorf("marshal export sources: %w", err)
	}
	return Bundle{Prompt: buildPrompt(typ, string(raw)), Sources: src}, nil
}

func exportItems(items []mapping.AttributeMappingItem, typ mapping.AttributeType, skipMasterLanguage bool) []ExportItem {
	out := make([]ExportItem, 0, len(items))
	for _, it := range items {
		if skipMasterLanguage && it.LikelyMasterLanguage {
			continue
		}
		ei := ExportItem{Key: it.Key, Label: it.Label, Code: it.Code}
		if typ.SupportsValues() {
			for _, v := range it.Values {
				if skipMasterLanguage && v.LikelyMasterLanguage {
					continue
				}
				ei.Values = append(ei.Values, v.Key)
				ei.Labels = append(ei.Labels, v.Label)
			}
		}
		out = append(out, ei)
	}
	return out
}

func buildPrompt(typ mapping.AttributeType, sources string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Map every master %s entry to the best matching target entry.\n", typ)
	b.WriteString("Use only keys that appear in the sources below. Each target key may be used at most once.\n")
	if typ.SupportsValues() {
		b.WriteString("For every mapped entry also map its values; a target value may be used once per entry.\n")
	}
	b.WriteString("Use null as target_key when nothing matches.\n")
	b.WriteString("Answer with JSON only, in the shape of the \"mappings\" array.\n\n")
	b.WriteString(sources)
	b.WriteString("\n")
	return b.String()
}

func sortedKeys(values map[string]*string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
