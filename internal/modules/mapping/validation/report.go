package validation

import (
	"encoding/json"
	"sort"
)

// Report is the aggregated result of a validation run.
type Report struct {
	Issues []Issue            `json:"issues"`
	Stats  map[ReasonCode]int `json:"stats"`
	Total  int                `json:"total"`
}

// Page is one slice of a report, the shape the default-category provider returns.
type Page struct {
	Items  []Issue            `json:"items"`
	Total  int                `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
	Stats  map[ReasonCode]int `json:"stats"`
}

func NewReport(raw []Issue) Report {
	issues := Aggregate(raw)
	stats := make(map[ReasonCode]int, len(reasonNames))
	for _, iss := range issues {
		for _, r := range iss.Reasons {
			stats[r]++
		}
	}
	return Report{Issues: issues, Stats: stats, Total: len(issues)}
}

// Page returns up to limit issues starting at offset. A non-positive limit returns the rest.
func (r Report) Page(offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if offset > len(r.Issues) {
		offset = len(r.Issues)
	}
	end := len(r.Issues)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return Page{
		Items:  r.Issues[offset:end],
		Total:  r.Total,
		Offset: offset,
		Limit:  limit,
		Stats:  r.Stats,
	}
}

// Aggregate merges issues sharing (product id, master category guid) into one
// record. Reasons and codes are unioned; the category fields come from the
// first non-null value across the group after ordering the group canonically,
// so the result does not depend on input order. Output is sorted by product id
// then master category guid.
func Aggregate(raw []Issue) []Issue {
	type key struct{ product, master string }
	groups := make(map[key][]Issue)
	var keys []key
	for _, iss := range raw {
		k := key{iss.ProductID, masterKey(iss.MasterCategory)}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], iss)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].product != keys[j].product {
			return keys[i].product < keys[j].product
		}
		return keys[i].master < keys[j].master
	})

	out := make([]Issue, 0, len(keys))
	for _, k := range keys {
		out = append(out, merge(groups[k]))
	}
	return out
}

func masterKey(ref CategoryRef) string {
	if ref.GUID != "" {
		return ref.GUID
	}
	return ref.ID
}

func merge(group []Issue) Issue {
	members := append([]Issue(nil), group...)
	sortKeys := make([]string, len(members))
	for i, m := range members {
		sortKeys[i] = canonicalKey(m)
	}
	sort.Sort(byKey{members, sortKeys})

	var out Issue
	reasons := make(map[ReasonCode]struct{})
	codes := make(map[string]struct{})
	for _, m := range members {
		if out.ProductID == "" {
			out.ProductID = m.ProductID
		}
		if out.SKU == "" {
			out.SKU = m.SKU
		}
		if out.Name == "" {
			out.Name = m.Name
		}
		out.MasterCategory = fillRef(out.MasterCategory, m.MasterCategory)
		if out.ExpectedCategory == nil && m.ExpectedCategory != nil {
			ref := *m.ExpectedCategory
			out.ExpectedCategory = &ref
		}
		if out.ActualCategory == nil && m.ActualCategory != nil {
			ref := *m.ActualCategory
			out.ActualCategory = &ref
		}
		for _, r := range m.Reasons {
			reasons[r] = struct{}{}
		}
		if m.Reason.Valid() {
			reasons[m.Reason] = struct{}{}
		}
		for _, c := range m.Codes {
			codes[c] = struct{}{}
		}
	}
	for _, r := range AllReasons() {
		if _, ok := reasons[r]; ok {
			out.Reasons = append(out.Reasons, r)
		}
	}
	if len(out.Reasons) > 0 {
		out.Reason = out.Reasons[0]
	}
	out.Codes = make([]string, 0, len(codes))
	for c := range codes {
		out.Codes = append(out.Codes, c)
	}
	sort.Strings(out.Codes)
	return out
}

func fillRef(dst, src CategoryRef) CategoryRef {
	if dst.ID == "" {
		dst.ID = src.ID
	}
	if dst.GUID == "" {
		dst.GUID = src.GUID
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Path == "" {
		dst.Path = src.Path
	}
	return dst
}

// canonicalKey orders group members by reason first, then by content.
func canonicalKey(iss Issue) string {
	primary := iss.Reason
	if len(iss.Reasons) > 0 && (!primary.Valid() || iss.Reasons[0] < primary) {
		primary = iss.Reasons[0]
	}
	raw, _ := json.Marshal(struct {
		Issue
		Reason  uint8   `json:"reason"`
		Reasons []uint8 `json:"reasons"`
	}{Issue: iss, Reason: uint8(primary)})
	return string([]byte{byte(primary)}) + string(raw)
}

type byKey struct {
	issues []Issue
	keys   []string
}

func (b byKey) Len() int           { return len(b.issues) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.issues[i], b.issues[j] = b.issues[j], b.issues[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
