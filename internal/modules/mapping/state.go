package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
)

// MappingEntry is the link of one master key. Values is keyed by master value key.
type MappingEntry struct {
	TargetKey *string            `json:"target_key"`
	Values    map[string]*string `json:"values,omitempty"`
}

// Target returns the linked target key, treating "" the same as null.
func (e MappingEntry) Target() (string, bool) {
	if e.TargetKey == nil || *e.TargetKey == "" {
		return "", false
	}
	return *e.TargetKey, true
}

// ValueTarget returns the target value linked to masterValueKey.
func (e MappingEntry) ValueTarget(masterValueKey string) (string, bool) {
	v, ok := e.Values[masterValueKey]
	if !ok || v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

func (e MappingEntry) clone() MappingEntry {
	out := MappingEntry{TargetKey: clonePtr(e.TargetKey)}
	if e.Values != nil {
		out.Values = make(map[string]*string, len(e.Values))
		for k, v := range e.Values {
			out.Values[k] = clonePtr(v)
		}
	}
	return out
}

// AttributeMapping is the working or persisted mapping of one attribute scope.
type AttributeMapping map[string]MappingEntry

func (m AttributeMapping) Clone() AttributeMapping {
	out := make(AttributeMapping, len(m))
	for k, e := range m {
		out[k] = e.clone()
	}
	return out
}

// Canonical serializes m with keys sorted at every level and null or empty
// links omitted, so a key mapped to null and an absent key encode identically.
func (m AttributeMapping) Canonical() []byte {
	type canonicalEntry struct {
		Target string            `json:"t"`
		Values map[string]string `json:"v,omitempty"`
	}
	out := make(map[string]canonicalEntry, len(m))
	for k, e := range m {
		target, ok := e.Target()
		if !ok || k == "" {
			continue
		}
		ce := canonicalEntry{Target: target}
		for mv := range e.Values {
			if tv, ok := e.ValueTarget(mv); ok && mv != "" {
				if ce.Values == nil {
					ce.Values = make(map[string]string)
				}
				ce.Values[mv] = tv
			}
		}
		out[k] = ce
	}
	// encoding/json writes map keys in sorted order.
	raw, _ := json.Marshal(out)
	return raw
}

// DecodeAttributeMapping reads the form written by Canonical. Empty input is an empty mapping.
func DecodeAttributeMapping(raw []byte) (AttributeMapping, error) {
	out := AttributeMapping{}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return out, nil
	}
	var stored map[string]struct {
		Target string            `json:"t"`
		Values map[string]string `json:"v"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode attribute mapping: %w", err)
	}
	for k, ce := range stored {
		if k == "" || ce.Target == "" {
			continue
		}
		entry := MappingEntry{TargetKey: strPtr(ce.Target)}
		for mv, tv := range ce.Values {
			if entry.Values == nil {
				entry.Values = make(map[string]*string, len(ce.Values))
			}
			entry.Values[mv] = strPtr(tv)
		}
		out[k] = entry
	}
	return out, nil
}

// Current returns the target linked to masterKey.
func (m AttributeMapping) Current(masterKey string) (string, bool) {
	e, ok := m[masterKey]
	if !ok {
		return "", false
	}
	return e.Target()
}

// HolderOf returns the master keys currently linked to targetKey, sorted.
func (m AttributeMapping) HolderOf(targetKey string) []string {
	var out []string
	for k, e := range m {
		if t, ok := e.Target(); ok && t == targetKey {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// SortedKeys returns master keys in lexicographic order.
func (m AttributeMapping) SortedKeys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CategoryMappings maps canonical node id to its mapping for one shop pair.
type CategoryMappings map[string]taxonomy.Mapping

func (m CategoryMappings) Clone() CategoryMappings {
	out := make(CategoryMappings, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

func (m CategoryMappings) Canonical() []byte {
	out := make(map[string]taxonomy.Mapping, len(m))
	for k, v := range m {
		if k == "" || !v.Status.Valid() {
			continue
		}
		if v.ShopCategoryNodeID != nil && *v.ShopCategoryNodeID == "" {
			v.ShopCategoryNodeID = nil
		}
		out[k] = v
	}
	raw, _ := json.Marshal(out)
	return raw
}

// Holders returns the canonical nodes occupying shopNodeID, sorted. More than one
// holder only appears in a baseline loaded from an inconsistent source.
func (m CategoryMappings) Holders(shopNodeID string) []string {
	var out []string
	for k, v := range m {
		if t, ok := v.Target(); ok && t == shopNodeID {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Holder returns the first canonical node occupying shopNodeID.
func (m CategoryMappings) Holder(shopNodeID string) (string, bool) {
	holders := m.Holders(shopNodeID)
	if len(holders) == 0 {
		return "", false
	}
	return holders[0], true
}

// Rebased returns a copy of m (the baseline) with the mapping of every id in
// keys taken from working, absent ids removed. Other baseline holders of a
// target taken over this way are dropped so the result stays injective.
func (m CategoryMappings) Rebased(working CategoryMappings, keys []string) CategoryMappings {
	out := m.Clone()
	for _, k := range keys {
		v, ok := working[k]
		if !ok {
			delete(out, k)
			continue
		}
		if t, ok := v.Target(); ok {
			for _, h := range out.Holders(t) {
				if h != k {
					delete(out, h)
				}
			}
		}
		out[k] = v.Clone()
	}
	return out
}

// Diff lists canonical ids whose mapping differs between m (the baseline) and next.
// Changed ids are returned in upserts, ids missing from next in removed.
func (m CategoryMappings) Diff(next CategoryMappings) (upserts, removed []string) {
	for k, v := range next {
		prev, ok := m[k]
		if !ok || !bytes.Equal(CategoryMappings{k: prev}.Canonical(), CategoryMappings{k: v}.Canonical()) {
			upserts = append(upserts, k)
		}
	}
	for k := range m {
		if _, ok := next[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(upserts)
	sort.Strings(removed)
	return upserts, removed
}

// Snapshot is a mapping state the Store can clone and compare.
type Snapshot[S any] interface {
	Clone() S
	Canonical() []byte
}

// Store keeps the last persisted baseline and the working draft of one scope.
type Store[S Snapshot[S]] struct {
	persisted S
	working   S
}

func NewStore[S Snapshot[S]](persisted S) *Store[S] {
	s := &Store[S]{}
	s.Load(persisted)
	return s
}

// Load replaces both the baseline and the draft with copies of persisted.
func (s *Store[S]) Load(persisted S) S {
	s.persisted = persisted.Clone()
	s.working = persisted.Clone()
	return s.working.Clone()
}

// Working returns a copy of the current draft.
func (s *Store[S]) Working() S { return s.working.Clone() }

// Persisted returns a copy of the baseline.
func (s *Store[S]) Persisted() S { return s.persisted.Clone() }

func (s *Store[S]) IsDirty() bool {
	return !bytes.Equal(s.working.Canonical(), s.persisted.Canonical())
}

// Commit installs a confirmed persisted result as the new baseline and resets the draft to it.
func (s *Store[S]) Commit(newPersisted S) {
	s.Load(newPersisted)
}

// Rebase installs newPersisted as the baseline and keeps the draft as it is.
func (s *Store[S]) Rebase(newPersisted S) {
	s.persisted = newPersisted.Clone()
}

// Reset discards the draft.
func (s *Store[S]) Reset() {
	s.working = s.persisted.Clone()
}

// draft exposes the mutable working state to the merge engines of this package.
func (s *Store[S]) draft() S { return s.working }

func (s *Store[S]) replaceDraft(next S) { s.working = next }

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func strPtr(v string) *string { return &v }

func sortedValueKeys(values map[string]*string) []string {
	out := make([]string, 0, len(values))
	for k := range values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
