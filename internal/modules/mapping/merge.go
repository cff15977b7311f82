package mapping

// MergeEngine is the only writer of an attribute scope's working mapping.
// Every operation validates all references first and mutates nothing on error.
type MergeEngine struct {
	typ    AttributeType
	master *ItemIndex
	target *ItemIndex
	store  *Store[AttributeMapping]
}

func NewMergeEngine(typ AttributeType, master, target *ItemIndex, store *Store[AttributeMapping]) *MergeEngine {
	if master == nil {
		master = NewItemIndex(nil)
	}
	if target == nil {
		target = NewItemIndex(nil)
	}
	return &MergeEngine{typ: typ, master: master, target: target, store: store}
}

func (e *MergeEngine) Type() AttributeType             { return e.typ }
func (e *MergeEngine) Master() *ItemIndex              { return e.master }
func (e *MergeEngine) Target() *ItemIndex              { return e.target }
func (e *MergeEngine) Store() *Store[AttributeMapping] { return e.store }

// Assign links masterKey to targetKey. Any other master key holding targetKey is
// released, and when the link actually changes the value sub-map of masterKey is
// reset to all-null. The released master keys are returned.
func (e *MergeEngine) Assign(masterKey, targetKey string) ([]string, error) {
	if !e.master.Has(masterKey) {
		return nil, refNotFound(RefMasterItem, masterKey)
	}
	if !e.target.Has(targetKey) {
		return nil, refNotFound(RefTargetItem, targetKey)
	}
	w := e.store.draft()
	if cur, ok := w.Current(masterKey); ok && cur == targetKey {
		return nil, nil
	}

	var displaced []string
	for _, k := range w.HolderOf(targetKey) {
		if k == masterKey {
			continue
		}
		w[k] = MappingEntry{Values: e.blankValues(k)}
		displaced = append(displaced, k)
	}
	w[masterKey] = MappingEntry{TargetKey: strPtr(targetKey), Values: e.blankValues(masterKey)}
	return displaced, nil
}

// Clear unlinks masterKey and resets its value sub-map. Calling it twice is the same as once.
func (e *MergeEngine) Clear(masterKey string) error {
	if !e.master.Has(masterKey) {
		return refNotFound(RefMasterItem, masterKey)
	}
	e.store.draft()[masterKey] = MappingEntry{Values: e.blankValues(masterKey)}
	return nil
}

// AssignValue links a master value to a target value inside the sub-map of masterKey.
// Value sub-maps of different master keys are independent namespaces.
func (e *MergeEngine) AssignValue(masterKey, masterValueKey, targetValueKey string) ([]string, error) {
	if !e.typ.SupportsValues() {
		return nil, ErrValuesNotSupported
	}
	if !e.master.Has(masterKey) {
		return nil, refNotFound(RefMasterItem, masterKey)
	}
	w := e.store.draft()
	entry := w[masterKey]
	targetKey, linked := entry.Target()
	if !linked {
		return nil, missingSelection("master parameter " + masterKey + " has no linked target parameter")
	}
	if !e.master.HasValue(masterKey, masterValueKey) {
		return nil, refNotFound(RefMasterValue, masterValueKey)
	}
	if !e.target.HasValue(targetKey, targetValueKey) {
		return nil, refNotFound(RefTargetValue, targetValueKey)
	}
	if cur, ok := entry.ValueTarget(masterValueKey); ok && cur == targetValueKey {
		return nil, nil
	}

	next := entry.clone()
	if next.Values == nil {
		next.Values = make(map[string]*string)
	}
	var displaced []string
	for _, mv := range sortedValueKeys(next.Values) {
		if mv == masterValueKey {
			continue
		}
		if tv, ok := next.ValueTarget(mv); ok && tv == targetValueKey {
			next.Values[mv] = nil
			displaced = append(displaced, mv)
		}
	}
	next.Values[masterValueKey] = strPtr(targetValueKey)
	w[masterKey] = next
	return displaced, nil
}

// ClearValue unlinks one master value.
func (e *MergeEngine) ClearValue(masterKey, masterValueKey string) error {
	if !e.typ.SupportsValues() {
		return ErrValuesNotSupported
	}
	if !e.master.Has(masterKey) {
		return refNotFound(RefMasterItem, masterKey)
	}
	if !e.master.HasValue(masterKey, masterValueKey) {
		return refNotFound(RefMasterValue, masterValueKey)
	}
	w := e.store.draft()
	entry := w[masterKey]
	if _, linked := entry.Target(); !linked {
		return nil
	}
	next := entry.clone()
	if next.Values == nil {
		next.Values = make(map[string]*string)
	}
	next.Values[masterValueKey] = nil
	w[masterKey] = next
	return nil
}

// Check validates a complete mapping against both item indexes without
// touching the draft. The whole mapping is rejected when a reference is
// unknown or injectivity is violated.
func (e *MergeEngine) Check(next AttributeMapping) error {
	usedTargets := make(map[string]string, len(next))
	for _, mk := range next.SortedKeys() {
		entry := next[mk]
		if !e.master.Has(mk) {
			return refNotFound(RefMasterItem, mk)
		}
		target, linked := entry.Target()
		if !linked {
			continue
		}
		if !e.target.Has(target) {
			return refNotFound(RefTargetItem, target)
		}
		if other, dup := usedTargets[target]; dup {
			return &InjectivityError{Target: target, MasterKeys: [2]string{other, mk}}
		}
		usedTargets[target] = mk
		if len(entry.Values) > 0 && !e.typ.SupportsValues() {
			return ErrValuesNotSupported
		}
		usedValues := make(map[string]string, len(entry.Values))
		for _, mv := range sortedValueKeys(entry.Values) {
			tv, ok := entry.ValueTarget(mv)
			if !ok {
				continue
			}
			if !e.master.HasValue(mk, mv) {
				return refNotFound(RefMasterValue, mv)
			}
			if !e.target.HasValue(target, tv) {
				return refNotFound(RefTargetValue, tv)
			}
			if other, dup := usedValues[tv]; dup {
				return &InjectivityError{Item: mk, Target: tv, MasterKeys: [2]string{other, mv}}
			}
			usedValues[tv] = mv
		}
	}
	return nil
}

// AvailableTargets lists target items not linked to any master key and not
// flagged as likely written in the master language.
func (e *MergeEngine) AvailableTargets() []AttributeMappingItem {
	w := e.store.draft()
	used := make(map[string]struct{}, len(w))
	for _, entry := range w {
		if t, ok := entry.Target(); ok {
			used[t] = struct{}{}
		}
	}
	var out []AttributeMappingItem
	for _, it := range e.target.Items() {
		if it.LikelyMasterLanguage {
			continue
		}
		if _, taken := used[it.Key]; taken {
			continue
		}
		out = append(out, it)
	}
	return out
}

// AvailableTargetValues lists values of the target linked to masterKey that are
// still free inside its sub-map.
func (e *MergeEngine) AvailableTargetValues(masterKey string) []AttributeValue {
	entry := e.store.draft()[masterKey]
	target, ok := entry.Target()
	if !ok {
		return nil
	}
	item, _ := e.target.Item(target)
	used := make(map[string]struct{})
	for mv := range entry.Values {
		if tv, ok := entry.ValueTarget(mv); ok {
			used[tv] = struct{}{}
		}
	}
	var out []AttributeValue
	for _, v := range item.Values {
		if v.LikelyMasterLanguage {
			continue
		}
		if _, taken := used[v.Key]; taken {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (e *MergeEngine) blankValues(masterKey string) map[string]*string {
	if !e.typ.SupportsValues() {
		return nil
	}
	item, ok := e.master.Item(masterKey)
	if !ok || len(item.Values) == 0 {
		return nil
	}
	out := make(map[string]*string, len(item.Values))
	for _, v := range item.Values {
		if v.Key != "" {
			out[v.Key] = nil
		}
	}
	return out
}

// InjectivityError reports two master keys claiming the same target. Item is
// set when the keys are values of one master item.
type InjectivityError struct {
	Item       string
	Target     string
	MasterKeys [2]string
}

func (e *InjectivityError) Error() string {
	if e.Item != "" {
		return "target value " + e.Target + " of " + e.Item + " is linked from both " + e.MasterKeys[0] + " and " + e.MasterKeys[1]
	}
	return "target " + e.Target + " is linked from both " + e.MasterKeys[0] + " and " + e.MasterKeys[1]
}

func (e *InjectivityError) Unwrap() error {
	if e.Item != "" {
		return ErrDuplicateValueUsage
	}
	return ErrInjectivityViolation
}
