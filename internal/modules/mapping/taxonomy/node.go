package taxonomy

import (
	"fmt"
	"strings"
)

// MappingStatus is the lifecycle state of a master category → shop category link.
type MappingStatus uint8

const (
	StatusConfirmed MappingStatus = iota + 1
	StatusSuggested
	StatusRejected
)

func (s MappingStatus) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusSuggested:
		return "suggested"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("MappingStatus(%d)", uint8(s))
	}
}

func (s MappingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusSuggested, StatusRejected:
		return true
	default:
		return false
	}
}

func ParseMappingStatus(raw string) (MappingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "confirmed":
		return StatusConfirmed, nil
	case "suggested":
		return StatusSuggested, nil
	case "rejected":
		return StatusRejected, nil
	default:
		return 0, fmt.Errorf("unknown mapping status %q", raw)
	}
}

func (s MappingStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid mapping status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *MappingStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseMappingStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Mapping links one canonical node to a node of a single shop taxonomy.
// A rejected mapping keeps its node id for the record but never counts as a target.
type Mapping struct {
	Status             MappingStatus `json:"status"`
	ShopCategoryNodeID *string       `json:"shop_category_node_id"`
	Similarity         *float64      `json:"similarity,omitempty"`
	Reason             string        `json:"reason,omitempty"`
}

// Target returns the shop node this mapping occupies for injectivity purposes.
func (m Mapping) Target() (string, bool) {
	switch m.Status {
	case StatusConfirmed, StatusSuggested:
		if m.ShopCategoryNodeID != nil && *m.ShopCategoryNodeID != "" {
			return *m.ShopCategoryNodeID, true
		}
		return "", false
	case StatusRejected:
		return "", false
	default:
		return "", false
	}
}

func (m Mapping) Validate() error {
	switch m.Status {
	case StatusConfirmed:
		if m.ShopCategoryNodeID == nil || *m.ShopCategoryNodeID == "" {
			return fmt.Errorf("confirmed mapping requires shop_category_node_id")
		}
	case StatusSuggested, StatusRejected:
	default:
		return fmt.Errorf("invalid mapping status %d", uint8(m.Status))
	}
	if m.Similarity != nil && (*m.Similarity < 0 || *m.Similarity > 1) {
		return fmt.Errorf("similarity %.3f outside [0,1]", *m.Similarity)
	}
	return nil
}

func (m Mapping) Clone() Mapping {
	out := m
	if m.ShopCategoryNodeID != nil {
		id := *m.ShopCategoryNodeID
		out.ShopCategoryNodeID = &id
	}
	if m.Similarity != nil {
		sim := *m.Similarity
		out.Similarity = &sim
	}
	return out
}

// CanonicalNode is a node of the master taxonomy.
type CanonicalNode struct {
	ID       string          `json:"id"`
	GUID     string          `json:"guid"`
	Name     string          `json:"name"`
	Path     string          `json:"path,omitempty"`
	Children []CanonicalNode `json:"children,omitempty"`
	Mapping  *Mapping        `json:"mapping"`
}

func (n CanonicalNode) NodeID() string                { return n.ID }
func (n CanonicalNode) NodeGUID() string              { return n.GUID }
func (n CanonicalNode) NodeChildren() []CanonicalNode { return n.Children }
func (n CanonicalNode) NodeName() string              { return n.Name }

func (n CanonicalNode) WithChildren(children []CanonicalNode) CanonicalNode {
	n.Children = children
	return n
}

// WithMapping returns a copy of n carrying m; n itself is left untouched.
func (n CanonicalNode) WithMapping(m *Mapping) CanonicalNode {
	if m != nil {
		c := m.Clone()
		m = &c
	}
	n.Mapping = m
	return n
}

// ShopNode is a node of one target shop taxonomy.
type ShopNode struct {
	ID         string     `json:"id"`
	RemoteGUID string     `json:"remote_guid"`
	Name       string     `json:"name"`
	Path       string     `json:"path,omitempty"`
	Children   []ShopNode `json:"children,omitempty"`
}

func (n ShopNode) NodeID() string           { return n.ID }
func (n ShopNode) NodeGUID() string         { return n.RemoteGUID }
func (n ShopNode) NodeChildren() []ShopNode { return n.Children }
func (n ShopNode) NodeName() string         { return n.Name }

func (n ShopNode) WithChildren(children []ShopNode) ShopNode {
	n.Children = children
	return n
}

// Summary mirrors the counters returned alongside a tree fetch.
type Summary struct {
	CanonicalCount int            `json:"canonical_count"`
	ShopCount      int            `json:"shop_count"`
	Mappings       StatusCounters `json:"mappings"`
}

type StatusCounters struct {
	Confirmed int `json:"confirmed"`
	Suggested int `json:"suggested"`
	Rejected  int `json:"rejected"`
}

func (c *StatusCounters) Add(s MappingStatus) {
	switch s {
	case StatusConfirmed:
		c.Confirmed++
	case StatusSuggested:
		c.Suggested++
	case StatusRejected:
		c.Rejected++
	}
}
