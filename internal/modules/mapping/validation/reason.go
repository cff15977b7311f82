package validation

import "fmt"

// ReasonCode classifies one default-category drift finding. The order of the
// constants is the order of the decision chain and of reported reasons.
type ReasonCode uint8

const (
	ReasonMissingMasterDefault ReasonCode = iota + 1
	ReasonCanonicalNotFound
	ReasonMissingMapping
	ReasonMissingTargetSnapshot
	ReasonMissingActualDefault
	ReasonMismatch
	ReasonDefaultNotDeepest
)

var reasonNames = map[ReasonCode]string{
	ReasonMissingMasterDefault:  "missing_master_default",
	ReasonCanonicalNotFound:     "canonical_not_found",
	ReasonMissingMapping:        "missing_mapping",
	ReasonMissingTargetSnapshot: "missing_target_snapshot",
	ReasonMissingActualDefault:  "missing_actual_default",
	ReasonMismatch:              "mismatch",
	ReasonDefaultNotDeepest:     "default_not_deepest",
}

// AllReasons lists every code in chain order.
func AllReasons() []ReasonCode {
	return []ReasonCode{
		ReasonMissingMasterDefault,
		ReasonCanonicalNotFound,
		ReasonMissingMapping,
		ReasonMissingTargetSnapshot,
		ReasonMissingActualDefault,
		ReasonMismatch,
		ReasonDefaultNotDeepest,
	}
}

func (r ReasonCode) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

func (r ReasonCode) Valid() bool {
	_, ok := reasonNames[r]
	return ok
}

func ParseReasonCode(raw string) (ReasonCode, error) {
	for code, name := range reasonNames {
		if name == raw {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown reason code %q", raw)
}

func (r ReasonCode) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid reason code %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *ReasonCode) UnmarshalText(text []byte) error {
	parsed, err := ParseReasonCode(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
