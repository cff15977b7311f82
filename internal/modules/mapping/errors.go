package mapping

import (
	"errors"
	"fmt"
)

var (
	// ErrReferenceNotFound marks a key that is absent from the current tree or attribute index.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrDuplicateValueUsage marks a target value used twice inside one import row.
	ErrDuplicateValueUsage = errors.New("value used more than once")
	// ErrInjectivityViolation marks a mapping that links one target from two master keys.
	ErrInjectivityViolation = errors.New("target linked more than once")
	// ErrPersistenceConflict marks a commit rejected by the store, usually a concurrent edit.
	ErrPersistenceConflict = errors.New("persistence conflict")
	// ErrMissingSelection marks an action attempted without the shop/category context it needs.
	ErrMissingSelection = errors.New("missing selection")
	// ErrNothingToImport marks an import document without a single valid row.
	ErrNothingToImport = errors.New("nothing to import")
	// ErrValuesNotSupported marks a value-level operation on a type without value sub-mappings.
	ErrValuesNotSupported = errors.New("attribute type has no value mappings")
)

// RefKind names which index a reference was checked against.
type RefKind string

const (
	RefMasterItem    RefKind = "master parameter"
	RefTargetItem    RefKind = "target parameter"
	RefMasterValue   RefKind = "master value"
	RefTargetValue   RefKind = "target value"
	RefCanonicalNode RefKind = "canonical category"
	RefShopNode      RefKind = "shop category"
)

type ReferenceError struct {
	Kind RefKind
	Key  string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Key)
}

func (e *ReferenceError) Unwrap() error { return ErrReferenceNotFound }

func refNotFound(kind RefKind, key string) error {
	return &ReferenceError{Kind: kind, Key: key}
}

func missingSelection(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingSelection, what)
}
