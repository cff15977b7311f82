package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ValueRow is one value-level pair inside an import row.
type ValueRow struct {
	MasterKey string  `json:"master_key"`
	TargetKey *string `json:"target_key"`
}

// Row is one master → target link of an import document.
type Row struct {
	MasterKey string     `json:"master_key"`
	TargetKey *string    `json:"target_key"`
	Values    []ValueRow `json:"values,omitempty"`
}

// Document is the import/export payload. It is also what an AI round-trip returns.
type Document struct {
	Type     string `json:"type,omitempty"`
	Mappings []Row  `json:"mappings"`
}

var errEmptyDocument = errors.New("empty import document")

// Parse accepts either a bare array of rows or an object with a "mappings" array.
func Parse(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Document{}, errEmptyDocument
	}
	switch trimmed[0] {
	case '[':
		var rows []Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return Document{}, fmt.Errorf("parse import rows: %w", err)
		}
		return Document{Mappings: rows}, nil
	case '{':
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Document{}, fmt.Errorf("parse import document: %w", err)
		}
		return doc, nil
	default:
		return Document{}, fmt.Errorf("parse import document: expected JSON array or object")
	}
}
