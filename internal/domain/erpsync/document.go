package erpsync

import (
	"encoding/json"
	"strconv"
)

// Document field names shared with the ERP
const (
	// ExternalIDField is the custom field holding the internal primary key
	ExternalIDField = "custom_external_id"
	// NameField holds the ERP-assigned native name
	NameField = "name"
	// DocTypeField holds the document type
	DocTypeField = "doctype"
	// StatusField holds the workflow status label
	StatusField = "status"
	// DocStatusField holds the numeric submission state (0 draft, 1 submitted, 2 cancelled)
	DocStatusField = "docstatus"
)

// Document is an ERP-native document as decoded from JSON
type Document map[string]any

// NativeName returns the ERP-assigned name, or "" if absent
func (d Document) NativeName() string {
	return d.String(NameField)
}

// ExternalID returns the stored external ID, or "" if absent
func (d Document) ExternalID() string {
	return d.String(ExternalIDField)
}

// String returns a field as a string, or "" if absent or not a string
func (d Document) String(field string) string {
	if d == nil {
		return ""
	}
	if s, ok := d[field].(string); ok {
		return s
	}
	return ""
}

// Int returns a numeric field as int, accepting float64, json.Number and numeric strings
func (d Document) Int(field string) (int, bool) {
	if d == nil {
		return 0, false
	}
	switch v := d[field].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

// Clone returns a shallow copy of the document
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// CreateResult is the outcome of a successful create call
type CreateResult struct {
	Name string
	Raw  Document
}
