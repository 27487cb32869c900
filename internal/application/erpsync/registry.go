package erpsync

import (
	"fmt"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// MapFunc maps an internal record to an ERP document
type MapFunc func(erpsync.Record) (erpsync.Document, error)

// Binding ties an entity kind to its document type and mapper
type Binding struct {
	Kind         erpsync.EntityKind
	DocumentType string
	Map          MapFunc
}

// Bind builds a binding for records of concrete type T.
// A record of any other type is rejected with ErrRecordKindMismatch.
func Bind[T erpsync.Record](kind erpsync.EntityKind, mapFn func(T, MappingDefaults) erpsync.Document, defaults MappingDefaults) Binding {
	return Binding{
		Kind:         kind,
		DocumentType: kind.DocumentType(),
		Map: func(rec erpsync.Record) (erpsync.Document, error) {
			typed, ok := rec.(T)
			if !ok {
				return nil, fmt.Errorf("%w: %T is not a %s record", erpsync.ErrRecordKindMismatch, rec, kind)
			}
			return mapFn(typed, defaults), nil
		},
	}
}

// Registry resolves entity kind names to bindings
type Registry struct {
	bindings map[erpsync.EntityKind]Binding
}

// NewRegistry creates a registry with a binding for every entity kind
func NewRegistry(defaults MappingDefaults) *Registry {
	r := &Registry{bindings: make(map[erpsync.EntityKind]Binding)}
	r.Register(Bind(erpsync.EntityKindCustomer, MapCustomer, defaults))
	r.Register(Bind(erpsync.EntityKindAddress, MapAddress, defaults))
	r.Register(Bind(erpsync.EntityKindCategory, MapCategory, defaults))
	r.Register(Bind(erpsync.EntityKindProduct, MapProduct, defaults))
	r.Register(Bind(erpsync.EntityKindOrder, MapOrder, defaults))
	r.Register(Bind(erpsync.EntityKindPayment, MapPayment, defaults))
	return r
}

// Register adds or replaces a binding
func (r *Registry) Register(b Binding) {
	r.bindings[b.Kind] = b
}

// Lookup resolves a kind name such as "customers" or "Product"
func (r *Registry) Lookup(name string) (Binding, error) {
	kind, ok := erpsync.ParseEntityKind(name)
	if !ok {
		return Binding{}, fmt.Errorf("%w: %q", erpsync.ErrUnknownEntityKind, name)
	}
	b, ok := r.bindings[kind]
	if !ok {
		return Binding{}, fmt.Errorf("%w: %q", erpsync.ErrUnknownEntityKind, name)
	}
	return b, nil
}
