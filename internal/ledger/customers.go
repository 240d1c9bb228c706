package ledger

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Customer is an entry in the fixed customer registry.
type Customer struct {
	Key     string `json:"key" yaml:"key" mapstructure:"key" validate:"required"`
	Name    string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Address string `json:"address" yaml:"address" mapstructure:"address"`
}

// Registry is an immutable set of customers keyed by Customer.Key.
type Registry struct {
	byKey map[string]Customer
}

// NewRegistry builds a registry. Keys must be non-empty and distinct.
func NewRegistry(customers []Customer) (*Registry, error) {
	byKey := make(map[string]Customer, len(customers))
	for _, c := range customers {
		if c.Key == "" {
			return nil, errors.Newf("customer %q has an empty key", c.Name)
		}
		if _, dup := byKey[c.Key]; dup {
			return nil, errors.Newf("customer key %q registered twice", c.Key)
		}
		byKey[c.Key] = c
	}
	return &Registry{byKey: byKey}, nil
}

// DefaultCustomers is the registry shipped with the application.
func DefaultCustomers() []Customer {
	return []Customer{
		{Key: "A", Name: "Customer A", Address: "123 Main St"},
		{Key: "B", Name: "Customer B", Address: "456 Elm St"},
		{Key: "C", Name: "Customer C", Address: "789 Oak St"},
	}
}

// DefaultRegistry returns a registry over DefaultCustomers.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultCustomers())
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the customer registered under key.
func (r *Registry) Lookup(key string) (Customer, bool) {
	c, ok := r.byKey[key]
	return c, ok
}

// Require is Lookup for input boundaries: an unregistered key is an error
// marked ErrUnknownCustomer.
func (r *Registry) Require(key string) (Customer, error) {
	c, ok := r.Lookup(key)
	if !ok {
		return Customer{}, errors.Mark(errors.Newf("unknown customer %q", key), ErrUnknownCustomer)
	}
	return c, nil
}

// All returns every customer ordered by key.
func (r *Registry) All() []Customer {
	out := make([]Customer, 0, len(r.byKey))
	for _, c := range r.byKey {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
