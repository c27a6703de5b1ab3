// Package registry holds the per-domain set of known model names.
//
// A Registry is built in one pass over every classified struct of a domain
// before any field is type-mapped, so a reference to a struct declared in a
// later file resolves the same as one declared earlier.
package registry

import (
	"sort"

	"github.com/teranos/buildamp/model"
)

// Registry maps model name to role. Read-only after Build.
type Registry struct {
	domain string
	roles  map[string]model.Role
}

// Build collects every model name of a domain.
// On duplicate names the Primary role wins.
func Build(domain string, models []model.Classified) *Registry {
	r := &Registry{domain: domain, roles: make(map[string]model.Role, len(models))}
	for _, m := range models {
		if existing, ok := r.roles[m.Name]; ok && existing == model.Primary {
			continue
		}
		r.roles[m.Name] = m.Role
	}
	return r
}

// Empty returns a registry with no names; every reference falls through to scalars.
func Empty(domain string) *Registry {
	return &Registry{domain: domain, roles: map[string]model.Role{}}
}

// Domain names the model directory this registry was built from.
func (r *Registry) Domain() string {
	return r.domain
}

// Lookup returns the role of name.
func (r *Registry) Lookup(name string) (model.Role, bool) {
	if r == nil {
		return model.Component, false
	}
	role, ok := r.roles[name]
	return role, ok
}

// Contains reports whether name is a model of this domain.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Len is the number of known names.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.roles)
}

// Names returns known names sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.roles))
	for n := range r.roles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
