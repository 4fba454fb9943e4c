// Copyright 2013 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// DuplicateMetric is the error returned by Registry.Register when the name
// is already taken by a different metric.
type DuplicateMetric string

func (err DuplicateMetric) Error() string {
	return fmt.Sprintf("duplicate metric: %s", string(err))
}

// Registry holds references to a set of named metrics and provides a means
// to iterate over them, calling a user-specified function.
type Registry interface {
	// Each calls the given function for each registered metric.
	Each(func(string, interface{}))
	// Get the metric by the given name or nil if none is registered.
	Get(string) interface{}
	// GetOrRegister gets an existing metric or registers the given one. The
	// interface can be the metric to register if not found in registry,
	// or a function returning the metric for lazy instantiation.
	GetOrRegister(string, interface{}) interface{}
	// Register the given metric under the given name.
	Register(string, interface{}) error
	// Unregister the metric with the given name.
	Unregister(string)
}

// StandardRegistry is the standard implementation of a Registry, backed by
// a concurrent map of name to metric.
type StandardRegistry struct {
	metrics sync.Map
}

// NewRegistry creates a new standard registry.
func NewRegistry() Registry {
	return &StandardRegistry{}
}

func (r *StandardRegistry) Each(f func(string, interface{})) {
	r.metrics.Range(func(key, value any) bool {
		f(key.(string), value)
		return true
	})
}

func (r *StandardRegistry) Get(name string) interface{} {
	item, _ := r.metrics.Load(name)
	return item
}

func (r *StandardRegistry) GetOrRegister(name string, i interface{}) interface{} {
	if cached, ok := r.metrics.Load(name); ok {
		return cached
	}
	if v := reflect.ValueOf(i); v.Kind() == reflect.Func {
		i = v.Call(nil)[0].Interface()
	}
	item, _ := r.metrics.LoadOrStore(name, i)
	return item
}

func (r *StandardRegistry) Register(name string, i interface{}) error {
	if _, loaded := r.metrics.LoadOrStore(name, i); loaded {
		return DuplicateMetric(name)
	}
	return nil
}

func (r *StandardRegistry) Unregister(name string) {
	r.metrics.Delete(name)
}

// PrefixedRegistry wraps a Registry and prepends a fixed prefix to every
// name passed through it, so a subsystem can register "tasks/dispatched"
// and have it land as e.g. "downloader/tasks/dispatched" in the shared
// registry.
type PrefixedRegistry struct {
	underlying Registry
	prefix     string
}

// NewPrefixedRegistry creates a new registry with the given prefix.
func NewPrefixedRegistry(prefix string) Registry {
	return &PrefixedRegistry{
		underlying: NewRegistry(),
		prefix:     prefix,
	}
}

// NewPrefixedChildRegistry creates a new registry with the given prefix,
// delegating storage to parent rather than owning its own map.
func NewPrefixedChildRegistry(parent Registry, prefix string) Registry {
	return &PrefixedRegistry{
		underlying: parent,
		prefix:     prefix,
	}
}

func (r *PrefixedRegistry) Each(f func(string, interface{})) {
	wrappedFn := func(prefix string) func(string, interface{}) {
		return func(name string, i interface{}) {
			if strings.HasPrefix(name, prefix) {
				f(name, i)
			}
		}
	}
	baseRegistry, prefix := findPrefix(r, "")
	baseRegistry.Each(wrappedFn(prefix))
}

func (r *PrefixedRegistry) Get(name string) interface{} {
	return r.underlying.Get(r.prefix + name)
}

func (r *PrefixedRegistry) GetOrRegister(name string, i interface{}) interface{} {
	return r.underlying.GetOrRegister(r.prefix+name, i)
}

func (r *PrefixedRegistry) Register(name string, i interface{}) error {
	return r.underlying.Register(r.prefix+name, i)
}

func (r *PrefixedRegistry) Unregister(name string) {
	r.underlying.Unregister(r.prefix + name)
}

// findPrefix walks up a chain of PrefixedRegistry wrappers to the base
// StandardRegistry, accumulating the combined prefix along the way.
func findPrefix(registry Registry, prefix string) (Registry, string) {
	switch r := registry.(type) {
	case *StandardRegistry:
		return r, prefix
	case *PrefixedRegistry:
		return findPrefix(r.underlying, r.prefix+prefix)
	}
	return nil, ""
}

// DefaultRegistry is the default, global registry, matching the package
// level Register/Unregister convenience functions below.
var DefaultRegistry Registry = NewRegistry()

// Register adds a metric to the default registry.
func Register(name string, metric interface{}) error {
	return DefaultRegistry.Register(name, metric)
}

// Unregister removes a metric from the default registry.
func Unregister(name string) {
	DefaultRegistry.Unregister(name)
}
