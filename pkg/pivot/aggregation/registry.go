// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aggregation

import (
	"slices"
	"sync"

	"golang.org/x/text/language"
)

// Registry maps aggregate kinds to aggregators. A new registry holds every
// built-in aggregator; custom aggregators are added with Register.
type Registry struct {
	mu          sync.RWMutex
	aggregators map[Kind]Aggregator
	coercer     *Coercer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLocale makes the built-in aggregators parse numeric strings in the
// format of tag.
func WithLocale(tag language.Tag) Option {
	return func(r *Registry) {
		r.coercer = NewCoercer(tag)
	}
}

// WithCoercer sets the coercer shared by the built-in aggregators.
func WithCoercer(c *Coercer) Option {
	return func(r *Registry) {
		if c != nil {
			r.coercer = c
		}
	}
}

// NewRegistry creates a registry pre-populated with the built-in aggregators.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		aggregators: make(map[Kind]Aggregator, len(builtinStates)),
		coercer:     InvariantCoercer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for kind := range builtinStates {
		r.aggregators[kind] = Builtin(kind, r.coercer)
	}
	return r
}

// Register adds a custom aggregator under a.Kind().
func (r *Registry) Register(a Aggregator) error {
	if a == nil {
		return ErrNilAggregator.GenWithStackByArgs()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aggregators[a.Kind()]; ok {
		return ErrDuplicateKind.GenWithStackByArgs(int(a.Kind()), a.Name())
	}
	r.aggregators[a.Kind()] = a
	return nil
}

// Lookup returns the aggregator registered for kind.
func (r *Registry) Lookup(kind Kind) (Aggregator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aggregators[kind]
	return a, ok
}

// Kinds returns all registered kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	kinds := make([]Kind, 0, len(r.aggregators))
	for k := range r.aggregators {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()
	slices.Sort(kinds)
	return kinds
}

// Coercer returns the coercer used by the built-in aggregators.
func (r *Registry) Coercer() *Coercer {
	return r.coercer
}
