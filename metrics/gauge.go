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

import "sync/atomic"

// Gauge holds a single mutable int64 value, set directly rather than
// incremented/decremented (e.g. "accounts remaining in the pivot").
type Gauge interface {
	Snapshot() Gauge
	Update(int64)
	Value() int64
}

// NewGauge builds a new standard gauge.
func NewGauge() Gauge {
	if !Enabled {
		return NilGauge{}
	}
	return &StandardGauge{}
}

// NewRegisteredGauge builds and registers a new standard gauge.
func NewRegisteredGauge(name string, r Registry) Gauge {
	g := NewGauge()
	if r == nil {
		r = DefaultRegistry
	}
	r.Register(name, g)
	return g
}

// GetOrRegisterGauge returns an existing Gauge or constructs and registers a
// new StandardGauge.
func GetOrRegisterGauge(name string, r Registry) Gauge {
	if r == nil {
		r = DefaultRegistry
	}
	return r.GetOrRegister(name, NewGauge).(Gauge)
}

// NewFunctionalGauge builds a gauge that reports whatever f returns, rather
// than a value callers Update directly (e.g. a live len(map) reading).
func NewFunctionalGauge(f func() int64) Gauge {
	if !Enabled {
		return NilGauge{}
	}
	return &FunctionalGauge{value: f}
}

// NewRegisteredFunctionalGauge builds and registers a new FunctionalGauge.
func NewRegisteredFunctionalGauge(name string, r Registry, f func() int64) Gauge {
	g := NewFunctionalGauge(f)
	if r == nil {
		r = DefaultRegistry
	}
	r.Register(name, g)
	return g
}

// GaugeSnapshot is a read-only copy of a Gauge's value.
type GaugeSnapshot int64

func (g GaugeSnapshot) Snapshot() Gauge { return g }

func (g GaugeSnapshot) Update(int64) {
	panic("Update called on a GaugeSnapshot")
}

func (g GaugeSnapshot) Value() int64 { return int64(g) }

// NilGauge is a no-op Gauge.
type NilGauge struct{}

func (NilGauge) Snapshot() Gauge { return NilGauge{} }
func (NilGauge) Update(v int64)  {}
func (NilGauge) Value() int64    { return 0 }

// StandardGauge is the standard implementation of a Gauge, backed by an
// atomic int64.
type StandardGauge struct {
	value atomic.Int64
}

func (g *StandardGauge) Snapshot() Gauge {
	return GaugeSnapshot(g.Value())
}

func (g *StandardGauge) Update(v int64) {
	g.value.Store(v)
}

func (g *StandardGauge) Value() int64 {
	return g.value.Load()
}

// FunctionalGauge returns value() every time it's read.
type FunctionalGauge struct {
	value func() int64
}

func (g FunctionalGauge) Value() int64 {
	return g.value()
}

func (g FunctionalGauge) Snapshot() Gauge {
	return GaugeSnapshot(g.Value())
}

func (FunctionalGauge) Update(int64) {
	panic("Update called on a FunctionalGauge")
}
