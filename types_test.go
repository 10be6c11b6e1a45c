// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cow_test

import (
	"sync/atomic"

	"code.hybscloud.com/cow"
)

// Shared fixtures for the behavioral suites.

// counted is a value with an observable population: construction and
// copying add to a live counter, finalization subtracts. Lifecycle
// tests read the counter to prove that holders copy and finalize
// exactly when they should.
type counted struct {
	live *atomic.Int64
	v    int
}

func newCounted(live *atomic.Int64, v int) counted {
	live.Add(1)
	return counted{live: live, v: v}
}

// countedStrategies wires birth and death accounting into a holder of
// counted values.
func countedStrategies(live *atomic.Int64) []cow.Option[counted] {
	return []cow.Option[counted]{
		cow.WithCopier(func(c counted) (counted, error) {
			c.live.Add(1)
			return c, nil
		}),
		cow.WithDestroyer(func(c *counted) {
			c.live.Add(-1)
		}),
	}
}

// countingCopier decorates the default copier with an invocation
// counter, so tests can tell privatization from in-place mutation.
func countingCopier[T any](n *atomic.Int64) cow.Copier[T] {
	deep := cow.DeepCopier[T]()
	return func(v T) (T, error) {
		n.Add(1)
		return deep(v)
	}
}

// failingCopier always refuses to copy.
func failingCopier[T any](err error) cow.Copier[T] {
	return func(T) (T, error) {
		var zero T
		return zero, err
	}
}

// Valuer is a minimal mutable capability interface.
type Valuer interface {
	Val() int
	SetVal(int)
}

// box is the simplest implementation of Valuer.
type box struct{ n int }

func (b *box) Val() int     { return b.n }
func (b *box) SetVal(v int) { b.n = v }

// CoreReader, AlphaFacet and BetaFacet are three overlapping views of
// one concrete type: the two facets extend a shared core, the way two
// intermediate bases share one common base.
type CoreReader interface {
	Core() int
	AddCore(int)
}

type AlphaFacet interface {
	CoreReader
	Alpha() int
}

type BetaFacet interface {
	CoreReader
	Beta() int
}

// multi carries the shared core plus one private field per facet.
type multi struct {
	core  int
	alpha int
	beta  int
}

func (m *multi) Core() int     { return m.core }
func (m *multi) AddCore(d int) { m.core += d }
func (m *multi) Alpha() int    { return m.alpha }
func (m *multi) Beta() int     { return m.beta }

// payload carries reference-typed state, to tell deep copying apart
// from shallow copying.
type payload struct {
	name string
	data []int
	meta map[string]int
}

// clonableVec opts into copying through its own Clone method.
type clonableVec struct {
	data []int
}

func (c clonableVec) Clone() clonableVec {
	return clonableVec{data: append([]int(nil), c.data...)}
}
