// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cow

import "sync/atomic"

// controlBlock is the type-erased capability set behind a holder: it
// knows the real stored type and how to copy, expose and finalize it,
// while the holder only sees the exposed type T.
type controlBlock[T any] interface {
	// clone produces a block holding an independent copy of the stored
	// object. It either fully succeeds or leaves no trace.
	clone() (controlBlock[T], error)
	// access returns the pointer through which the stored object is
	// exposed as T. The pointer is stable for the block's lifetime.
	access() *T
	// unique reports whether the stored object is unreachable from any
	// other block, at every adaptation depth below this one.
	unique() bool
	// dispose finalizes the stored object. Called exactly once, by the
	// release of the last reference.
	dispose()
}

// handle couples a control block with the atomic count of holders
// referencing it. Holders sharing a handle may retain and release it
// from different goroutines.
type handle[T any] struct {
	refs  atomic.Int64
	block controlBlock[T]
}

func newHandle[T any](b controlBlock[T]) *handle[T] {
	h := &handle[T]{block: b}
	h.refs.Store(1)
	return h
}

func (h *handle[T]) retain() *handle[T] {
	h.refs.Add(1)
	return h
}

func (h *handle[T]) release() {
	switch n := h.refs.Add(-1); {
	case n == 0:
		h.block.dispose()
	case n < 0:
		panic("cow: release of dead storage")
	}
}

// private reports whether the caller owns the only path to the stored
// object. Sharing at any adaptation depth counts.
func (h *handle[T]) private() bool {
	return h.refs.Load() == 1 && h.block.unique()
}

// directBlock stores the value inside the block itself, so value and
// bookkeeping land in one allocation. Built by [Make].
type directBlock[T any] struct {
	value T
	opts  options[T]
}

func (b *directBlock[T]) clone() (controlBlock[T], error) {
	v, err := b.opts.copy(b.value)
	if err != nil {
		return nil, err
	}
	return &directBlock[T]{value: v, opts: b.opts}, nil
}

func (b *directBlock[T]) access() *T   { return &b.value }
func (b *directBlock[T]) unique() bool { return true }

func (b *directBlock[T]) dispose() {
	if b.opts.drop != nil {
		b.opts.drop(&b.value)
	}
}

// indirectBlock owns a value that already lives behind a pointer.
// Built by [Of] and [Adopt].
type indirectBlock[T any] struct {
	ptr  *T
	opts options[T]
}

func (b *indirectBlock[T]) clone() (controlBlock[T], error) {
	v, err := b.opts.copy(*b.ptr)
	if err != nil {
		return nil, err
	}
	return &indirectBlock[T]{ptr: &v, opts: b.opts}, nil
}

func (b *indirectBlock[T]) access() *T   { return b.ptr }
func (b *indirectBlock[T]) unique() bool { return true }

func (b *indirectBlock[T]) dispose() {
	if b.opts.drop != nil {
		b.opts.drop(b.ptr)
	}
}
