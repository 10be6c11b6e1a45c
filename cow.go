// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cow

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

// Holder is a copy-on-write value holder exposing values of type T.
// The zero value is an empty holder.
//
// Copies made with [Holder.Copy] share storage in O(1); a holder
// privatizes its storage the moment it grants mutable access while the
// storage is still reachable by another holder. Distinct holders over
// shared storage may be used from different goroutines; one Holder
// value must not be used from several goroutines at once.
//
// A non-zero Holder must not be duplicated with a plain Go assignment:
// duplicate with Copy, or transfer with [Holder.Take]. Plain copies are
// detected at their first mutating use and panic.
type Holder[T any] struct {
	addr *Holder[T] // of receiver, to detect copies by value
	ptr  *T
	h    *handle[T]
}

// Of returns a holder owning a fresh copy of v.
func Of[T any](v T, opts ...Option[T]) Holder[T] {
	rejectHolder[T]("Of")
	b := &indirectBlock[T]{ptr: &v, opts: newOptions(opts)}
	return Holder[T]{ptr: b.ptr, h: newHandle[T](b)}
}

// Adopt returns a holder taking ownership of the value behind p.
// The caller must not keep using p directly afterwards: the holder now
// decides when the value may be written and when it is finalized.
// Adopting a nil pointer returns an empty holder.
func Adopt[T any](p *T, opts ...Option[T]) Holder[T] {
	rejectHolder[T]("Adopt")
	if p == nil {
		return Holder[T]{}
	}
	b := &indirectBlock[T]{ptr: p, opts: newOptions(opts)}
	return Holder[T]{ptr: p, h: newHandle[T](b)}
}

// Make returns a holder with v constructed inside the control block,
// so the value and its bookkeeping share one allocation.
func Make[T any](v T, opts ...Option[T]) Holder[T] {
	rejectHolder[T]("Make")
	b := &directBlock[T]{value: v, opts: newOptions(opts)}
	return Holder[T]{ptr: b.access(), h: newHandle[T](b)}
}

// IsSet reports whether the holder holds a value.
func (x *Holder[T]) IsSet() bool {
	return x.h != nil
}

// Shared reports whether the stored object is reachable by at least
// one other holder, directly or through adapted holders. An empty
// holder is not shared. The answer is immediately stale if other
// goroutines are copying or releasing peers concurrently.
func (x *Holder[T]) Shared() bool {
	return x.h != nil && !x.h.private()
}

// Value borrows the stored value for reading. The holder stays in
// charge of the storage: Value never privatizes and never copies deep
// state. Value panics on an empty holder.
func (x *Holder[T]) Value() T {
	x.mustSet("Value")
	return *x.ptr
}

// Mutate grants writable access to the stored value. If the storage is
// shared at any adaptation depth, Mutate first privatizes it: the
// holder's copier produces an independent copy, and only after the
// copy succeeds is it swapped in. On copier failure Mutate returns the
// wrapped error and the holder and every peer are exactly as before.
// The returned pointer stays valid until the holder is next
// assigned, released or privatized. Mutate panics on an empty holder.
func (x *Holder[T]) Mutate() (*T, error) {
	x.copyCheck()
	x.mustSet("Mutate")
	if x.h.private() {
		return x.ptr, nil
	}
	nb, err := x.h.block.clone()
	if err != nil {
		return nil, fmt.Errorf("cow: mutate: %w", err)
	}
	old := x.h
	x.ptr, x.h = nb.access(), newHandle[T](nb)
	old.release()
	return x.ptr, nil
}

// MustMutate is [Holder.Mutate] for holders whose copier cannot fail.
// It panics if privatization reports an error.
func (x *Holder[T]) MustMutate() *T {
	p, err := x.Mutate()
	if err != nil {
		panic(err)
	}
	return p
}

// Copy returns a new holder sharing this holder's storage. No value is
// copied; copying is deferred to whichever holder mutates first.
// Copying an empty holder returns an empty holder.
func (x *Holder[T]) Copy() Holder[T] {
	if x.h == nil {
		return Holder[T]{}
	}
	return Holder[T]{ptr: x.ptr, h: x.h.retain()}
}

// Assign replaces the held value with shared storage from src, then
// releases the previous value. Self-assignment is a no-op. Assigning
// from an empty holder empties the holder.
func (x *Holder[T]) Assign(src *Holder[T]) {
	x.copyCheck()
	if src.h != nil {
		src.h.retain()
	}
	old := x.h
	x.ptr, x.h = src.ptr, src.h
	if old != nil {
		old.release()
	}
}

// Take moves the storage out into the returned holder, leaving the
// holder in the zero state: empty, reusable, and copyable again like
// any zero holder.
func (x *Holder[T]) Take() Holder[T] {
	x.copyCheck()
	out := Holder[T]{ptr: x.ptr, h: x.h}
	*x = Holder[T]{}
	return out
}

// TakeFrom moves the storage out of src into the holder, releasing the
// previously held value and leaving src in the zero state. Taking from
// itself is a no-op.
func (x *Holder[T]) TakeFrom(src *Holder[T]) {
	x.copyCheck()
	src.copyCheck()
	if src == x {
		return
	}
	old := x.h
	x.ptr, x.h = src.ptr, src.h
	*src = Holder[T]{}
	if old != nil {
		old.release()
	}
}

// Set replaces the held value with a fresh holder of v, as if by
// [Of], then releases the previous value. Strategy options apply to
// the new value only; omitted options revert to the defaults.
func (x *Holder[T]) Set(v T, opts ...Option[T]) {
	x.copyCheck()
	n := Of(v, opts...)
	old := x.h
	x.ptr, x.h = n.ptr, n.h
	if old != nil {
		old.release()
	}
}

// Swap exchanges the storage of two holders. Swapping a holder with
// itself is a no-op.
func (x *Holder[T]) Swap(other *Holder[T]) {
	x.copyCheck()
	other.copyCheck()
	x.ptr, other.ptr = other.ptr, x.ptr
	x.h, other.h = other.h, x.h
}

// Release drops the holder's reference to its storage and returns the
// holder to the zero state. The last release of a stored value runs
// its destroyer. Release of an empty holder is a no-op, so deferred
// releases stay safe after Take.
func (x *Holder[T]) Release() {
	x.copyCheck()
	old := x.h
	*x = Holder[T]{}
	if old != nil {
		old.release()
	}
}

// String renders the held value with the fmt package. The value
// receiver reads the cached pointer only, so the copies fmt makes
// while formatting stay harmless.
func (x Holder[T]) String() string {
	if x.h == nil {
		return "cow.Holder(<empty>)"
	}
	return fmt.Sprintf("cow.Holder(%v)", *x.ptr)
}

func (x *Holder[T]) mustSet(op string) {
	if x.h == nil {
		panic("cow: " + op + " of empty Holder")
	}
}

// rejectHolder panics when T is itself a Holder instantiation, which
// happens when type inference picks the holder up as the stored type.
// A holder inside a holder breaks the copy discipline: the default
// copier would clone the inner reference count.
func rejectHolder[T any](op string) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Struct && t.PkgPath() == "code.hybscloud.com/cow" &&
		strings.HasPrefix(t.Name(), "Holder[") {
		panic("cow: " + op + " of a Holder value; duplicate holders with Copy")
	}
}

func (x *Holder[T]) copyCheck() {
	if x.addr == nil {
		x.addr = (*Holder[T])(noescape(unsafe.Pointer(x)))
	} else if x.addr != x {
		panic("cow: illegal use of non-zero Holder copied by value")
	}
}

// noescape hides p from escape analysis, so that pinning a holder to
// its address does not force stack-allocated holders onto the heap.
//
//go:nosplit
//go:nocheckptr
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
