// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cow provides a copy-on-write polymorphic value holder in Go.
//
// The core type [Holder] is an indirect value holder: copies of a holder are
// cheap (they share storage behind an atomic reference count), yet every
// holder observably behaves as if it owned an independent value. Storage is
// privatized lazily, the first time a holder grants mutable access while its
// storage is still shared. A holder declared over a capability interface may
// store any concrete implementation; copying such a holder always copies the
// full concrete object, never a sliced interface view, and the stored type is
// not required to implement any cloning interface.
//
// # Design Philosophy
//
// cow provides:
//   - Value semantics with reference costs: O(1), allocation-free copy and move
//   - Lazy privatization: storage is cloned only on first shared mutation
//   - Non-intrusive polymorphic copying through type-erased control blocks
//   - Injectable copy/destroy strategies as first-class function values
//
// # Holders
//
// The zero value of [Holder] is an empty holder. Non-empty holders are built
// by four constructors:
//
//   - [Of]: hold a value behind a fresh allocation
//   - [Adopt]: take ownership of an existing pointer, with optional strategies
//   - [Make]: construct the value inside the control block (one allocation)
//   - [MakeAs]: Make a concrete value, exposed as a capability interface
//
// Access and mutation:
//
//   - [Holder.Value]: borrow storage for reading (no privatization)
//   - [Holder.Mutate]: privatize if shared, then borrow storage for writing
//   - [Holder.MustMutate]: Mutate that panics on clone failure
//   - [Holder.IsSet]: report whether a value is held
//   - [Holder.Shared]: report whether storage is reachable by another holder
//
// Copying, moving, assigning:
//
//   - [Holder.Copy]: share storage with a new holder (never clones)
//   - [Holder.Assign]: share storage in place of the current value
//   - [Holder.Take]: move storage out, leaving the holder empty
//   - [Holder.TakeFrom]: move storage in place of the current value
//   - [Holder.Set]: replace the current value with a fresh one
//   - [Holder.Swap]: exchange storage between two holders
//   - [Holder.Release]: drop the holder's reference, destroy if last
//
// A Holder is a value type, but it carries shared bookkeeping, so duplicating
// one with a plain Go assignment is not supported: copies must be made with
// Copy (share) or Take (move). Plain struct copies are detected at the first
// mutating use of either duplicate and panic, in the same way strings.Builder
// rejects copied builders.
//
// # Copy-on-Write Protocol
//
// Mutable access follows a strict detach-then-commit protocol. If the
// holder's storage is reachable by any other holder, Mutate first clones the
// storage into an independent private block, and only after the clone
// succeeds does it swap the new block into the holder. A failed clone leaves
// the holder exactly as it was. A deeply unique holder mutates in place with
// no clone and no allocation.
//
// "Shared" is a deep property: a holder whose storage is wrapped by
// base/derived adapters counts every holder that can reach the same concrete
// object through any adapter layer. This is what makes write isolation hold
// across polymorphic views.
//
// # Polymorphic Adaptation
//
// [As] converts a holder of a derived type into a holder of a base
// capability type by wrapping the existing control block, never by
// copying or reinterpreting it:
//
//   - the target type must be an interface implemented by the stored type
//     (or by its pointer), or identical to the source type;
//   - one concrete object may be adapted to several unrelated interfaces,
//     and every adapted holder clones the full concrete object;
//   - adapters compose: a holder may be adapted, and the result adapted
//     again, to arbitrary depth. Each layer adds one indirection to clone
//     and uniqueness queries, and no value storage.
//
// [As] shares storage with the source; [AsFrom] converts and releases
// the source in one step, leaving the converted holder as the sole
// owner.
//
// Cloning an adapted holder clones through the chain down to the original
// block, which knows the real concrete type, so no adaptation layer can
// slice the stored object.
//
// For interface-exposed holders, mutation means calling methods through the
// exposed view. Assigning a different dynamic value through the mutable
// pointer of an adapted holder desynchronizes the adapter chain and is not
// supported; use [Holder.Set]. Holders whose exposed type is their stored
// type support wholesale assignment through the mutable pointer.
//
// # Injectable Strategies
//
// Each holder carries two strategies fixed at construction:
//
//   - [Copier]: produces an independent copy during privatization.
//     The default, [DeepCopier], deep-clones the value with
//     github.com/huandu/go-clone, so pointer-bearing values keep value
//     semantics without implementing anything.
//   - [Destroyer]: releases the stored object when the last holder
//     referencing it is released. The default is none: Go's garbage
//     collector reclaims memory, and destroyers exist for non-memory
//     resources and deterministic-destruction tests.
//
// Strategies are supplied with functional options:
//
//   - [WithCopier], [WithDestroyer]: override per holder
//   - [ShallowCopier]: plain value copy, for types without reference fields
//   - [ClonerCopier]: adapt a type's own Clone method (never required)
//
// # Concurrency
//
// Distinct holders sharing storage may be copied, read, and released from
// different goroutines: the reference count is maintained with sync/atomic.
// A single Holder value is a single-owner object and must not be used from
// multiple goroutines at once. Mutable access is granted only after the
// holder has exclusive ownership of its storage, so at most one live mutable
// view of a given object can exist at a time; writing through a mutable
// pointer borrowed before the storage became shared again is outside the
// contract.
//
// # Errors
//
// Operations that must clone report copier failures as errors wrapped with
// the operation name; the cause is reachable with errors.Is and errors.As.
// Misuse (access on an empty holder, adapting to a type the stored
// value does not implement, mutating a plain struct copy) is a
// programming error and panics with a "cow:" prefixed message.
//
// # Example
//
//	type Shape interface {
//		Area() float64
//		Scale(f float64)
//	}
//
//	rect := cow.MakeAs[Shape](Rect{W: 3, H: 4})
//	dup := rect.Copy()              // shares storage, no clone
//	(*rect.MustMutate()).Scale(2)   // privatizes rect, dup unaffected
//	// rect.Value().Area() == 48, dup.Value().Area() == 12
package cow
