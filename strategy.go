// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cow

import "github.com/huandu/go-clone"

// Copier produces an independent copy of v during privatization.
// A Copier that returns a non-nil error aborts the mutation that
// required it; the holder keeps its previous storage untouched.
type Copier[T any] func(v T) (T, error)

// Destroyer finalizes the stored value when the last holder
// referencing it is released. It runs at most once per stored value.
type Destroyer[T any] func(v *T)

// DeepCopier returns the default [Copier]: a deep clone of the value,
// including everything reachable through pointers, maps and slices.
// The stored type does not need to implement anything.
func DeepCopier[T any]() Copier[T] {
	return func(v T) (T, error) {
		if any(v) == nil {
			return v, nil
		}
		return clone.Clone(v).(T), nil
	}
}

// ShallowCopier returns a [Copier] that copies the value itself and
// nothing it points to. Suitable for types whose fields are all values.
func ShallowCopier[T any]() Copier[T] {
	return func(v T) (T, error) {
		return v, nil
	}
}

// Cloner is implemented by types that know how to copy themselves.
// Implementing it is never required; it exists so that such types can
// opt in through [ClonerCopier].
type Cloner[T any] interface {
	Clone() T
}

// ClonerCopier returns a [Copier] backed by the type's own Clone method.
func ClonerCopier[T Cloner[T]]() Copier[T] {
	return func(v T) (T, error) {
		return v.Clone(), nil
	}
}

// options carries the strategies fixed at holder construction.
type options[T any] struct {
	copy Copier[T]
	drop Destroyer[T]
}

// Option injects a strategy into the constructors and [Holder.Set].
type Option[T any] func(*options[T])

// WithCopier overrides the privatization strategy for one holder.
// A nil copier panics at once rather than at the first privatization.
func WithCopier[T any](c Copier[T]) Option[T] {
	if c == nil {
		panic("cow: WithCopier of nil Copier")
	}
	return func(o *options[T]) {
		o.copy = c
	}
}

// WithDestroyer installs a finalization strategy for one holder.
func WithDestroyer[T any](d Destroyer[T]) Option[T] {
	if d == nil {
		panic("cow: WithDestroyer of nil Destroyer")
	}
	return func(o *options[T]) {
		o.drop = d
	}
}

func newOptions[T any](opts []Option[T]) options[T] {
	o := options[T]{copy: DeepCopier[T]()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
