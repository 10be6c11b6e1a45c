// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cow

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrViewLost reports that privatizing an adapted holder produced a
// value that no longer implements the adapted interface. It can only
// happen when a custom [Copier] changes the dynamic type of the value
// it copies.
var ErrViewLost = errors.New("copied value does not implement the adapted interface")

// As converts a holder of D into a holder of B without copying the
// stored value: the two share storage until one of them mutates.
//
// B must be an interface type implemented by the stored value or by
// its pointer, or be D itself. Any other target panics. One holder may
// be adapted to several unrelated interfaces; each adapted holder
// still clones the complete stored value when it privatizes, so no
// adaptation can slice the parts of the value its interface does not
// show.
//
// The source holder keeps its own view and its own copy-on-write
// behavior. Releasing the source does not invalidate the result.
// Converting an empty holder yields an empty holder.
func As[B, D any](src *Holder[D]) Holder[B] {
	if reflect.TypeFor[B]() == reflect.TypeFor[D]() {
		return any(src.Copy()).(Holder[B])
	}
	if reflect.TypeFor[B]().Kind() != reflect.Interface {
		panic(fmt.Sprintf("cow: As target %v is neither an interface nor %v",
			reflect.TypeFor[B](), reflect.TypeFor[D]()))
	}
	if src.h == nil {
		return Holder[B]{}
	}
	view, ok := viewOf[B](src.ptr)
	if !ok {
		panic(fmt.Sprintf("cow: stored %T does not implement %v",
			*src.ptr, reflect.TypeFor[B]()))
	}
	b := &delegateBlock[B, D]{inner: src.h.retain(), view: view}
	return Holder[B]{ptr: b.access(), h: newHandle[B](b)}
}

// AsFrom is the moving form of [As]: it converts src into a holder of
// B and releases src, which becomes empty. The converted holder is the
// sole reason the stored value stays alive, so it mutates in place
// until it is copied.
func AsFrom[B, D any](src *Holder[D]) Holder[B] {
	out := As[B](src)
	src.Release()
	return out
}

// MakeAs constructs a value of D inside a holder exposed as B.
// It is the one-step form of [Make] followed by [AsFrom].
func MakeAs[B, D any](v D, opts ...Option[D]) Holder[B] {
	src := Make(v, opts...)
	return AsFrom[B](&src)
}

// viewOf derives the B-typed view of the object behind p. The view
// aliases the stored object: method calls through it observe and
// affect the same object p points to.
func viewOf[B, D any](p *D) (B, bool) {
	if v, ok := any(p).(B); ok {
		return v, true
	}
	if v, ok := any(*p).(B); ok {
		return v, true
	}
	var zero B
	return zero, false
}

// delegateBlock adapts a block exposing D into a block exposing B. It
// stores no value of its own: it retains the underlying handle and
// caches the B view of its storage. Clone and uniqueness delegate
// through, so copies made through any number of adaptation layers are
// full copies of the original concrete value, and a holder counts as
// shared while any adapted holder can still reach its storage.
type delegateBlock[B, D any] struct {
	inner *handle[D]
	view  B
}

func (b *delegateBlock[B, D]) clone() (controlBlock[B], error) {
	ib, err := b.inner.block.clone()
	if err != nil {
		return nil, err
	}
	view, ok := viewOf[B](ib.access())
	if !ok {
		ib.dispose()
		return nil, ErrViewLost
	}
	return &delegateBlock[B, D]{inner: newHandle[D](ib), view: view}, nil
}

func (b *delegateBlock[B, D]) access() *B { return &b.view }

func (b *delegateBlock[B, D]) unique() bool {
	return b.inner.refs.Load() == 1 && b.inner.block.unique()
}

func (b *delegateBlock[B, D]) dispose() {
	b.inner.release()
}
