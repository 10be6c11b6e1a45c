// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cow_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"code.hybscloud.com/cow"
	"github.com/stretchr/testify/require"
)

func TestDefaultCopierIsDeep(t *testing.T) {
	src := cow.Of(payload{name: "orig", data: []int{1, 2, 3}, meta: map[string]int{"k": 1}})
	dup := src.Copy()

	p := dup.MustMutate()
	p.name = "dup"
	p.data[0] = 99
	p.meta["k"] = 99
	require.Equal(t, "orig", src.Value().name)
	require.Equal(t, 1, src.Value().data[0])
	require.Equal(t, 1, src.Value().meta["k"])
	require.Equal(t, "dup", dup.Value().name)
	require.Equal(t, 99, dup.Value().data[0])
	src.Release()
	dup.Release()
}

func TestShallowCopierSharesReferences(t *testing.T) {
	src := cow.Of(payload{data: []int{1, 2, 3}}, cow.WithCopier(cow.ShallowCopier[payload]()))
	dup := src.Copy()

	// The slice header was copied, the backing array was not.
	dup.MustMutate().data[0] = 99
	require.Equal(t, 99, src.Value().data[0])
	src.Release()
	dup.Release()
}

func TestClonerCopier(t *testing.T) {
	src := cow.Of(clonableVec{data: []int{1, 2}}, cow.WithCopier(cow.ClonerCopier[clonableVec]()))
	dup := src.Copy()

	dup.MustMutate().data[0] = 9
	require.Equal(t, 1, src.Value().data[0])
	require.Equal(t, 9, dup.Value().data[0])
	src.Release()
	dup.Release()
}

func TestStrategyCounters(t *testing.T) {
	var copies, drops atomic.Int64
	h := cow.Of(box{n: 1},
		cow.WithCopier(countingCopier[box](&copies)),
		cow.WithDestroyer(func(*box) { drops.Add(1) }),
	)
	d1 := h.Copy()
	d2 := h.Copy()
	require.Equal(t, int64(0), copies.Load())

	d1.MustMutate().SetVal(2)
	d2.MustMutate().SetVal(3)
	h.MustMutate().SetVal(4) // both peers detached, so h owns its storage again
	require.Equal(t, int64(2), copies.Load())
	require.Equal(t, int64(0), drops.Load())

	// Privatized copies inherit both strategies.
	d1.Release()
	d2.Release()
	h.Release()
	require.Equal(t, int64(3), drops.Load())
}

func TestFailingCopierKeepsEverythingIntact(t *testing.T) {
	var live atomic.Int64
	errBoom := errors.New("copier refused")
	opts := append(countedStrategies(&live), cow.WithCopier(failingCopier[counted](errBoom)))
	src := cow.Make(newCounted(&live, 5), opts...)
	dup := src.Copy()

	_, err := dup.Mutate()
	require.ErrorIs(t, err, errBoom)
	require.EqualError(t, err, "cow: mutate: copier refused")
	require.Equal(t, 5, dup.Value().v)
	require.Equal(t, 5, src.Value().v)
	require.True(t, src.Shared())
	require.True(t, dup.Shared())
	require.Equal(t, int64(1), live.Load())

	dup.Release()
	require.Equal(t, int64(1), live.Load())
	src.Release()
	require.Equal(t, int64(0), live.Load())
}

func TestNilInterfaceValueDeepCopies(t *testing.T) {
	src := cow.Of[any](nil)
	dup := src.Copy()

	p := dup.MustMutate()
	require.Nil(t, *p)
	*p = 5
	require.Nil(t, src.Value())
	require.Equal(t, 5, dup.Value())
	src.Release()
	dup.Release()
}
