package vm_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptQueue_PushThenPopIsFIFO(t *testing.T) {
	q := &vm.InterruptQueue{}
	q.Push(1)
	q.Push(2)

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, uint16(1), first)

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, uint16(2), second)
}

func TestInterruptQueue_PopOnEmptyQueueReportsFalse(t *testing.T) {
	q := &vm.InterruptQueue{}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestInterruptQueue_LenTracksPendingMessages(t *testing.T) {
	q := &vm.InterruptQueue{}
	assert.Equal(t, 0, q.Len())
	q.Push(1)
	q.Push(2)
	assert.Equal(t, 2, q.Len())
	q.Pop()
	assert.Equal(t, 1, q.Len())
}

func TestInterruptQueue_PushReportsOverflowOnlyPastCapacity(t *testing.T) {
	q := &vm.InterruptQueue{}
	var lastOverflow bool
	for i := 0; i < vm.InterruptQueueCapacity; i++ {
		lastOverflow = q.Push(uint16(i))
	}
	assert.False(t, lastOverflow, "filling exactly to capacity must not overflow")

	overflow := q.Push(0xffff)
	assert.True(t, overflow, "one more than capacity overflows")
}
