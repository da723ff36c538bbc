package debugger_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/debugger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointManager_AddAssignsIncrementingIDs(t *testing.T) {
	m := debugger.NewBreakpointManager()
	first := m.Add(0x10)
	second := m.Add(0x20)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
}

func TestBreakpointManager_AddIsIdempotentPerAddress(t *testing.T) {
	m := debugger.NewBreakpointManager()
	first := m.Add(0x10)
	second := m.Add(0x10)
	assert.Same(t, first, second)
	assert.Len(t, m.All(), 1)
}

func TestBreakpointManager_GetReturnsNilWhenUnset(t *testing.T) {
	m := debugger.NewBreakpointManager()
	assert.Nil(t, m.Get(0x99))
}

func TestBreakpointManager_DeleteRemovesByID(t *testing.T) {
	m := debugger.NewBreakpointManager()
	bp := m.Add(0x10)
	require.True(t, m.Delete(bp.ID))
	assert.Nil(t, m.Get(0x10))
}

func TestBreakpointManager_DeleteUnknownIDReportsFalse(t *testing.T) {
	m := debugger.NewBreakpointManager()
	assert.False(t, m.Delete(999))
}

func TestBreakpointManager_AllIsOrderedByID(t *testing.T) {
	m := debugger.NewBreakpointManager()
	m.Add(0x30)
	m.Add(0x10)
	m.Add(0x20)

	all := m.All()
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)
	assert.Equal(t, 3, all[2].ID)
}
