package debugger_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/debugger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchpointManager_AddAssignsIncrementingIDs(t *testing.T) {
	m := debugger.NewWatchpointManager()
	first := m.Add("A", 0)
	second := m.Add("[0x10]", 0)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
}

func TestWatchpointManager_GetReturnsNilWhenUnset(t *testing.T) {
	m := debugger.NewWatchpointManager()
	assert.Nil(t, m.Get(99))
}

func TestWatchpointManager_DeleteRemovesByID(t *testing.T) {
	m := debugger.NewWatchpointManager()
	wp := m.Add("A", 0)
	require.True(t, m.Delete(wp.ID))
	assert.Nil(t, m.Get(wp.ID))
}

func TestWatchpointManager_DeleteUnknownIDReportsFalse(t *testing.T) {
	m := debugger.NewWatchpointManager()
	assert.False(t, m.Delete(999))
}

func TestWatchpointManager_AllIsOrderedByID(t *testing.T) {
	m := debugger.NewWatchpointManager()
	m.Add("A", 0)
	m.Add("B", 0)
	m.Add("C", 0)

	all := m.All()
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)
	assert.Equal(t, 3, all[2].ID)
}
