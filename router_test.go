package kplex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/kplex/internal/logging"
)

func testRouter(t *testing.T) *Router {
	central, err := NewQueue(8)
	require.NoError(t, err)
	return NewRouter(central, logging.DefaultLogger.WithTag("test"))
}

func TestPromoteMovesFromInitializedToActive(t *testing.T) {
	r := testRouter(t)

	in := NewInputEndpoint("in0", "file", nil, nil, nil)
	r.LinkInitialized(in)
	init1, inputs1, _, _ := r.Counts()
	assert.Equal(t, 1, init1)
	assert.Equal(t, 0, inputs1)

	r.Promote(in)
	init2, inputs2, _, _ := r.Counts()
	assert.Equal(t, 0, init2)
	assert.Equal(t, 1, inputs2)
}

func TestSplitProducesPairedInOut(t *testing.T) {
	r := testRouter(t)

	both := NewBothEndpoint("serial0", "serial", nil, nil, nil, nil, nil)
	r.LinkInitialized(both)

	out, err := r.Split(both)
	require.NoError(t, err)

	assert.Equal(t, DirIn, both.Direction)
	assert.Equal(t, DirOut, out.Direction)
	assert.Same(t, out, both.Pair())
	assert.Same(t, both, out.Pair())
	assert.NotNil(t, out.Queue())
}

func TestUnlinkOfLastInputClosesCentralQueue(t *testing.T) {
	r := testRouter(t)

	in := NewInputEndpoint("in0", "file", nil, nil, nil)
	r.LinkInitialized(in)
	r.Promote(in)

	r.Unlink(in)

	assert.Nil(t, r.central.Next())
}

func TestUnlinkOutputClosesPairedInput(t *testing.T) {
	r := testRouter(t)

	both := NewBothEndpoint("serial0", "serial", nil, nil, nil, nil, nil)
	r.LinkInitialized(both)
	out, err := r.Split(both)
	require.NoError(t, err)

	r.Promote(both)
	r.Promote(out)

	r.Unlink(out)

	select {
	case <-both.Done():
	default:
		t.Fatal("unlinking the output half did not signal its paired input to quit")
	}
	assert.Equal(t, DirIn, both.Direction)

	r.Unlink(both)
	_, inputs, _, _ := r.Counts()
	assert.Equal(t, 0, inputs, "input half must still be removable from the active list after its pair died")
}

func TestUnlinkInputClosesPairedOutputQueue(t *testing.T) {
	r := testRouter(t)

	both := NewBothEndpoint("serial0", "serial", nil, nil, nil, nil, nil)
	r.LinkInitialized(both)
	out, err := r.Split(both)
	require.NoError(t, err)

	r.Promote(both)
	r.Promote(out)

	r.Unlink(both)

	assert.Nil(t, out.Queue().Next())
}
