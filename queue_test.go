package kplex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueueRejectsUndersize(t *testing.T) {
	_, err := NewQueue(1)
	assert.Error(t, err)
}

func TestQueuePushNext(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)

	q.Push(NewSenBlk(nil, []byte("hello")))
	unit := q.Next()
	require.NotNil(t, unit)
	assert.Equal(t, "hello", string(unit.Bytes()))
	q.Free(unit)
}

func TestQueueFIFOOrder(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)

	q.Push(NewSenBlk(nil, []byte("a")))
	q.Push(NewSenBlk(nil, []byte("b")))
	q.Push(NewSenBlk(nil, []byte("c")))

	for _, want := range []string{"a", "b", "c"} {
		unit := q.Next()
		require.NotNil(t, unit)
		assert.Equal(t, want, string(unit.Bytes()))
		q.Free(unit)
	}
}

func TestQueueOverrunDropsOldest(t *testing.T) {
	q, err := NewQueue(2)
	require.NoError(t, err)

	q.Push(NewSenBlk(nil, []byte("1")))
	q.Push(NewSenBlk(nil, []byte("2")))
	q.Push(NewSenBlk(nil, []byte("3"))) // no free slots: drops "1"

	assert.Equal(t, uint64(1), q.Overruns())

	unit := q.Next()
	require.NotNil(t, unit)
	assert.Equal(t, "2", string(unit.Bytes()))
	q.Free(unit)

	unit = q.Next()
	require.NotNil(t, unit)
	assert.Equal(t, "3", string(unit.Bytes()))
	q.Free(unit)
}

func TestQueuePushNeverBlocks(t *testing.T) {
	q, err := NewQueue(2)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Push(NewSenBlk(nil, []byte("x")))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push blocked under sustained overrun")
	}
}

func TestQueueCloseWakesNext(t *testing.T) {
	q, err := NewQueue(2)
	require.NoError(t, err)

	done := make(chan *SenBlk, 1)
	go func() {
		done <- q.Next()
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(nil)

	select {
	case unit := <-done:
		assert.Nil(t, unit)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up on close")
	}
}

func TestQueueNextAfterCloseIsPermanent(t *testing.T) {
	q, err := NewQueue(2)
	require.NoError(t, err)

	q.Push(nil)
	assert.Nil(t, q.Next())
	assert.Nil(t, q.Next())
}
