package kplex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "in", DirIn.String())
	assert.Equal(t, "out", DirOut.String())
	assert.Equal(t, "both", DirBoth.String())
	assert.Equal(t, "none", DirNone.String())
}

func TestEndpointSignalQuitIdempotent(t *testing.T) {
	ep := newEndpoint("x", "file", DirIn)

	select {
	case <-ep.Done():
		t.Fatal("endpoint reports done before signalQuit")
	default:
	}

	ep.signalQuit()
	ep.signalQuit() // must not panic on double-close

	select {
	case <-ep.Done():
	default:
		t.Fatal("endpoint does not report done after signalQuit")
	}
}

func TestNewOutputEndpointAllocatesPrivateQueue(t *testing.T) {
	ep, err := NewOutputEndpoint("o", "file", 4, nil, nil, nil)
	assert.NoError(t, err)
	assert.NotNil(t, ep.Queue())
}
