package kplex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/kplex/internal/logging"
)

func TestEngineFansOutToAllOutputs(t *testing.T) {
	central, err := NewQueue(8)
	require.NoError(t, err)
	router := NewRouter(central, logging.DefaultLogger.WithTag("test"))
	engine := NewEngine(central, router, logging.DefaultLogger.WithTag("test"))

	o1, err := NewOutputEndpoint("o1", "file", 4, nil, nil, nil)
	require.NoError(t, err)
	o2, err := NewOutputEndpoint("o2", "file", 4, nil, nil, nil)
	require.NoError(t, err)
	router.LinkInitialized(o1)
	router.LinkInitialized(o2)
	router.Promote(o1)
	router.Promote(o2)

	go engine.Run()

	central.Push(NewSenBlk(nil, []byte("hello")))

	for _, o := range []*Endpoint{o1, o2} {
		received := make(chan *SenBlk, 1)
		go func(o *Endpoint) { received <- o.Queue().Next() }(o)

		select {
		case unit := <-received:
			require.NotNil(t, unit)
			assert.Equal(t, "hello", string(unit.Bytes()))
		case <-time.After(time.Second):
			t.Fatalf("%s never received fanned-out unit", o.Name)
		}
	}

	central.Push(nil)
}

func TestEngineSkipsPairedOutputOfOrigin(t *testing.T) {
	central, err := NewQueue(8)
	require.NoError(t, err)
	router := NewRouter(central, logging.DefaultLogger.WithTag("test"))
	engine := NewEngine(central, router, logging.DefaultLogger.WithTag("test"))

	both := NewBothEndpoint("serial0", "serial", nil, nil, nil, nil, nil)
	router.LinkInitialized(both)
	out, err := router.Split(both)
	require.NoError(t, err)
	router.Promote(both)
	router.Promote(out)

	other, err := NewOutputEndpoint("o1", "file", 4, nil, nil, nil)
	require.NoError(t, err)
	router.LinkInitialized(other)
	router.Promote(other)

	go engine.Run()

	central.Push(NewSenBlk(both, []byte("loop")))

	unit := other.Queue().Next()
	require.NotNil(t, unit)
	assert.Equal(t, "loop", string(unit.Bytes()))

	echoed := make(chan *SenBlk, 1)
	go func() { echoed <- out.Queue().Next() }()

	select {
	case u := <-echoed:
		t.Fatalf("loop-prevention failed: paired output received %q", string(u.Bytes()))
	case <-time.After(50 * time.Millisecond):
		// Expected: the output paired with the unit's source never
		// sees it.
	}

	central.Push(nil)
	out.Queue().Push(nil) // unblock the goroutine's Next before the test exits
}
