package kplex

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/kplex/internal/logging"
)

// memCapture is a registry of in-memory output buffers, keyed by
// endpoint name, used only by the "memtest" adapter below.
var memCapture = struct {
	mu   sync.Mutex
	bufs map[string][]string
}{bufs: map[string][]string{}}

func init() {
	Register("memtest", openMemTest)
}

// openMemTest is a minimal in-process adapter used to exercise
// Supervisor end-to-end without touching the filesystem or network:
// direction=in replays a fixed, "|"-delimited list of lines then
// exits (simulating a finite source reaching EOF); direction=out
// appends every received sentence to memCapture.
func openMemTest(d *Descriptor) ([]*Endpoint, error) {
	switch d.Direction {
	case DirIn:
		lines := strings.Split(d.KeyOr("lines", ""), "|")
		ep := NewInputEndpoint(d.Name, "memtest", func(ep *Endpoint) error {
			for _, l := range lines {
				if l == "" {
					continue
				}
				ep.Queue().Push(NewSenBlk(ep, []byte(l)))
			}
			return nil
		}, nil, nil)
		return []*Endpoint{ep}, nil

	case DirOut:
		ep, err := NewOutputEndpoint(d.Name, "memtest", DefaultQueueSize, func(ep *Endpoint) error {
			q := ep.Queue()
			for {
				unit := q.Next()
				if unit == nil {
					return nil
				}
				memCapture.mu.Lock()
				memCapture.bufs[ep.Name] = append(memCapture.bufs[ep.Name], string(unit.Bytes()))
				memCapture.mu.Unlock()
				q.Free(unit)
			}
		}, nil, nil)
		return []*Endpoint{ep}, err

	default:
		return nil, ErrBadDirection
	}
}

func TestSupervisorEndToEndFanOutAndCleanShutdown(t *testing.T) {
	memCapture.mu.Lock()
	memCapture.bufs = map[string][]string{}
	memCapture.mu.Unlock()

	cfg := &Config{
		QueueSize: 16,
		Endpoints: []*Descriptor{
			{Type: "memtest", Name: "in0", Direction: DirIn, Keys: map[string]string{"lines": "a|b|c"}},
			{Type: "memtest", Name: "out0", Direction: DirOut, Keys: map[string]string{}},
			{Type: "memtest", Name: "out1", Direction: DirOut, Keys: map[string]string{}},
		},
	}

	sup, err := NewSupervisor(cfg, logging.DefaultLogger.WithTag("test"))
	require.NoError(t, err)

	done := make(chan int, 1)
	go func() { done <- sup.Run() }()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("Supervisor.Run did not return after its only input reached EOF")
	}

	memCapture.mu.Lock()
	defer memCapture.mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, memCapture.bufs["out0"])
	assert.Equal(t, []string{"a", "b", "c"}, memCapture.bufs["out1"])
}

func TestSupervisorRejectsEmptyConfig(t *testing.T) {
	cfg := &Config{QueueSize: 16}
	sup, err := NewSupervisor(cfg, logging.DefaultLogger.WithTag("test"))
	require.NoError(t, err)

	assert.Equal(t, 1, sup.Run())
}
