package shutdown

import (
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type closer struct {
	closed atomic.Int32
	err    error
}

func (c *closer) Close() error {
	c.closed.Add(1)

	return c.err
}

type stopper struct {
	stopped atomic.Bool
}

func (s *stopper) GracefulStop() {
	s.stopped.Store(true)
}

func TestShutdowner(t *testing.T) {
	t.Parallel()

	errClose := errors.New("close failed")

	ok := &closer{}
	failing := &closer{err: errClose}
	grpcServer := &stopper{}

	s := NewShutdowner(
		NewShutdownFromCloseable(ok),
		NewShutdownFromCloseable(failing),
		NewShutdownFromGracefulStopper(grpcServer),
		NewShutdownFromHTTPServer(&http.Server{}, time.Second),
	)

	assert.ErrorIs(t, s.Shutdown(), errClose)
	assert.Equal(t, int32(1), ok.closed.Load())
	assert.Equal(t, int32(1), failing.closed.Load())
	assert.True(t, grpcServer.stopped.Load())
}

func TestShutdowner_Empty(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewShutdowner().Shutdown())
}

func TestSequence(t *testing.T) {
	t.Parallel()

	errStop := errors.New("stop failed")

	var order []string

	step := func(name string, err error) Func {
		return func() error {
			order = append(order, name)

			return err
		}
	}

	assert.NoError(t, Sequence(step("servers", nil), step("storage", nil))())
	assert.Equal(t, []string{"servers", "storage"}, order)

	order = nil

	assert.ErrorIs(t, Sequence(step("servers", errStop), step("storage", nil))(), errStop)
	assert.Equal(t, []string{"servers"}, order)
}
