package shutdown

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

type Closeable interface {
	io.Closer
}

type CloseableNoError interface {
	Close()
}

type shutdownNoError struct {
	c CloseableNoError
}

func NewShutdownFromCloseableNoError(c CloseableNoError) *shutdownNoError {
	return &shutdownNoError{c: c}
}

func (s *shutdownNoError) Shutdown() error {
	s.c.Close()

	return nil
}

type shutdown struct {
	c Closeable
}

func NewShutdownFromCloseable(c Closeable) *shutdown {
	return &shutdown{c: c}
}

func (s *shutdown) Shutdown() error {
	return s.c.Close()
}

// Func adapts a plain function to Shutdownable.
type Func func() error

func (f Func) Shutdown() error {
	return f()
}

// GracefulStopper is implemented by *grpc.Server.
type GracefulStopper interface {
	GracefulStop()
}

func NewShutdownFromGracefulStopper(s GracefulStopper) Func {
	return func() error {
		s.GracefulStop()

		return nil
	}
}

// NewShutdownFromHTTPServer stops accepting connections and waits up to timeout for active requests.
func NewShutdownFromHTTPServer(server *http.Server, timeout time.Duration) Func {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return server.Shutdown(ctx)
	}
}

// Sequence shuts the given items down one after another and stops at the first error.
func Sequence(toShutdown ...Shutdownable) Func {
	return func() error {
		for _, c := range toShutdown {
			if err := c.Shutdown(); err != nil {
				return err
			}
		}

		return nil
	}
}

type Shutdownable interface {
	Shutdown() error
}

type Shutdowner struct {
	toShutdown []Shutdownable
}

func NewShutdowner(toShutdown ...Shutdownable) *Shutdowner {
	return &Shutdowner{toShutdown: toShutdown}
}

// Shutdown stops everything concurrently and returns the first error.
func (s *Shutdowner) Shutdown() error {
	groupErr := errgroup.Group{}

	for _, c := range s.toShutdown {
		groupErr.Go(c.Shutdown)
	}

	return groupErr.Wait()
}
