package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownRunsLIFO(t *testing.T) {
	m := New(time.Second)

	var order []string
	m.Register(func(ctx context.Context) error {
		order = append(order, "database")
		return nil
	})
	m.Register(func(ctx context.Context) error {
		order = append(order, "processor")
		return nil
	})
	m.Register(func(ctx context.Context) error {
		order = append(order, "server")
		return nil
	})

	m.Shutdown()

	// Last registered stops first: the server drains before the
	// processor stops, and the database closes last.
	expected := []string{"server", "processor", "database"}
	if len(order) != len(expected) {
		t.Fatalf("Expected %d calls, got %d", len(expected), len(order))
	}
	for i, name := range expected {
		if order[i] != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, order[i])
		}
	}
}

func TestShutdownContinuesOnError(t *testing.T) {
	m := New(time.Second)

	called := false
	m.Register(func(ctx context.Context) error {
		called = true
		return nil
	})
	m.Register(func(ctx context.Context) error {
		return errors.New("refusing to stop")
	})

	m.Shutdown()
	if !called {
		t.Error("Expected shutdown to continue past a failing function")
	}
}

func TestCloseResource(t *testing.T) {
	closer := &fakeCloser{}
	fn := CloseResource(closer, "store")
	if err := fn(context.Background()); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
	if !closer.closed {
		t.Error("Expected resource closed")
	}

	failing := &fakeCloser{err: errors.New("busy")}
	if err := CloseResource(failing, "store")(context.Background()); err == nil {
		t.Error("Expected wrapped close error")
	}
}

type fakeCloser struct {
	closed bool
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return f.err
}
