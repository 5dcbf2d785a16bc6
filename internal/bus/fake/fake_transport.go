// Package fake provides an in-memory bus.Transport for unit tests: replies
// are scripted per method, invocations are captured, and tests can push
// signals into whatever handler the client subscribed last.
package fake

import (
	"fmt"
	"sync"

	"github.com/timvideos/switchctl/internal/bus"
	"github.com/timvideos/switchctl/internal/endpoint"
)

// Invocation records one method call made through a fake connection.
type Invocation struct {
	Method string
	Args   []any
}

// FakeTransport is an in-memory implementation of bus.Transport. Each
// Connect returns a distinct FakeConnection so tests can assert that
// operations rebuild their session.
type FakeTransport struct {
	mu          sync.Mutex
	replies     map[string][]any // method name -> scripted reply body
	errs        map[string]error // method name -> scripted failure
	connectErr  error
	connections []*FakeConnection
	invocations []Invocation
}

// NewFakeTransport creates a FakeTransport with no scripted replies;
// unscripted methods reply with a single true, the switch server's usual
// acknowledgement.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		replies: make(map[string][]any),
		errs:    make(map[string]error),
	}
}

// Reply scripts the reply body for a method.
func (t *FakeTransport) Reply(method string, body ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[method] = body
}

// Fail scripts a method to return err.
func (t *FakeTransport) Fail(method string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs[method] = err
}

// FailConnect makes every subsequent Connect return err.
func (t *FakeTransport) FailConnect(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectErr = err
}

// Connect returns a fresh FakeConnection, or the scripted connect error.
func (t *FakeTransport) Connect(ep *endpoint.Endpoint) (bus.Connection, error) {
	if err := ep.Complete(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return nil, t.connectErr
	}

	conn := &FakeConnection{transport: t, id: len(t.connections)}
	t.connections = append(t.connections, conn)
	return conn, nil
}

// ConnectCount returns how many connections have been handed out.
func (t *FakeTransport) ConnectCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.connections)
}

// Connections returns every connection handed out, in order.
func (t *FakeTransport) Connections() []*FakeConnection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*FakeConnection(nil), t.connections...)
}

// Invocations returns every method call seen across all connections.
func (t *FakeTransport) Invocations() []Invocation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Invocation(nil), t.invocations...)
}

// Calls returns the method names invoked, in order.
func (t *FakeTransport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.invocations))
	for i, inv := range t.invocations {
		names[i] = inv.Method
	}
	return names
}

// Emit delivers a signal to the most recently subscribed handler, the one a
// live client would receive signals on. No-op if nothing is subscribed.
func (t *FakeTransport) Emit(signal string, args ...any) {
	t.mu.Lock()
	var h bus.SignalHandler
	for i := len(t.connections) - 1; i >= 0; i-- {
		if t.connections[i].handler != nil {
			h = t.connections[i].handler
			break
		}
	}
	t.mu.Unlock()

	if h != nil {
		h(signal, args)
	}
}

// FakeConnection is one session handed out by a FakeTransport.
type FakeConnection struct {
	transport *FakeTransport
	id        int
	handler   bus.SignalHandler
	closed    bool
}

var _ bus.Connection = (*FakeConnection)(nil)

// ID returns the connection's creation index, usable as an identity check.
func (c *FakeConnection) ID() int { return c.id }

// Closed reports whether Close has been called.
func (c *FakeConnection) Closed() bool {
	c.transport.mu.Lock()
	defer c.transport.mu.Unlock()
	return c.closed
}

func (c *FakeConnection) Invoke(method string, args ...any) ([]any, error) {
	c.transport.mu.Lock()
	defer c.transport.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("invoke %s on closed connection", method)
	}
	c.transport.invocations = append(c.transport.invocations, Invocation{Method: method, Args: args})

	if err := c.transport.errs[method]; err != nil {
		return nil, err
	}
	if body, ok := c.transport.replies[method]; ok {
		return body, nil
	}
	return []any{true}, nil
}

func (c *FakeConnection) Subscribe(h bus.SignalHandler) error {
	c.transport.mu.Lock()
	defer c.transport.mu.Unlock()
	c.handler = h
	return nil
}

func (c *FakeConnection) Close() error {
	c.transport.mu.Lock()
	defer c.transport.mu.Unlock()
	c.closed = true
	return nil
}
