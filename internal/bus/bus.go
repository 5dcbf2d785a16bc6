// Package bus abstracts the D-Bus session underneath the switch controller.
// The controller only sees Transport and Connection; the real implementation
// speaks godbus, and package fake provides a scriptable stand-in for tests.
package bus

import "github.com/timvideos/switchctl/internal/endpoint"

// SignalHandler receives every signal delivered on a subscribed connection.
// signal is the member name without its interface prefix; args is the signal
// body as it came off the wire. Handlers run on the connection's delivery
// goroutine, one signal at a time.
type SignalHandler func(signal string, args []any)

// Transport opens connections to a switch server.
type Transport interface {
	Connect(ep *endpoint.Endpoint) (Connection, error)
}

// Connection is one live session to the server's controller object.
type Connection interface {
	// Invoke calls the named method on the controller interface and returns
	// the reply body.
	Invoke(method string, args ...any) ([]any, error)

	// Subscribe routes all signals from the controller object to h. At most
	// one handler per connection; connections are rebuilt rather than
	// resubscribed.
	Subscribe(h SignalHandler) error

	Close() error
}
