// Package controller is the remote control client for gst-switch-srv. It
// wraps the server's D-Bus methods in typed operations and routes the
// server's signals to registered callbacks.
package controller

import (
	"fmt"

	"github.com/timvideos/switchctl/internal/bus"
	"github.com/timvideos/switchctl/internal/endpoint"
)

// CompositeMode selects how the server composes its video sources.
type CompositeMode int

const (
	ModeNone        CompositeMode = 0
	ModePIP         CompositeMode = 1
	ModeDualPreview CompositeMode = 2
	ModeDualEqual   CompositeMode = 3
)

// Channel codes understood by Switch and SetEncodeMode. The server keys
// channels by character code.
const (
	ChannelVideoA = int('A')
	ChannelVideoB = int('B')
	ChannelAudio  = int('a')
)

// Face is one rectangular region on the video canvas, used both when
// marking detected faces and in the marker signals coming back.
type Face struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// ConnectionReturnError reports a server reply that did not have the shape
// the operation expects.
type ConnectionReturnError struct {
	Detail string
}

func (e *ConnectionReturnError) Error() string {
	return "connection returned invalid values: " + e.Detail
}

// InvalidModeError reports a composite mode outside 0..3, returned only
// when the controller runs with StrictModes.
type InvalidModeError struct {
	Mode CompositeMode
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("composite mode %d out of range 0..3", e.Mode)
}

// Config configures a Controller.
type Config struct {
	// Endpoint addresses the server; nil means the stock gst-switch endpoint.
	Endpoint *endpoint.Endpoint

	// Transport opens bus connections; nil means D-Bus.
	Transport bus.Transport

	// StrictModes makes SetCompositeMode reject out-of-range modes with
	// InvalidModeError. The historical behavior, and the default, is to
	// silently skip the call.
	StrictModes bool
}

// Controller drives one gst-switch server. It is not safe for concurrent
// use: every operation replaces the underlying connection, and callers
// issuing operations from more than one goroutine must serialize them.
// Signal callbacks run on the transport's delivery goroutine and may
// themselves issue operations, which reconnects and resubscribes.
type Controller struct {
	ep        *endpoint.Endpoint
	transport bus.Transport
	conn      bus.Connection
	strict    bool

	registry signalRegistry
}

// New creates a Controller. It performs no I/O; the first operation (or an
// explicit EstablishConnection) opens the session.
func New(cfg Config) *Controller {
	ep := cfg.Endpoint
	if ep == nil {
		ep = endpoint.New()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = bus.DBusTransport{}
	}
	return &Controller{ep: ep, transport: transport, strict: cfg.StrictModes}
}

// Endpoint returns the endpoint the controller connects to. Fields may be
// reassigned up until a connection is requested.
func (c *Controller) Endpoint() *endpoint.Endpoint { return c.ep }

// EstablishConnection opens a fresh session to the server and subscribes
// the signal dispatcher on it. Any previous session is closed and
// discarded. Every operation calls this before its remote call, so the
// subscription is always current; the server's tolerance for reconnects is
// what makes this affordable.
func (c *Controller) EstablishConnection() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	conn, err := c.transport.Connect(c.ep)
	if err != nil {
		return err
	}
	if err := conn.Subscribe(c.dispatch); err != nil {
		conn.Close()
		return fmt.Errorf("subscribing to signals: %w", err)
	}
	c.conn = conn
	return nil
}

// Close tears down the current session, if any. Registered callbacks stay
// registered; a later operation reconnects.
func (c *Controller) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// invoke reconnects, calls the named server method and returns the first
// element of the reply. Replies are D-Bus tuples; an empty one means the
// server and client disagree about the method's signature.
func (c *Controller) invoke(method string, args ...any) (any, error) {
	if err := c.EstablishConnection(); err != nil {
		return nil, err
	}
	body, err := c.conn.Invoke(method, args...)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, &ConnectionReturnError{Detail: "should return a tuple of at least one element"}
	}
	return body[0], nil
}

// ComposePort returns the TCP port serving the composed output stream.
func (c *Controller) ComposePort() (int, error) {
	res, err := c.invoke("get_compose_port")
	if err != nil {
		return 0, err
	}
	return intResult(res)
}

// EncodePort returns the TCP port serving the encoded output stream.
func (c *Controller) EncodePort() (int, error) {
	res, err := c.invoke("get_encode_port")
	if err != nil {
		return 0, err
	}
	return intResult(res)
}

// AudioPort returns the TCP port serving the active audio stream.
func (c *Controller) AudioPort() (int, error) {
	res, err := c.invoke("get_audio_port")
	if err != nil {
		return 0, err
	}
	return intResult(res)
}

// PreviewPorts returns the TCP ports of all preview streams. The server
// replies with a textual port list which is parsed locally.
func (c *Controller) PreviewPorts() ([]int, error) {
	res, err := c.invoke("get_preview_ports")
	if err != nil {
		return nil, err
	}
	text, ok := res.(string)
	if !ok {
		return nil, &ConnectionReturnError{Detail: "preview port list should be a string"}
	}
	return ParsePreviewPorts(text)
}

// SetCompositeMode switches the server to the given composite mode and
// returns the server's acknowledgement. Modes outside 0..3 make no remote
// call: the result is false with a nil error, or InvalidModeError under
// StrictModes.
func (c *Controller) SetCompositeMode(mode CompositeMode) (bool, error) {
	if mode < ModeNone || mode > ModeDualEqual {
		if c.strict {
			return false, &InvalidModeError{Mode: mode}
		}
		return false, nil
	}
	res, err := c.invoke("set_composite_mode", int32(mode))
	if err != nil {
		return false, err
	}
	return boolResult(res)
}

// CompositeMode returns the server's current composite mode.
func (c *Controller) CompositeMode() (CompositeMode, error) {
	res, err := c.invoke("get_composite_mode")
	if err != nil {
		return ModeNone, err
	}
	n, err := intResult(res)
	return CompositeMode(n), err
}

// SetEncodeMode selects the channel to encode. The server acknowledges the
// request; historically it does not act on it.
func (c *Controller) SetEncodeMode(channel int) (bool, error) {
	res, err := c.invoke("set_encode_mode", int32(channel))
	if err != nil {
		return false, err
	}
	return boolResult(res)
}

// NewRecord asks the server to close the current recording and start a new
// one.
func (c *Controller) NewRecord() (bool, error) {
	res, err := c.invoke("new_record")
	if err != nil {
		return false, err
	}
	return boolResult(res)
}

// AdjustPIP moves and resizes the picture-in-picture region. The returned
// value reports which of the coordinates the server applied.
func (c *Controller) AdjustPIP(x, y, width, height int) (int, error) {
	res, err := c.invoke("adjust_pip", int32(x), int32(y), int32(width), int32(height))
	if err != nil {
		return 0, err
	}
	return intResult(res)
}

// Switch feeds the given preview port into a channel. channel is one of
// ChannelVideoA, ChannelVideoB or ChannelAudio.
func (c *Controller) Switch(channel, port int) (bool, error) {
	res, err := c.invoke("switch", int32(channel), int32(port))
	if err != nil {
		return false, err
	}
	return boolResult(res)
}

// ClickVideo reports a user click on the video canvas, scaled to the given
// canvas size. The server answers a click inside a detected face with a
// select_face signal.
func (c *Controller) ClickVideo(x, y, width, height int) (bool, error) {
	res, err := c.invoke("click_video", int32(x), int32(y), int32(width), int32(height))
	if err != nil {
		return false, err
	}
	return boolResult(res)
}

// MarkFace tells the server where faces were detected. The server
// broadcasts them back to all clients as a show_face_marker signal.
func (c *Controller) MarkFace(faces []Face) error {
	if err := c.EstablishConnection(); err != nil {
		return err
	}
	_, err := c.conn.Invoke("mark_face", faces)
	return err
}

// MarkTracking tells the server which regions are being tracked. The
// server broadcasts them back as a show_track_marker signal.
func (c *Controller) MarkTracking(faces []Face) error {
	if err := c.EstablishConnection(); err != nil {
		return err
	}
	_, err := c.conn.Invoke("mark_tracking", faces)
	return err
}

// intResult coerces an unwrapped reply element to int. D-Bus replies carry
// whatever integer width the server's signature declares.
func intResult(v any) (int, error) {
	n, ok := asInt(v)
	if !ok {
		return 0, &ConnectionReturnError{Detail: fmt.Sprintf("expected an integer result, got %T", v)}
	}
	return n, nil
}

// boolResult coerces an unwrapped reply element to bool. A false result is
// passed through, not turned into an error.
func boolResult(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, &ConnectionReturnError{Detail: fmt.Sprintf("expected a boolean result, got %T", v)}
	}
	return b, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}
