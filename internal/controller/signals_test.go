package controller

import (
	"errors"
	"reflect"
	"testing"

	"github.com/timvideos/switchctl/internal/bus/fake"
)

// subscribedController returns a controller with a live fake subscription,
// so transport.Emit reaches the dispatcher.
func subscribedController(t *testing.T, cfg Config) (*Controller, *fake.FakeTransport) {
	t.Helper()

	c, transport := newTestController(t, cfg)
	if err := c.EstablishConnection(); err != nil {
		t.Fatalf("EstablishConnection failed: %v", err)
	}
	return c, transport
}

func TestDispatchInRegistrationOrder(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	var order []int
	var got [][3]int
	for i := 0; i < 3; i++ {
		i := i
		err := c.OnPreviewPortAdded(func(port, serve, branch int) {
			order = append(order, i)
			got = append(got, [3]int{port, serve, branch})
		})
		if err != nil {
			t.Fatalf("OnPreviewPortAdded failed: %v", err)
		}
	}

	transport.Emit(SignalPreviewPortAdded, int32(3001), int32(ServeVideoStream), int32(7))

	if want := []int{0, 1, 2}; !reflect.DeepEqual(order, want) {
		t.Errorf("callbacks ran in order %v, want %v", order, want)
	}
	for i, args := range got {
		if want := [3]int{3001, 1, 7}; args != want {
			t.Errorf("callback %d received %v, want %v", i, args, want)
		}
	}
}

func TestDispatchUnknownSignalIsIgnored(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	called := false
	c.OnPreviewPortAdded(func(port, serve, branch int) { called = true })

	// A newer server may emit members this client has never heard of.
	transport.Emit("caption_track_changed", int32(1))
	transport.Emit(SignalPreviewPortRemoved, int32(3001), int32(0), int32(0))

	if called {
		t.Error("unrelated signals reached a preview_port_added callback")
	}
}

func TestDispatchWithNoCallbacks(t *testing.T) {
	_, transport := subscribedController(t, Config{})

	// Nothing registered anywhere; must not panic.
	transport.Emit(SignalNewModeOnline, int32(2))
	transport.Emit(SignalSelectFace, int32(10), int32(20))
}

func TestNewModeOnline(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	var got CompositeMode = -1
	c.OnNewModeOnline(func(mode CompositeMode) { got = mode })

	transport.Emit(SignalNewModeOnline, int32(3))

	if got != ModeDualEqual {
		t.Errorf("mode = %d, want ModeDualEqual", got)
	}
}

func TestFaceMarkerDecodesWireTuples(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	var got []Face
	c.OnShowFaceMarker(func(faces []Face) { got = faces })

	// D-Bus structs arrive as nested []any when decoded generically.
	transport.Emit(SignalShowFaceMarker, []any{
		[]any{int32(1), int32(2), int32(3), int32(4)},
		[]any{int32(5), int32(6), int32(7), int32(8)},
	})

	want := []Face{{1, 2, 3, 4}, {5, 6, 7, 8}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("faces = %v, want %v", got, want)
	}
}

func TestTrackMarkerAcceptsTypedFaces(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	var got []Face
	c.OnShowTrackMarker(func(faces []Face) { got = faces })

	want := []Face{{10, 20, 30, 40}}
	transport.Emit(SignalShowTrackMarker, want)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("faces = %v, want %v", got, want)
	}
}

func TestSelectFace(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	var gotX, gotY int
	c.OnSelectFace(func(x, y int) { gotX, gotY = x, y })

	transport.Emit(SignalSelectFace, int32(120), int32(80))

	if gotX != 120 || gotY != 80 {
		t.Errorf("select_face = (%d, %d), want (120, 80)", gotX, gotY)
	}
}

func TestMalformedSignalBodyIsDropped(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	called := false
	c.OnPreviewPortAdded(func(port, serve, branch int) { called = true })

	transport.Emit(SignalPreviewPortAdded, "not", "integers")
	transport.Emit(SignalPreviewPortAdded, int32(3001)) // too few arguments

	if called {
		t.Error("malformed bodies reached a callback")
	}
}

func TestNilCallbackIsRejected(t *testing.T) {
	c, _ := newTestController(t, Config{})

	tests := []struct {
		name string
		err  error
	}{
		{SignalPreviewPortAdded, c.OnPreviewPortAdded(nil)},
		{SignalPreviewPortRemoved, c.OnPreviewPortRemoved(nil)},
		{SignalNewModeOnline, c.OnNewModeOnline(nil)},
		{SignalShowFaceMarker, c.OnShowFaceMarker(nil)},
		{SignalShowTrackMarker, c.OnShowTrackMarker(nil)},
		{SignalSelectFace, c.OnSelectFace(nil)},
	}

	for _, tt := range tests {
		var invalid *InvalidCallbackError
		if !errors.As(tt.err, &invalid) {
			t.Errorf("%s: got %v, want InvalidCallbackError", tt.name, tt.err)
		}
	}
}

func TestCallbacksSurviveReconnect(t *testing.T) {
	c, transport := subscribedController(t, Config{})

	count := 0
	c.OnNewModeOnline(func(mode CompositeMode) { count++ })

	// An operation replaces the connection; the registry must carry over.
	if _, err := c.NewRecord(); err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}

	transport.Emit(SignalNewModeOnline, int32(1))

	if count != 1 {
		t.Errorf("callback ran %d times after reconnect, want 1", count)
	}
}

func TestReentrantDispatch(t *testing.T) {
	c, transport := subscribedController(t, Config{})
	transport.Reply("set_composite_mode", true)

	// A callback issuing an operation reconnects mid-dispatch; this must
	// not deadlock or lose the remaining callbacks.
	var calls []string
	c.OnNewModeOnline(func(mode CompositeMode) {
		if _, err := c.SetCompositeMode(ModePIP); err != nil {
			t.Errorf("reentrant SetCompositeMode failed: %v", err)
		}
		calls = append(calls, "first")
	})
	c.OnNewModeOnline(func(mode CompositeMode) {
		calls = append(calls, "second")
	})

	transport.Emit(SignalNewModeOnline, int32(0))

	if want := []string{"first", "second"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}
