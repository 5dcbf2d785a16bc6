package controller

// Signal member names emitted by the switch controller interface.
const (
	SignalPreviewPortAdded   = "preview_port_added"
	SignalPreviewPortRemoved = "preview_port_removed"
	SignalNewModeOnline      = "new_mode_online"
	SignalShowFaceMarker     = "show_face_marker"
	SignalShowTrackMarker    = "show_track_marker"
	SignalSelectFace         = "select_face"
)

// Serve types carried by the preview port signals.
const (
	ServeNothing     = 0
	ServeVideoStream = 1
	ServeVideoAudio  = 2
)

// PortCallback receives preview_port_added and preview_port_removed: the
// TCP port of the preview stream, the type of material served (one of the
// Serve constants) and the type of branch serving it.
type PortCallback func(port, serve, branch int)

// ModeCallback receives new_mode_online with the now-active composite mode.
type ModeCallback func(mode CompositeMode)

// MarkerCallback receives show_face_marker and show_track_marker with the
// regions some client marked via MarkFace or MarkTracking.
type MarkerCallback func(faces []Face)

// ClickCallback receives select_face with the canvas coordinates of a
// click that hit a detected face.
type ClickCallback func(x, y int)

// InvalidCallbackError reports a nil callback passed to a registration
// method.
type InvalidCallbackError struct {
	Signal string
}

func (e *InvalidCallbackError) Error() string {
	return "nil callback registered for signal " + e.Signal
}

// signalRegistry holds the registered callbacks, one append-only list per
// signal. There is no unregister: callbacks live as long as the controller.
type signalRegistry struct {
	previewPortAdded   []PortCallback
	previewPortRemoved []PortCallback
	newModeOnline      []ModeCallback
	showFaceMarker     []MarkerCallback
	showTrackMarker    []MarkerCallback
	selectFace         []ClickCallback
}

// OnPreviewPortAdded registers a callback for preview_port_added, fired
// when a new source connects and the server opens a preview port for it.
func (c *Controller) OnPreviewPortAdded(cb PortCallback) error {
	if cb == nil {
		return &InvalidCallbackError{Signal: SignalPreviewPortAdded}
	}
	c.registry.previewPortAdded = append(c.registry.previewPortAdded, cb)
	return nil
}

// OnPreviewPortRemoved registers a callback for preview_port_removed,
// fired when a source disconnects and its preview port closes.
func (c *Controller) OnPreviewPortRemoved(cb PortCallback) error {
	if cb == nil {
		return &InvalidCallbackError{Signal: SignalPreviewPortRemoved}
	}
	c.registry.previewPortRemoved = append(c.registry.previewPortRemoved, cb)
	return nil
}

// OnNewModeOnline registers a callback for new_mode_online, fired when a
// composite mode change has taken effect.
func (c *Controller) OnNewModeOnline(cb ModeCallback) error {
	if cb == nil {
		return &InvalidCallbackError{Signal: SignalNewModeOnline}
	}
	c.registry.newModeOnline = append(c.registry.newModeOnline, cb)
	return nil
}

// OnShowFaceMarker registers a callback for show_face_marker, fired when
// any client sets face markers via MarkFace.
func (c *Controller) OnShowFaceMarker(cb MarkerCallback) error {
	if cb == nil {
		return &InvalidCallbackError{Signal: SignalShowFaceMarker}
	}
	c.registry.showFaceMarker = append(c.registry.showFaceMarker, cb)
	return nil
}

// OnShowTrackMarker registers a callback for show_track_marker, fired when
// any client sets track markers via MarkTracking.
func (c *Controller) OnShowTrackMarker(cb MarkerCallback) error {
	if cb == nil {
		return &InvalidCallbackError{Signal: SignalShowTrackMarker}
	}
	c.registry.showTrackMarker = append(c.registry.showTrackMarker, cb)
	return nil
}

// OnSelectFace registers a callback for select_face, fired when a click
// reported via ClickVideo selected a face.
func (c *Controller) OnSelectFace(cb ClickCallback) error {
	if cb == nil {
		return &InvalidCallbackError{Signal: SignalSelectFace}
	}
	c.registry.selectFace = append(c.registry.selectFace, cb)
	return nil
}

// dispatch routes one inbound signal to its registered callbacks, in
// registration order, on the transport's delivery goroutine. Signals the
// client does not know, and bodies that do not decode, are dropped; the
// server may be newer than us and that must not crash anything. Callback
// panics are not recovered.
func (c *Controller) dispatch(signal string, args []any) {
	switch signal {
	case SignalPreviewPortAdded:
		port, serve, branch, ok := portArgs(args)
		if !ok {
			return
		}
		for _, cb := range c.registry.previewPortAdded {
			cb(port, serve, branch)
		}

	case SignalPreviewPortRemoved:
		port, serve, branch, ok := portArgs(args)
		if !ok {
			return
		}
		for _, cb := range c.registry.previewPortRemoved {
			cb(port, serve, branch)
		}

	case SignalNewModeOnline:
		if len(args) < 1 {
			return
		}
		mode, ok := asInt(args[0])
		if !ok {
			return
		}
		for _, cb := range c.registry.newModeOnline {
			cb(CompositeMode(mode))
		}

	case SignalShowFaceMarker:
		faces, ok := faceArgs(args)
		if !ok {
			return
		}
		for _, cb := range c.registry.showFaceMarker {
			cb(faces)
		}

	case SignalShowTrackMarker:
		faces, ok := faceArgs(args)
		if !ok {
			return
		}
		for _, cb := range c.registry.showTrackMarker {
			cb(faces)
		}

	case SignalSelectFace:
		if len(args) < 2 {
			return
		}
		x, okX := asInt(args[0])
		y, okY := asInt(args[1])
		if !okX || !okY {
			return
		}
		for _, cb := range c.registry.selectFace {
			cb(x, y)
		}
	}
}

func portArgs(args []any) (port, serve, branch int, ok bool) {
	if len(args) < 3 {
		return 0, 0, 0, false
	}
	port, okP := asInt(args[0])
	serve, okS := asInt(args[1])
	branch, okB := asInt(args[2])
	return port, serve, branch, okP && okS && okB
}

// faceArgs decodes the single argument of the marker signals: an array of
// four-field structs, which arrives either typed or as nested []any
// depending on who sent it.
func faceArgs(args []any) ([]Face, bool) {
	if len(args) < 1 {
		return nil, false
	}
	switch list := args[0].(type) {
	case []Face:
		return list, true
	case []any:
		faces := make([]Face, 0, len(list))
		for _, el := range list {
			tuple, ok := el.([]any)
			if !ok || len(tuple) < 4 {
				return nil, false
			}
			x, okX := asInt(tuple[0])
			y, okY := asInt(tuple[1])
			w, okW := asInt(tuple[2])
			h, okH := asInt(tuple[3])
			if !okX || !okY || !okW || !okH {
				return nil, false
			}
			faces = append(faces, Face{X: int32(x), Y: int32(y), Width: int32(w), Height: int32(h)})
		}
		return faces, true
	}
	return nil, false
}
