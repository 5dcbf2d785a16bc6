// Package endpoint holds the addressing record for a gst-switch server:
// the D-Bus transport address plus the bus name, object path and interface
// name of its switch controller object. Fields are validated at assignment
// time so a connection attempt never sees a half-formed endpoint.
package endpoint

import (
	"fmt"
	"strings"
)

// Defaults matching the addresses gst-switch-srv announces itself under.
const (
	DefaultAddress    = "tcp:host=127.0.0.1,port=5000"
	DefaultBusName    = "us.timvideos.gstswitch.SwitchController"
	DefaultObjectPath = "/us/timvideos/gstswitch/SwitchController"
	DefaultInterface  = "us.timvideos.gstswitch.SwitchControllerInterface"
)

// InvalidAddressError reports a field value that fails its validation rule.
// The endpoint keeps its previous value when a setter returns one of these.
type InvalidAddressError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("endpoint: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Endpoint identifies the remote switch controller. The zero value is empty;
// use New for the stock gst-switch addresses. Setters validate all-or-nothing:
// a rejected value leaves the stored one untouched.
type Endpoint struct {
	address    string
	busName    string
	objectPath string
	iface      string
}

// New returns an endpoint populated with the default gst-switch addresses.
func New() *Endpoint {
	return &Endpoint{
		address:    DefaultAddress,
		busName:    DefaultBusName,
		objectPath: DefaultObjectPath,
		iface:      DefaultInterface,
	}
}

// Address returns the D-Bus transport address.
func (e *Endpoint) Address() string { return e.address }

// SetAddress validates and stores the transport address. Addresses follow
// the D-Bus address format, "transport:key=value,...", so the value must be
// non-empty and carry a ':' after the transport selector.
func (e *Endpoint) SetAddress(address string) error {
	if address == "" {
		return &InvalidAddressError{Field: "address", Value: address, Reason: "cannot be blank"}
	}
	if strings.Index(address, ":") <= 0 {
		return &InvalidAddressError{
			Field:  "address",
			Value:  address,
			Reason: "must be a D-Bus address of the form transport:key=value",
		}
	}
	e.address = address
	return nil
}

// BusName returns the well-known bus name, or "" for a peer connection.
func (e *Endpoint) BusName() string { return e.busName }

// SetBusName stores the bus name. The name is opaque to us; an empty value
// means the server speaks peer-to-peer without a bus daemon.
func (e *Endpoint) SetBusName(busName string) error {
	e.busName = busName
	return nil
}

// ObjectPath returns the controller object path.
func (e *Endpoint) ObjectPath() string { return e.objectPath }

// SetObjectPath validates and stores the object path, which must be
// non-empty and rooted at '/'.
func (e *Endpoint) SetObjectPath(objectPath string) error {
	if objectPath == "" {
		return &InvalidAddressError{Field: "object path", Value: objectPath, Reason: "cannot be blank"}
	}
	if objectPath[0] != '/' {
		return &InvalidAddressError{
			Field:  "object path",
			Value:  objectPath,
			Reason: "must begin with '/'",
		}
	}
	e.objectPath = objectPath
	return nil
}

// Interface returns the controller interface name.
func (e *Endpoint) Interface() string { return e.iface }

// SetInterface validates and stores the interface name. D-Bus interface
// names are dotted with at least three elements, so the value must contain
// two or more '.' characters.
func (e *Endpoint) SetInterface(iface string) error {
	if iface == "" {
		return &InvalidAddressError{Field: "interface", Value: iface, Reason: "cannot be blank"}
	}
	if strings.Count(iface, ".") < 2 {
		return &InvalidAddressError{
			Field:  "interface",
			Value:  iface,
			Reason: "must be a dotted name with at least three elements",
		}
	}
	e.iface = iface
	return nil
}

// Complete reports whether the endpoint has everything needed to open a
// connection. The bus name may stay empty for peer connections.
func (e *Endpoint) Complete() error {
	switch {
	case e.address == "":
		return &InvalidAddressError{Field: "address", Reason: "not set"}
	case e.objectPath == "":
		return &InvalidAddressError{Field: "object path", Reason: "not set"}
	case e.iface == "":
		return &InvalidAddressError{Field: "interface", Reason: "not set"}
	}
	return nil
}
