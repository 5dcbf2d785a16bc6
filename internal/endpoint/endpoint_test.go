package endpoint

import (
	"errors"
	"testing"
)

func TestSetAddress(t *testing.T) {
	tests := []struct {
		address string
		valid   bool
	}{
		{"tcp:host=127.0.0.1,port=5000", true},
		{"unix:path=/tmp/bus", true},
		{"unix:abstract=gstswitch", true},
		{"x:", true},
		{"", false},
		{"tcp", false},
		{":host=127.0.0.1", false}, // no transport selector before the colon
	}

	for _, tt := range tests {
		ep := New()
		err := ep.SetAddress(tt.address)
		if tt.valid {
			if err != nil {
				t.Errorf("SetAddress(%q) failed: %v", tt.address, err)
			} else if ep.Address() != tt.address {
				t.Errorf("SetAddress(%q): stored %q", tt.address, ep.Address())
			}
			continue
		}

		if err == nil {
			t.Errorf("SetAddress(%q) should have failed", tt.address)
			continue
		}
		var invalid *InvalidAddressError
		if !errors.As(err, &invalid) {
			t.Errorf("SetAddress(%q): got %T, want InvalidAddressError", tt.address, err)
		}
	}
}

func TestSetAddressKeepsOldValueOnFailure(t *testing.T) {
	ep := New()
	if err := ep.SetAddress("no colon here"); err == nil {
		t.Fatal("expected validation failure")
	}
	if ep.Address() != DefaultAddress {
		t.Errorf("failed assignment mutated address to %q", ep.Address())
	}
}

func TestSetObjectPath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"/a/b", true},
		{"/", true},
		{"/us/timvideos/gstswitch/SwitchController", true},
		{"", false},
		{"a/b", false},
		{"us.timvideos", false},
	}

	for _, tt := range tests {
		ep := New()
		err := ep.SetObjectPath(tt.path)
		if tt.valid && err != nil {
			t.Errorf("SetObjectPath(%q) failed: %v", tt.path, err)
		}
		if !tt.valid {
			if err == nil {
				t.Errorf("SetObjectPath(%q) should have failed", tt.path)
			} else if ep.ObjectPath() != DefaultObjectPath {
				t.Errorf("failed assignment mutated object path to %q", ep.ObjectPath())
			}
		}
	}
}

func TestSetInterface(t *testing.T) {
	tests := []struct {
		iface string
		valid bool
	}{
		{"us.timvideos.gstswitch.SwitchControllerInterface", true},
		{"a.b.c", true},
		{"", false},
		{"nodots", false},
		{"one.dot", false},
	}

	for _, tt := range tests {
		ep := New()
		err := ep.SetInterface(tt.iface)
		if tt.valid && err != nil {
			t.Errorf("SetInterface(%q) failed: %v", tt.iface, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("SetInterface(%q) should have failed", tt.iface)
		}
	}
}

func TestSetBusNameAcceptsAnything(t *testing.T) {
	ep := New()
	if err := ep.SetBusName(""); err != nil {
		t.Fatalf("clearing bus name failed: %v", err)
	}
	if ep.BusName() != "" {
		t.Errorf("bus name not cleared: %q", ep.BusName())
	}
	if err := ep.SetBusName("us.timvideos.gstswitch"); err != nil {
		t.Fatalf("setting bus name failed: %v", err)
	}
}

func TestComplete(t *testing.T) {
	if err := New().Complete(); err != nil {
		t.Errorf("default endpoint should be complete: %v", err)
	}

	// A peer endpoint without a bus name is still complete.
	ep := New()
	ep.SetBusName("")
	if err := ep.Complete(); err != nil {
		t.Errorf("peer endpoint should be complete: %v", err)
	}

	var empty Endpoint
	if err := empty.Complete(); err == nil {
		t.Error("zero endpoint should not be complete")
	}
}
