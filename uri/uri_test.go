package uri

import (
	"errors"
	"strings"
	"testing"
)

func TestAbsolute(t *testing.T) {
	tests := []struct {
		base, ref string
		want      string
		err       error
	}{
		{"", "http://svc/Orders(1)", "http://svc/Orders(1)", nil},
		{"http://svc/root/", "Orders(1)", "http://svc/root/Orders(1)", nil},
		{"http://svc/root/", "/Orders(1)", "http://svc/Orders(1)", nil},
		{"http://svc/root/x", "../y", "http://svc/y", nil},
		{"", "Orders(1)", "", ErrNoBase},
		{"root/", "Orders(1)", "", ErrRelative},
		{"", "http://[::1", "", ErrBadURI},
	}
	for _, tt := range tests {
		got, err := Absolute(tt.base, tt.ref)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("%q %q: expected %v, got %v", tt.base, tt.ref, tt.err, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q %q: got %q %v want %q", tt.base, tt.ref, got, err, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve(nil, "", "Orders(1)", false)
	if err != nil || got != "Orders(1)" {
		t.Errorf("relative kept: %q %v", got, err)
	}
	if _, err := Resolve(nil, "", "Orders(1)", true); !errors.Is(err, ErrNoBase) {
		t.Errorf("expected ErrNoBase, got %v", err)
	}
	r := ResolverFunc(func(base, ref string) (string, bool) {
		if strings.HasPrefix(ref, "~/") {
			return "http://alias/" + ref[2:], true
		}
		return "", false
	})
	got, err = Resolve(r, "", "~/Orders", true)
	if err != nil || got != "http://alias/Orders" {
		t.Errorf("custom resolver: %q %v", got, err)
	}
	got, err = Resolve(r, "http://svc/", "Orders", true)
	if err != nil || got != "http://svc/Orders" {
		t.Errorf("fallback: %q %v", got, err)
	}
}
