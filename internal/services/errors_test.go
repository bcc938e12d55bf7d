package services_test

import (
	"errors"
	"strings"
	"testing"

	"asciireel/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIO, "store", "mkdir", "bucket 3", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"store", "mkdir", "bucket 3"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "operation failed") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", services.Wrap(services.ErrNotFound, "play", "discover", "empty", nil), "not_found"},
		{"validation", services.Wrap(services.ErrValidation, "play", "", "fps", nil), "validation"},
		{"configuration", services.Wrap(services.ErrConfiguration, "convert", "", "time base", nil), "configuration"},
		{"external", services.Wrap(services.ErrExternalTool, "decode", "", "", errors.New("exit 1")), "external_tool"},
		{"io", services.Wrap(services.ErrIO, "store", "", "", nil), "io"},
		{"plain", errors.New("x"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Kind(tt.err); got != tt.want {
				t.Fatalf("Kind = %q, want %q", got, tt.want)
			}
		})
	}
}
