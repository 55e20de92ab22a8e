package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	cause := errors.New("disk full")

	cases := []struct {
		err    error
		target error
		want   bool
	}{
		{ErrTransientStore.Wrap(cause), ErrTransientStore, true},
		{ErrInvalidRange.Fmt("2024-01-01", "2024-02-01"), ErrInvalidRange, true},
		{fmt.Errorf("flush: %w", ErrTransientStore.Wrap(cause)), ErrTransientStore, true},
		{ErrInvalidRange.Fmt("a", "b"), ErrTransientStore, false},
		{cause, ErrTransientStore, false},
	}

	for i, tc := range cases {
		if got := errors.Is(tc.err, tc.target); got != tc.want {
			t.Errorf("case %d: errors.Is(%v, %v) = %v, want %v", i, tc.err, tc.target, got, tc.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")

	err := ErrTransientStore.Wrap(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}

	want := "watch store unavailable: disk full"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
