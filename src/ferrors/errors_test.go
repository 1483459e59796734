package ferrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/feedkeeper/feedkeeper/src/ferrors"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	base := ferrors.New(ferrors.NotFound, "FindPackage", "Some.Pkg 1.0.0")
	wrapped := fmt.Errorf("controller: %w", base)

	kind, ok := ferrors.KindOf(wrapped)
	if !ok || kind != ferrors.NotFound {
		t.Fatalf("KindOf(wrapped) = %v, %v, want NotFound, true", kind, ok)
	}
}

func TestKindOfFalseForPlainError(t *testing.T) {
	if _, ok := ferrors.KindOf(errors.New("boom")); ok {
		t.Fatalf("KindOf(plain error) = true, want false")
	}
}

func TestIsMatchesOnKindOnly(t *testing.T) {
	err := ferrors.Wrap(ferrors.Internal, "cache.Load", errors.New("disk full"))
	if !errors.Is(err, ferrors.New(ferrors.Internal, "", "")) {
		t.Errorf("errors.Is should match on Kind alone")
	}
	if errors.Is(err, ferrors.New(ferrors.NotFound, "", "")) {
		t.Errorf("errors.Is should not match a different Kind")
	}
}

func TestWrapfFormatsMessageAndUnwraps(t *testing.T) {
	cause := errors.New("cause")
	err := ferrors.Wrapf(ferrors.InvalidArgument, "AddPackage", cause, "id %q is empty", "")
	if err.Msg != `id "" is empty` {
		t.Errorf("Msg = %q", err.Msg)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
}
