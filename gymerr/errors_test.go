package gymerr

import (
	"errors"
	"testing"
)

func TestVersionErrorMessages(t *testing.T) {
	t.Run("deprecated", func(t *testing.T) {
		err := &VersionError{Requested: "NormalizeRewardV0", Family: "NormalizeReward", Latest: 1, Deprecated: true}
		want := "NormalizeRewardV0 is now deprecated, use NormalizeRewardV1 instead"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
		if !errors.Is(err, ErrVersion) {
			t.Errorf("expected version error to wrap ErrVersion")
		}
	})
	t.Run("wrong", func(t *testing.T) {
		err := &VersionError{Requested: "ClipRewardV3", Family: "ClipReward", Latest: 0}
		want := "ClipRewardV3 is the wrong version number, use ClipRewardV0 instead"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})
	t.Run("invalid", func(t *testing.T) {
		err := &VersionError{Requested: "ClipReward", Family: "ClipReward", Latest: 0, Invalid: true}
		want := "ClipReward is not a valid version number, use ClipRewardV0 instead"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})
}

func TestLookupHierarchy(t *testing.T) {
	for _, err := range []error{ErrNameNotFound, ErrVersionNotFound, ErrUnknownWrapper, ErrStackNotFound, ErrInstanceNotFound} {
		if !errors.Is(err, ErrLookup) {
			t.Errorf("%v does not wrap ErrLookup", err)
		}
	}
}

func TestArgumentError(t *testing.T) {
	err := Argument("DelayObservationV0", "delay", "The delay needs to be greater than zero, actual value: %d", -1)
	if !errors.Is(err, ErrConstruction) {
		t.Errorf("argument error should wrap ErrConstruction")
	}
	want := "DelayObservationV0(delay): The delay needs to be greater than zero, actual value: -1"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	seedErr := &SeedTypeError{Actual: "float64"}
	if !errors.Is(seedErr, ErrConstruction) {
		t.Errorf("seed type error should wrap ErrConstruction")
	}
}
