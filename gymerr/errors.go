package gymerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction is returned when an environment, wrapper or space rejects its arguments
	ErrConstruction = errors.New("invalid construction arguments")
	// ErrVersion is the parent of all wrapper version errors
	ErrVersion = errors.New("invalid wrapper version")
	// ErrUnsafeDeserialization is returned when serialized text contains a callable
	// and the caller did not opt in to unsafe loading
	ErrUnsafeDeserialization = errors.New("serialized spec stack contains callables, unsafe loading not allowed")
	ErrLookup                = errors.New("lookup failed")
	ErrNameNotFound          = fmt.Errorf("%w: environment not found", ErrLookup)
	ErrVersionNotFound       = fmt.Errorf("%w: environment version not found", ErrLookup)
	ErrUnknownWrapper        = fmt.Errorf("%w: unknown wrapper", ErrLookup)
	ErrStackNotFound         = fmt.Errorf("%w: spec stack not found", ErrLookup)
	ErrInstanceNotFound      = fmt.Errorf("%w: instance not found", ErrLookup)
	ErrInvalidMask           = errors.New("invalid action mask")
	ErrMissingSpec           = errors.New("environment layer does not record a spec")
	ErrNotSerializable       = errors.New("value is not serializable")
	ErrInvalidWrapperName    = errors.New("wrapper name has no version suffix")
	ErrUnresolvedCallable    = errors.New("callable reference could not be resolved")
	ErrResetNeeded           = errors.New("cannot call step before reset")
	ErrMalformedStack        = errors.New("malformed serialized spec stack")
)

// ArgumentError describes a single rejected constructor argument
type ArgumentError struct {
	Owner   string
	Arg     string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("%s: %s", e.Owner, e.Message)
	}
	return fmt.Sprintf("%s(%s): %s", e.Owner, e.Arg, e.Message)
}

func (e *ArgumentError) Unwrap() error {
	return ErrConstruction
}

// Argument is a shorthand for building an ArgumentError
func Argument(owner, arg, format string, args ...interface{}) error {
	return &ArgumentError{
		Owner:   owner,
		Arg:     arg,
		Message: fmt.Sprintf(format, args...),
	}
}

// VersionError is returned when a wrapper is requested with a version
// other than the latest one of its family
type VersionError struct {
	Requested  string
	Family     string
	Latest     int
	Deprecated bool
	// Invalid is set when the requested name carries no parsable version
	Invalid bool
}

func (e *VersionError) Error() string {
	latest := fmt.Sprintf("%sV%d", e.Family, e.Latest)
	switch {
	case e.Deprecated:
		return fmt.Sprintf("%s is now deprecated, use %s instead", e.Requested, latest)
	case e.Invalid:
		return fmt.Sprintf("%s is not a valid version number, use %s instead", e.Requested, latest)
	default:
		return fmt.Sprintf("%s is the wrong version number, use %s instead", e.Requested, latest)
	}
}

func (e *VersionError) Unwrap() error {
	return ErrVersion
}

// SeedTypeError is returned when a space is seeded with a value that is
// neither nil, an integer nor a list of integers
type SeedTypeError struct {
	Actual string
}

func (e *SeedTypeError) Error() string {
	return fmt.Sprintf("Expected seed type: list, tuple, int or None, actual type: %s", e.Actual)
}

func (e *SeedTypeError) Unwrap() error {
	return ErrConstruction
}
