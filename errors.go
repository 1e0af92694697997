package djconf

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrInvalidConfigValue reports a raw environment string that does not
	// coerce to the declared kind.
	ErrInvalidConfigValue = errors.New("invalid config value")
	// ErrUnresolvableReference reports a deferred value whose computation
	// failed, usually because a setting it reads is missing or malformed.
	ErrUnresolvableReference = errors.New("unresolvable reference")
	// ErrConfigKeyCollision reports a nested assignment that would descend
	// through a value that is not a group.
	ErrConfigKeyCollision = errors.New("config key collision")
	// ErrImportResolution reports a dotted path with nothing registered.
	ErrImportResolution = errors.New("import resolution failed")
	// ErrDependencyCycle reports deferred values that depend on each other.
	ErrDependencyCycle = errors.New("dependency cycle")
	// ErrKeyNotFound reports a lookup of an absent key.
	ErrKeyNotFound = errors.New("key not found")
)

// Error wraps resolution errors with the setting they concern.
type Error struct {
	Setting string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("djconf: %s: %v", e.Setting, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// settingError wraps err for setting unless it already names one.
func settingError(setting string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Setting: setting, Err: err}
}

// isClassified reports whether err already carries one of the sentinels.
func isClassified(err error) bool {
	for _, target := range []error{
		ErrInvalidConfigValue,
		ErrUnresolvableReference,
		ErrConfigKeyCollision,
		ErrImportResolution,
		ErrDependencyCycle,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
