package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks a malformed type registry.
	ErrConfiguration = errors.New("invalid type registry")
	// ErrStorage marks a failed canonical storage operation during commit.
	ErrStorage = errors.New("storage failure")
	// ErrUnknownType is returned when a record type is not registered.
	ErrUnknownType = errors.New("unknown entity type")
	// ErrIdentityImmutable is returned when a resolved record is bound to a second id.
	ErrIdentityImmutable = errors.New("canonical identity already resolved")
	// ErrNoSubject is returned when a container lacks a resolved subject record.
	ErrNoSubject = errors.New("container has no resolved subject record")
	// ErrRunInProgress is returned when a device already has a run executing.
	ErrRunInProgress = errors.New("a run for this device is already in progress")
)

// ConfigurationError describes why a type registry was rejected.
type ConfigurationError struct {
	Reason string
	Types  []TypeName
}

func (e *ConfigurationError) Error() string {
	if len(e.Types) == 0 {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
	}
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = string(t)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Reason, strings.Join(names, " -> "))
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// StorageError wraps a storage failure with the record and phase it occurred in.
type StorageError struct {
	Type TypeName
	Key  string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s %s(%q): %v", ErrStorage, e.Op, e.Type, e.Key, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

func storageError(rec *Record, op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Type: rec.Type(), Key: rec.Key(), Op: op, Err: err}
}
