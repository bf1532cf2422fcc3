package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the kind shared by every malformed-input error.
	ErrValidation = errors.New("validation failed")

	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Transfer errors
	ErrSameAccount   = fmt.Errorf("%w: cannot transfer to same account", ErrValidation)
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrValidation)

	// Storage errors
	ErrStorage          = errors.New("storage failure")
	ErrConcurrentUpdate = errors.New("concurrent update conflict")
)

// StorageError wraps a failure reported by the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err unless it is nil or already a domain error.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports every StorageError as ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
