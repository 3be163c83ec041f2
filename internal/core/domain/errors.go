package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrTrackerNotFound     = errors.New("tracker not found")
	ErrDuplicateID         = errors.New("tracker id already exists")
	ErrDuplicateCompletion = errors.New("tracker already completed on this day")
	ErrRecordNotFound      = errors.New("completion record not found")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrStorageFailure      = errors.New("storage failure")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// Validation failures. All of them match ErrValidation through errors.Is.
var (
	ErrLabelEmpty          = validationError("tracker label cannot be empty")
	ErrLabelTooLong        = validationError(fmt.Sprintf("tracker label is too long (max %d chars)", MaxLabelLen))
	ErrEmojiMissing        = validationError("tracker emoji is required")
	ErrColorMissing        = validationError("tracker color is required")
	ErrCategoryMissing     = validationError("tracker category is required")
	ErrScheduleEmpty       = validationError("habit schedule must contain at least one weekday")
	ErrScheduleKindChanged = validationError("cannot turn a habit into an irregular event or vice versa")
	ErrInvalidWeekday      = validationError("invalid weekday (must be 0-6)")
	ErrInvalidTrackerID    = validationError("tracker id is required")
	ErrFutureCompletion    = validationError("cannot complete a tracker on a future day")
	ErrPasscodeTooShort    = validationError("passcode must be at least 8 characters long")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// StorageError reports a durable store operation that did not take effect.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}
