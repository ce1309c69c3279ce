package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrForgedRequest is raised when request proof (csrf token) is missing or doesn't match the session
var ErrForgedRequest = errors.New("request could not be verified, please reload the form and try again")

// BusinessErr is user-facing error bound to some target (field, entity)
type BusinessErr struct {
	target  string
	message string
}

func (e *BusinessErr) Error() string {
	return e.message
}

// Target returns name of the field or entity error relates to
func (e *BusinessErr) Target() string {
	return e.target
}

func (e *BusinessErr) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Target  string `json:"target"`
		Message string `json:"message"`
	}{Target: e.target, Message: e.message})
}

// NewBusinessErr builds new BusinessErr
func NewBusinessErr(target string, msg string) error {
	return &BusinessErr{
		target:  target,
		message: msg,
	}
}

// DuplicateEntryErr is raised by storage when unique key is already taken
type DuplicateEntryErr struct {
	BusinessErr
	key string
}

// Key returns duplicated key value
func (e *DuplicateEntryErr) Key() string {
	return e.key
}

// NewDuplicateEntryErr builds new DuplicateEntryErr
func NewDuplicateEntryErr(target, key string) *DuplicateEntryErr {
	return &DuplicateEntryErr{
		BusinessErr: BusinessErr{
			target:  target,
			message: fmt.Sprintf("%s %s is already registered, submit the form as an update instead", target, key),
		},
		key: key,
	}
}

// EntryNotFoundErr is raised when requested entry doesn't exist
type EntryNotFoundErr struct {
	message string
}

func (e *EntryNotFoundErr) Error() string {
	return e.message
}

// NewEntryNotFoundErr builds new EntryNotFoundErr
func NewEntryNotFoundErr(msg string) *EntryNotFoundErr {
	return &EntryNotFoundErr{message: msg}
}

// StorageErr is transient failure of underlying storage (connection, timeout, I/O).
// Error message contains details and must not be shown to end user.
type StorageErr struct {
	op    string
	cause error
}

func (e *StorageErr) Error() string {
	return fmt.Sprintf("storage failure on %s - %v", e.op, e.cause)
}

func (e *StorageErr) Unwrap() error {
	return e.cause
}

// NewStorageErr builds new StorageErr
func NewStorageErr(op string, cause error) *StorageErr {
	return &StorageErr{op: op, cause: cause}
}

// MalformedQueryErr means query was rejected by storage as invalid, it is a programming defect
type MalformedQueryErr struct {
	op    string
	cause error
}

func (e *MalformedQueryErr) Error() string {
	return fmt.Sprintf("malformed query on %s - %v", e.op, e.cause)
}

func (e *MalformedQueryErr) Unwrap() error {
	return e.cause
}

// NewMalformedQueryErr builds new MalformedQueryErr
func NewMalformedQueryErr(op string, cause error) *MalformedQueryErr {
	return &MalformedQueryErr{op: op, cause: cause}
}
