package repository

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrCorruptRecord = errors.New("corrupt record")
	ErrClosed        = errors.New("store closed")

	// ErrSkipWrite is returned by an Update callback to leave the record untouched.
	ErrSkipWrite = errors.New("skip write")
)
