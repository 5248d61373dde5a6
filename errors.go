package hxfaces

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for component and lifecycle operations.
var (
	ErrAbortProcessing      = errors.New("hxfaces: event processing aborted")
	ErrIllegalState         = errors.New("hxfaces: illegal state")
	ErrInvalidID            = errors.New("hxfaces: invalid component id")
	ErrInvalidExpression    = errors.New("hxfaces: invalid search expression")
	ErrNotNamingContainer   = errors.New("hxfaces: component is not a naming container")
	ErrNotSerializable      = errors.New("hxfaces: value is not serializable")
	ErrUnknownComponentType = errors.New("hxfaces: unknown component type")
	ErrViewExpired          = errors.New("hxfaces: view state expired")
	ErrViewNotFound         = errors.New("hxfaces: view not found")
	ErrDecryptFailed        = errors.New("hxfaces: view state decryption failed")
	ErrSignatureInvalid     = errors.New("hxfaces: view state signature verification failed")
	ErrInvalidFormat        = errors.New("hxfaces: invalid view state format")
)

// AbortProcessing wraps err so that it stops only the listeners of the event
// currently being broadcast. The returned error matches ErrAbortProcessing.
func AbortProcessing(err error) error {
	if err == nil {
		return ErrAbortProcessing
	}
	return fmt.Errorf("%w: %w", ErrAbortProcessing, err)
}

// IsAbortProcessing checks if err aborts a single event broadcast.
func IsAbortProcessing(err error) bool {
	return errors.Is(err, ErrAbortProcessing)
}

// IsViewExpired checks if err reports a view whose saved state is gone.
func IsViewExpired(err error) bool {
	return errors.Is(err, ErrViewExpired)
}

// IsNotFound checks if err reports an unknown view.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrViewNotFound)
}

// IsDecryptionError checks if err is a view state decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrInvalidFormat)
}

// DuplicateIDError reports client ids used by more than one component of the
// same view.
type DuplicateIDError struct {
	ClientIDs []string
}

func (e *DuplicateIDError) Error() string {
	ids := append([]string(nil), e.ClientIDs...)
	sort.Strings(ids)
	return "hxfaces: duplicate component ids: " + strings.Join(ids, ", ")
}

// ConverterError is returned by converters that cannot convert a submitted value.
type ConverterError struct {
	Message Message
	Err     error
}

func (e *ConverterError) Error() string {
	if e.Err != nil {
		return "hxfaces: conversion failed: " + e.Err.Error()
	}
	return "hxfaces: conversion failed: " + e.Message.Summary
}

func (e *ConverterError) Unwrap() error { return e.Err }

// ValidatorError is returned by validators that reject a converted value.
type ValidatorError struct {
	Message Message
}

func (e *ValidatorError) Error() string {
	return "hxfaces: validation failed: " + e.Message.Summary
}

// illegalState builds an ErrIllegalState with context.
func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}
