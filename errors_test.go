package hxfaces

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors are distinct
	errs := []error{
		ErrAbortProcessing,
		ErrIllegalState,
		ErrInvalidID,
		ErrInvalidExpression,
		ErrNotNamingContainer,
		ErrNotSerializable,
		ErrUnknownComponentType,
		ErrViewExpired,
		ErrViewNotFound,
		ErrDecryptFailed,
		ErrSignatureInvalid,
		ErrInvalidFormat,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		check  func(error) bool
		err    error
		expect bool
	}{
		{"abort nil", IsAbortProcessing, nil, false},
		{"abort wrapped", IsAbortProcessing, AbortProcessing(errors.New("stop")), true},
		{"abort bare", IsAbortProcessing, AbortProcessing(nil), true},
		{"abort other", IsAbortProcessing, errors.New("other"), false},
		{"expired", IsViewExpired, fmt.Errorf("restore: %w", ErrViewExpired), true},
		{"expired other", IsViewExpired, ErrViewNotFound, false},
		{"not found", IsNotFound, fmt.Errorf("%w: %q", ErrViewNotFound, "x"), true},
		{"not found other", IsNotFound, ErrViewExpired, false},
		{"decrypt", IsDecryptionError, ErrDecryptFailed, true},
		{"signature", IsDecryptionError, ErrSignatureInvalid, true},
		{"format", IsDecryptionError, ErrInvalidFormat, true},
		{"decrypt other", IsDecryptionError, ErrViewExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.check(tt.err); result != tt.expect {
				t.Errorf("check(%v) = %v, want %v", tt.err, result, tt.expect)
			}
		})
	}
}

func TestAbortProcessingKeepsCause(t *testing.T) {
	cause := errors.New("cause")
	if err := AbortProcessing(cause); !errors.Is(err, cause) {
		t.Errorf("AbortProcessing(cause) = %v, does not wrap the cause", err)
	}
}

func TestDuplicateIDErrorSortsIDs(t *testing.T) {
	err := &DuplicateIDError{ClientIDs: []string{"f:b", "f:a"}}
	want := "hxfaces: duplicate component ids: f:a, f:b"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.ClientIDs[0] != "f:b" {
		t.Error("Error() reordered the ids in place")
	}
}

func TestConverterErrorUnwraps(t *testing.T) {
	cause := errors.New("strconv")
	err := &ConverterError{Message: ErrorMessage("bad", ""), Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConverterError does not unwrap to its cause")
	}
	if got := (&ConverterError{Message: ErrorMessage("bad", "")}).Error(); got != "hxfaces: conversion failed: bad" {
		t.Errorf("Error() = %q", got)
	}
}
