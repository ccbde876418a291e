package main

import (
	"errors"

	"mcpshadow/internal/domain"
)

const (
	exitCodeFailure     = 1
	exitCodeManifest    = 2
	exitCodeInterrupted = 130
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

// exitInterrupted reports a scan cut short by a signal. The partial report
// has already been written, so nothing more is printed.
func exitInterrupted() error {
	return exitError{code: exitCodeInterrupted, silent: true}
}

// exitFor maps a command failure to a process exit code. Manifest failures
// get their own code so scripts can tell "nothing scanned" from other errors.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	var exitErr exitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if domain.IsFatal(err) {
		return exitError{code: exitCodeManifest, message: err.Error()}
	}
	return exitError{code: exitCodeFailure, message: err.Error()}
}
