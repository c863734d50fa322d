package main

import "errors"

// exitCodeError carries a child process exit status through cobra so the CLI
// can exit with the same code without printing a redundant error message.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return "exit status"
}

func asExitCodeError(err error, target **exitCodeError) bool {
	return errors.As(err, target)
}
