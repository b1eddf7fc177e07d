package service

import (
	"errors"
	"fmt"
)

var ErrBaselineMissing = errors.New("no samples to establish a baseline")

// LaunchError reports that the trigger executable could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
